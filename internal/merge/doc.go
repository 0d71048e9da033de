// Package merge orchestrates a multi-module documentation merge run.
//
// A run is a fixed pipeline of stages:
//
//	prepare_staging -> build_archives -> promote_assets -> merge_content -> merge_index -> cleanup_staging
//
// Atomic runs build into a sibling of the output directory and add a final
// publish_output stage that swaps it in.
//
// Stages run in order and the first fatal stage error stops the run, leaving
// the staging directory on disk for inspection. Warning stage errors are
// recorded in the Report and the run continues.
//
// A secondary module that has nothing to document is dropped from the run
// after build_archives: its content is not copied, it gets no sidebar entry
// and it is left out of includedArchiveIdentifiers, which then lists the main
// module and the secondaries that produced an archive.
package merge
