// Package workspace owns the on-disk layout of a merge run: the final output
// root, the staging area holding one archive per module, and the fixed
// directory skeleton of the merged archive.
//
// Staging defaults to a "cache" directory inside the output root. Prepare wipes
// both before a run so re-running on the same output is idempotent; Cleanup
// removes staging once the merged archive is complete. A failed run leaves
// staging in place for inspection.
package workspace
