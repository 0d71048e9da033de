// Package metrics records merge run metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	recorder := metrics.NewPrometheusRecorder(nil)
//	merger := merge.New(cfg, merge.WithRecorder(recorder))
//
// A PrometheusRecorder can be exported once per run to a node_exporter
// textfile (WriteTextfile) or scraped over HTTP while previewing (HTTPHandler).
package metrics
