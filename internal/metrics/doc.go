// Package metrics records per-stage and per-run metrics for the publish pipeline.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics never need nil checks:
//
//	p := pipeline.New(cfg).WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// A CLI run has no scrape endpoint; PrometheusRecorder.WriteTextfile writes the
// registry in text exposition format for the node-exporter textfile collector.
package metrics
