// Package metrics provides observability hooks for the documentation pipeline.
//
// The package implements the Null Object pattern so components never need
// nil checks: everything defaults to NoopRecorder, whose no-op methods
// inline to nothing. When metrics are wanted, swap in a real implementation:
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	pipeline := generate.NewPipeline(deps).WithRecorder(recorder)
//
// Components receive a Recorder through dependency injection and record
// stage durations, generation outcomes, fetch and model-request timings,
// and HTTP request counts. HTTPHandler exposes the registry for scraping.
package metrics
