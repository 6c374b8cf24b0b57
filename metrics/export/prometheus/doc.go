// Package prometheus provides Prometheus collectors for goAccounts metrics.
//
// [NewPrometheusExporter] accepts a [goAccounts.Engine] and exposes an [http.Handler]
// that renders all goAccounts counters and histograms in Prometheus text exposition
// format. Counter names are prefixed goaccounts_*_total; the single histogram is
// goaccounts_resolve_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
