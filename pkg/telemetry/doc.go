// Package telemetry exports runtime events as Prometheus metrics and
// OpenTelemetry spans.
//
// Both Metrics and Spans implement state.Observer and binding.Observer:
//
//	metrics := telemetry.NewMetrics(telemetry.WithNamespace("myapp"))
//	store := state.New(state.Config{Observer: metrics})
//
// Metrics collected (with the default "rx" namespace):
//   - rx_state_writes_total: writes by result (applied, skipped, dropped)
//   - rx_state_middleware_errors_total: isolated middleware failures
//   - rx_state_notifications_total: notification cycles
//   - rx_state_deliveries_total: subscriber deliveries
//   - rx_state_subscriber_errors_total: isolated subscriber panics
//   - rx_state_batches_total: committed batches
//   - rx_state_batch_writes: queued writes per batch
//   - rx_state_batch_duration_seconds: commit duration
//   - rx_binding_runs_total: binding runs
//   - rx_binding_errors_total: binding failures
//   - rx_binding_run_duration_seconds: binding run duration
//   - rx_binding_dependencies: paths read per run
//
// Labels carry the first path segment only, keeping cardinality bounded.
// Expose the registry with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
package telemetry
