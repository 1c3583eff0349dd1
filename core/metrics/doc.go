// Package metrics defines the sinks recording scheduler activity: mutation
// outcomes, validation latency, conflicts found and expansion sizes.
// Implementations live in infra/metrics and are created from configuration
// through the factory registry; several configured sinks are combined into
// a MultiSink.
package metrics
