// Package infra holds the adapters behind the core interfaces: the schedule
// store, the MQTT change notifier, metrics sinks, logging and monitoring.
// Nothing under core imports these packages.
package infra
