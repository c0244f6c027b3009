// Package export implements the Export Sink component.
//
// The sink takes a read-only snapshot from the recorder, always logs it
// locally and forwards it to a Reporter when one is configured and the
// process runs in production. Reporters:
//   - HTTPReporter: POSTs the JSON snapshot to a collector
//   - PrometheusReporter: mirrors the snapshot into gauges
//   - PostgresReporter: appends one row per snapshot to a table
//   - Multi: fans a snapshot out to several reporters
//
// Reporter failures are logged and never surface to the caller.
package export
