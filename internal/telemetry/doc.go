// Package telemetry provides OpenTelemetry initialization and helpers
// for the reelbridge server and bot.
//
// Traces, logs and metrics are exported over OTLP/HTTP to a single
// collector endpoint, with optional auth headers.
package telemetry
