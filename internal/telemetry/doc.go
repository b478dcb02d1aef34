// Package telemetry provides the engine's observability surface.
//
// Includes:
//   - logging.go — structured logging via slog
//   - metrics.go — Prometheus metrics, subscribed to the Event Stream
//
// cmd/scenario-server uses both: it sets up logging with SetupLogger and
// exposes metrics on /metrics. cmd/scenario-cli uses neither.
package telemetry
