// Package observability wires OpenTelemetry tracing and metrics into the
// connector.
//
// Setup starts OTLP/HTTP exporters for whichever of tracing and metrics is
// enabled. Without it every span and instrument goes to the global no-op
// providers, so instrumented code needs no conditionals.
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability, "apifykit", version.Version)
//	defer shutdown(ctx)
//
// Metrics counts connector operations and poll behaviour. InstrumentPoll
// chains hooks onto a resilience.PollConfig:
//
//	pc = metrics.InstrumentPoll(ctx, "get_dataset", pc)
package observability
