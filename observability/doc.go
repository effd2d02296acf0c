// Package observability wires OpenTelemetry tracing and metrics into
// backendkit.
//
// HTTP middleware and the scheduler use the global providers, which are
// no-ops until Setup installs OTLP exporters:
//
//	backend:
//	  telemetry:
//	    enabled: true
//	    endpoint: localhost:4318
//	    sampleRate: 0.5
//
//	tel, err := observability.Setup(ctx, cfg, rootLifecycle, log)
//
// Spans:
//
//	ctx, span := observability.StartSpan(ctx, "catalog.refresh")
//	defer span.End()
package observability
