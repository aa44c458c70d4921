// Package telemetry wires request-scoped tracing hooks. The full
// OpenTelemetry SDK (OTLP exporters, batch span processor) isn't
// exercised by anything in this service yet, so this keeps only the
// noop provider registration — a later collector can be wired in
// without touching call sites, since they already go through
// otel.Tracer rather than a concrete exporter.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Init registers noop tracer/propagator providers so call sites can
// unconditionally pull a tracer from otel.Tracer(name).
func Init(_ context.Context) func(context.Context) error {
	otel.SetTracerProvider(tracenoop.NewTracerProvider())
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
	return func(context.Context) error { return nil }
}
