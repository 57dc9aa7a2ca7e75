package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceContext is the W3C trace context in its header form. It is stored
// alongside rows that are processed later by another goroutine or process.
type TraceContext struct {
	Parent string
	State  string
}

// CaptureTraceContext returns the trace context of the span active in ctx.
// The zero value means no span was active.
func CaptureTraceContext(ctx context.Context) TraceContext {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return TraceContext{Parent: carrier.Get("traceparent"), State: carrier.Get("tracestate")}
}

func (tc TraceContext) IsZero() bool {
	return tc.Parent == "" && tc.State == ""
}

// Restore returns ctx carrying tc as its remote parent span.
func (tc TraceContext) Restore(ctx context.Context) context.Context {
	if tc.IsZero() {
		return ctx
	}
	carrier := propagation.MapCarrier{"traceparent": tc.Parent}
	if tc.State != "" {
		carrier["tracestate"] = tc.State
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
