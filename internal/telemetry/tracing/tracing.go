package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var GlobalTracer = otel.Tracer("rebuild-web")

// EndSpan sets the span status from err and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "ok")
	}
	span.End()
}

// StartBackendSpan starts a client span for a single call to the ReBuild API.
func StartBackendSpan(ctx context.Context, op, method, path string) (context.Context, trace.Span) {
	return GlobalTracer.Start(
		ctx,
		"backend."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("backend.op", op),
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		),
	)
}
