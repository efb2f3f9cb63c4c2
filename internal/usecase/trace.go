package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
)

var (
	usecaseTracer   = otel.Tracer("fantasy-skiing/internal/usecase")
	usecaseNoopSpan = trace.SpanFromContext(context.Background())
)

// startUsecaseSpan only starts a child span; without a sampled parent in
// ctx the pipeline stays untraced.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if name == "" || !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, usecaseNoopSpan
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func raceAttributes(r race.Race) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("race.index", r.Index),
		attribute.String("race.discipline", string(r.Discipline)),
		attribute.String("race.gender", string(r.Gender)),
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
