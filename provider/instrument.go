package provider

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mohammad-safakhou/askcampus/internal/telemetry"
)

type instrumented struct {
	next    CompletionService
	name    string
	metrics *telemetry.Metrics
	tracer  trace.Tracer
}

// Instrument records a span and a completion_calls_total sample per call.
func Instrument(next CompletionService, name string, metrics *telemetry.Metrics) CompletionService {
	return &instrumented{next: next, name: name, metrics: metrics, tracer: otel.Tracer("askcampus/provider")}
}

func (i *instrumented) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := i.tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.provider", i.name),
		attribute.Int("llm.prompt_chars", len(prompt)),
	))
	defer span.End()

	out, err := i.next.Complete(ctx, prompt)
	i.metrics.ObserveCompletion(i.name, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.completion_chars", len(out)))
	return out, nil
}
