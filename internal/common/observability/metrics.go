package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the OTel meter provider with a Prometheus exporter.
// Instruments cover reviewer mutations end to end (write + reconcile).
type Observability struct {
	meterProvider    *metric.MeterProvider
	meter            otelmetric.Meter
	mutationCounter  otelmetric.Int64Counter
	mutationDuration otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	mutationCounter, _ := meter.Int64Counter(
		"review.mutations",
		otelmetric.WithDescription("Number of reviewer mutations processed"),
	)

	mutationDuration, _ := meter.Float64Histogram(
		"review.mutation.duration",
		otelmetric.WithDescription("Reviewer mutation duration including reconciliation"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:    provider,
		meter:            meter,
		mutationCounter:  mutationCounter,
		mutationDuration: mutationDuration,
	}
}

// RecordMutation counts one reviewer mutation with its outcome.
func (o *Observability) RecordMutation(ctx context.Context, operation, status string) {
	if o != nil && o.mutationCounter != nil {
		o.mutationCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		))
	}
}

// RecordMutationDuration records how long one mutation took.
func (o *Observability) RecordMutationDuration(ctx context.Context, duration time.Duration, operation string) {
	if o != nil && o.mutationDuration != nil {
		o.mutationDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("operation", operation),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		o.meterProvider.Shutdown(ctx)
	}
}
