package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"

	"shop-concierge/internal/common/logger"
)

// Observability owns the OpenTelemetry meter provider. Instruments are
// exported through the Prometheus registry served on /metrics.
type Observability struct {
	meterProvider *metric.MeterProvider
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	allocations   otelmetric.Int64Counter
	allocSize     otelmetric.Int64Histogram
}

func New(serviceName string, log logger.Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter, metrics disabled", map[string]interface{}{"error": err.Error()})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	allocations, _ := meter.Int64Counter(
		"booking.allocations",
		otelmetric.WithDescription("Result allocations by plan and outcome"),
	)
	allocSize, _ := meter.Int64Histogram(
		"booking.allocation.size",
		otelmetric.WithDescription("Number of shops returned per allocation"),
	)

	return &Observability{
		meterProvider: provider,
		jobCounter:    jobCounter,
		jobDuration:   jobDuration,
		allocations:   allocations,
		allocSize:     allocSize,
	}
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

// RecordAllocation counts one results request. size is the number of shops
// returned, zero on failure.
func (o *Observability) RecordAllocation(ctx context.Context, plan, outcome string, size int) {
	if o == nil || o.allocations == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("plan", plan),
		attribute.String("outcome", outcome),
	)
	o.allocations.Add(ctx, 1, attrs)
	if size > 0 && o.allocSize != nil {
		o.allocSize.Record(ctx, int64(size), attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
