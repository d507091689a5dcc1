package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ichra-workers/internal/common/config"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	scoreHistogram otelmetric.Float64Histogram
}

type options struct {
	registerer promclient.Registerer
}

type Option func(*options)

// WithRegisterer sends exported metrics to reg instead of the default registry.
func WithRegisterer(reg promclient.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// New installs the global meter provider and, when tracing is enabled,
// a Jaeger-backed tracer provider.
func New(cfg config.ObservabilityConfig, opts ...Option) (*Observability, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "ichra-workers"
	}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	var exporterOpts []prometheus.Option
	if o.registerer != nil {
		exporterOpts = append(exporterOpts, prometheus.WithRegisterer(o.registerer))
	}
	exporter, err := prometheus.New(exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(provider)

	obs := &Observability{meterProvider: provider}
	if err := obs.initInstruments(serviceName); err != nil {
		return nil, err
	}

	if cfg.Tracing.Enabled {
		tp, err := newTracerProvider(cfg, res)
		if err != nil {
			_ = provider.Shutdown(context.Background())
			return nil, err
		}
		otel.SetTracerProvider(tp)
		obs.tracerProvider = tp
	}

	return obs, nil
}

func newTracerProvider(cfg config.ObservabilityConfig, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Tracing.JaegerEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("create jaeger exporter: %w", err)
	}

	ratio := cfg.Tracing.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	), nil
}

func (o *Observability) initInstruments(serviceName string) error {
	o.meter = o.meterProvider.Meter(serviceName)

	var err error
	if o.jobCounter, err = o.meter.Int64Counter(
		"jobs_processed",
		otelmetric.WithDescription("Number of jobs processed"),
	); err != nil {
		return err
	}
	if o.jobDuration, err = o.meter.Float64Histogram(
		"jobs_duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		return err
	}
	o.scoreHistogram, err = o.meter.Float64Histogram(
		"recommendation_total_score",
		otelmetric.WithDescription("Total score of recommended plans"),
	)
	return err
}

// Tracer returns a tracer from the installed provider, or a no-op tracer
// when tracing is disabled.
func (o *Observability) Tracer(name string) trace.Tracer {
	if o == nil || o.tracerProvider == nil {
		return otel.Tracer(name)
	}
	return o.tracerProvider.Tracer(name)
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

func (o *Observability) RecordRecommendationScore(ctx context.Context, planID string, score float64) {
	if o == nil || o.scoreHistogram == nil {
		return
	}
	o.scoreHistogram.Record(ctx, score, otelmetric.WithAttributes(attribute.String("plan_id", planID)))
}

func (o *Observability) Shutdown() error {
	if o == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if o.tracerProvider != nil {
		errs = append(errs, o.tracerProvider.Shutdown(ctx))
	}
	if o.meterProvider != nil {
		errs = append(errs, o.meterProvider.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
