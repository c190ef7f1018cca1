package server

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

type ShutdownFn func(context.Context) error

// InitTelemetry installs the meter provider on reader and, when
// opts.OTLPEndpoint is set, a trace provider exporting to it. The returned
// func shuts both down.
func InitTelemetry(ctx context.Context, opts Opts, reader metric.Reader) (ShutdownFn, error) {
	meterShutdownFn, err := InitMeterProvider(ctx, opts.ServiceName, reader)
	if err != nil {
		return nil, err
	}
	if opts.OTLPEndpoint == "" {
		return meterShutdownFn, nil
	}

	exp, err := NewOTLPTraceExporter(ctx, opts.OTLPEndpoint)
	if err != nil {
		return nil, errors.Join(err, meterShutdownFn(ctx))
	}
	traceShutdownFn, err := InitTraceProvider(ctx, opts.ServiceName, exp)
	if err != nil {
		return nil, errors.Join(err, meterShutdownFn(ctx))
	}
	return func(ctx context.Context) error {
		return errors.Join(traceShutdownFn(ctx), meterShutdownFn(ctx))
	}, nil
}

// assetStreams keeps the asset store counters to their op/result labels.
var assetStreams = metric.NewView(
	metric.Instrument{Name: "asset.*"},
	metric.Stream{AttributeFilter: attribute.NewAllowKeysFilter("op", "result")},
)

func InitMeterProvider(ctx context.Context, name string, reader metric.Reader) (ShutdownFn, error) {
	res, err := telemetryResource(ctx, name)
	if err != nil {
		return nil, err
	}
	meterProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(reader),
		metric.WithView(assetStreams))
	otel.SetMeterProvider(meterProvider)
	return meterProvider.Shutdown, nil
}

func InitTraceProvider(ctx context.Context, name string, spanExporter trace.SpanExporter) (ShutdownFn, error) {
	res, err := telemetryResource(ctx, name)
	if err != nil {
		return nil, err
	}
	bsp := trace.NewBatchSpanProcessor(spanExporter)
	tracerProvider := trace.NewTracerProvider(
		trace.WithSampler(trace.TraceIDRatioBased(1)),
		trace.WithResource(res),
		trace.WithSpanProcessor(bsp),
	)
	otel.SetTracerProvider(tracerProvider)
	return tracerProvider.Shutdown, nil
}

func telemetryResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			// the service name used to display traces in backend
			semconv.ServiceNameKey.String(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry resource: %w", err)
	}
	return res, nil
}

func NewPrometheusExporter() (*prometheus.Exporter, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("initialize prometheus exporter: %w", err)
	}
	return exporter, nil
}

func NewOTLPTraceExporter(ctx context.Context, otlpEndpoint string) (*otlptrace.Exporter, error) {
	traceClient := otlptracegrpc.NewClient(
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithEndpoint(otlpEndpoint))
	traceExp, err := otlptrace.New(ctx, traceClient)
	if err != nil {
		return nil, fmt.Errorf("create the collector trace exporter: %w", err)
	}
	return traceExp, nil
}
