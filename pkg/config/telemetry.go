package config

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/dbsDevelops/f1-24-setup-recommender/log"
	"github.com/dbsDevelops/f1-24-setup-recommender/version"
)

const telemetryStdout = "stdout"

type Telemetry struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *trace.TracerProvider
}

// SetupTelemetry installs global meter and tracer providers.
// TelemetryEndpoint "stdout" exports to stdout, everything else is an OTLP gRPC endpoint.
func SetupTelemetry(ctx context.Context) (*Telemetry, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", "f1sr"),
		attribute.String("service.version", version.Version),
	)
	metricExporter, err := newMetricExporter(ctx)
	if err != nil {
		return nil, err
	}
	traceExporter, err := newTraceExporter(ctx)
	if err != nil {
		return nil, err
	}
	t := &Telemetry{
		meterProvider: metric.NewMeterProvider(
			metric.WithResource(res),
			metric.WithReader(metric.NewPeriodicReader(metricExporter,
				metric.WithInterval(15*time.Second)))),
		tracerProvider: trace.NewTracerProvider(
			trace.WithResource(res),
			trace.WithBatcher(traceExporter)),
	}
	otel.SetMeterProvider(t.meterProvider)
	otel.SetTracerProvider(t.tracerProvider)
	return t, nil
}

func newMetricExporter(ctx context.Context) (metric.Exporter, error) {
	if TelemetryEndpoint == telemetryStdout {
		return stdoutmetric.New()
	}
	return otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(TelemetryEndpoint),
		otlpmetricgrpc.WithInsecure())
}

func newTraceExporter(ctx context.Context) (trace.SpanExporter, error) {
	if TelemetryEndpoint == telemetryStdout {
		return stdouttrace.New()
	}
	return otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(TelemetryEndpoint),
		otlptracegrpc.WithInsecure())
}

func (t *Telemetry) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := errors.Join(
		t.meterProvider.Shutdown(ctx),
		t.tracerProvider.Shutdown(ctx))
	if err != nil {
		log.Warn("telemetry shutdown", log.ErrorField(err))
	}
}
