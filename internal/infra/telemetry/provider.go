// Package telemetry wires OpenTelemetry tracing for the gateway.
package telemetry

import (
	"context"
	"log/slog"

	"gateway/config"
	"gateway/internal/domain/lifecycle"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/fx"
)

const defaultServiceName = "auth-gateway"

// New registers the global tracer provider. Tracing is opt-in: without
// telemetry.enabled and an endpoint, a no-op provider is returned and nothing
// is exported.
func New(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (trace.TracerProvider, error) {
	if cfg.Telemetry == nil || !cfg.Telemetry.Enabled || cfg.Telemetry.Endpoint == "" {
		return noop.NewTracerProvider(), nil
	}

	tp, err := newTracerProvider(context.Background(), cfg.Telemetry.Endpoint, serviceName(cfg))
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
			defer cancel()

			logger.Info("Flushing trace exporter")

			return errors.Wrap(tp.Shutdown(shutdownCtx), "shutdown tracer provider")
		},
	})
	logger.Info("Trace export enabled", slog.String("endpoint", cfg.Telemetry.Endpoint))

	return tp, nil
}

func newTracerProvider(ctx context.Context, endpoint, service string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint))
	if err != nil {
		return nil, errors.Wrap(err, "create otlp exporter")
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(service)))
	if err != nil {
		return nil, errors.Wrap(err, "create trace resource")
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	), nil
}

func serviceName(cfg *config.Config) string {
	if cfg.Env.ServiceName != "" {
		return cfg.Env.ServiceName
	}

	return defaultServiceName
}
