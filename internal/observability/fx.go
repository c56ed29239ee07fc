package observability

import (
	"github.com/smallbiznis/customerdesk/internal/observability/logger"
	"github.com/smallbiznis/customerdesk/internal/observability/metrics"
	"github.com/smallbiznis/customerdesk/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module wires logging, tracing and metrics from one Config. The tracer
// provider is forced at startup so otel globals are set before the HTTP
// engine builds its middleware.
var Module = fx.Module("observability",
	fx.Provide(LoadConfig),
	fx.Module("observability.logging",
		fx.Provide(
			func(cfg Config) logger.Config {
				return logger.Config{
					ServiceName:         cfg.ServiceName,
					Environment:         cfg.Environment,
					Version:             cfg.Version,
					Level:               cfg.LogLevel,
					Format:              cfg.LogFormat,
					Debug:               cfg.Debug(),
					IncludeCaller:       true,
					IncludeStackOnError: cfg.Debug(),
				}
			},
			logger.New,
		),
	),
	fx.Module("observability.tracing",
		fx.Provide(
			func(cfg Config) tracing.Config {
				return tracing.Config{
					Enabled:          cfg.OtelEnabled,
					ServiceName:      cfg.ServiceName,
					ServiceVersion:   cfg.Version,
					Environment:      cfg.Environment,
					ExporterEndpoint: cfg.OtelExporterEndpoint,
					ExporterProtocol: cfg.OtelExporterProtocol,
					SamplingRatio:    cfg.OtelSamplingRatio,
				}
			},
			tracing.NewProvider,
		),
		fx.Invoke(func(*sdktrace.TracerProvider) {}),
	),
	fx.Module("observability.metrics",
		fx.Provide(
			func(cfg Config) metrics.Config {
				return metrics.Config{
					Enabled:          cfg.OtelEnabled,
					ExporterEndpoint: cfg.OtelExporterEndpoint,
					ExporterProtocol: cfg.OtelExporterProtocol,
					ServiceName:      cfg.ServiceName,
					Environment:      cfg.Environment,
				}
			},
			metrics.NewProvider,
			metrics.New,
			metrics.NewHTTPMetrics,
		),
	),
)

// TracingMiddlewareConfig builds the HTTP tracing options. The classifier and
// API key result key come from the server, which owns error mapping.
func (c Config) TracingMiddlewareConfig(classify func(error) (string, string), apiKeyResultKey string) tracing.MiddlewareConfig {
	return tracing.MiddlewareConfig{
		SkipPaths:       c.TraceSkipPaths,
		ErrorClassifier: classify,
		APIKeyResultKey: apiKeyResultKey,
	}
}
