package observability

import (
	"github.com/NewAcropolis/api-sub000/internal/observability/logger"
	"github.com/NewAcropolis/api-sub000/internal/observability/metrics"
	"github.com/NewAcropolis/api-sub000/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(LoadConfig),

	// logging, including the SQL logger pkg/db installs on gorm
	fx.Provide(
		provideLoggerConfig,
		logger.New,
		provideGormLoggerConfig,
	),

	fx.Provide(
		provideTracingConfig,
		tracing.NewProvider,
	),

	// OTLP pool metrics plus the Prometheus IPN and HTTP collectors
	fx.Provide(
		provideMetricsConfig,
		metrics.NewProvider,
		metrics.New,
		metrics.IPNWithConfig,
		metrics.NewHTTPMetrics,
	),

	// The tracer provider installs itself as the global one; nothing else asks for it.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

func provideLoggerConfig(cfg Config) logger.Config {
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
}

func provideGormLoggerConfig(cfg Config) logger.GormLoggerConfig {
	gormCfg := logger.DefaultGormLoggerConfig()
	gormCfg.Level = cfg.SQLLogLevel
	if cfg.SlowQuery > 0 {
		gormCfg.SlowThreshold = cfg.SlowQuery
	}
	return gormCfg
}

func provideTracingConfig(cfg Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.OtelEnabled,
		ServiceName:      cfg.ServiceName,
		ServiceVersion:   cfg.Version,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		SamplingRatio:    cfg.OtelSamplingRatio,
	}
}

func provideMetricsConfig(cfg Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.OtelEnabled,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		ServiceName:      cfg.ServiceName,
		Environment:      cfg.Environment,
	}
}
