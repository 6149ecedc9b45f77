package observability

import (
	"strings"
	"time"

	"github.com/NewAcropolis/api-sub000/internal/config"
	gormlogger "gorm.io/gorm/logger"
)

// Config is the observability view of the application config. Everything is
// read once by config.Load; nothing here touches the environment.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64

	SQLLogLevel gormlogger.LogLevel
	SlowQuery   time.Duration
}

func LoadConfig(cfg config.Config) Config {
	obs := cfg.Observability

	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "na-api"
	}
	protocol := "grpc"
	if strings.HasPrefix(strings.TrimSpace(obs.OtelProtocol), "http") {
		protocol = "http"
	}

	out := Config{
		ServiceName:          serviceName,
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             strings.TrimSpace(obs.LogLevel),
		LogFormat:            strings.TrimSpace(obs.LogFormat),
		OtelEnabled:          obs.OtelEnabled,
		OtelExporterEndpoint: strings.TrimSpace(cfg.OTLPEndpoint),
		OtelExporterProtocol: protocol,
		OtelSamplingRatio:    clampRatio(obs.SamplingRatio),
		SQLLogLevel:          parseSQLLogLevel(obs.SQLLogLevel),
		SlowQuery:            obs.SlowQuery,
	}
	// Test runs never export spans.
	if strings.EqualFold(out.Environment, "test") {
		out.OtelEnabled = false
	}
	return out
}

func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func parseSQLLogLevel(raw string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func clampRatio(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}
