package observability

import (
	"testing"
	"time"

	"github.com/NewAcropolis/api-sub000/internal/config"
	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestLoadConfigMapsAppConfig(t *testing.T) {
	cfg := LoadConfig(config.Config{
		AppVersion:   " 1.2.0 ",
		Environment:  "production",
		OTLPEndpoint: "collector:4318",
		Observability: config.ObservabilityConfig{
			LogLevel:      "info",
			OtelEnabled:   true,
			OtelProtocol:  "http/protobuf",
			SamplingRatio: 4,
			SQLLogLevel:   "info",
			SlowQuery:     time.Second,
		},
	})

	assert.Equal(t, "na-api", cfg.ServiceName)
	assert.Equal(t, "1.2.0", cfg.Version)
	assert.Equal(t, "http", cfg.OtelExporterProtocol)
	assert.Equal(t, 1.0, cfg.OtelSamplingRatio)
	assert.Equal(t, gormlogger.Info, cfg.SQLLogLevel)
	assert.True(t, cfg.OtelEnabled)
	assert.False(t, cfg.Debug())

	gormCfg := provideGormLoggerConfig(cfg)
	assert.Equal(t, gormlogger.Info, gormCfg.Level)
	assert.Equal(t, time.Second, gormCfg.SlowThreshold)
}

func TestLoadConfigTestEnvironment(t *testing.T) {
	cfg := LoadConfig(config.Config{
		Environment: "test",
		Observability: config.ObservabilityConfig{
			OtelEnabled:   true,
			SamplingRatio: -1,
			SQLLogLevel:   "loud",
		},
	})

	assert.False(t, cfg.OtelEnabled)
	assert.True(t, cfg.Debug())
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.Equal(t, 0.0, cfg.OtelSamplingRatio)
	assert.Equal(t, gormlogger.Warn, cfg.SQLLogLevel)
	assert.Equal(t, 200*time.Millisecond, provideGormLoggerConfig(cfg).SlowThreshold)
}
