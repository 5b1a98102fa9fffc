package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a zap logger tuned for the given environment.
// Development gets human-readable console output, everything else JSON.
func New(env string) (*zap.Logger, error) {
	if env == "development" {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// NewWithDefaults creates a production logger, panicking on failure.
// Intended for tests and tools where configuration is irrelevant.
func NewWithDefaults() *zap.Logger {
	logger, err := New("production")
	if err != nil {
		panic(err)
	}
	return logger
}
