// Package logging builds the zap loggers used throughout repo-assistant.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a colored console logger for development and a JSON logger otherwise
func New(dev bool) (*zap.Logger, error) {
	return build(newConfig(dev))
}

func newConfig(dev bool) zap.Config {
	var cfg zap.Config

	if dev {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// Results go to stdout; keep logs out of the way
	cfg.OutputPaths = []string{"stderr"}
	return cfg
}

func build(cfg zap.Config) (*zap.Logger, error) {
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

func NewNop() *zap.Logger {
	return zap.NewNop()
}
