package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a sugared zap logger. Development output is used outside production.
func New(env, level string) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if env != "production" {
		cfg = zap.NewDevelopmentConfig()
	}

	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = lvl
	}

	z, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return z.Sugar(), nil
}
