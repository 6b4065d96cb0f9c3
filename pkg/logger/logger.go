// Package logger builds the structured logger used throughout coat-check.
// Every subsystem receives a *zap.SugaredLogger scoped to its own service
// name so log lines can be filtered by component.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.SugaredLogger for the named service.
//
// The encoder and level follow the process environment: COAT_CHECK_ENV=prod
// selects a JSON-encoded production configuration; anything else (including
// unset) selects a human-readable development configuration with debug
// level enabled.
func New(service string) *zap.SugaredLogger {
	var cfg zap.Config
	if os.Getenv("COAT_CHECK_ENV") == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	base, err := cfg.Build()
	if err != nil {
		// Falling back to a no-op logger keeps startup from failing over a
		// logging misconfiguration; the server itself still works.
		base = zap.NewNop()
	}

	return base.Named(service).Sugar()
}
