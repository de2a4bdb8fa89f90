// Package logging provides logger construction and helpers for keeping
// sensitive values out of log output.
package logging

import (
	"go.uber.org/zap"
)

// NewLogger builds the process logger for the given environment.
// Production uses the JSON encoder at info level; everything else uses
// the development console encoder at debug.
func NewLogger(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
