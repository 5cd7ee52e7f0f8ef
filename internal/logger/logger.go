// Package logger builds the zap loggers used across mathsprint.
package logger

import (
	"go.uber.org/zap"
)

// New returns a production logger for the production environment and a
// development logger otherwise.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}

	return zap.NewDevelopment()
}

// NewFile returns a logger that writes only to path. An empty path
// discards every entry. The terminal game uses it so log lines never land
// on the alternate screen.
func NewFile(env, path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}

	cfg := zap.NewDevelopmentConfig()
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}
