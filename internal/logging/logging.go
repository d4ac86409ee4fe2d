// Package logging builds the zap logger shared by the CLI, server and worker.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger at debug level when verbose, and a JSON
// production logger at info level otherwise.
func New(verbose bool) (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// Must is New for call sites that cannot continue without a logger.
// It falls back to a no-op logger instead of panicking.
func Must(verbose bool) *zap.Logger {
	l, err := New(verbose)
	if err != nil {
		return zap.NewNop()
	}
	return l
}
