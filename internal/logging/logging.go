// Package logging provides the shared zap logger configuration used across
// the server and load generator binaries.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style console logger. Component is attached to
// every line so that cache/store/dispatcher/loadgen output can be grep'd
// apart in a mixed-process log stream.
func New(component string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	logger, err := cfg.Build()
	if err != nil {
		// Build only fails on malformed config; this config is static.
		panic(err)
	}
	return logger.Named(component)
}
