package vsutil

import "go.uber.org/zap"

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NopLogger returns a logger that discards all output, used as the default when a
// caller does not supply one via WithLogger.
func NopLogger() *zap.Logger {
	return zap.NewNop()
}
