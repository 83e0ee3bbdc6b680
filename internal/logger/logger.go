// Package logger wraps a process-wide zap logger.
//
// Go Learning Note — sync.Once:
// once.Do runs its function exactly one time no matter how many goroutines
// call it concurrently; later callers block until the first call returns.
// That makes lazy initialization of a global both race-free and cheap after
// the first use.
package logger

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// global holds the process-wide logger. Read it through Default().
	global atomic.Pointer[zap.Logger]
	once   sync.Once
)

// Init builds the global logger once. debug selects zap's development
// config (console encoder, DEBUG level); otherwise JSON at INFO level.
func Init(debug bool) {
	once.Do(func() {
		global.Store(build(debug))
	})
}

func build(debug bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		l, err = cfg.Build()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		l, err = cfg.Build()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l.Named("ssid")
}

// Replace swaps the global logger and returns a function that restores the
// previous one. Tests use it with zap.NewNop() or an observer core.
func Replace(l *zap.Logger) (restore func()) {
	Init(false)
	prev := global.Swap(l)
	return func() { global.Store(prev) }
}

// Sync flushes buffered entries. Call it before the process exits.
func Sync() {
	if l := global.Load(); l != nil {
		_ = l.Sync()
	}
}

// Default returns the global logger, initializing a production logger on
// first use.
func Default() *zap.Logger {
	Init(false)
	return global.Load()
}

// With creates a child logger with additional fields.
func With(fields ...zap.Field) *zap.Logger {
	return Default().With(fields...)
}

func Debug(msg string, fields ...zap.Field) { Default().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Default().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Default().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Default().Error(msg, fields...) }

// Fatal logs and then calls os.Exit(1).
func Fatal(msg string, fields ...zap.Field) { Default().Fatal(msg, fields...) }
