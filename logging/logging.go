// Package logging contains the structured logger used throughout motionkit. It is a thin layer
// over zap that adds context-aware debug logging and test helpers.
package logging

import (
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	globalMu     sync.RWMutex
	globalLogger = NewLogger("motionkit")
)

// ReplaceGlobal replaces the global logger.
func ReplaceGlobal(logger Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// Global returns the global logger.
func Global() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// NewLoggerConfig returns a new default logger config.
func NewLoggerConfig() zap.Config {
	// from https://github.com/uber-go/zap/blob/2314926ec34c23ee21f3dd4399438469668f8097/config.go#L135
	// but disable stacktraces, use same keys as prod, and color levels.
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger returns a new logger that outputs Info+ logs to stdout.
func NewLogger(name string) Logger {
	return newFromConfig(name, NewLoggerConfig())
}

// NewDebugLogger returns a new logger that outputs Debug+ logs to stdout.
func NewDebugLogger(name string) Logger {
	cfg := NewLoggerConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	return newFromConfig(name, cfg)
}

// NewFileLogger returns a logger that writes JSON lines at level and above to filename. The file
// is rotated once it grows past 10MB and two old files are kept.
func NewFileLogger(name, filename string, level zapcore.Level) Logger {
	atomicLevel := zap.NewAtomicLevelAt(level)
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filename,
		MaxSize:    10,
		MaxBackups: 2,
	})
	encoderCfg := NewLoggerConfig().EncoderConfig
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, atomicLevel)
	return &impl{
		level:   atomicLevel,
		sugared: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar().Named(name),
	}
}

func newFromConfig(name string, cfg zap.Config) Logger {
	return &impl{
		level:   cfg.Level,
		sugared: zap.Must(cfg.Build(zap.AddCallerSkip(1))).Sugar().Named(name),
	}
}

// NewTestLogger returns a new logger that outputs Debug+ logs through the test's Log method.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	level := zap.NewAtomicLevelAt(zap.DebugLevel)
	observerCore, observedLogs := observer.New(level)
	base := zaptest.NewLogger(tb, zaptest.Level(level), zaptest.WrapOptions(
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, observerCore)
		}),
	))
	return &impl{level: level, sugared: base.Sugar()}, observedLogs
}
