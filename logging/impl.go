package logging

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	level   zap.AtomicLevel
	sugared *zap.SugaredLogger
}

func (imp *impl) Debug(args ...interface{}) { imp.sugared.Debug(args...) }

func (imp *impl) Debugf(template string, args ...interface{}) { imp.sugared.Debugf(template, args...) }

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.sugared.Debugw(msg, keysAndValues...)
}

func (imp *impl) Info(args ...interface{}) { imp.sugared.Info(args...) }

func (imp *impl) Infof(template string, args ...interface{}) { imp.sugared.Infof(template, args...) }

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.sugared.Infow(msg, keysAndValues...)
}

func (imp *impl) Warn(args ...interface{}) { imp.sugared.Warn(args...) }

func (imp *impl) Warnf(template string, args ...interface{}) { imp.sugared.Warnf(template, args...) }

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.sugared.Warnw(msg, keysAndValues...)
}

func (imp *impl) Error(args ...interface{}) { imp.sugared.Error(args...) }

func (imp *impl) Errorf(template string, args ...interface{}) { imp.sugared.Errorf(template, args...) }

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.sugared.Errorw(msg, keysAndValues...)
}

// debugLogger returns a logger that writes debug entries for this call even when the configured
// level would drop them.
func (imp *impl) debugLogger(ctx context.Context) *zap.SugaredLogger {
	if !IsDebugMode(ctx) || imp.level.Enabled(zapcore.DebugLevel) {
		return imp.sugared
	}
	return imp.sugared.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return forceDebugCore{c}
	}))
}

func (imp *impl) CDebugf(ctx context.Context, template string, args ...interface{}) {
	imp.debugLogger(ctx).Debugf(template, args...)
}

func (imp *impl) CDebugw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.debugLogger(ctx).Debugw(msg, keysAndValues...)
}

func (imp *impl) CWarnw(ctx context.Context, msg string, keysAndValues ...interface{}) {
	imp.sugared.Warnw(msg, keysAndValues...)
}

func (imp *impl) Sublogger(subname string) Logger {
	return &impl{level: imp.level, sugared: imp.sugared.Named(subname)}
}

func (imp *impl) SetLevel(level zapcore.Level) {
	imp.level.SetLevel(level)
}

func (imp *impl) Level() zapcore.Level {
	return imp.level.Level()
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	return imp.sugared
}

func (imp *impl) Sync() error {
	return multierr.Combine(imp.sugared.Sync())
}

// forceDebugCore lets entries through a core whose level enabler would otherwise drop them.
type forceDebugCore struct {
	zapcore.Core
}

func (c forceDebugCore) Enabled(zapcore.Level) bool { return true }

func (c forceDebugCore) With(fields []zapcore.Field) zapcore.Core {
	return forceDebugCore{c.Core.With(fields)}
}

func (c forceDebugCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return checked.AddCore(entry, c)
}
