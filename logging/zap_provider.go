package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLoggerProvider 把日志转发给 zap，便于接入已有的 zap 输出配置
//
// 类别映射为 zap 的 logger name；Trace 映射为 Debug，Fatal 映射为 Error
// （进程退出由 Logger.Fatal 负责）。
type ZapLoggerProvider struct {
	base  *zap.Logger
	level *levelVar
}

// NewZapLoggerProvider 创建 zap 日志提供者
func NewZapLoggerProvider(base *zap.Logger) *ZapLoggerProvider {
	if base == nil {
		base = zap.NewNop()
	}
	return &ZapLoggerProvider{base: base, level: newLevelVar(LogLevelInfo)}
}

func (p *ZapLoggerProvider) CreateLogger(category string) Logger {
	return &zapLogger{base: p.base, z: p.base.Named(category), level: p.level}
}

func (p *ZapLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.level.Set(level)
}

// Close 刷新 zap 缓冲
func (p *ZapLoggerProvider) Close() error {
	// stdout/stderr 上的 Sync 在部分平台会返回 EINVAL，忽略
	_ = p.base.Sync()
	return nil
}

type zapLogger struct {
	base  *zap.Logger
	z     *zap.Logger
	level *levelVar
}

func (l *zapLogger) Trace(msg string, fields ...Field) { l.Log(LogLevelTrace, msg, fields...) }
func (l *zapLogger) Debug(msg string, fields ...Field) { l.Log(LogLevelDebug, msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.Log(LogLevelInfo, msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.Log(LogLevelWarn, msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.Log(LogLevelError, msg, fields...) }

func (l *zapLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	_ = l.z.Sync()
	os.Exit(1)
}

func (l *zapLogger) Log(level LogLevel, msg string, fields ...Field) {
	if !l.level.Enabled(level) {
		return
	}
	if ce := l.z.Check(zapLevel(level), msg); ce != nil {
		ce.Write(zapFields(fields)...)
	}
}

func (l *zapLogger) WithFields(fields ...Field) Logger {
	return &zapLogger{base: l.base, z: l.z.With(zapFields(fields)...), level: l.level}
}

// WithCategory 替换类别，已附加的字段会丢失
func (l *zapLogger) WithCategory(category string) Logger {
	return &zapLogger{base: l.base, z: l.base.Named(category), level: l.level}
}

func zapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LogLevelTrace, LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

func zapFields(fields []Field) []zap.Field {
	zf := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		zf = append(zf, zap.Any(f.Key, f.Value))
	}
	return zf
}
