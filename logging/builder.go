package logging

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
)

// LoggingBuilder 日志构建器
type LoggingBuilder struct {
	providers    []LoggerProvider
	minimumLevel LogLevel
	mu           sync.RWMutex
}

// NewLoggingBuilder 创建日志构建器
func NewLoggingBuilder() *LoggingBuilder {
	return &LoggingBuilder{
		providers:    make([]LoggerProvider, 0),
		minimumLevel: LogLevelInfo,
	}
}

// SetMinimumLevel 设置最小日志级别
func (b *LoggingBuilder) SetMinimumLevel(level LogLevel) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minimumLevel = level
	for _, provider := range b.providers {
		provider.SetMinimumLevel(level)
	}
	return b
}

// MinimumLevel 返回当前的最小日志级别
func (b *LoggingBuilder) MinimumLevel() LogLevel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.minimumLevel
}

// AddProvider 添加日志提供者
func (b *LoggingBuilder) AddProvider(provider LoggerProvider) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	provider.SetMinimumLevel(b.minimumLevel)
	b.providers = append(b.providers, provider)
	return b
}

// ClearProviders 移除已添加的提供者
func (b *LoggingBuilder) ClearProviders() *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.providers = b.providers[:0]
	return b
}

// AddConsole 添加控制台日志
func (b *LoggingBuilder) AddConsole(options ...ConsoleLoggerOptions) *LoggingBuilder {
	opts := ConsoleLoggerOptions{
		IncludeTimestamp: true,
		TimestampFormat:  "2006-01-02 15:04:05",
		ColorOutput:      true,
		Output:           os.Stdout,
	}
	if len(options) > 0 {
		opts = options[0]
	}
	return b.AddProvider(NewConsoleLoggerProvider(opts))
}

// AddFile 添加文件日志（默认异步写入）；文件无法打开时退回到 stderr
func (b *LoggingBuilder) AddFile(path string, options ...FileLoggerOptions) *LoggingBuilder {
	opts := FileLoggerOptions{
		Path:       path,
		Async:      true,
		BufferSize: 1024,
	}
	if len(options) > 0 {
		opts = options[0]
		if opts.Path == "" {
			opts.Path = path
		}
	}

	provider, err := NewFileLoggerProvider(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		return b.AddProvider(NewConsoleLoggerProvider(ConsoleLoggerOptions{Output: os.Stderr}))
	}
	return b.AddProvider(provider)
}

// AddZap 添加 zap 日志提供者
func (b *LoggingBuilder) AddZap(logger *zap.Logger) *LoggingBuilder {
	return b.AddProvider(NewZapLoggerProvider(logger))
}

// Build 构建日志工厂
func (b *LoggingBuilder) Build() LoggerFactory {
	b.mu.RLock()
	defer b.mu.RUnlock()

	factory := &loggerFactory{
		providers: make([]LoggerProvider, 0, len(b.providers)),
		level:     newLevelVar(b.minimumLevel),
	}

	for _, provider := range b.providers {
		factory.AddProvider(provider)
	}

	return factory
}
