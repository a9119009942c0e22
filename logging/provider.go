package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// entryWriter 接收格式化前的日志条目
type entryWriter interface {
	WriteLog(entry *LogEntry)
}

// lockedWriter 同步写入，串行化对底层 io.Writer 的访问
type lockedWriter struct {
	mu        sync.Mutex
	writer    io.Writer
	formatter Formatter
}

func (w *lockedWriter) WriteLog(entry *LogEntry) {
	buf := buffers.Get()
	defer buffers.Put(buf)

	if err := w.formatter.Format(buf, entry); err != nil {
		fmt.Fprintf(os.Stderr, "logging: format %v\n", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = w.writer.Write(buf.Bytes())
}

// WriterLoggerProvider 把日志格式化后写入 io.Writer，控制台与文件日志都基于它
type WriterLoggerProvider struct {
	out    entryWriter
	level  *levelVar
	closer io.Closer
}

// NewWriterLoggerProvider 创建同步写入的提供者
func NewWriterLoggerProvider(writer io.Writer, formatter Formatter) *WriterLoggerProvider {
	return &WriterLoggerProvider{
		out:   &lockedWriter{writer: writer, formatter: formatter},
		level: newLevelVar(LogLevelInfo),
	}
}

// CreateLogger 创建指定类别的记录器
func (p *WriterLoggerProvider) CreateLogger(category string) Logger {
	return &writerLogger{
		out:      p.out,
		level:    p.level,
		category: category,
	}
}

// SetMinimumLevel 设置最小日志级别
func (p *WriterLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.level.Set(level)
}

// Close 刷新异步队列并关闭文件
func (p *WriterLoggerProvider) Close() error {
	if aw, ok := p.out.(*AsyncWriter); ok {
		if err := aw.Close(); err != nil {
			return err
		}
	}
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// ConsoleLoggerOptions 控制台日志选项
type ConsoleLoggerOptions struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
	Json             bool
	Output           io.Writer
}

// NewConsoleLoggerProvider 创建控制台日志提供者（默认输出到 stdout）
func NewConsoleLoggerProvider(options ConsoleLoggerOptions) *WriterLoggerProvider {
	if options.Output == nil {
		options.Output = os.Stdout
	}
	return NewWriterLoggerProvider(options.Output, consoleFormatter(options))
}

func consoleFormatter(options ConsoleLoggerOptions) Formatter {
	if options.Json {
		return NewJsonFormatter()
	}
	tf := &TextFormatter{
		IncludeTimestamp: options.IncludeTimestamp,
		TimestampFormat:  options.TimestampFormat,
		ColorOutput:      options.ColorOutput,
	}
	if tf.TimestampFormat == "" {
		tf.TimestampFormat = "2006-01-02 15:04:05"
	}
	return tf
}

// FileLoggerOptions 文件日志选项
type FileLoggerOptions struct {
	Path string
	// Json 为 true 时每行写一个 JSON 对象
	Json bool
	// Async 为 true 时通过 AsyncWriter 写入，Close 时刷新
	Async      bool
	BufferSize int
}

// NewFileLoggerProvider 创建文件日志提供者，文件以追加模式打开
func NewFileLoggerProvider(options FileLoggerOptions) (*WriterLoggerProvider, error) {
	file, err := os.OpenFile(options.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}

	var formatter Formatter = NewTextFormatter()
	if options.Json {
		formatter = NewJsonFormatter()
	}

	p := NewWriterLoggerProvider(file, formatter)
	p.closer = file
	if options.Async {
		p.out = NewAsyncWriter(file, formatter, options.BufferSize)
	}
	return p, nil
}

// writerLogger 单个提供者的记录器
type writerLogger struct {
	out      entryWriter
	level    *levelVar
	category string
	fields   []Field
}

func (l *writerLogger) Trace(msg string, fields ...Field) { l.Log(LogLevelTrace, msg, fields...) }
func (l *writerLogger) Debug(msg string, fields ...Field) { l.Log(LogLevelDebug, msg, fields...) }
func (l *writerLogger) Info(msg string, fields ...Field)  { l.Log(LogLevelInfo, msg, fields...) }
func (l *writerLogger) Warn(msg string, fields ...Field)  { l.Log(LogLevelWarn, msg, fields...) }
func (l *writerLogger) Error(msg string, fields ...Field) { l.Log(LogLevelError, msg, fields...) }

func (l *writerLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	os.Exit(1)
}

func (l *writerLogger) Log(level LogLevel, msg string, fields ...Field) {
	if !l.level.Enabled(level) {
		return
	}

	l.out.WriteLog(&LogEntry{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
		Fields:   mergeFields(l.fields, fields),
	})
}

func (l *writerLogger) WithFields(fields ...Field) Logger {
	return &writerLogger{
		out:      l.out,
		level:    l.level,
		category: l.category,
		fields:   mergeFields(l.fields, fields),
	}
}

func (l *writerLogger) WithCategory(category string) Logger {
	return &writerLogger{
		out:      l.out,
		level:    l.level,
		category: category,
		fields:   l.fields,
	}
}
