package logging

import (
	"bytes"
	"time"
)

// Formatter 日志格式化接口
type Formatter interface {
	// Format 把条目追加到 buf，结尾包含换行
	Format(buf *bytes.Buffer, entry *LogEntry) error
}

// LogEntry 日志条目
type LogEntry struct {
	Time     time.Time
	Level    LogLevel
	Category string
	Message  string
	Fields   []Field
}
