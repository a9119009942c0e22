package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JsonFormatter JSON 格式化器，每条日志一行
type JsonFormatter struct {
	TimestampFormat string
}

// NewJsonFormatter 创建 JSON 格式化器
func NewJsonFormatter() *JsonFormatter {
	return &JsonFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

type jsonEntry struct {
	Time     string         `json:"time"`
	Level    string         `json:"level"`
	Category string         `json:"category,omitempty"`
	Message  string         `json:"msg"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// Format 格式化日志
func (f *JsonFormatter) Format(buf *bytes.Buffer, entry *LogEntry) error {
	e := jsonEntry{
		Time:     entry.Time.Format(f.TimestampFormat),
		Level:    entry.Level.String(),
		Category: entry.Category,
		Message:  entry.Message,
	}

	if len(entry.Fields) > 0 {
		e.Fields = make(map[string]any, len(entry.Fields))
		for _, field := range entry.Fields {
			e.Fields[field.Key] = jsonValue(field.Value)
		}
	}

	// Encoder 会写入结尾换行
	return json.NewEncoder(buf).Encode(e)
}

// jsonValue 把无法直接编码的值（error、Stringer）转成字符串
func jsonValue(v any) any {
	switch val := v.(type) {
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	default:
		return v
	}
}
