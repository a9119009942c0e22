package mongodb

import (
	"fmt"
	"time"
)

// Options MongoDB 客户端配置选项
type Options struct {
	Name        string
	URI         string
	Username    string
	Password    string
	Database    string // 默认数据库，非空时同时注册 *mongo.Database
	MaxPoolSize uint64
	MinPoolSize uint64
	Timeout     time.Duration
	// VerifyConnection 为 true 时注册前执行 Ping
	VerifyConnection bool
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string, uri string) *Options {
	return &Options{
		Name:        name,
		URI:         uri,
		MaxPoolSize: 100,
		MinPoolSize: 5,
		Timeout:     10 * time.Second,
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("mongo client name is required")
	}
	if o.URI == "" {
		return fmt.Errorf("mongo uri is required")
	}
	if o.MinPoolSize > o.MaxPoolSize && o.MaxPoolSize > 0 {
		return fmt.Errorf("mongo client %q: minPoolSize exceeds maxPoolSize", o.Name)
	}
	return nil
}

// clientConfig 配置文件中的客户端定义
type clientConfig struct {
	URI              string `json:"uri"`
	Username         string `json:"username"`
	Password         string `json:"password"`
	Database         string `json:"database"`
	MaxPoolSize      uint64 `json:"maxPoolSize"`
	MinPoolSize      uint64 `json:"minPoolSize"`
	Timeout          string `json:"timeout"`
	VerifyConnection bool   `json:"verifyConnection"`
}

func (c clientConfig) apply(o *Options) error {
	o.Username = c.Username
	o.Password = c.Password
	o.Database = c.Database
	o.VerifyConnection = c.VerifyConnection
	if c.MaxPoolSize > 0 {
		o.MaxPoolSize = c.MaxPoolSize
	}
	if c.MinPoolSize > 0 {
		o.MinPoolSize = c.MinPoolSize
	}
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("mongo client %q: timeout: %w", o.Name, err)
		}
		o.Timeout = d
	}
	return nil
}
