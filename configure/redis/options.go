package redis

import (
	"errors"
	"fmt"
	"time"
)

// ClientOptions Redis 客户端配置选项
type ClientOptions struct {
	Name         string        // 客户端名称，同时是注册表中的服务名
	Addr         string        // Redis 服务器地址 (host:port)
	Password     string        // 密码（可选）
	DB           int           // 数据库编号
	DialTimeout  time.Duration // 连接超时时间
	ReadTimeout  time.Duration // 读取超时时间
	WriteTimeout time.Duration // 写入超时时间
	PoolSize     int           // 连接池大小
	MinIdleConns int           // 最小空闲连接数
	MaxRetries   int           // 最大重试次数
	// VerifyConnection 为 true 时注册前执行 PING
	VerifyConnection bool
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string) *ClientOptions {
	return &ClientOptions{
		Name:         name,
		Addr:         "localhost:6379",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	}
}

// Validate 验证配置
func (o *ClientOptions) Validate() error {
	if o.Name == "" {
		return errors.New("redis client name is required")
	}
	if o.Addr == "" {
		return fmt.Errorf("redis client %q: address is required", o.Name)
	}
	if o.DB < 0 {
		return fmt.Errorf("redis client %q: database number must be non-negative", o.Name)
	}
	if o.DialTimeout <= 0 {
		return fmt.Errorf("redis client %q: dial timeout must be positive", o.Name)
	}
	return nil
}

// clientConfig 配置文件中的客户端定义，时长使用 "5s" 这样的字符串
type clientConfig struct {
	Addr             string `json:"addr"`
	Password         string `json:"password"`
	DB               int    `json:"db"`
	DialTimeout      string `json:"dialTimeout"`
	ReadTimeout      string `json:"readTimeout"`
	WriteTimeout     string `json:"writeTimeout"`
	PoolSize         int    `json:"poolSize"`
	MinIdleConns     int    `json:"minIdleConns"`
	MaxRetries       int    `json:"maxRetries"`
	VerifyConnection bool   `json:"verifyConnection"`
}

// apply 把配置覆盖到默认选项上，零值字段保持默认
func (c clientConfig) apply(o *ClientOptions) error {
	if c.Addr != "" {
		o.Addr = c.Addr
	}
	o.Password = c.Password
	o.DB = c.DB
	if c.PoolSize > 0 {
		o.PoolSize = c.PoolSize
	}
	if c.MinIdleConns > 0 {
		o.MinIdleConns = c.MinIdleConns
	}
	if c.MaxRetries != 0 {
		o.MaxRetries = c.MaxRetries
	}
	o.VerifyConnection = c.VerifyConnection

	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{c.DialTimeout, &o.DialTimeout},
		{c.ReadTimeout, &o.ReadTimeout},
		{c.WriteTimeout, &o.WriteTimeout},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("redis client %q: %w", o.Name, err)
		}
		*d.dst = v
	}
	return nil
}
