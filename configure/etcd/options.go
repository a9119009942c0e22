package etcd

import (
	"fmt"
	"time"
)

// ClientOptions etcd 客户端配置选项
type ClientOptions struct {
	Name               string        // 客户端名称
	Endpoints          []string      // etcd 服务器地址列表
	DialTimeout        time.Duration // 连接超时时间
	Username           string        // 用户名（可选）
	Password           string        // 密码（可选）
	AutoSyncInterval   time.Duration // 自动同步间隔（可选）
	MaxCallSendMsgSize int           // 最大发送消息大小（可选）
	MaxCallRecvMsgSize int           // 最大接收消息大小（可选）
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string) *ClientOptions {
	return &ClientOptions{
		Name:        name,
		Endpoints:   []string{"localhost:2379"},
		DialTimeout: 5 * time.Second,
	}
}

// Validate 验证配置
func (o *ClientOptions) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("etcd client name is required")
	}
	if len(o.Endpoints) == 0 {
		return fmt.Errorf("etcd endpoints are required")
	}
	if o.DialTimeout <= 0 {
		return fmt.Errorf("etcd dial timeout must be positive")
	}
	return nil
}

// clientConfig 配置文件中的客户端定义
type clientConfig struct {
	Endpoints   []string `json:"endpoints"`
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	DialTimeout string   `json:"dialTimeout"`
}

func (c clientConfig) apply(o *ClientOptions) error {
	if len(c.Endpoints) > 0 {
		o.Endpoints = c.Endpoints
	}
	o.Username = c.Username
	o.Password = c.Password
	if c.DialTimeout != "" {
		d, err := time.ParseDuration(c.DialTimeout)
		if err != nil {
			return fmt.Errorf("etcd client %q: dialTimeout: %w", o.Name, err)
		}
		o.DialTimeout = d
	}
	return nil
}
