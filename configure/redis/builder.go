package redis

import (
	"context"
	"fmt"

	"github.com/gocrud/locator/config"
	"github.com/gocrud/locator/logging"
	"go.uber.org/multierr"
)

// DefaultClientName 同时以未命名方式注册的客户端名称
const DefaultClientName = "default"

// Builder Redis 客户端配置构建器
type Builder struct {
	cfg     config.Configuration
	configs []ClientOptions
	err     error
}

// NewBuilder 创建 Redis 构建器，cfg 用于 AddFromConfig，可以为 nil
func NewBuilder(cfg config.Configuration) *Builder {
	return &Builder{
		cfg:     cfg,
		configs: make([]ClientOptions, 0),
	}
}

// AddClient 添加一个 Redis 客户端配置，无效配置在 Build 时报告
func (b *Builder) AddClient(name string, configure func(*ClientOptions)) *Builder {
	opts := NewDefaultOptions(name)
	if configure != nil {
		configure(opts)
	}

	if err := opts.Validate(); err != nil {
		b.err = multierr.Append(b.err, err)
		return b
	}

	b.configs = append(b.configs, *opts)
	return b
}

// AddFromConfig 从配置节读取客户端定义，键为客户端名称
//
//	redis:
//	  default: { addr: "localhost:6379" }
//	  cache:   { addr: "cache:6379", db: 1, dialTimeout: "2s" }
func (b *Builder) AddFromConfig(section string) *Builder {
	if b.cfg == nil {
		b.err = multierr.Append(b.err, fmt.Errorf("redis: no configuration for section %q", section))
		return b
	}

	clients, err := config.Load[map[string]clientConfig](b.cfg, section)
	if err != nil {
		b.err = multierr.Append(b.err, fmt.Errorf("redis: %w", err))
		return b
	}

	for name, cc := range clients {
		var applyErr error
		b.AddClient(name, func(o *ClientOptions) {
			applyErr = cc.apply(o)
		})
		b.err = multierr.Append(b.err, applyErr)
	}
	return b
}

// Build 构建 Redis 客户端工厂；没有配置任何客户端时返回 nil
func (b *Builder) Build(ctx context.Context, logger logging.Logger) (*ClientFactory, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewClientFactory()
	for _, opts := range b.configs {
		if err := factory.Register(ctx, opts); err != nil {
			_ = factory.Close()
			return nil, err
		}

		logger.Info("redis client registered",
			logging.Field{Key: "name", Value: opts.Name},
			logging.Field{Key: "addr", Value: opts.Addr},
			logging.Field{Key: "db", Value: opts.DB})
	}

	return factory, nil
}
