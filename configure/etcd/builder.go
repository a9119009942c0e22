package etcd

import (
	"fmt"
	"sort"

	"github.com/gocrud/locator/config"
	"github.com/gocrud/locator/logging"
	"go.uber.org/multierr"
)

// DefaultClientName 同时以未命名方式注册的客户端名称
const DefaultClientName = "default"

// Builder etcd 客户端配置构建器
type Builder struct {
	cfg     config.Configuration
	configs map[string]ClientOptions
	order   []string
	err     error
}

// NewBuilder 创建 etcd 构建器，cfg 用于 AddFromConfig，可以为 nil
func NewBuilder(cfg config.Configuration) *Builder {
	return &Builder{
		cfg:     cfg,
		configs: make(map[string]ClientOptions),
	}
}

// AddClient 添加一个 etcd 客户端配置
func (b *Builder) AddClient(name string, configure func(*ClientOptions)) *Builder {
	if _, exists := b.configs[name]; exists {
		b.err = multierr.Append(b.err, fmt.Errorf("etcd client '%s' already configured", name))
		return b
	}

	opts := NewDefaultOptions(name)
	if configure != nil {
		configure(opts)
	}

	if err := opts.Validate(); err != nil {
		b.err = multierr.Append(b.err, fmt.Errorf("invalid etcd configuration for '%s': %w", name, err))
		return b
	}

	b.configs[name] = *opts
	b.order = append(b.order, name)
	return b
}

// AddFromConfig 从配置节读取客户端定义，键为客户端名称
//
//	etcd:
//	  default: { endpoints: ["localhost:2379"], dialTimeout: "3s" }
func (b *Builder) AddFromConfig(section string) *Builder {
	if b.cfg == nil {
		b.err = multierr.Append(b.err, fmt.Errorf("etcd: no configuration for section %q", section))
		return b
	}

	defs, err := config.Load[map[string]clientConfig](b.cfg, section)
	if err != nil {
		b.err = multierr.Append(b.err, fmt.Errorf("etcd: %w", err))
		return b
	}

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := defs[name]
		var applyErr error
		b.AddClient(name, func(o *ClientOptions) { applyErr = def.apply(o) })
		b.err = multierr.Append(b.err, applyErr)
	}
	return b
}

// Build 构建 etcd 客户端工厂；没有配置任何客户端时返回 nil
func (b *Builder) Build(logger logging.Logger) (*ClientFactory, error) {
	if b.err != nil {
		return nil, fmt.Errorf("etcd configuration: %w", b.err)
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewClientFactory()
	for _, name := range b.order {
		opts := b.configs[name]
		if err := factory.Register(opts); err != nil {
			_ = factory.Close()
			return nil, err
		}

		logger.Info("etcd client registered",
			logging.Field{Key: "name", Value: opts.Name},
			logging.Field{Key: "endpoints", Value: fmt.Sprintf("%v", opts.Endpoints)})
	}

	return factory, nil
}
