package mongodb

import (
	"context"
	"fmt"
	"sort"

	"github.com/gocrud/locator/config"
	"github.com/gocrud/locator/logging"
	"go.uber.org/multierr"
)

// DefaultName 同时以未命名方式注册的客户端名称
const DefaultName = "default"

// Builder MongoDB 配置构建器
type Builder struct {
	cfg     config.Configuration
	configs map[string]Options
	order   []string
	err     error
}

// NewBuilder 创建构建器，cfg 用于 AddFromConfig，可以为 nil
func NewBuilder(cfg config.Configuration) *Builder {
	return &Builder{
		cfg:     cfg,
		configs: make(map[string]Options),
	}
}

// Add 添加 MongoDB 客户端配置
func (b *Builder) Add(name string, uri string, configure func(*Options)) *Builder {
	if _, exists := b.configs[name]; exists {
		b.err = multierr.Append(b.err, fmt.Errorf("mongo client '%s' already configured", name))
		return b
	}

	opts := NewDefaultOptions(name, uri)
	if configure != nil {
		configure(opts)
	}

	if err := opts.Validate(); err != nil {
		b.err = multierr.Append(b.err, fmt.Errorf("invalid mongo configuration for '%s': %w", name, err))
		return b
	}

	b.configs[name] = *opts
	b.order = append(b.order, name)
	return b
}

// AddFromConfig 从配置节读取客户端定义，键为客户端名称
//
//	mongodb:
//	  default: { uri: "mongodb://localhost:27017", database: "app", timeout: "3s" }
func (b *Builder) AddFromConfig(section string) *Builder {
	if b.cfg == nil {
		b.err = multierr.Append(b.err, fmt.Errorf("mongodb: no configuration for section %q", section))
		return b
	}

	defs, err := config.Load[map[string]clientConfig](b.cfg, section)
	if err != nil {
		b.err = multierr.Append(b.err, fmt.Errorf("mongodb: %w", err))
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
		b.Add(name, def.URI, func(o *Options) { applyErr = def.apply(o) })
		b.err = multierr.Append(b.err, applyErr)
	}
	return b
}

// Build 构建 MongoDB 工厂；没有配置任何客户端时返回 nil
func (b *Builder) Build(ctx context.Context, logger logging.Logger) (*Factory, error) {
	if b.err != nil {
		return nil, fmt.Errorf("mongo configuration: %w", b.err)
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewFactory()
	for _, name := range b.order {
		opts := b.configs[name]
		if err := factory.Register(ctx, opts); err != nil {
			_ = factory.Close()
			return nil, err
		}

		logger.Info("Mongo client registered",
			logging.Field{Key: "name", Value: opts.Name},
			logging.Field{Key: "database", Value: opts.Database})
	}

	return factory, nil
}
