package database

import (
	"fmt"
	"sort"

	"github.com/gocrud/locator/config"
	"github.com/gocrud/locator/logging"
	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DefaultName 同时以未命名方式注册的数据库名称
const DefaultName = "default"

// DialectorFunc 根据 DSN 创建 GORM 驱动
type DialectorFunc func(dsn string) gorm.Dialector

// Builder 数据库配置构建器
type Builder struct {
	cfg     config.Configuration
	drivers map[string]DialectorFunc
	configs map[string]Options
	order   []string
	err     error
}

// NewBuilder 创建构建器，cfg 用于 AddFromConfig，可以为 nil
func NewBuilder(cfg config.Configuration) *Builder {
	return &Builder{
		cfg:     cfg,
		drivers: map[string]DialectorFunc{"sqlite": sqlite.Open},
		configs: make(map[string]Options),
	}
}

// UseDriver 注册可在配置文件中引用的驱动，例如 b.UseDriver("mysql", mysql.Open)
func (b *Builder) UseDriver(name string, open DialectorFunc) *Builder {
	b.drivers[name] = open
	return b
}

// Add 添加数据库配置
// name: 实例名称
// dialector: GORM 驱动 (e.g. sqlite.Open(dsn))
// configure: 可选的配置函数
func (b *Builder) Add(name string, dialector gorm.Dialector, configure func(*Options)) *Builder {
	if _, exists := b.configs[name]; exists {
		b.err = multierr.Append(b.err, fmt.Errorf("database '%s' already configured", name))
		return b
	}

	opts := NewDefaultOptions(name, dialector)
	if configure != nil {
		configure(opts)
	}

	if err := opts.Validate(); err != nil {
		b.err = multierr.Append(b.err, fmt.Errorf("invalid configuration for '%s': %w", name, err))
		return b
	}

	b.configs[name] = *opts
	b.order = append(b.order, name)
	return b
}

// AddFromConfig 从配置节读取数据库定义，键为实例名称
//
//	database:
//	  default: { driver: sqlite, dsn: "app.db", maxOpenConns: 5 }
//
// configure 在配置值应用之后执行，可用于设置 AutoMigrate 等
func (b *Builder) AddFromConfig(section string, configure func(*Options)) *Builder {
	if b.cfg == nil {
		b.err = multierr.Append(b.err, fmt.Errorf("database: no configuration for section %q", section))
		return b
	}

	defs, err := config.Load[map[string]databaseConfig](b.cfg, section)
	if err != nil {
		b.err = multierr.Append(b.err, fmt.Errorf("database: %w", err))
		return b
	}

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := defs[name]
		open, ok := b.drivers[def.Driver]
		if !ok {
			b.err = multierr.Append(b.err, fmt.Errorf("database '%s': unsupported driver %q", name, def.Driver))
			continue
		}

		var applyErr error
		b.Add(name, open(def.DSN), func(o *Options) {
			applyErr = def.apply(o)
			if configure != nil {
				configure(o)
			}
		})
		b.err = multierr.Append(b.err, applyErr)
	}
	return b
}

// Build 构建数据库工厂；没有配置任何数据库时返回 nil
func (b *Builder) Build(logger logging.Logger) (*Factory, error) {
	if b.err != nil {
		return nil, fmt.Errorf("database configuration: %w", b.err)
	}
	if len(b.configs) == 0 {
		return nil, nil
	}

	factory := NewFactory()
	for _, name := range b.order {
		opts := b.configs[name]
		if err := factory.Register(opts); err != nil {
			_ = factory.Close()
			return nil, err
		}

		logger.Info("Database registered",
			logging.Field{Key: "name", Value: opts.Name},
			logging.Field{Key: "dialector", Value: opts.Dialector.Name()})
	}

	return factory, nil
}
