package bootstrap

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/gocrud/locator/config"
	"github.com/gocrud/locator/di"
	"github.com/gocrud/locator/hosting"
	"github.com/gocrud/locator/logging"
)

// Configurator 配置器函数类型
// 配置器用于扩展应用程序，可以注册服务、添加托管服务、设置清理函数
type Configurator func(*BuildContext) error

type cleanup struct {
	key string
	fn  func() error
}

// BuildContext 构建上下文
// 提供给配置器的上下文环境，包含注册表、配置、日志等核心组件
type BuildContext struct {
	resolver      *di.Resolver
	configuration *config.ReloadableConfiguration
	loggerFactory logging.LoggerFactory
	logger        logging.Logger
	environment   Environment

	mu             sync.Mutex
	hostedServices []hosting.HostedService
	cleanups       []cleanup
	keys           []di.ServiceKey
	seen           map[di.ServiceKey]struct{}
}

// Resolver 返回注册表门面，可直接用于 di.Register / di.Resolve
// 直接注册的服务不会在 Host.Close 时移除，需要移除时使用 Provide / ProvideValue
func (c *BuildContext) Resolver() *di.Resolver {
	return c.resolver
}

// Configuration 获取配置对象
func (c *BuildContext) Configuration() config.Configuration {
	return c.configuration
}

// LoggerFactory 获取日志工厂
func (c *BuildContext) LoggerFactory() logging.LoggerFactory {
	return c.loggerFactory
}

// Logger 获取日志记录器
func (c *BuildContext) Logger() logging.Logger {
	return c.logger
}

// Environment 获取环境信息
func (c *BuildContext) Environment() Environment {
	return c.environment
}

// AddHostedService 添加托管服务
func (c *BuildContext) AddHostedService(service hosting.HostedService) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hostedServices = append(c.hostedServices, service)
}

// SetCleanup 设置资源清理函数，相同 key 会替换之前的函数
// Host.Close 按注册的相反顺序执行清理
func (c *BuildContext) SetCleanup(key string, fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.cleanups {
		if c.cleanups[i].key == key {
			c.cleanups[i].fn = fn
			return
		}
	}
	c.cleanups = append(c.cleanups, cleanup{key: key, fn: fn})
}

// Register 注册工厂并记录键，Host.Close 时移除
func (c *BuildContext) Register(typ reflect.Type, name string, scope di.Scope, factory di.Factory) {
	c.resolver.Register(typ, name, scope, factory)
	c.track(di.ServiceKey{Type: typ, Name: name})
}

// Keys 返回通过上下文注册的键（按首次注册顺序）
func (c *BuildContext) Keys() []di.ServiceKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]di.ServiceKey(nil), c.keys...)
}

func (c *BuildContext) track(key di.ServiceKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	c.keys = append(c.keys, key)
}

func (c *BuildContext) snapshot() ([]hosting.HostedService, []cleanup, []di.ServiceKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]hosting.HostedService(nil), c.hostedServices...),
		append([]cleanup(nil), c.cleanups...),
		append([]di.ServiceKey(nil), c.keys...)
}

// Provide 以类型 T 注册工厂并记录键
//
// 示例：
//
//	db := di.MustResolve[*gorm.DB](ctx.Resolver(), di.WithShared())
//	bootstrap.Provide(ctx, func() *OrderService {
//		return NewOrderService(db)
//	}, di.WithShared())
//
// 工厂在 Resolver 的锁内执行，不能在工厂内部再解析依赖。
func Provide[T any](ctx *BuildContext, factory func() T, opts ...di.Option) {
	di.Register(ctx.resolver, factory, opts...)
	ctx.track(di.KeyFor[T](opts...))
}

// ProvideValue 把已创建的值注册为 T 的 shared 实例并记录键
func ProvideValue[T any](ctx *BuildContext, value T, opts ...di.Option) {
	di.RegisterValue(ctx.resolver, value, opts...)
	ctx.track(di.KeyFor[T](opts...))
}

// ConfigureOptions 绑定配置节并注册两个 shared 服务：
// T（构建时的值）与 *config.Monitor[T]（随配置重载更新）
//
// 使用示例: bootstrap.ConfigureOptions[AppSetting](ctx, "app")
func ConfigureOptions[T any](ctx *BuildContext, section string) error {
	monitor, err := config.NewMonitor[T](ctx.configuration, section)
	if err != nil {
		return fmt.Errorf("bootstrap: options %s: %w", section, err)
	}

	ProvideValue(ctx, monitor)
	ProvideValue(ctx, monitor.Value())

	ctx.logger.Info("Configured options",
		logging.Field{Key: "type", Value: di.TypeOf[T]().String()},
		logging.Field{Key: "section", Value: section})
	return nil
}
