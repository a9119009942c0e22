package di

import (
	"context"
	"reflect"
	"sync"

	"github.com/gocrud/locator/logging"
)

// Resolver 是注册表的线程安全门面。
//
// 它持有唯一一个 Container，并用一把互斥锁串行化所有操作，
// 包括 shared 注册时的工厂调用与 transient 解析时的工厂调用。
// 工厂内部不能再调用同一个 Resolver，否则会死锁。
type Resolver struct {
	mu        sync.Mutex
	container Container
	logger    logging.Logger
	metrics   MetricsRecorder
}

// ResolverOption 配置 NewResolver 创建的门面。
type ResolverOption func(*Resolver)

// WithLogger 设置日志记录器（默认不输出）。
func WithLogger(logger logging.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger.WithCategory("Resolver")
		}
	}
}

// WithMetrics 设置指标记录器（默认 NoopMetrics）。
func WithMetrics(metrics MetricsRecorder) ResolverOption {
	return func(r *Resolver) {
		if metrics != nil {
			r.metrics = metrics
		}
	}
}

// WithContainer 使用预先填充的容器代替空容器。
// c 为 nil 或正是被配置的 Resolver 本身时忽略。
func WithContainer(c Container) ResolverOption {
	return func(r *Resolver) {
		if c != nil && !r.isSelf(c) {
			r.container = c
		}
	}
}

var (
	defaultResolver     *Resolver
	defaultResolverOnce sync.Once
)

// Default 返回进程级共享的 Resolver，首次调用时创建。
func Default() *Resolver {
	defaultResolverOnce.Do(func() {
		defaultResolver = NewResolver()
	})
	return defaultResolver
}

// NewResolver 创建一个独立的 Resolver，与 Default() 不共享任何状态。
// 主要用于测试隔离。
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		container: NewContainer(),
		logger:    logging.NewNopLogger(),
		metrics:   NoopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// UseLogger 替换日志记录器。
func (r *Resolver) UseLogger(logger logging.Logger) {
	if logger == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger.WithCategory("Resolver")
}

// UseMetrics 替换指标记录器。
func (r *Resolver) UseMetrics(metrics MetricsRecorder) {
	if metrics == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = metrics
}

// Register 在锁内委托给容器注册。
func (r *Resolver) Register(typ reflect.Type, name string, scope Scope, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.container.Register(typ, name, scope, factory)

	key := ServiceKey{Type: typ, Name: name}
	r.metrics.RecordRegistration(context.Background(), key, scope)
	r.logger.Debug("service registered",
		logging.Field{Key: "service", Value: key.String()},
		logging.Field{Key: "scope", Value: scope.String()})
}

// Resolve 在锁内委托给容器解析。
func (r *Resolver) Resolve(typ reflect.Type, name string, scope Scope) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	instance, ok := r.container.Resolve(typ, name, scope)

	key := ServiceKey{Type: typ, Name: name}
	r.metrics.RecordResolution(context.Background(), key, scope, ok)
	if !ok {
		r.logger.Trace("service not resolved",
			logging.Field{Key: "service", Value: key.String()},
			logging.Field{Key: "scope", Value: scope.String()})
	}
	return instance, ok
}

// CleanAllDependencies 清空 transient 注册，ignoreShared 为 false 时同时清空 shared 实例。
func (r *Resolver) CleanAllDependencies(ignoreShared bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.container.CleanAllDependencies(ignoreShared)

	kind := "all"
	if ignoreShared {
		kind = "transient"
	}
	r.metrics.RecordCleanup(context.Background(), kind)
	r.logger.Debug("dependencies cleaned", logging.Field{Key: "kind", Value: kind})
}

// CleanDependencyServices 删除给定类型在 name 下的两个作用域槽位。
func (r *Resolver) CleanDependencyServices(types []reflect.Type, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.container.CleanDependencyServices(types, name)

	r.metrics.RecordCleanup(context.Background(), "services")
	r.logger.Debug("services cleaned",
		logging.Field{Key: "count", Value: len(types)},
		logging.Field{Key: "name", Value: name})
}

// SetContainer 原子地替换底层容器，之后的所有调用都作用于新容器。
// c 为 nil 或是 r 自身时换成新的空容器，自引用会在加锁后递归调用而死锁。
func (r *Resolver) SetContainer(c Container) {
	if c == nil || r.isSelf(c) {
		c = NewContainer()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.container = c
	r.logger.Debug("container replaced", logging.Field{Key: "container", Value: reflect.TypeOf(c).String()})
}

// Reset 用一个新的空容器替换当前容器，丢弃所有注册与 shared 实例。
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.container = NewContainer()
	r.metrics.RecordCleanup(context.Background(), "reset")
	r.logger.Debug("resolver reset")
}

// Registrations 返回当前容器的注册快照；容器未实现 Inspector 时返回 nil。
func (r *Resolver) Registrations() []Registration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inspector, ok := r.container.(Inspector); ok {
		return inspector.Registrations()
	}
	return nil
}

func (r *Resolver) isSelf(c Container) bool {
	other, ok := c.(*Resolver)
	return ok && other == r
}
