package cron

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/gocrud/locator/di"
	"github.com/gocrud/locator/logging"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Builder Cron 配置构建器
type Builder struct {
	enableSeconds    bool
	enableCronLogger bool
	location         string
	jobs             []jobDefinition
}

// jobDefinition 任务定义
type jobDefinition struct {
	spec    string
	name    string
	handler any // func()、func() error、func(di.Container) error 或参数由注册表解析的任意函数
}

// NewBuilder 创建 Cron 构建器
func NewBuilder() *Builder {
	return &Builder{location: "UTC"}
}

// WithSeconds 启用秒级精度
func (b *Builder) WithSeconds() *Builder {
	b.enableSeconds = true
	return b
}

// WithLocation 设置时区，例如 "Asia/Shanghai"
func (b *Builder) WithLocation(location string) *Builder {
	b.location = location
	return b
}

// EnableCronLogger 启用 cron 库的内部调度日志
func (b *Builder) EnableCronLogger() *Builder {
	b.enableCronLogger = true
	return b
}

// AddJob 添加简单任务
func (b *Builder) AddJob(spec, name string, handler func()) *Builder {
	b.jobs = append(b.jobs, jobDefinition{spec: spec, name: name, handler: handler})
	return b
}

// AddResolverJob 添加在执行时接收注册表的任务
func (b *Builder) AddResolverJob(spec, name string, handler func(di.Container) error) *Builder {
	b.jobs = append(b.jobs, jobDefinition{spec: spec, name: name, handler: handler})
	return b
}

// AddJobWithDI 添加参数由注册表解析的任务
// 每个参数先按 shared 作用域解析，再按 transient 解析；函数可以返回 error
//
// 示例：
//
//	builder.AddJobWithDI("0 */5 * * * *", "sync-data", func(svc *DataService, logger logging.Logger) error {
//	    return svc.Sync()
//	})
func (b *Builder) AddJobWithDI(spec, name string, handler any) *Builder {
	b.jobs = append(b.jobs, jobDefinition{spec: spec, name: name, handler: handler})
	return b
}

// build 构建调度器
func (b *Builder) build(container di.Container, logger logging.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(b.location)
	if err != nil {
		return nil, fmt.Errorf("cron: location %q: %w", b.location, err)
	}

	s := newScheduler(logger, schedulerOptions{
		location:         loc,
		enableSeconds:    b.enableSeconds,
		enableCronLogger: b.enableCronLogger,
	})

	for _, def := range b.jobs {
		run, err := wrapHandler(container, def.handler)
		if err != nil {
			return nil, fmt.Errorf("cron job '%s': %w", def.name, err)
		}
		if err := s.add(def.spec, def.name, run); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// wrapHandler 把支持的处理器形式统一为 func() error
func wrapHandler(container di.Container, handler any) (func() error, error) {
	switch h := handler.(type) {
	case nil:
		return nil, errors.New("handler is nil")
	case func():
		return func() error { h(); return nil }, nil
	case func() error:
		return h, nil
	case func(di.Container) error:
		return func() error { return h(container) }, nil
	}

	fn := reflect.ValueOf(handler)
	fnType := fn.Type()
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("handler must be a function, got %v", fnType.Kind())
	}
	if fnType.NumOut() > 1 || (fnType.NumOut() == 1 && fnType.Out(0) != errorType) {
		return nil, fmt.Errorf("handler may only return error, got %v", fnType)
	}

	return func() error {
		args := make([]reflect.Value, fnType.NumIn())
		for i := range args {
			arg, err := resolveParam(container, fnType.In(i))
			if err != nil {
				return fmt.Errorf("parameter %d: %w", i, err)
			}
			args[i] = arg
		}

		out := fn.Call(args)
		if len(out) == 1 && !out[0].IsNil() {
			return out[0].Interface().(error)
		}
		return nil
	}, nil
}

func resolveParam(container di.Container, typ reflect.Type) (reflect.Value, error) {
	for _, scope := range []di.Scope{di.ScopeShared, di.ScopeTransient} {
		if v, ok := container.Resolve(typ, "", scope); ok {
			return reflect.ValueOf(v), nil
		}
	}
	return reflect.Value{}, &di.ResolutionError{Key: di.ServiceKey{Type: typ}, Scope: di.ScopeTransient}
}
