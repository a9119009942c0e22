package di

import (
	"reflect"
	"sort"
)

// Factory 是无参构造函数，返回服务实例。
type Factory func() any

// Container 是注册表接口。
//
// NewContainer 返回的实现不是并发安全的，只能通过 Resolver 访问。
// Resolver 本身也实现了 Container，泛型辅助函数对两者都适用。
type Container interface {
	// Register 在 (typ, name) 下注册工厂。
	// ScopeShared 会立即调用工厂并保存结果；ScopeTransient 保存工厂本身。
	// 同一键、同一作用域的重复注册以最后一次为准。
	Register(typ reflect.Type, name string, scope Scope, factory Factory)

	// Resolve 只在 scope 对应的槽位中查找 (typ, name)。
	// 未注册或存储的值不能赋值给 typ 时返回 (nil, false)。
	Resolve(typ reflect.Type, name string, scope Scope) (any, bool)

	// CleanAllDependencies 清空所有 transient 注册；ignoreShared 为 false 时同时清空 shared 实例。
	CleanAllDependencies(ignoreShared bool)

	// CleanDependencyServices 删除每个类型在 (type, name) 键下的两个槽位。
	CleanDependencyServices(types []reflect.Type, name string)
}

// Inspector 由可以列出当前注册的容器实现。
type Inspector interface {
	Registrations() []Registration
}

// container 是 Container 的默认实现。
// transient 与 shared 使用两个独立的 map，同一个键在两种作用域下互不覆盖。
type container struct {
	registrations   map[ServiceKey]Factory
	sharedInstances map[ServiceKey]any
}

// NewContainer 创建一个新的空容器。
func NewContainer() Container {
	return &container{
		registrations:   make(map[ServiceKey]Factory),
		sharedInstances: make(map[ServiceKey]any),
	}
}

func (c *container) Register(typ reflect.Type, name string, scope Scope, factory Factory) {
	if factory == nil {
		factory = func() any { return nil }
	}

	key := ServiceKey{Type: typ, Name: name}
	switch scope {
	case ScopeShared:
		c.sharedInstances[key] = factory()
	default:
		c.registrations[key] = factory
	}
}

func (c *container) Resolve(typ reflect.Type, name string, scope Scope) (any, bool) {
	key := ServiceKey{Type: typ, Name: name}

	if scope == ScopeShared {
		instance, ok := c.sharedInstances[key]
		if !ok || !assignable(instance, typ) {
			return nil, false
		}
		return instance, true
	}

	factory, ok := c.registrations[key]
	if !ok {
		return nil, false
	}
	instance := factory()
	if !assignable(instance, typ) {
		return nil, false
	}
	return instance, true
}

func (c *container) CleanAllDependencies(ignoreShared bool) {
	clear(c.registrations)
	if !ignoreShared {
		clear(c.sharedInstances)
	}
}

func (c *container) CleanDependencyServices(types []reflect.Type, name string) {
	for _, typ := range types {
		key := ServiceKey{Type: typ, Name: name}
		delete(c.registrations, key)
		delete(c.sharedInstances, key)
	}
}

// Registrations 返回按类型、名称、作用域排序的注册快照。
func (c *container) Registrations() []Registration {
	result := make([]Registration, 0, len(c.registrations)+len(c.sharedInstances))
	for key := range c.registrations {
		result = append(result, Registration{Key: key, Scope: ScopeTransient})
	}
	for key := range c.sharedInstances {
		result = append(result, Registration{Key: key, Scope: ScopeShared})
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if ka, kb := a.Key.String(), b.Key.String(); ka != kb {
			return ka < kb
		}
		return a.Scope < b.Scope
	})
	return result
}

// assignable 检查实例能否作为 typ 返回，防止类型复用导致的键冲突。
func assignable(instance any, typ reflect.Type) bool {
	if instance == nil || typ == nil {
		return false
	}
	return reflect.TypeOf(instance).AssignableTo(typ)
}
