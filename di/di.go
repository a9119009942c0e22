package di

import "reflect"

// Register 以类型 T 注册工厂。
//
// 示例：
//
//	di.Register[UserRepository](resolver, func() UserRepository {
//		return NewSQLUserRepository(db)
//	}, di.WithShared())
func Register[T any](c Container, factory func() T, opts ...Option) {
	o := newOptions(opts)

	var f Factory
	if factory != nil {
		f = func() any { return factory() }
	}
	c.Register(TypeOf[T](), o.name, o.scope, f)
}

// RegisterValue 将已创建的值注册为 T 的 shared 实例，忽略作用域选项。
func RegisterValue[T any](c Container, value T, opts ...Option) {
	o := newOptions(opts)
	c.Register(TypeOf[T](), o.name, ScopeShared, func() any { return value })
}

// Resolve 解析类型 T 的实例；未注册时返回零值和 false。
func Resolve[T any](c Container, opts ...Option) (T, bool) {
	var zero T
	o := newOptions(opts)

	instance, ok := c.Resolve(TypeOf[T](), o.name, o.scope)
	if !ok {
		return zero, false
	}

	v, ok := instance.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Clean 删除类型 T 在指定名称下的 transient 与 shared 注册，作用域选项被忽略。
func Clean[T any](c Container, opts ...Option) {
	o := newOptions(opts)
	c.CleanDependencyServices([]reflect.Type{TypeOf[T]()}, o.name)
}

// KeyFor 返回泛型辅助函数在给定选项下使用的注册表键
func KeyFor[T any](opts ...Option) ServiceKey {
	o := newOptions(opts)
	return ServiceKey{Type: TypeOf[T](), Name: o.name}
}

// ScopeOf 返回选项解析后的作用域，未指定时为 ScopeTransient
func ScopeOf(opts ...Option) Scope {
	return newOptions(opts).scope
}
