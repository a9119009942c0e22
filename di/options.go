package di

// Option 配置泛型辅助函数使用的名称与作用域。
type Option func(*options)

type options struct {
	name  string
	scope Scope
}

func newOptions(opts []Option) options {
	o := options{scope: ScopeTransient}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithName 设置服务名称，用于区分同一类型的多个注册。
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithScope 设置服务的作用域。
func WithScope(scope Scope) Option {
	return func(o *options) {
		o.scope = scope
	}
}

// WithShared 将作用域设置为 Shared。
func WithShared() Option {
	return WithScope(ScopeShared)
}

// WithTransient 将作用域设置为 Transient（默认）。
func WithTransient() Option {
	return WithScope(ScopeTransient)
}
