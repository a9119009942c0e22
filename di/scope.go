package di

import "fmt"

// Scope 定义了服务的生命周期。
type Scope int

const (
	// ScopeTransient 每次解析都调用工厂创建新实例（默认）。
	ScopeTransient Scope = iota
	// ScopeShared 注册时立即创建实例，之后每次解析返回同一个实例。
	ScopeShared
)

// String 返回作用域的字符串表示
func (s Scope) String() string {
	switch s {
	case ScopeTransient:
		return "transient"
	case ScopeShared:
		return "shared"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// ParseScope 将字符串解析为作用域，支持 "new"/"transient" 与 "shared"/"singleton"。
func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "new", "transient":
		return ScopeTransient, nil
	case "shared", "singleton":
		return ScopeShared, nil
	default:
		return ScopeTransient, fmt.Errorf("di: unknown scope %q", s)
	}
}
