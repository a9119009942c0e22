package di

import (
	"errors"
	"fmt"
)

// ErrNotRegistered 表示请求的键在指定作用域下没有可用的实例。
var ErrNotRegistered = errors.New("di: service not registered")

// ResolutionError 描述一次必需依赖解析失败。
type ResolutionError struct {
	Key   ServiceKey
	Scope Scope
}

func (e *ResolutionError) Error() string {
	name := e.Key.Name
	if name == "" {
		name = "<unnamed>"
	}
	typeName := "<nil>"
	if e.Key.Type != nil {
		typeName = e.Key.Type.String()
	}
	return fmt.Sprintf("di: %s is not registered for name %s in %s scope", typeName, name, e.Scope)
}

// Unwrap 使 errors.Is(err, ErrNotRegistered) 成立
func (e *ResolutionError) Unwrap() error {
	return ErrNotRegistered
}
