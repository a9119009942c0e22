package di

import (
	"fmt"
	"reflect"
)

// ServiceKey 是注册表的复合键：服务类型 + 可选名称。
// Name 为空表示未命名注册，它与任何命名注册互不影响。
type ServiceKey struct {
	Type reflect.Type
	Name string
}

// String 返回键的可读表示
func (k ServiceKey) String() string {
	typeName := "<nil>"
	if k.Type != nil {
		typeName = k.Type.String()
	}
	if k.Name == "" {
		return typeName
	}
	return fmt.Sprintf("%s(name=%s)", typeName, k.Name)
}

// Registration 描述注册表中的一个槽位，用于诊断输出。
type Registration struct {
	Key   ServiceKey
	Scope Scope
}

// TypeOf 获取类型 T 的 reflect.Type（T 可以是接口）
//
// 示例：
//
//	repoType := di.TypeOf[UserRepository]()
//	v, ok := resolver.Resolve(repoType, "", di.ScopeShared)
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
