package di

import "fmt"

// Token 把一个名称绑定到类型 T，用于区分相同类型的不同依赖
//
// 使用场景：
//   - 需要注册多个相同类型但用途不同的实例（如多个数据库连接）
//   - 配置值（如字符串、整数等基本类型）
//
// 示例：
//
//	var ReportDB = di.NewToken[*gorm.DB]("report")
//
//	ReportDB.Register(resolver, openReportDB, di.WithShared())
//	db, ok := ReportDB.Resolve(resolver, di.WithShared())
type Token[T any] struct {
	name string
}

// NewToken 创建一个新的 Token
func NewToken[T any](name string) *Token[T] {
	return &Token[T]{name: name}
}

// Name 返回 Token 的名称
func (t *Token[T]) Name() string {
	return t.name
}

// Key 返回 Token 对应的注册表键
func (t *Token[T]) Key() ServiceKey {
	return ServiceKey{Type: TypeOf[T](), Name: t.name}
}

// String 返回 Token 的字符串表示
func (t *Token[T]) String() string {
	return fmt.Sprintf("Token[%s](%s)", TypeOf[T](), t.name)
}

// Register 在 Token 的名称下注册工厂，opts 中的名称会被忽略。
func (t *Token[T]) Register(c Container, factory func() T, opts ...Option) {
	Register(c, factory, append(opts, WithName(t.name))...)
}

// Resolve 解析 Token 对应的实例。
func (t *Token[T]) Resolve(c Container, opts ...Option) (T, bool) {
	return Resolve[T](c, append(opts, WithName(t.name))...)
}

// MustResolve 解析 Token 对应的实例，未注册时 panic。
func (t *Token[T]) MustResolve(c Container, opts ...Option) T {
	return MustResolve[T](c, append(opts, WithName(t.name))...)
}

// Clean 删除 Token 对应的两个作用域槽位。
func (t *Token[T]) Clean(c Container) {
	Clean[T](c, WithName(t.name))
}
