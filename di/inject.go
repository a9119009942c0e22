package di

// TryResolve 解析类型 T 的必需依赖，未注册时返回 *ResolutionError。
// 适合在构造函数中使用并把错误返回给调用者。
func TryResolve[T any](c Container, opts ...Option) (T, error) {
	v, ok := Resolve[T](c, opts...)
	if !ok {
		o := newOptions(opts)
		return v, &ResolutionError{
			Key:   ServiceKey{Type: TypeOf[T](), Name: o.name},
			Scope: o.scope,
		}
	}
	return v, nil
}

// MustResolve 解析类型 T 的必需依赖，未注册时 panic。
// 缺失的必需依赖属于启动配置错误，不应在运行时被处理。
func MustResolve[T any](c Container, opts ...Option) T {
	v, err := TryResolve[T](c, opts...)
	if err != nil {
		panic(err)
	}
	return v
}

// Inject 从 Default() 解析类型 T 的必需依赖，未注册时 panic。
// 不能在注册到 Default() 的工厂内部调用。
//
// 用法示例：
//
//	type OrderService struct {
//		repo  OrderRepository
//		cache *redis.Client
//	}
//
//	func NewOrderService() *OrderService {
//		return &OrderService{
//			repo:  di.Inject[OrderRepository](),
//			cache: di.Inject[*redis.Client](di.WithName("cache"), di.WithShared()),
//		}
//	}
func Inject[T any](opts ...Option) T {
	return MustResolve[T](Default(), opts...)
}
