package redis

import (
	"context"

	"github.com/gocrud/locator/bootstrap"
	"github.com/gocrud/locator/di"
	"github.com/redis/go-redis/v9"
)

// Configure 返回 Redis 配置器
//
// 注册到注册表（均为 shared）：*ClientFactory；每个客户端以其名称注册为 *redis.Client；
// 名为 "default" 的客户端再以未命名方式注册一次。
//
// 使用示例: builder.Configure(redis.Configure(func(b *redis.Builder) { b.AddFromConfig("redis") }))
func Configure(options func(*Builder)) bootstrap.Configurator {
	return func(ctx *bootstrap.BuildContext) error {
		logger := ctx.Logger().WithCategory("Redis")

		builder := NewBuilder(ctx.Configuration())
		if options != nil {
			options(builder)
		}

		factory, err := builder.Build(context.Background(), logger)
		if err != nil {
			return err
		}
		if factory == nil {
			return nil
		}

		bootstrap.ProvideValue(ctx, factory)
		for _, name := range factory.Names() {
			client, _ := factory.Get(name)
			bootstrap.ProvideValue(ctx, client, di.WithName(name))
			if name == DefaultClientName {
				bootstrap.ProvideValue(ctx, client)
				logger.Info("Default redis client registered")
			}
		}

		ctx.SetCleanup("redis", func() error {
			logger.Info("Closing redis clients")
			return factory.Close()
		})
		return nil
	}
}

// Client 从注册表解析指定名称的客户端，name 为空时解析默认客户端
func Client(c di.Container, name string) (*redis.Client, error) {
	return di.TryResolve[*redis.Client](c, di.WithName(name), di.WithShared())
}

