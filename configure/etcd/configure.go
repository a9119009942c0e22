package etcd

import (
	"github.com/gocrud/locator/bootstrap"
	"github.com/gocrud/locator/di"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Configure 返回 etcd 配置器
// 使用示例: builder.Configure(etcd.Configure(func(b *etcd.Builder) { ... }))
func Configure(options func(*Builder)) bootstrap.Configurator {
	return func(ctx *bootstrap.BuildContext) error {
		logger := ctx.Logger().WithCategory("Etcd")

		builder := NewBuilder(ctx.Configuration())
		if options != nil {
			options(builder)
		}

		factory, err := builder.Build(logger)
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
				logger.Info("Default etcd client registered")
			}
		}

		ctx.SetCleanup("etcd", func() error {
			logger.Info("Closing etcd clients")
			return factory.Close()
		})
		return nil
	}
}

// Client 从注册表解析指定名称的客户端，name 为空时解析默认客户端
func Client(c di.Container, name string) (*clientv3.Client, error) {
	return di.TryResolve[*clientv3.Client](c, di.WithName(name), di.WithShared())
}
