package mongodb

import (
	"context"

	"github.com/gocrud/locator/bootstrap"
	"github.com/gocrud/locator/di"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Configure 返回 MongoDB 配置器
//
// 注册 *Factory；每个客户端以名称注册为 *mongo.Client，配置了 Database 的同时注册 *mongo.Database；
// "default" 再以未命名方式注册一次。
func Configure(options func(*Builder)) bootstrap.Configurator {
	return func(ctx *bootstrap.BuildContext) error {
		logger := ctx.Logger().WithCategory("MongoDB")

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
			db := factory.Database(name)

			bootstrap.ProvideValue(ctx, client, di.WithName(name))
			if db != nil {
				bootstrap.ProvideValue(ctx, db, di.WithName(name))
			}
			if name == DefaultName {
				bootstrap.ProvideValue(ctx, client)
				if db != nil {
					bootstrap.ProvideValue(ctx, db)
				}
			}
		}

		ctx.SetCleanup("mongodb", func() error {
			logger.Info("Closing mongo clients")
			return factory.Close()
		})
		return nil
	}
}

// Client 从注册表解析指定名称的客户端，name 为空时解析默认客户端
func Client(c di.Container, name string) (*mongo.Client, error) {
	return di.TryResolve[*mongo.Client](c, di.WithName(name), di.WithShared())
}
