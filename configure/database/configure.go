package database

import (
	"github.com/gocrud/locator/bootstrap"
	"github.com/gocrud/locator/di"
	"gorm.io/gorm"
)

// Configure 返回数据库配置器
//
// 注册 *Factory，并把每个实例以名称注册为 *gorm.DB；"default" 同时以未命名方式注册。
func Configure(options func(*Builder)) bootstrap.Configurator {
	return func(ctx *bootstrap.BuildContext) error {
		logger := ctx.Logger().WithCategory("Database")

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
			db, _ := factory.Get(name)
			bootstrap.ProvideValue(ctx, db, di.WithName(name))
			if name == DefaultName {
				bootstrap.ProvideValue(ctx, db)
			}
		}

		ctx.SetCleanup("database", func() error {
			logger.Info("Closing database connections")
			return factory.Close()
		})
		return nil
	}
}

// DB 从注册表解析指定名称的数据库，name 为空时解析默认实例
func DB(c di.Container, name string) (*gorm.DB, error) {
	return di.TryResolve[*gorm.DB](c, di.WithName(name), di.WithShared())
}
