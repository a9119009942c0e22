package cron

import (
	"github.com/gocrud/locator/bootstrap"
)

// Configure 返回 Cron 配置器
// 调度器作为托管服务运行，并以 *Scheduler 注册到注册表（shared）
// 使用示例: builder.Configure(cron.Configure(func(b *cron.Builder) { ... }))
func Configure(options func(*Builder)) bootstrap.Configurator {
	return func(ctx *bootstrap.BuildContext) error {
		logger := ctx.Logger().WithCategory("Cron")

		builder := NewBuilder()
		if options != nil {
			options(builder)
		}

		scheduler, err := builder.build(ctx.Resolver(), logger)
		if err != nil {
			return err
		}

		bootstrap.ProvideValue(ctx, scheduler)
		ctx.AddHostedService(scheduler)

		logger.Info("Cron service configured")
		return nil
	}
}
