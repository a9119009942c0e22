package web

import (
	"github.com/gocrud/locator/bootstrap"
	"github.com/gocrud/locator/logging"
)

// Configure 返回 Web 配置器
//
// 配置项 web:addr 或 web:port 设置监听地址，options 中的设置优先。
// *gin.Engine 与 *Host 以 shared 注册，Host 作为托管服务运行。
// 使用示例: builder.Configure(web.Configure(func(b *web.Builder) { ... }))
func Configure(options func(*Builder)) bootstrap.Configurator {
	return func(ctx *bootstrap.BuildContext) error {
		logger := ctx.Logger().WithCategory("Web")
		cfg := ctx.Configuration()

		builder := NewBuilder(ctx.Resolver(), logger)
		if addr := cfg.Get("web:addr"); addr != "" {
			builder.UseAddr(addr)
		} else if cfg.Get("web:port") != "" {
			port, err := cfg.GetInt("web:port")
			if err != nil {
				return err
			}
			builder.UsePort(port)
		}
		if options != nil {
			options(builder)
		}

		host, err := builder.Build()
		if err != nil {
			return err
		}

		bootstrap.ProvideValue(ctx, builder.Engine())
		bootstrap.ProvideValue(ctx, host)
		ctx.AddHostedService(host)

		logger.Info("Web host configured", logging.Field{Key: "addr", Value: host.server.Addr})
		return nil
	}
}

