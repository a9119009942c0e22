// Package locator 是进程级服务注册表及其应用宿主的入口。
//
// 注册表本身位于 di 包；bootstrap 负责配置、日志与托管服务的装配，
// configure 下的模块把 redis、gorm、mongodb、etcd、gin、cron 客户端注册到注册表。
package locator

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gocrud/locator/bootstrap"
	"go.uber.org/multierr"
)

// NewBuilder 创建应用程序构建器，默认使用 di.Default()
func NewBuilder() *bootstrap.Builder {
	return bootstrap.NewBuilder()
}

// Run 构建并运行应用程序，直到 ctx 结束、收到 SIGINT/SIGTERM 或某个托管服务失败
//
// 使用示例：
//
//	err := locator.Run(context.Background(),
//		redis.Configure(func(b *redis.Builder) { b.AddClient("default", nil) }),
//		web.Configure(func(b *web.Builder) { b.UsePort(8080) }),
//	)
func Run(ctx context.Context, configurators ...bootstrap.Configurator) error {
	host, err := NewBuilder().Configure(configurators...).Build()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := host.Run(ctx)
	return multierr.Append(runErr, host.Close())
}
