// Package configure 汇总各基础设施模块的配置器
package configure

import (
	"github.com/gocrud/locator/bootstrap"
	"github.com/gocrud/locator/configure/cron"
	"github.com/gocrud/locator/configure/database"
	"github.com/gocrud/locator/configure/etcd"
	"github.com/gocrud/locator/configure/mongodb"
	"github.com/gocrud/locator/configure/redis"
	"github.com/gocrud/locator/configure/web"
)

// Etcd 便捷导出 etcd 配置器
// 使用示例: builder.Configure(configure.Etcd(func(b *etcd.Builder) { ... }))
func Etcd(options func(*etcd.Builder)) bootstrap.Configurator {
	return etcd.Configure(options)
}

// Cron 便捷导出 cron 配置器
// 使用示例: builder.Configure(configure.Cron(func(b *cron.Builder) { ... }))
func Cron(options func(*cron.Builder)) bootstrap.Configurator {
	return cron.Configure(options)
}

// Web 便捷导出 web 配置器
// 使用示例: builder.Configure(configure.Web(func(b *web.Builder) { ... }))
func Web(options func(*web.Builder)) bootstrap.Configurator {
	return web.Configure(options)
}

// Redis 便捷导出 redis 配置器
// 使用示例: builder.Configure(configure.Redis(func(b *redis.Builder) { ... }))
func Redis(options func(*redis.Builder)) bootstrap.Configurator {
	return redis.Configure(options)
}

// Database 便捷导出数据库配置器
// 使用示例: builder.Configure(configure.Database(func(b *database.Builder) { ... }))
func Database(options func(*database.Builder)) bootstrap.Configurator {
	return database.Configure(options)
}

// MongoDB 便捷导出 MongoDB 配置器
// 使用示例: builder.Configure(configure.MongoDB(func(b *mongodb.Builder) { ... }))
func MongoDB(options func(*mongodb.Builder)) bootstrap.Configurator {
	return mongodb.Configure(options)
}
