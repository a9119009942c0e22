package bootstrap

import (
	"fmt"
	"sync"
	"time"

	"github.com/gocrud/locator/config"
	"github.com/gocrud/locator/di"
	"github.com/gocrud/locator/logging"
)

// Builder 应用程序构建器
type Builder struct {
	resolver          *di.Resolver
	metrics           di.MetricsRecorder
	environment       string
	configBuilder     *config.ConfigurationBuilder
	loggingBuilder    *logging.LoggingBuilder
	loggingCustomized bool
	configurators     []Configurator
	shutdownTimeout   time.Duration
	mu                sync.Mutex
}

// NewBuilder 创建应用程序构建器
func NewBuilder() *Builder {
	return &Builder{
		configBuilder:   config.NewConfigurationBuilder(),
		loggingBuilder:  logging.NewLoggingBuilder(),
		configurators:   make([]Configurator, 0),
		shutdownTimeout: 30 * time.Second,
	}
}

// UseResolver 使用指定的 Resolver（默认 di.Default()）
func (b *Builder) UseResolver(resolver *di.Resolver) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resolver = resolver
	return b
}

// UseMetrics 为 Resolver 设置指标记录器
func (b *Builder) UseMetrics(metrics di.MetricsRecorder) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics = metrics
	return b
}

// UseEnvironment 设置环境，优先于配置中的 "environment"
func (b *Builder) UseEnvironment(env string) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.environment = env
	return b
}

// ConfigureConfiguration 配置配置系统
func (b *Builder) ConfigureConfiguration(configure func(*config.ConfigurationBuilder)) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if configure != nil {
		configure(b.configBuilder)
	}
	return b
}

// ConfigureLogging 配置日志系统；未调用时默认输出到控制台
func (b *Builder) ConfigureLogging(configure func(*logging.LoggingBuilder)) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if configure != nil {
		configure(b.loggingBuilder)
		b.loggingCustomized = true
	}
	return b
}

// Configure 添加配置器，按添加顺序执行
func (b *Builder) Configure(configurators ...Configurator) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range configurators {
		if c != nil {
			b.configurators = append(b.configurators, c)
		}
	}
	return b
}

// UseShutdownTimeout 设置关闭超时
func (b *Builder) UseShutdownTimeout(timeout time.Duration) *Builder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shutdownTimeout = timeout
	return b
}

// Build 构建 Host
//
// 任一配置器失败时，已设置的清理函数会被执行，已注册的服务会被移除。
func (b *Builder) Build() (*Host, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cfg, err := b.configBuilder.BuildReloadable()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: build configuration: %w", err)
	}

	if level := cfg.Get("logging:level"); level != "" {
		parsed, err := logging.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: %w", err)
		}
		b.loggingBuilder.SetMinimumLevel(parsed)
	}
	if !b.loggingCustomized {
		b.loggingBuilder.AddConsole()
		b.loggingCustomized = true
	}
	loggerFactory := b.loggingBuilder.Build()
	logger := loggerFactory.CreateLogger("Application")

	// 重载后同步日志级别，解析失败时保持原级别
	cfg.OnReload(func() {
		if level, err := logging.ParseLevel(cfg.Get("logging:level")); err == nil {
			loggerFactory.SetMinimumLevel(level)
		}
	})

	envName := b.environment
	if envName == "" {
		envName = cfg.GetWithDefault("environment", EnvironmentDevelopment)
	}
	env := NewEnvironment(envName)

	resolver := b.resolver
	if resolver == nil {
		resolver = di.Default()
	}
	resolver.UseLogger(loggerFactory.CreateLogger("Resolver"))
	if b.metrics != nil {
		resolver.UseMetrics(b.metrics)
	}

	logger.Info("Building application", logging.Field{Key: "environment", Value: env.Name()})

	ctx := &BuildContext{
		resolver:      resolver,
		configuration: cfg,
		loggerFactory: loggerFactory,
		logger:        logger,
		environment:   env,
		seen:          make(map[di.ServiceKey]struct{}),
	}

	ProvideValue[config.Configuration](ctx, cfg)
	ProvideValue(ctx, cfg)
	ProvideValue(ctx, loggerFactory)
	ProvideValue(ctx, logger)
	ProvideValue(ctx, env)

	host := &Host{
		ctx:             ctx,
		shutdownTimeout: b.shutdownTimeout,
	}

	for i, configurator := range b.configurators {
		if err := configurator(ctx); err != nil {
			logger.Error("Configurator failed",
				logging.Field{Key: "index", Value: i},
				logging.Field{Key: "error", Value: err.Error()})
			if closeErr := host.Close(); closeErr != nil {
				logger.Warn("Cleanup after failed build reported errors",
					logging.Field{Key: "error", Value: closeErr.Error()})
			}
			return nil, fmt.Errorf("bootstrap: configurator %d: %w", i, err)
		}
	}

	logger.Info("Application built", logging.Field{Key: "services", Value: len(ctx.Keys())})
	return host, nil
}
