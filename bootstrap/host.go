package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/gocrud/locator/config"
	"github.com/gocrud/locator/di"
	"github.com/gocrud/locator/hosting"
	"github.com/gocrud/locator/logging"
	"go.uber.org/multierr"
)

var (
	// ErrAlreadyRunning 表示 Host.Run 在运行期间被重复调用
	ErrAlreadyRunning = errors.New("bootstrap: host is already running")
	// ErrAlreadyRan 表示 Host.Run 已经结束过，Host 不能再次运行
	ErrAlreadyRan = errors.New("bootstrap: host has already run")
)

// Host 构建完成的应用程序
type Host struct {
	ctx             *BuildContext
	shutdownTimeout time.Duration

	mu      sync.Mutex
	running bool
	ran     bool

	closeOnce sync.Once
	closeErr  error
}

// Resolver 返回注册表门面
func (h *Host) Resolver() *di.Resolver { return h.ctx.resolver }

// Configuration 获取配置
func (h *Host) Configuration() config.Configuration { return h.ctx.configuration }

// Logger 获取日志记录器
func (h *Host) Logger() logging.Logger { return h.ctx.logger }

// Environment 获取环境
func (h *Host) Environment() Environment { return h.ctx.environment }

// Run 启动配置监听与托管服务，阻塞直到 ctx 结束或某个服务失败，然后优雅停止
//
// Run 只能调用一次，托管服务停止后不可重启；再次调用返回 ErrAlreadyRan。
// Run 不会释放资源，结束后调用 Close。
func (h *Host) Run(ctx context.Context) error {
	h.mu.Lock()
	switch {
	case h.running:
		h.mu.Unlock()
		return ErrAlreadyRunning
	case h.ran:
		h.mu.Unlock()
		return ErrAlreadyRan
	}
	h.running = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.running = false
		h.ran = true
		h.mu.Unlock()
	}()

	logger := h.ctx.logger
	services, _, _ := h.ctx.snapshot()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Info("Starting application", logging.Field{Key: "environment", Value: h.ctx.environment.Name()})

	var watchWG sync.WaitGroup
	if cfg := h.ctx.configuration; cfg.Watchable() {
		watchWG.Add(1)
		go func() {
			defer watchWG.Done()
			err := cfg.Watch(runCtx, func(err error) {
				logger.Error("Failed to reload configuration", logging.Field{Key: "error", Value: err.Error()})
			})
			if err != nil {
				logger.Warn("Configuration watch stopped", logging.Field{Key: "error", Value: err.Error()})
			}
		}()
	}

	manager := hosting.NewHostedServiceManager(h.ctx.loggerFactory.CreateLogger("Hosting"))
	for _, service := range services {
		manager.Add(service)
	}
	errCh := manager.StartAll(runCtx)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown requested")
	case err := <-errCh:
		logger.Error("Hosted service failed, stopping application", logging.Field{Key: "error", Value: err.Error()})
		runErr = err
	}

	logger.Info("Shutting down application", logging.Field{Key: "timeout", Value: h.shutdownTimeout.String()})
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer shutdownCancel()

	if err := manager.StopAll(shutdownCtx); err != nil {
		runErr = multierr.Append(runErr, err)
	}
	manager.Wait()
	watchWG.Wait()

	logger.Info("Application stopped")
	return runErr
}

// Close 按相反顺序执行清理函数，然后从注册表移除构建期间注册的服务并关闭日志
func (h *Host) Close() error {
	h.closeOnce.Do(func() {
		h.closeErr = h.close()
	})
	return h.closeErr
}

func (h *Host) close() error {
	logger := h.ctx.logger
	_, cleanups, keys := h.ctx.snapshot()

	var errs error
	if len(cleanups) > 0 {
		logger.Info("Running cleanup functions", logging.Field{Key: "count", Value: len(cleanups)})
	}
	for i := len(cleanups) - 1; i >= 0; i-- {
		c := cleanups[i]
		logger.Debug("Running cleanup", logging.Field{Key: "key", Value: c.key})
		if c.fn == nil {
			continue
		}
		if err := c.fn(); err != nil {
			logger.Error("Cleanup failed",
				logging.Field{Key: "key", Value: c.key},
				logging.Field{Key: "error", Value: err.Error()})
			errs = multierr.Append(errs, fmt.Errorf("cleanup %s: %w", c.key, err))
		}
	}

	for name, types := range groupByName(keys) {
		h.ctx.resolver.CleanDependencyServices(types, name)
	}

	return multierr.Append(errs, h.ctx.loggerFactory.Close())
}

func groupByName(keys []di.ServiceKey) map[string][]reflect.Type {
	groups := make(map[string][]reflect.Type)
	for _, key := range keys {
		groups[key.Name] = append(groups[key.Name], key.Type)
	}
	return groups
}
