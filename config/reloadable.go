package config

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ReloadableConfiguration 可重载配置
//
// 读取总是作用于最新的快照；Reload 失败时保留旧快照。
type ReloadableConfiguration struct {
	sources []ConfigurationSource
	store   *ValueStore

	mu        sync.Mutex
	callbacks []func()
}

var _ Configuration = (*ReloadableConfiguration)(nil)

func (c *ReloadableConfiguration) current() *configuration {
	return c.store.snapshot()
}

func (c *ReloadableConfiguration) Get(key string) string { return c.current().Get(key) }

func (c *ReloadableConfiguration) GetWithDefault(key, defaultValue string) string {
	return c.current().GetWithDefault(key, defaultValue)
}

func (c *ReloadableConfiguration) GetInt(key string) (int, error)   { return c.current().GetInt(key) }
func (c *ReloadableConfiguration) GetBool(key string) (bool, error) { return c.current().GetBool(key) }

// GetSection 返回当前快照中的配置节，之后的重载不会影响它
func (c *ReloadableConfiguration) GetSection(key string) Configuration {
	return c.current().GetSection(key)
}

func (c *ReloadableConfiguration) Bind(key string, target any) error {
	return c.current().Bind(key, target)
}

func (c *ReloadableConfiguration) GetAll() map[string]any { return c.current().GetAll() }

// Snapshot 返回当前快照
func (c *ReloadableConfiguration) Snapshot() Configuration { return c.current() }

// Reload 重新加载所有配置源并通知 OnReload 回调
func (c *ReloadableConfiguration) Reload() error {
	data, err := loadSources(c.sources)
	if err != nil {
		return err
	}
	c.store.Store(data)

	c.mu.Lock()
	callbacks := append([]func(){}, c.callbacks...)
	c.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
	return nil
}

// OnReload 注册重载回调，回调在 Reload 的调用协程中执行
func (c *ReloadableConfiguration) OnReload(callback func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, callback)
}

// Watch 监听所有可监听的配置源，变更时调用 Reload，阻塞直到 ctx 结束
//
// onError 接收重载失败的错误，可以为 nil。
func (c *ReloadableConfiguration) Watch(ctx context.Context, onError func(error)) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, source := range c.sources {
		ws, ok := source.(WatchableSource)
		if !ok {
			continue
		}
		g.Go(func() error {
			return ws.Watch(ctx, func() {
				if err := c.Reload(); err != nil && onError != nil {
					onError(err)
				}
			})
		})
	}
	return g.Wait()
}

// Watchable 报告是否存在可监听的配置源
func (c *ReloadableConfiguration) Watchable() bool {
	for _, source := range c.sources {
		if _, ok := source.(WatchableSource); ok {
			return true
		}
	}
	return false
}
