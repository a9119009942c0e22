package config

import (
	"sync"
)

// Monitor 持有配置节绑定后的值，配置重载后自动重新绑定
type Monitor[T any] struct {
	cfg     Configuration
	section string

	mu        sync.RWMutex
	current   T
	listeners []func(T)
	lastErr   error
}

// NewMonitor 绑定配置节；cfg 为 *ReloadableConfiguration 时随重载更新
//
// 初次绑定失败返回错误；重载时绑定失败则保留旧值，错误可通过 Err 读取。
func NewMonitor[T any](cfg Configuration, section string) (*Monitor[T], error) {
	m := &Monitor[T]{cfg: cfg, section: section}
	if err := m.rebind(); err != nil {
		return nil, err
	}

	if rc, ok := cfg.(interface{ OnReload(func()) }); ok {
		rc.OnReload(func() {
			_ = m.rebind()
		})
	}
	return m, nil
}

func (m *Monitor[T]) rebind() error {
	value, err := Load[T](m.cfg, m.section)

	m.mu.Lock()
	m.lastErr = err
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.current = value
	listeners := append([]func(T){}, m.listeners...)
	m.mu.Unlock()

	for _, l := range listeners {
		l(value)
	}
	return nil
}

// Value 返回当前值
func (m *Monitor[T]) Value() T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Err 返回最近一次绑定的错误
func (m *Monitor[T]) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// OnChange 注册值更新回调
func (m *Monitor[T]) OnChange(listener func(T)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}
