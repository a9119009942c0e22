package config

import (
	"sync/atomic"
)

// ValueStore 原子地保存当前配置快照，读取无锁
type ValueStore struct {
	value atomic.Pointer[configuration]
}

// NewValueStore 创建保存空配置的 ValueStore
func NewValueStore() *ValueStore {
	s := &ValueStore{}
	s.value.Store(newConfiguration(nil))
	return s
}

// Load 返回当前配置快照的数据
func (s *ValueStore) Load() map[string]any {
	return s.snapshot().data
}

// Store 原子替换配置数据
func (s *ValueStore) Store(data map[string]any) {
	s.value.Store(newConfiguration(data))
}

func (s *ValueStore) snapshot() *configuration {
	return s.value.Load()
}
