package config

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Configuration 配置接口
//
// 键支持 ":" 或 "." 作为层级分隔符，例如 "redis:clients:cache:addr"。
type Configuration interface {
	// Get 获取配置值，不存在时返回空字符串
	Get(key string) string
	// GetWithDefault 获取配置值，如果不存在则返回默认值
	GetWithDefault(key, defaultValue string) string
	// GetInt 获取整数配置值
	GetInt(key string) (int, error)
	// GetBool 获取布尔配置值
	GetBool(key string) (bool, error)
	// GetSection 获取配置节，不存在时返回空配置
	GetSection(key string) Configuration
	// Bind 绑定配置到结构体
	Bind(key string, target any) error
	// GetAll 获取所有配置（副本）
	GetAll() map[string]any
}

// configuration 基于只读快照的配置实现
//
// data 构建后不再修改，因此读取不需要加锁。
type configuration struct {
	data map[string]any
}

func newConfiguration(data map[string]any) *configuration {
	if data == nil {
		data = make(map[string]any)
	}
	return &configuration{data: data}
}

// Get 获取配置值
func (c *configuration) Get(key string) string {
	value := lookup(c.data, key)
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetWithDefault 获取配置值，如果不存在则返回默认值
func (c *configuration) GetWithDefault(key, defaultValue string) string {
	value := c.Get(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetInt 获取整数配置值
func (c *configuration) GetInt(key string) (int, error) {
	value := lookup(c.data, key)
	if value == nil {
		return 0, fmt.Errorf("config: key %s not found", key)
	}

	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("config: cannot convert %v to int", value)
	}
}

// GetBool 获取布尔配置值
func (c *configuration) GetBool(key string) (bool, error) {
	value := lookup(c.data, key)
	if value == nil {
		return false, fmt.Errorf("config: key %s not found", key)
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("config: cannot convert %v to bool", value)
	}
}

// GetSection 获取配置节
func (c *configuration) GetSection(key string) Configuration {
	if m, ok := lookup(c.data, key).(map[string]any); ok {
		return newConfiguration(m)
	}
	return newConfiguration(nil)
}

// Bind 绑定配置到结构体，key 为空时绑定全部配置
//
// 字段名按 encoding/json 的规则匹配（大小写不敏感，支持 json tag）。
func (c *configuration) Bind(key string, target any) error {
	data := lookup(c.data, key)
	if data == nil {
		return fmt.Errorf("config: key %s not found", key)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("config: marshal %s: %w", key, err)
	}

	if err := json.Unmarshal(jsonData, target); err != nil {
		return fmt.Errorf("config: bind %s: %w", key, err)
	}

	return nil
}

// GetAll 获取所有配置
func (c *configuration) GetAll() map[string]any {
	return cloneMap(c.data)
}

// lookup 通过路径获取值（支持 "a:b:c" 或 "a.b.c"）
func lookup(data map[string]any, path string) any {
	if path == "" {
		return data
	}

	current := any(data)
	for _, part := range globalPathCache.GetPathSegments(path) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}

	return current
}

// mergeMaps 把 src 深度合并到 dst，src 中的值覆盖 dst
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]any); ok {
			if dstMap, ok := dst[k].(map[string]any); ok {
				mergeMaps(dstMap, srcMap)
				continue
			}
			// 复制子 map，避免后续合并修改配置源自身的数据
			dst[k] = cloneMap(srcMap)
			continue
		}
		dst[k] = v
	}
}

func cloneMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	mergeMaps(dst, src)
	return dst
}
