package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigurationSource 配置源接口
type ConfigurationSource interface {
	Load() (map[string]any, error)
	Name() string
}

// WatchableSource 可以监听变更的配置源
//
// Watch 阻塞直到 ctx 结束；每次检测到变更调用 onChange。
type WatchableSource interface {
	ConfigurationSource
	Watch(ctx context.Context, onChange func()) error
}

// JsonFileSource JSON 文件配置源
type JsonFileSource struct {
	Path     string
	Optional bool
}

func (s *JsonFileSource) Name() string {
	return fmt.Sprintf("JsonFile(%s)", s.Path)
}

func (s *JsonFileSource) Load() (map[string]any, error) {
	return loadFile(s.Path, s.Optional, func(data []byte, out *map[string]any) error {
		return json.Unmarshal(data, out)
	})
}

// Watch 监听文件所在目录，文件被写入、创建或替换时触发
func (s *JsonFileSource) Watch(ctx context.Context, onChange func()) error {
	return watchFile(ctx, s.Path, onChange)
}

// YamlFileSource YAML 文件配置源
type YamlFileSource struct {
	Path     string
	Optional bool
}

func (s *YamlFileSource) Name() string {
	return fmt.Sprintf("YamlFile(%s)", s.Path)
}

func (s *YamlFileSource) Load() (map[string]any, error) {
	return loadFile(s.Path, s.Optional, func(data []byte, out *map[string]any) error {
		return yaml.Unmarshal(data, out)
	})
}

// Watch 监听文件所在目录，文件被写入、创建或替换时触发
func (s *YamlFileSource) Watch(ctx context.Context, onChange func()) error {
	return watchFile(ctx, s.Path, onChange)
}

func loadFile(path string, optional bool, unmarshal func([]byte, *map[string]any) error) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return make(map[string]any), nil
		}
		return nil, err
	}

	var result map[string]any
	if err := unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if result == nil {
		result = make(map[string]any)
	}
	return result, nil
}

// EnvironmentVariableSource 环境变量配置源
//
// APP_REDIS_ADDR 在前缀为 "APP_" 时映射为 "redis:addr"；
// 双下划线 "__" 存在时仅按 "__" 分层，以便键名本身包含下划线。
type EnvironmentVariableSource struct {
	Prefix string
}

func (s *EnvironmentVariableSource) Name() string {
	return fmt.Sprintf("EnvironmentVariables(%s)", s.Prefix)
}

func (s *EnvironmentVariableSource) Load() (map[string]any, error) {
	result := make(map[string]any)

	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}

		if s.Prefix != "" {
			if !strings.HasPrefix(key, s.Prefix) {
				continue
			}
			key = strings.TrimPrefix(key, s.Prefix)
		}
		if key == "" {
			continue
		}

		key = strings.ToLower(key)
		if strings.Contains(key, "__") {
			key = strings.ReplaceAll(key, "__", ":")
		} else {
			key = strings.ReplaceAll(key, "_", ":")
		}
		setNestedValue(result, key, value)
	}

	return result, nil
}

// InMemorySource 内存配置源，键可以是 "a:b" 形式的扁平路径
type InMemorySource struct {
	Data map[string]any
}

func (s *InMemorySource) Name() string {
	return "InMemory"
}

func (s *InMemorySource) Load() (map[string]any, error) {
	result := make(map[string]any)
	for k, v := range s.Data {
		if m, ok := v.(map[string]any); ok {
			v = cloneMap(m)
		}
		if strings.ContainsAny(k, ":.") {
			setNestedValue(result, strings.Join(globalPathCache.GetPathSegments(k), ":"), v)
			continue
		}
		mergeMaps(result, map[string]any{k: v})
	}
	return result, nil
}

// setNestedValue 设置嵌套值，字符串会尝试转换为整数、浮点数或布尔值
func setNestedValue(data map[string]any, path string, value any) {
	parts := strings.Split(path, ":")
	current := data

	for _, part := range parts[:len(parts)-1] {
		if _, exists := current[part]; !exists {
			current[part] = make(map[string]any)
		}
		m, ok := current[part].(map[string]any)
		if !ok {
			return
		}
		current = m
	}

	if strValue, ok := value.(string); ok {
		value = convertScalar(strValue)
	}

	last := parts[len(parts)-1]
	if src, ok := value.(map[string]any); ok {
		if dst, ok := current[last].(map[string]any); ok {
			mergeMaps(dst, src)
			return
		}
	}
	current[last] = value
}

func convertScalar(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
