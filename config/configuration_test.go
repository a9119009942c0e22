package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueStore(t *testing.T) {
	store := NewValueStore()
	assert.Empty(t, store.Load())

	store.Store(map[string]any{"key": "value"})
	assert.Equal(t, "value", store.Load()["key"])

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Load()
		}()
	}
	wg.Wait()
}

func TestPathCache(t *testing.T) {
	cache := &PathCache{}

	parts := cache.GetPathSegments("a:b.c")
	assert.Equal(t, []string{"a", "b", "c"}, parts)
	assert.Equal(t, parts, cache.GetPathSegments("a:b.c"))
}

func TestConfiguration_Getters(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{
			"server": map[string]any{
				"host":  "localhost",
				"port":  8080,
				"debug": "true",
			},
			"logging:level": "debug",
		}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Get("server:host"))
	assert.Equal(t, "localhost", cfg.Get("server.host"))
	assert.Equal(t, "8080", cfg.Get("server:port"))
	assert.Equal(t, "debug", cfg.Get("logging:level"))
	assert.Equal(t, "", cfg.Get("server:missing"))
	assert.Equal(t, "fallback", cfg.GetWithDefault("server:missing", "fallback"))

	port, err := cfg.GetInt("server:port")
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	debug, err := cfg.GetBool("server:debug")
	require.NoError(t, err)
	assert.True(t, debug)

	_, err = cfg.GetInt("server:missing")
	assert.Error(t, err)

	section := cfg.GetSection("server")
	assert.Equal(t, "localhost", section.Get("host"))
	assert.Empty(t, cfg.GetSection("nothing").GetAll())
}

func TestConfiguration_LaterSourcesOverride(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{"redis": map[string]any{"addr": "a:6379", "db": 1}}).
		AddInMemory(map[string]any{"redis": map[string]any{"addr": "b:6379"}}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "b:6379", cfg.Get("redis:addr"))
	assert.Equal(t, "1", cfg.Get("redis:db"))
}

func TestConfiguration_GetAllReturnsCopy(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{"a": map[string]any{"b": 1}}).
		Build()
	require.NoError(t, err)

	all := cfg.GetAll()
	all["a"].(map[string]any)["b"] = 2
	assert.Equal(t, "1", cfg.Get("a:b"))
}

type serverOptions struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func TestLoad(t *testing.T) {
	cfg, err := NewConfigurationBuilder().
		AddInMemory(map[string]any{"server": map[string]any{"host": "0.0.0.0", "port": 9000}}).
		Build()
	require.NoError(t, err)

	opts, err := Load[serverOptions](cfg, "server")
	require.NoError(t, err)
	assert.Equal(t, serverOptions{Host: "0.0.0.0", Port: 9000}, opts)

	_, err = Load[serverOptions](cfg, "missing")
	assert.Error(t, err)
}

func TestFileSources(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "app.yaml")
	jsonPath := filepath.Join(dir, "app.json")

	require.NoError(t, os.WriteFile(yamlPath, []byte("server:\n  host: yaml-host\n  port: 1\n"), 0o644))
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"server": {"port": 2}}`), 0o644))

	cfg, err := NewConfigurationBuilder().
		AddYamlFile(yamlPath).
		AddJsonFile(jsonPath).
		AddYamlFile(filepath.Join(dir, "missing.yaml"), true).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "yaml-host", cfg.Get("server:host"))
	assert.Equal(t, "2", cfg.Get("server:port"))

	_, err = NewConfigurationBuilder().AddYamlFile(filepath.Join(dir, "missing.yaml")).Build()
	assert.Error(t, err)
}

func TestEnvironmentVariableSource(t *testing.T) {
	t.Setenv("LOCATORTEST_REDIS_ADDR", "env:6379")
	t.Setenv("LOCATORTEST_SERVER__READ_TIMEOUT", "30")

	cfg, err := NewConfigurationBuilder().AddEnvironmentVariables("LOCATORTEST_").Build()
	require.NoError(t, err)

	assert.Equal(t, "env:6379", cfg.Get("redis:addr"))
	timeout, err := cfg.GetInt("server:read_timeout")
	require.NoError(t, err)
	assert.Equal(t, 30, timeout)
}

func TestEtcdConfigKey(t *testing.T) {
	assert.Equal(t, "redis:addr", etcdConfigKey("/app/redis/addr", "/app"))
	assert.Equal(t, "redis", etcdConfigKey("/redis/", ""))

	assert.Equal(t, map[string]any{"a": float64(1)}, decodeEtcdValue([]byte(`{"a": 1}`)))
	assert.Equal(t, map[string]any{"b": "x"}, decodeEtcdValue([]byte("b: x\n")))
	assert.Equal(t, "plain", decodeEtcdValue([]byte("plain")))
}

func TestReloadableConfiguration(t *testing.T) {
	data := map[string]any{"feature": map[string]any{"enabled": false}}
	source := &InMemorySource{Data: data}

	cfg, err := NewConfigurationBuilder().Add(source).BuildReloadable()
	require.NoError(t, err)

	enabled, err := cfg.GetBool("feature:enabled")
	require.NoError(t, err)
	assert.False(t, enabled)

	reloads := 0
	cfg.OnReload(func() { reloads++ })

	data["feature"] = map[string]any{"enabled": true}
	require.NoError(t, cfg.Reload())

	enabled, err = cfg.GetBool("feature:enabled")
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, 1, reloads)
	assert.False(t, cfg.Watchable())
}

type failingSource struct{ fail bool }

func (s *failingSource) Name() string { return "failing" }

func (s *failingSource) Load() (map[string]any, error) {
	if s.fail {
		return nil, assert.AnError
	}
	return map[string]any{"k": "v"}, nil
}

func TestReloadableConfiguration_KeepsSnapshotOnError(t *testing.T) {
	source := &failingSource{}
	cfg, err := NewConfigurationBuilder().Add(source).BuildReloadable()
	require.NoError(t, err)

	source.fail = true
	assert.ErrorIs(t, cfg.Reload(), assert.AnError)
	assert.Equal(t, "v", cfg.Get("k"))
}

func TestMonitor(t *testing.T) {
	data := map[string]any{"server": map[string]any{"host": "a", "port": 1}}
	cfg, err := NewConfigurationBuilder().AddInMemory(data).BuildReloadable()
	require.NoError(t, err)

	monitor, err := NewMonitor[serverOptions](cfg, "server")
	require.NoError(t, err)
	assert.Equal(t, "a", monitor.Value().Host)

	var seen []serverOptions
	monitor.OnChange(func(o serverOptions) { seen = append(seen, o) })

	data["server"] = map[string]any{"host": "b", "port": 2}
	require.NoError(t, cfg.Reload())

	assert.Equal(t, serverOptions{Host: "b", Port: 2}, monitor.Value())
	assert.Equal(t, []serverOptions{{Host: "b", Port: 2}}, seen)
	assert.NoError(t, monitor.Err())
}

func TestReloadableConfiguration_WatchFile(t *testing.T) {
	old := DefaultDebounce
	DefaultDebounce = 20 * time.Millisecond
	t.Cleanup(func() { DefaultDebounce = old })

	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: one\n"), 0o644))

	cfg, err := NewConfigurationBuilder().AddYamlFile(path).BuildReloadable()
	require.NoError(t, err)
	require.True(t, cfg.Watchable())

	var reloads atomic.Int32
	cfg.OnReload(func() { reloads.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cfg.Watch(ctx, nil) }()

	// 监听建立前的写入可能丢失，因此重复写入直到生效
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("mode: two\n"), 0o644)
		return cfg.Get("mode") == "two"
	}, 5*time.Second, 100*time.Millisecond)
	assert.Positive(t, reloads.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}
