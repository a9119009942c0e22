package database

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/gocrud/locator/bootstrap"
	"github.com/gocrud/locator/config"
	"github.com/gocrud/locator/di"
	"github.com/gocrud/locator/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Name string
}

type userStore struct {
	db *gorm.DB
}

func newBuilder(resolver *di.Resolver, data map[string]any) *bootstrap.Builder {
	var buf bytes.Buffer
	return bootstrap.NewBuilder().
		UseResolver(resolver).
		ConfigureLogging(func(lb *logging.LoggingBuilder) {
			lb.AddConsole(logging.ConsoleLoggerOptions{Output: &buf})
		}).
		ConfigureConfiguration(func(cb *config.ConfigurationBuilder) {
			cb.AddInMemory(data)
		})
}

func TestConfigure_FromConfiguration(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "master.db")
	resolver := di.NewResolver()

	host, err := newBuilder(resolver, map[string]any{
		"database": map[string]any{
			"default": map[string]any{"driver": "sqlite", "dsn": dsn, "maxOpenConns": 5},
		},
	}).
		Configure(Configure(func(b *Builder) {
			b.AddFromConfig("database", func(o *Options) { o.AutoMigrate = []any{&User{}} })
		})).
		Configure(func(ctx *bootstrap.BuildContext) error {
			// 工厂在 Resolver 锁内执行，依赖需要在工厂外解析
			db, err := di.TryResolve[*gorm.DB](ctx.Resolver(), di.WithShared())
			if err != nil {
				return err
			}
			bootstrap.Provide(ctx, func() *userStore { return &userStore{db: db} })
			return nil
		}).
		Build()
	require.NoError(t, err)
	defer host.Close()

	store := di.MustResolve[*userStore](resolver)
	require.NotNil(t, store.db)

	sqlDB, err := store.db.DB()
	require.NoError(t, err)
	assert.Equal(t, 5, sqlDB.Stats().MaxOpenConnections)

	require.NoError(t, store.db.Create(&User{Name: "test"}).Error)

	named, err := DB(resolver, DefaultName)
	require.NoError(t, err)
	assert.Same(t, store.db, named)

	var count int64
	require.NoError(t, named.Model(&User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestConfigure_CloseRemovesRegistrations(t *testing.T) {
	resolver := di.NewResolver()
	host, err := newBuilder(resolver, map[string]any{}).
		Configure(Configure(func(b *Builder) {
			b.Add("reports", sqlite.Open(filepath.Join(t.TempDir(), "reports.db")), nil)
		})).
		Build()
	require.NoError(t, err)

	_, err = DB(resolver, "reports")
	require.NoError(t, err)
	_, err = DB(resolver, "")
	assert.ErrorIs(t, err, di.ErrNotRegistered, "only the default instance is registered unnamed")

	require.NoError(t, host.Close())
	_, err = DB(resolver, "reports")
	assert.ErrorIs(t, err, di.ErrNotRegistered)
}

func TestBuilder_Errors(t *testing.T) {
	builder := NewBuilder(nil)

	builder.Add("invalid", nil, nil)
	builder.Add("dup", sqlite.Open("a"), nil)
	builder.Add("dup", sqlite.Open("b"), nil)

	_, err := builder.Build(logging.NewNopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dialector is required")
	assert.Contains(t, err.Error(), "already configured")
}

func TestBuilder_UnsupportedDriver(t *testing.T) {
	cfg, err := config.NewConfigurationBuilder().
		AddInMemory(map[string]any{"db": map[string]any{"main": map[string]any{"driver": "oracle", "dsn": "x"}}}).
		Build()
	require.NoError(t, err)

	_, err = NewBuilder(cfg).AddFromConfig("db", nil).Build(logging.NewNopLogger())
	assert.ErrorContains(t, err, `unsupported driver "oracle"`)
}

func TestBuilder_CustomDriver(t *testing.T) {
	cfg, err := config.NewConfigurationBuilder().
		AddInMemory(map[string]any{"db": map[string]any{"main": map[string]any{
			"driver": "lite", "dsn": filepath.Join(t.TempDir(), "main.db"), "maxLifetime": "10m",
		}}}).
		Build()
	require.NoError(t, err)

	factory, err := NewBuilder(cfg).
		UseDriver("lite", sqlite.Open).
		AddFromConfig("db", nil).
		Build(logging.NewNopLogger())
	require.NoError(t, err)
	defer factory.Close()

	assert.Equal(t, []string{"main"}, factory.Names())
}

func TestBuilder_NoDatabases(t *testing.T) {
	factory, err := NewBuilder(nil).Build(logging.NewNopLogger())
	require.NoError(t, err)
	assert.Nil(t, factory)
}
