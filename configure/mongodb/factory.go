package mongodb

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/multierr"
)

// Factory 持有所有命名的 MongoDB 客户端
type Factory struct {
	clients   map[string]*mongo.Client
	databases map[string]string
	mu        sync.RWMutex
}

// NewFactory 创建客户端工厂
func NewFactory() *Factory {
	return &Factory{
		clients:   make(map[string]*mongo.Client),
		databases: make(map[string]string),
	}
}

// Register 创建 MongoDB 客户端；驱动在首次操作时才建立连接
func (f *Factory) Register(ctx context.Context, opts Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.clients[opts.Name]; exists {
		return fmt.Errorf("mongo client '%s' already registered", opts.Name)
	}

	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.Username != "" || opts.Password != "" {
		clientOpts.SetAuth(options.Credential{
			Username: opts.Username,
			Password: opts.Password,
		})
	}
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(opts.MinPoolSize)
	}
	if opts.Timeout > 0 {
		clientOpts.SetConnectTimeout(opts.Timeout)
		clientOpts.SetServerSelectionTimeout(opts.Timeout)
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return fmt.Errorf("create mongo client '%s': %w", opts.Name, err)
	}

	if opts.VerifyConnection {
		pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()

		if err := client.Ping(pingCtx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return fmt.Errorf("connect to mongo '%s': %w", opts.Name, err)
		}
	}

	f.clients[opts.Name] = client
	if opts.Database != "" {
		f.databases[opts.Name] = opts.Database
	}
	return nil
}

// Get 获取指定名称的客户端
func (f *Factory) Get(name string) (*mongo.Client, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	client, ok := f.clients[name]
	if !ok {
		return nil, fmt.Errorf("mongo client '%s' not found", name)
	}
	return client, nil
}

// Database 返回客户端配置的默认数据库，没有配置时返回 nil
func (f *Factory) Database(name string) *mongo.Database {
	f.mu.RLock()
	defer f.mu.RUnlock()

	client, ok := f.clients[name]
	db, hasDB := f.databases[name]
	if !ok || !hasDB {
		return nil
	}
	return client.Database(db)
}

// Names 返回已注册的客户端名称（已排序）
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.clients))
	for name := range f.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close 断开所有客户端
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs error
	for name, client := range f.clients {
		if err := client.Disconnect(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close mongo client '%s': %w", name, err))
		}
	}

	f.clients = make(map[string]*mongo.Client)
	f.databases = make(map[string]string)
	return errs
}
