package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Options 数据库配置选项
type Options struct {
	Name         string
	Dialector    gorm.Dialector
	GormConfig   *gorm.Config
	MaxIdleConns int
	MaxOpenConns int
	MaxLifetime  time.Duration
	AutoMigrate  []any // 需要自动迁移的模型
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions(name string, dialector gorm.Dialector) *Options {
	return &Options{
		Name:         name,
		Dialector:    dialector,
		GormConfig:   &gorm.Config{},
		MaxIdleConns: 10,
		MaxOpenConns: 100,
		MaxLifetime:  time.Hour,
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if o.Dialector == nil {
		return fmt.Errorf("database dialector is required")
	}
	return nil
}

// databaseConfig 配置文件中的数据库定义
type databaseConfig struct {
	Driver       string `json:"driver"`
	DSN          string `json:"dsn"`
	MaxIdleConns int    `json:"maxIdleConns"`
	MaxOpenConns int    `json:"maxOpenConns"`
	MaxLifetime  string `json:"maxLifetime"`
}

func (c databaseConfig) apply(o *Options) error {
	if c.MaxIdleConns > 0 {
		o.MaxIdleConns = c.MaxIdleConns
	}
	if c.MaxOpenConns > 0 {
		o.MaxOpenConns = c.MaxOpenConns
	}
	if c.MaxLifetime != "" {
		d, err := time.ParseDuration(c.MaxLifetime)
		if err != nil {
			return fmt.Errorf("database %q: maxLifetime: %w", o.Name, err)
		}
		o.MaxLifetime = d
	}
	return nil
}
