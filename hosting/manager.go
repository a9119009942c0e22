package hosting

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gocrud/locator/logging"
	"go.uber.org/multierr"
)

// HostedServiceManager 托管服务管理器
type HostedServiceManager struct {
	services []HostedService
	logger   logging.Logger
	mu       sync.RWMutex
	wg       sync.WaitGroup
}

// NewHostedServiceManager 创建托管服务管理器
func NewHostedServiceManager(logger logging.Logger) *HostedServiceManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HostedServiceManager{
		services: make([]HostedService, 0),
		logger:   logger,
	}
}

// Add 添加托管服务
func (m *HostedServiceManager) Add(service HostedService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = append(m.services, service)
}

// Len 返回已添加的服务数量
func (m *HostedServiceManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.services)
}

// StartAll 在独立的 goroutine 中启动所有服务
//
// 返回的通道接收服务的非取消错误，缓冲区大小等于服务数量。
func (m *HostedServiceManager) StartAll(ctx context.Context) <-chan error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errCh := make(chan error, len(m.services))
	m.logger.Info("Starting hosted services", logging.Field{Key: "count", Value: len(m.services)})

	for i, service := range m.services {
		name := serviceName(i, service)

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()

			m.logger.Debug("Starting hosted service", logging.Field{Key: "service", Value: name})
			err := service.Start(ctx)
			switch {
			case err == nil:
				m.logger.Info("Hosted service completed", logging.Field{Key: "service", Value: name})
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				m.logger.Debug("Hosted service stopped (context done)", logging.Field{Key: "service", Value: name})
			default:
				m.logger.Error("Hosted service error",
					logging.Field{Key: "service", Value: name},
					logging.Field{Key: "error", Value: err.Error()})
				errCh <- fmt.Errorf("hosted service %s: %w", name, err)
			}
		}()
	}

	return errCh
}

// StopAll 并发停止所有服务，返回合并后的错误
func (m *HostedServiceManager) StopAll(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.logger.Info("Stopping hosted services", logging.Field{Key: "count", Value: len(m.services)})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for i := len(m.services) - 1; i >= 0; i-- {
		service := m.services[i]
		name := serviceName(i, service)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := service.Stop(ctx); err != nil {
				m.logger.Error("Failed to stop hosted service",
					logging.Field{Key: "service", Value: name},
					logging.Field{Key: "error", Value: err.Error()})
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("stop %s: %w", name, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return errs
}

// Wait 等待所有 Start 调用返回
func (m *HostedServiceManager) Wait() {
	m.wg.Wait()
}

func serviceName(index int, service HostedService) string {
	if n, ok := service.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	return fmt.Sprintf("#%d(%T)", index+1, service)
}
