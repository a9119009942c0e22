package hosting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocrud/locator/logging"
)

// HostedService 托管服务接口
// 框架会在独立的 goroutine 中调用 Start，用户无需自己启动 goroutine
type HostedService interface {
	// Start 启动服务。该方法应阻塞执行，直到 context 被取消或发生错误。
	Start(ctx context.Context) error

	// Stop 执行优雅关闭逻辑，必须支持通过 ctx 进行超时控制。
	Stop(ctx context.Context) error
}

// Named 可选接口，提供服务名称用于日志
type Named interface {
	Name() string
}

// FuncService 用函数实现的托管服务
type FuncService struct {
	name  string
	start func(ctx context.Context) error
	stop  func(ctx context.Context) error
}

// NewFuncService 创建函数式托管服务，stop 可以为 nil
func NewFuncService(name string, start, stop func(ctx context.Context) error) *FuncService {
	return &FuncService{name: name, start: start, stop: stop}
}

func (s *FuncService) Name() string { return s.name }

func (s *FuncService) Start(ctx context.Context) error {
	if s.start == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.start(ctx)
}

func (s *FuncService) Stop(ctx context.Context) error {
	if s.stop == nil {
		return nil
	}
	return s.stop(ctx)
}

// TimedService 定时托管服务，按固定间隔执行任务
//
// 任务失败只记录日志，不会停止服务。
type TimedService struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error
	logger   logging.Logger
	done     chan struct{}
}

// NewTimedService 创建定时托管服务
func NewTimedService(name string, interval time.Duration, task func(ctx context.Context) error, logger logging.Logger) *TimedService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TimedService{
		name:     name,
		interval: interval,
		task:     task,
		logger:   logger.WithFields(logging.Field{Key: "service", Value: name}),
		done:     make(chan struct{}),
	}
}

func (s *TimedService) Name() string { return s.name }

// Start 运行定时循环，直到 ctx 被取消
func (s *TimedService) Start(ctx context.Context) error {
	defer close(s.done)

	if s.interval <= 0 {
		return fmt.Errorf("hosting: timed service %s: interval must be positive", s.name)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Timed service running", logging.Field{Key: "interval", Value: s.interval.String()})
	for {
		select {
		case <-ticker.C:
			if err := s.task(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("Timed task failed", logging.Field{Key: "error", Value: err.Error()})
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop 等待当前任务执行完成
func (s *TimedService) Stop(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
