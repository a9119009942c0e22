package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gocrud/locator/logging"
	"github.com/robfig/cron/v3"
)

// Scheduler Cron 定时任务托管服务，实现 hosting.HostedService
type Scheduler struct {
	cron   *cron.Cron
	logger logging.Logger
	mu     sync.RWMutex
	jobs   map[string]*job
}

type job struct {
	id   cron.EntryID
	spec string
	run  func() error
}

// JobInfo 任务快照
type JobInfo struct {
	Name string
	Spec string
	Next time.Time
	Prev time.Time
}

type schedulerOptions struct {
	location         *time.Location
	enableSeconds    bool
	enableCronLogger bool
}

func newScheduler(logger logging.Logger, opt schedulerOptions) *Scheduler {
	cronOpts := []cron.Option{
		cron.WithLocation(opt.location),
		cron.WithChain(cron.Recover(newCronLogger(logger))),
	}
	if opt.enableCronLogger {
		cronOpts = append(cronOpts, cron.WithLogger(newCronLogger(logger)))
	}
	if opt.enableSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}

	return &Scheduler{
		cron:   cron.New(cronOpts...),
		logger: logger,
		jobs:   make(map[string]*job),
	}
}

// Name 实现 hosting.Named
func (s *Scheduler) Name() string { return "cron" }

// add 注册定时任务，同名任务返回错误
func (s *Scheduler) add(spec, name string, run func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("cron job '%s' already registered", name)
	}

	j := &job{spec: spec, run: run}
	id, err := s.cron.AddFunc(spec, func() { s.execute(name, j) })
	if err != nil {
		return fmt.Errorf("add cron job '%s': %w", name, err)
	}
	j.id = id

	s.jobs[name] = j
	s.logger.Info("Cron job registered",
		logging.Field{Key: "job", Value: name},
		logging.Field{Key: "spec", Value: spec})
	return nil
}

// execute 运行任务，任务 panic 时转换为错误返回
func (s *Scheduler) execute(name string, j *job) (err error) {
	start := time.Now()
	s.logger.Debug("Cron job started", logging.Field{Key: "job", Value: name})

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cron job '%s' panicked: %v", name, r)
			s.logger.Error("Cron job panicked",
				logging.Field{Key: "job", Value: name},
				logging.Field{Key: "panic", Value: fmt.Sprint(r)})
		}
	}()

	if err := j.run(); err != nil {
		s.logger.Error("Cron job failed",
			logging.Field{Key: "job", Value: name},
			logging.Field{Key: "error", Value: err.Error()})
		return err
	}

	s.logger.Debug("Cron job completed",
		logging.Field{Key: "job", Value: name},
		logging.Field{Key: "elapsed", Value: time.Since(start).String()})
	return nil
}

// Trigger 立即同步执行一次指定任务，不影响调度
func (s *Scheduler) Trigger(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("cron job '%s' not found", name)
	}
	return s.execute(name, j)
}

// Remove 移除定时任务，返回任务是否存在
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, exists := s.jobs[name]
	if !exists {
		return false
	}
	s.cron.Remove(j.id)
	delete(s.jobs, name)
	s.logger.Info("Cron job removed", logging.Field{Key: "job", Value: name})
	return true
}

// Jobs 返回按名称排序的任务快照
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.jobs))
	for name, j := range s.jobs {
		entry := s.cron.Entry(j.id)
		infos = append(infos, JobInfo{Name: name, Spec: j.spec, Next: entry.Next, Prev: entry.Prev})
	}
	sort.Slice(infos, func(i, k int) bool { return infos[i].Name < infos[k].Name })
	return infos
}

// Start 启动调度并阻塞直到 ctx 取消
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.RLock()
	count := len(s.jobs)
	s.mu.RUnlock()

	s.logger.Info("Cron scheduler starting", logging.Field{Key: "jobs", Value: count})
	s.cron.Start()

	<-ctx.Done()
	return nil
}

// Stop 停止调度并等待正在运行的任务完成
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("Cron scheduler stopping")

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		s.logger.Info("Cron scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Cron scheduler stop timeout, running jobs abandoned")
		return ctx.Err()
	}
}

// cronLogger 把 logging.Logger 适配为 cron.Logger
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: err.Error()})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []any) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{Key: fmt.Sprintf("%v", keysAndValues[i]), Value: keysAndValues[i+1]})
	}
	return fields
}
