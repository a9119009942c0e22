package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/locator/di"
	"github.com/gocrud/locator/logging"
)

// Host Web 主机，实现 hosting.HostedService
type Host struct {
	container   di.Container
	engine      *gin.Engine
	controllers []controllerRef
	server      *http.Server
	logger      logging.Logger

	prepareOnce sync.Once
	prepareErr  error

	mu    sync.Mutex
	addr  net.Addr
	ready chan struct{}
}

// Name 实现 hosting.Named
func (h *Host) Name() string { return "web" }

// Handler 解析控制器并注册路由后返回 HTTP 处理器，只执行一次
func (h *Host) Handler() (http.Handler, error) {
	h.prepareOnce.Do(func() {
		h.prepareErr = h.mountControllers()
	})
	if h.prepareErr != nil {
		return nil, h.prepareErr
	}
	return h.engine, nil
}

func (h *Host) mountControllers() error {
	for _, ref := range h.controllers {
		v, ok := h.container.Resolve(ref.key.Type, ref.key.Name, ref.scope)
		if !ok {
			return &di.ResolutionError{Key: ref.key, Scope: ref.scope}
		}
		v.(Controller).RegisterRoutes(h.engine)
		h.logger.Debug("Controller mounted", logging.Field{Key: "controller", Value: ref.key.String()})
	}
	return nil
}

// Addr 返回实际监听地址，启动前返回 nil
func (h *Host) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.addr
}

// Ready 在开始监听后关闭
func (h *Host) Ready() <-chan struct{} {
	return h.ready
}

// Start 启动 Web 主机并阻塞直到 ctx 取消或服务器出错
func (h *Host) Start(ctx context.Context) error {
	if _, err := h.Handler(); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", h.server.Addr)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.addr = ln.Addr()
	h.mu.Unlock()
	close(h.ready)

	h.logger.Info("Web host started", logging.Field{Key: "address", Value: ln.Addr().String()})

	errCh := make(chan error, 1)
	go func() {
		if err := h.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			h.logger.Error("Web host error", logging.Field{Key: "error", Value: err.Error()})
		}
		return err
	case <-ctx.Done():
		// Stop 负责关闭服务器
		return nil
	}
}

// Stop 停止 Web 主机
func (h *Host) Stop(ctx context.Context) error {
	h.logger.Info("Stopping web host")

	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Error("Failed to shutdown web host gracefully",
			logging.Field{Key: "error", Value: err.Error()})
		return err
	}

	h.logger.Info("Web host stopped")
	return nil
}
