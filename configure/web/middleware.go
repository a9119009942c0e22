package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/locator/di"
	"github.com/gocrud/locator/logging"
)

// requestLogger 记录每个请求；5xx 为 Error，其余为 Debug
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logging.Field{
			{Key: "method", Value: c.Request.Method},
			{Key: "path", Value: c.Request.URL.Path},
			{Key: "status", Value: c.Writer.Status()},
			{Key: "latency", Value: time.Since(start).String()},
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("HTTP request failed", fields...)
			return
		}
		logger.Debug("HTTP request", fields...)
	}
}

type registrationView struct {
	Service string `json:"service"`
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	Scope   string `json:"scope"`
}

// diagnosticsHandler 输出注册表的注册快照
func diagnosticsHandler(container di.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		inspector, ok := container.(interface{ Registrations() []di.Registration })
		if !ok {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "registry does not support inspection"})
			return
		}

		regs := inspector.Registrations()
		views := make([]registrationView, 0, len(regs))
		for _, r := range regs {
			view := registrationView{
				Service: r.Key.String(),
				Name:    r.Key.Name,
				Scope:   r.Scope.String(),
			}
			if r.Key.Type != nil {
				view.Type = r.Key.Type.String()
			}
			views = append(views, view)
		}
		c.JSON(http.StatusOK, views)
	}
}
