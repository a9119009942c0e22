package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/locator/bootstrap"
	"github.com/gocrud/locator/config"
	"github.com/gocrud/locator/di"
	"github.com/gocrud/locator/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greetingService struct {
	greeting string
}

type GreetController struct {
	svc *greetingService
}

func (c *GreetController) RegisterRoutes(r gin.IRouter) {
	r.GET("/greet/:name", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "%s, %s", c.svc.greeting, ctx.Param("name"))
	})
}

type HealthController struct{}

func (HealthController) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })
}

func serve(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	h.ServeHTTP(w, req)
	return w
}

func TestBuilder_Routes(t *testing.T) {
	b := NewBuilder(di.NewResolver(), logging.NewNopLogger())
	b.Get("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") }).
		Post("/items", func(c *gin.Context) { c.Status(http.StatusCreated) }).
		NoRoute(func(c *gin.Context) { c.String(http.StatusNotFound, "nothing here") })
	b.Group("/api").GET("/v1", func(c *gin.Context) { c.String(http.StatusOK, "v1") })

	host, err := b.Build()
	require.NoError(t, err)
	h, err := host.Handler()
	require.NoError(t, err)

	assert.Equal(t, "pong", serve(t, h, http.MethodGet, "/ping").Body.String())
	assert.Equal(t, http.StatusCreated, serve(t, h, http.MethodPost, "/items").Code)
	assert.Equal(t, "v1", serve(t, h, http.MethodGet, "/api/v1").Body.String())
	assert.Equal(t, "nothing here", serve(t, h, http.MethodGet, "/missing").Body.String())
}

func TestBuilder_ControllersResolvedFromRegistry(t *testing.T) {
	resolver := di.NewResolver()
	svc := &greetingService{greeting: "Hello"}
	di.Register(resolver, func() *GreetController { return &GreetController{svc: svc} })
	di.RegisterValue(resolver, HealthController{}, di.WithName("health"))

	b := NewBuilder(resolver, logging.NewNopLogger())
	AddController[*GreetController](b)
	AddController[HealthController](b, di.WithName("health"), di.WithShared())

	host, err := b.Build()
	require.NoError(t, err)
	h, err := host.Handler()
	require.NoError(t, err)

	assert.Equal(t, "Hello, bob", serve(t, h, http.MethodGet, "/greet/bob").Body.String())
	assert.Equal(t, http.StatusNoContent, serve(t, h, http.MethodGet, "/healthz").Code)
}

func TestBuilder_MissingController(t *testing.T) {
	b := NewBuilder(di.NewResolver(), logging.NewNopLogger())
	AddController[*GreetController](b, di.WithShared())

	host, err := b.Build()
	require.NoError(t, err)

	_, err = host.Handler()
	require.ErrorIs(t, err, di.ErrNotRegistered)
	assert.Contains(t, err.Error(), "web.GreetController")

	// 启动同样失败
	assert.ErrorIs(t, host.Start(context.Background()), di.ErrNotRegistered)
}

func TestBuilder_NonController(t *testing.T) {
	_, err := NewBuilder(di.NewResolver(), logging.NewNopLogger()).
		AddController(di.TypeOf[*greetingService]()).
		Build()
	assert.ErrorContains(t, err, "does not implement web.Controller")
}

func TestDiagnostics(t *testing.T) {
	resolver := di.NewResolver()
	di.RegisterValue(resolver, &greetingService{}, di.WithName("greeter"))
	di.Register(resolver, func() *GreetController { return &GreetController{} })

	host, err := NewBuilder(resolver, logging.NewNopLogger()).EnableDiagnostics("/_registry").Build()
	require.NoError(t, err)
	h, err := host.Handler()
	require.NoError(t, err)

	w := serve(t, h, http.MethodGet, "/_registry")
	require.Equal(t, http.StatusOK, w.Code)

	var views []registrationView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	assert.Contains(t, views, registrationView{
		Service: "*web.greetingService(name=greeter)",
		Type:    "*web.greetingService",
		Name:    "greeter",
		Scope:   "shared",
	})
	assert.Contains(t, views, registrationView{
		Service: "*web.GreetController",
		Type:    "*web.GreetController",
		Scope:   "transient",
	})
}

func TestDiagnostics_WithoutInspector(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	diagnosticsHandler(struct{ di.Container }{})(c)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestConfigure_ServesUntilCancelled(t *testing.T) {
	var buf bytes.Buffer
	resolver := di.NewResolver()

	host, err := bootstrap.NewBuilder().
		UseResolver(resolver).
		ConfigureLogging(func(lb *logging.LoggingBuilder) {
			lb.AddConsole(logging.ConsoleLoggerOptions{Output: &buf})
		}).
		ConfigureConfiguration(func(cb *config.ConfigurationBuilder) {
			cb.AddInMemory(map[string]any{"web": map[string]any{"addr": "127.0.0.1:0"}})
		}).
		Configure(func(ctx *bootstrap.BuildContext) error {
			bootstrap.ProvideValue(ctx, &greetingService{greeting: "Hi"})
			svc := di.MustResolve[*greetingService](ctx.Resolver(), di.WithShared())
			bootstrap.Provide(ctx, func() *GreetController { return &GreetController{svc: svc} })
			return nil
		}).
		Configure(Configure(func(b *Builder) {
			AddController[*GreetController](b)
		})).
		Build()
	require.NoError(t, err)

	webHost := di.MustResolve[*Host](resolver, di.WithShared())
	_, ok := di.Resolve[*gin.Engine](resolver, di.WithShared())
	assert.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- host.Run(ctx) }()

	select {
	case <-webHost.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("web host did not start")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/greet/ann", webHost.Addr()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "Hi, ann", string(body))

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, host.Close())

	_, ok = di.Resolve[*Host](resolver, di.WithShared())
	assert.False(t, ok)
}

func TestConfigure_InvalidPort(t *testing.T) {
	var buf bytes.Buffer
	_, err := bootstrap.NewBuilder().
		UseResolver(di.NewResolver()).
		ConfigureLogging(func(lb *logging.LoggingBuilder) {
			lb.AddConsole(logging.ConsoleLoggerOptions{Output: &buf})
		}).
		ConfigureConfiguration(func(cb *config.ConfigurationBuilder) {
			cb.AddInMemory(map[string]any{"web": map[string]any{"port": "eighty"}})
		}).
		Configure(Configure(nil)).
		Build()
	assert.Error(t, err)
}
