package web

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/locator/di"
	"github.com/gocrud/locator/logging"
)

// Controller 控制器接口，在主机启动前从注册表解析并注册路由
type Controller interface {
	RegisterRoutes(r gin.IRouter)
}

var controllerType = reflect.TypeOf((*Controller)(nil)).Elem()

type controllerRef struct {
	key   di.ServiceKey
	scope di.Scope
}

// Builder Web 主机构建器（基于 Gin）
type Builder struct {
	container   di.Container
	logger      logging.Logger
	addr        string
	engine      *gin.Engine
	controllers []controllerRef
	diagnostics string
	err         error
}

// NewBuilder 创建 Web 构建器，container 用于解析控制器
func NewBuilder(container di.Container, logger logging.Logger) *Builder {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))

	return &Builder{
		container: container,
		logger:    logger,
		addr:      ":8080",
		engine:    engine,
	}
}

// UsePort 设置端口，0 表示由系统分配
func (b *Builder) UsePort(port int) *Builder {
	b.addr = fmt.Sprintf(":%d", port)
	return b
}

// UseAddr 设置监听地址，例如 "127.0.0.1:8080"
func (b *Builder) UseAddr(addr string) *Builder {
	b.addr = addr
	return b
}

// Get 注册 GET 路由
func (b *Builder) Get(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.GET(path, handlers...)
	return b
}

// Post 注册 POST 路由
func (b *Builder) Post(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.POST(path, handlers...)
	return b
}

// Put 注册 PUT 路由
func (b *Builder) Put(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.PUT(path, handlers...)
	return b
}

// Delete 注册 DELETE 路由
func (b *Builder) Delete(path string, handlers ...gin.HandlerFunc) *Builder {
	b.engine.DELETE(path, handlers...)
	return b
}

// Group 创建路由组
func (b *Builder) Group(relativePath string, handlers ...gin.HandlerFunc) *gin.RouterGroup {
	return b.engine.Group(relativePath, handlers...)
}

// Use 使用全局中间件
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.engine.Use(middleware...)
	return b
}

// Static 服务静态文件
func (b *Builder) Static(relativePath, root string) *Builder {
	b.engine.Static(relativePath, root)
	return b
}

// NoRoute 处理 404
func (b *Builder) NoRoute(handlers ...gin.HandlerFunc) *Builder {
	b.engine.NoRoute(handlers...)
	return b
}

// Engine 获取 Gin 引擎（用于高级定制）
func (b *Builder) Engine() *gin.Engine {
	return b.engine
}

// AddController 添加控制器，typ 必须实现 Controller
// 控制器在主机启动前按 typ 与选项中的名称、作用域从注册表解析
func (b *Builder) AddController(typ reflect.Type, opts ...di.Option) *Builder {
	if typ == nil || !typ.Implements(controllerType) {
		b.err = fmt.Errorf("web: %v does not implement web.Controller", typ)
		return b
	}

	key := di.KeyFor[Controller](opts...)
	key.Type = typ
	b.controllers = append(b.controllers, controllerRef{key: key, scope: di.ScopeOf(opts...)})
	return b
}

// EnableDiagnostics 在 path 上以 JSON 暴露注册表的当前注册
func (b *Builder) EnableDiagnostics(path string) *Builder {
	b.diagnostics = path
	return b
}

// Build 构建 Web 主机
func (b *Builder) Build() (*Host, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.diagnostics != "" {
		b.engine.GET(b.diagnostics, diagnosticsHandler(b.container))
	}

	return &Host{
		container:   b.container,
		engine:      b.engine,
		controllers: b.controllers,
		logger:      b.logger,
		server: &http.Server{
			Addr:    b.addr,
			Handler: b.engine,
		},
		ready: make(chan struct{}),
	}, nil
}

// AddController 以类型参数添加控制器
//
//	web.AddController[*UserController](b, di.WithShared())
func AddController[T Controller](b *Builder, opts ...di.Option) *Builder {
	return b.AddController(di.TypeOf[T](), opts...)
}
