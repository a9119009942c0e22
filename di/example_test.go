package di_test

import (
	"errors"
	"fmt"

	"github.com/gocrud/locator/di"
)

// 定义接口
type Logger interface {
	Log(msg string)
}

type Database interface {
	Connect() string
}

// 实现
type ConsoleLogger struct {
	Prefix string
}

func (c *ConsoleLogger) Log(msg string) {
	fmt.Println(c.Prefix + ": " + msg)
}

type MySQLDatabase struct {
	Host string
	Port int
}

func (m *MySQLDatabase) Connect() string {
	return fmt.Sprintf("mysql://%s:%d", m.Host, m.Port)
}

// 服务
type UserService struct {
	Logger Logger
	DB     Database
}

func Example() {
	resolver := di.NewResolver()

	di.RegisterValue[Logger](resolver, &ConsoleLogger{Prefix: "APP"})
	di.Register[Database](resolver, func() Database {
		return &MySQLDatabase{Host: "localhost", Port: 3306}
	}, di.WithShared())

	// 依赖在注册前解析，工厂内部不回调 resolver
	logger := di.MustResolve[Logger](resolver, di.WithShared())
	db := di.MustResolve[Database](resolver, di.WithShared())
	di.Register(resolver, func() *UserService {
		return &UserService{Logger: logger, DB: db}
	})

	svc := di.MustResolve[*UserService](resolver)
	svc.Logger.Log("UserService initialized")
	fmt.Println(svc.DB.Connect())

	// Output:
	// APP: UserService initialized
	// mysql://localhost:3306
}

func Example_scopes() {
	resolver := di.NewResolver()

	created := 0
	newLogger := func() Logger {
		created++
		return &ConsoleLogger{Prefix: fmt.Sprintf("#%d", created)}
	}

	// shared 在注册时立即构造一次
	di.Register(resolver, newLogger, di.WithShared())
	// transient 每次解析都调用工厂
	di.Register(resolver, newLogger)

	a := di.MustResolve[Logger](resolver, di.WithShared())
	b := di.MustResolve[Logger](resolver, di.WithShared())
	fmt.Println("shared same instance:", a == b)

	c := di.MustResolve[Logger](resolver)
	d := di.MustResolve[Logger](resolver)
	fmt.Println("transient same instance:", c == d)
	fmt.Println("factory calls:", created)

	// Output:
	// shared same instance: true
	// transient same instance: false
	// factory calls: 3
}

func Example_named() {
	resolver := di.NewResolver()

	di.RegisterValue[Database](resolver, &MySQLDatabase{Host: "primary", Port: 3306}, di.WithName("primary"))
	di.RegisterValue[Database](resolver, &MySQLDatabase{Host: "replica", Port: 3307}, di.WithName("replica"))

	for _, name := range []string{"primary", "replica"} {
		db := di.MustResolve[Database](resolver, di.WithName(name), di.WithShared())
		fmt.Println(name, db.Connect())
	}

	_, ok := di.Resolve[Database](resolver, di.WithShared())
	fmt.Println("unnamed registered:", ok)

	// Output:
	// primary mysql://primary:3306
	// replica mysql://replica:3307
	// unnamed registered: false
}

func ExampleTryResolve() {
	resolver := di.NewResolver()

	_, err := di.TryResolve[Database](resolver)
	fmt.Println(err)
	fmt.Println(errors.Is(err, di.ErrNotRegistered))

	// Output:
	// di: di_test.Database is not registered for name <unnamed> in transient scope
	// true
}

func ExampleToken() {
	resolver := di.NewResolver()
	cacheDB := di.NewToken[Database]("cache")

	cacheDB.Register(resolver, func() Database {
		return &MySQLDatabase{Host: "cache", Port: 6379}
	}, di.WithShared())

	fmt.Println(cacheDB)
	fmt.Println(cacheDB.MustResolve(resolver, di.WithShared()).Connect())
}
