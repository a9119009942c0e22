package di

import (
	"bytes"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/gocrud/locator/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_DefaultRegistration(t *testing.T) {
	r := NewResolver()
	r.Register(greeterType, "", ScopeTransient, greeterFactory("Hello World"))

	v, ok := r.Resolve(greeterType, "", ScopeTransient)
	require.True(t, ok)
	assert.Equal(t, "Hello World", v.(greeter).Greet())
}

func TestResolver_NamedRegistration(t *testing.T) {
	r := NewResolver()
	r.Register(greeterType, "A", ScopeTransient, greeterFactory("A"))
	r.Register(greeterType, "B", ScopeTransient, greeterFactory("B"))

	a, ok := r.Resolve(greeterType, "A", ScopeTransient)
	require.True(t, ok)
	b, ok := r.Resolve(greeterType, "B", ScopeTransient)
	require.True(t, ok)
	assert.Equal(t, "A", a.(greeter).Greet())
	assert.Equal(t, "B", b.(greeter).Greet())
}

func TestResolver_Scopes(t *testing.T) {
	r := NewResolver()
	ptrType := TypeOf[*mockGreeter]()
	r.Register(ptrType, "", ScopeShared, func() any { return newMockGreeter("shared") })
	r.Register(ptrType, "", ScopeTransient, func() any { return newMockGreeter("new") })

	s1, _ := r.Resolve(ptrType, "", ScopeShared)
	s2, _ := r.Resolve(ptrType, "", ScopeShared)
	assert.Same(t, s1, s2)

	n1, _ := r.Resolve(ptrType, "", ScopeTransient)
	n2, _ := r.Resolve(ptrType, "", ScopeTransient)
	assert.NotSame(t, n1, n2)
}

func TestResolver_Reset(t *testing.T) {
	r := NewResolver()
	r.Register(TypeOf[*mockGreeter](), "", ScopeShared, func() any { return newMockGreeter("shared") })
	r.Register(greeterType, "A", ScopeTransient, greeterFactory("A"))

	r.Reset()

	_, ok := r.Resolve(TypeOf[*mockGreeter](), "", ScopeShared)
	assert.False(t, ok)
	_, ok = r.Resolve(greeterType, "A", ScopeTransient)
	assert.False(t, ok)
	assert.Empty(t, r.Registrations())
}

func TestResolver_CleanOperations(t *testing.T) {
	r := NewResolver()
	r.Register(greeterType, "", ScopeShared, greeterFactory("shared"))
	r.Register(greeterType, "", ScopeTransient, greeterFactory("new"))
	r.Register(greeterType, "keep", ScopeTransient, greeterFactory("keep"))

	r.CleanAllDependencies(true)
	_, ok := r.Resolve(greeterType, "", ScopeTransient)
	assert.False(t, ok)
	_, ok = r.Resolve(greeterType, "", ScopeShared)
	assert.True(t, ok)

	r.CleanDependencyServices([]reflect.Type{greeterType}, "")
	_, ok = r.Resolve(greeterType, "", ScopeShared)
	assert.False(t, ok)

	r.Register(greeterType, "", ScopeShared, greeterFactory("shared"))
	r.CleanAllDependencies(false)
	_, ok = r.Resolve(greeterType, "", ScopeShared)
	assert.False(t, ok)
}

func TestResolver_SetContainer(t *testing.T) {
	prepared := NewContainer()
	prepared.Register(greeterType, "", ScopeShared, greeterFactory("prepared"))

	r := NewResolver()
	r.Register(greeterType, "old", ScopeTransient, greeterFactory("old"))
	r.SetContainer(prepared)

	v, ok := r.Resolve(greeterType, "", ScopeShared)
	require.True(t, ok)
	assert.Equal(t, "prepared", v.(greeter).Greet())

	_, ok = r.Resolve(greeterType, "old", ScopeTransient)
	assert.False(t, ok, "old container is no longer consulted")

	// 新的注册写入替换后的容器
	r.Register(greeterType, "new", ScopeTransient, greeterFactory("new"))
	_, ok = prepared.Resolve(greeterType, "new", ScopeTransient)
	assert.True(t, ok)
}

func TestResolver_SetContainerRejectsSelf(t *testing.T) {
	r := NewResolver()
	r.Register(greeterType, "", ScopeShared, greeterFactory("before"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.SetContainer(r)
		WithContainer(r)(r)
		r.Register(greeterType, "after", ScopeTransient, greeterFactory("after"))
		v, ok := r.Resolve(greeterType, "after", ScopeTransient)
		assert.True(t, ok)
		assert.Equal(t, "after", v.(greeter).Greet())
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("resolver deadlocked on itself")
	}

	_, ok := r.Resolve(greeterType, "", ScopeShared)
	assert.False(t, ok, "self assignment swaps in an empty container")
}

// recordingContainer 是一个测试替身，只记录调用。
type recordingContainer struct {
	calls []string
}

func (c *recordingContainer) Register(typ reflect.Type, name string, scope Scope, factory Factory) {
	c.calls = append(c.calls, fmt.Sprintf("register %s %s", ServiceKey{Type: typ, Name: name}, scope))
}

func (c *recordingContainer) Resolve(typ reflect.Type, name string, scope Scope) (any, bool) {
	c.calls = append(c.calls, fmt.Sprintf("resolve %s %s", ServiceKey{Type: typ, Name: name}, scope))
	return newMockGreeter("double"), true
}

func (c *recordingContainer) CleanAllDependencies(ignoreShared bool) {
	c.calls = append(c.calls, fmt.Sprintf("cleanAll %v", ignoreShared))
}

func (c *recordingContainer) CleanDependencyServices(types []reflect.Type, name string) {
	c.calls = append(c.calls, fmt.Sprintf("clean %d %s", len(types), name))
}

func TestResolver_SetContainerWithTestDouble(t *testing.T) {
	double := &recordingContainer{}
	r := NewResolver(WithContainer(double))

	r.Register(greeterType, "x", ScopeShared, nil)
	v, ok := r.Resolve(greeterType, "x", ScopeShared)
	r.CleanAllDependencies(true)
	r.CleanDependencyServices([]reflect.Type{greeterType}, "x")

	require.True(t, ok)
	assert.Equal(t, "double", v.(greeter).Greet())
	assert.Equal(t, []string{
		"register di.greeter(name=x) shared",
		"resolve di.greeter(name=x) shared",
		"cleanAll true",
		"clean 1 x",
	}, double.calls)

	// 测试替身没有实现 Inspector
	assert.Nil(t, r.Registrations())

	r.Reset()
	assert.NotNil(t, r.Registrations())
}

func TestResolver_DefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())

	independent := NewResolver()
	assert.NotSame(t, Default(), independent)

	independent.Register(greeterType, "isolated", ScopeShared, greeterFactory("isolated"))
	_, ok := Default().Resolve(greeterType, "isolated", ScopeShared)
	assert.False(t, ok, "independent resolvers share nothing")
}

func TestResolver_ConcurrentSharedRegistration(t *testing.T) {
	r := NewResolver()
	const workers = 64

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			r.Register(greeterType, "", ScopeShared, greeterFactory(fmt.Sprintf("worker-%d", i)))
		}(i)
	}
	close(start)
	wg.Wait()

	first, ok := r.Resolve(greeterType, "", ScopeShared)
	require.True(t, ok)
	assert.Regexp(t, `^worker-\d+$`, first.(greeter).Greet())

	results := make(chan any, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _ := r.Resolve(greeterType, "", ScopeShared)
			results <- v
		}()
	}
	wg.Wait()
	close(results)

	for v := range results {
		assert.Same(t, first, v)
	}
}

func TestResolver_ConcurrentMixedOperations(t *testing.T) {
	r := NewResolver()
	const workers = 32

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("svc-%d", i%4)
			for j := 0; j < 50; j++ {
				switch j % 5 {
				case 0:
					r.Register(greeterType, name, ScopeTransient, greeterFactory(name))
				case 1:
					r.Register(greeterType, name, ScopeShared, greeterFactory(name))
				case 2:
					if v, ok := r.Resolve(greeterType, name, ScopeTransient); ok {
						assert.Equal(t, name, v.(greeter).Greet())
					}
				case 3:
					r.Registrations()
				case 4:
					if i%8 == 0 {
						r.CleanDependencyServices([]reflect.Type{greeterType}, name)
					}
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestResolver_PanickingFactoryReleasesLock(t *testing.T) {
	r := NewResolver()

	assert.Panics(t, func() {
		r.Register(greeterType, "", ScopeShared, func() any { panic("boom") })
	})

	done := make(chan struct{})
	go func() {
		r.Register(greeterType, "", ScopeShared, greeterFactory("after"))
		close(done)
	}()
	<-done

	v, ok := r.Resolve(greeterType, "", ScopeShared)
	require.True(t, ok)
	assert.Equal(t, "after", v.(greeter).Greet())
}

func TestResolver_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggingBuilder().
		SetMinimumLevel(logging.LogLevelTrace).
		AddConsole(logging.ConsoleLoggerOptions{Output: &buf}).
		Build().
		CreateLogger("test")

	r := NewResolver(WithLogger(logger))
	r.Register(greeterType, "A", ScopeShared, greeterFactory("A"))
	r.Resolve(greeterType, "missing", ScopeTransient)
	r.Reset()

	out := buf.String()
	assert.Contains(t, out, "[Resolver]")
	assert.Contains(t, out, "service registered")
	assert.Contains(t, out, "service=di.greeter(name=A)")
	assert.Contains(t, out, "service not resolved")
	assert.Contains(t, out, "resolver reset")
}
