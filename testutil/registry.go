package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/kbukum/backendkit/logger"
)

// TeardownTimeout bounds the global teardown.
const TeardownTimeout = 30 * time.Second

// Stoppable is anything the registry can stop.
type Stoppable interface {
	Name() string
	Stop(ctx context.Context) error
}

// Registry tracks started backends so they can be stopped together.
type Registry struct {
	log *logger.Logger

	mu      sync.Mutex
	tracked []Stoppable
}

// NewRegistry creates an empty registry. A nil log uses the global logger.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Registry{log: log.WithComponent("testutil")}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry is the process-wide registry used when Options.Registry
// is nil.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(nil)
	})
	return defaultRegistry
}

// Track adds s to the registry.
func (r *Registry) Track(s Stoppable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracked = append(r.tracked, s)
}

// Len returns the number of tracked backends.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tracked)
}

// Shutdown stops every tracked backend concurrently and empties the
// registry. Failures and panics are logged; one backend failing never
// keeps the others from stopping.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	tracked := r.tracked
	r.tracked = nil
	r.mu.Unlock()

	var wg conc.WaitGroup
	for _, s := range tracked {
		wg.Go(func() {
			var pc panics.Catcher
			pc.Try(func() {
				if err := s.Stop(ctx); err != nil {
					r.log.Error("Failed to stop test backend", map[string]interface{}{
						"backend":         s.Name(),
						logger.FieldError: err.Error(),
					})
				}
			})
			if rec := pc.Recovered(); rec != nil {
				r.log.Error("Test backend panicked while stopping", map[string]interface{}{
					"backend":         s.Name(),
					logger.FieldError: fmt.Sprint(rec.Value),
				})
			}
		})
	}
	wg.Wait()
}

var teardownOnce sync.Once

// InstallGlobalTeardown hands register a function that drains
// DefaultRegistry. It does so at most once per process and only inside a
// test binary; it reports whether register was called.
func InstallGlobalTeardown(register func(teardown func())) bool {
	if !testing.Testing() || register == nil {
		return false
	}
	installed := false
	teardownOnce.Do(func() {
		register(func() {
			ctx, cancel := context.WithTimeout(context.Background(), TeardownTimeout)
			defer cancel()
			DefaultRegistry().Shutdown(ctx)
		})
		installed = true
	})
	return installed
}

// Main runs the tests of a package and then stops every backend left in
// DefaultRegistry. Call it from TestMain:
//
//	func TestMain(m *testing.M) { os.Exit(testutil.Main(m)) }
func Main(m *testing.M) int {
	var teardown func()
	InstallGlobalTeardown(func(fn func()) { teardown = fn })
	code := m.Run()
	if teardown != nil {
		teardown()
	}
	return code
}
