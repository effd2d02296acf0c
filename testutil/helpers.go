package testutil

import (
	"context"
	"testing"
)

// THelper starts test backends bound to a test's lifetime.
type THelper struct {
	t   testing.TB
	ctx context.Context
}

// T wraps t for backends that stop when the test ends.
//
//	func TestCatalog(t *testing.T) {
//	    tb := testutil.T(t).StartBackend(testutil.Options{Features: []backend.Feature{catalog.Plugin()}})
//	    resp, err := http.Get(tb.URL() + "/api/catalog/entities")
//	    ...
//	}
func T(t testing.TB) *THelper {
	return &THelper{t: t, ctx: context.Background()}
}

// WithContext sets the context used to start and stop backends.
func (h *THelper) WithContext(ctx context.Context) *THelper {
	h.ctx = ctx
	return h
}

// StartBackend starts a backend and stops it in t.Cleanup. Unless
// opts.Registry is set the backend is not tracked by DefaultRegistry.
func (h *THelper) StartBackend(opts Options) *TestBackend {
	h.t.Helper()
	if opts.Registry == nil {
		opts.Registry = NewRegistry(nil)
	}
	tb := NewTestBackend(opts)
	h.t.Cleanup(func() {
		if err := tb.Stop(context.WithoutCancel(h.ctx)); err != nil {
			h.t.Errorf("failed to stop test backend: %v", err)
		}
	})
	if err := tb.Start(h.ctx); err != nil {
		h.t.Fatalf("failed to start test backend: %v", err)
	}
	return tb
}
