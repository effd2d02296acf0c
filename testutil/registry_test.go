package testutil

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type fakeBackend struct {
	name    string
	err     error
	panics  bool
	stopped atomic.Int32
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Stop(context.Context) error {
	f.stopped.Add(1)
	if f.panics {
		panic("stop exploded")
	}
	return f.err
}

func TestRegistry_ShutdownStopsEveryBackend(t *testing.T) {
	failing := &fakeBackend{name: "failing", err: errors.New("stop failed")}
	panicking := &fakeBackend{name: "panicking", panics: true}
	healthy := &fakeBackend{name: "healthy"}

	reg := NewRegistry(nil)
	reg.Track(failing)
	reg.Track(panicking)
	reg.Track(healthy)
	if reg.Len() != 3 {
		t.Fatalf("Len = %d, want 3", reg.Len())
	}

	reg.Shutdown(context.Background())

	for _, b := range []*fakeBackend{failing, panicking, healthy} {
		if n := b.stopped.Load(); n != 1 {
			t.Errorf("%s stopped %d times, want 1", b.name, n)
		}
	}
	if reg.Len() != 0 {
		t.Errorf("Len after shutdown = %d, want 0", reg.Len())
	}

	reg.Shutdown(context.Background())
	if n := healthy.stopped.Load(); n != 1 {
		t.Errorf("second shutdown stopped again: %d", n)
	}
}

func TestRegistry_ShutdownStopsRealBackends(t *testing.T) {
	reg := NewRegistry(nil)
	a := startBackend(t, Options{Registry: reg})
	b := startBackend(t, Options{Registry: reg})

	reg.Shutdown(context.Background())

	for _, tb := range []*TestBackend{a, b} {
		if h := tb.Health(context.Background()); h.Message != "stopped" {
			t.Errorf("health after shutdown = %+v", h)
		}
	}
}

func TestInstallGlobalTeardown_Once(t *testing.T) {
	// TestMain installed the hook through Main.
	if InstallGlobalTeardown(func(func()) { t.Error("register called twice") }) {
		t.Error("InstallGlobalTeardown reported a second install")
	}
	if InstallGlobalTeardown(nil) {
		t.Error("nil register must not install")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry must be a singleton")
	}
	tb := NewTestBackend(Options{})
	if tb.registry != DefaultRegistry() {
		t.Error("nil Options.Registry must use DefaultRegistry")
	}
}
