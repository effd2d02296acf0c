package di

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type counter struct {
	plugin string
	n      int
}

var (
	rootConfigRef = NewServiceRef[string]("test.config", ScopeRoot)
	rootNumberRef = NewServiceRef[int]("test.number", ScopeRoot)
	pluginRef     = NewServiceRef[*counter]("test.counter", ScopePlugin)
)

func configFactory(value string) ServiceFactory {
	return RootFactory(rootConfigRef, nil, func(context.Context, Deps) (string, error) {
		return value, nil
	})
}

func TestNewRegistryDuplicate(t *testing.T) {
	_, err := NewRegistry(configFactory("a"), configFactory("b"))
	if !errors.Is(err, ErrDuplicateFactory) {
		t.Fatalf("expected ErrDuplicateFactory, got %v", err)
	}
	if !strings.Contains(err.Error(), "duplicate service factory") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestNewRegistryInvalid(t *testing.T) {
	tests := []struct {
		name string
		f    ServiceFactory
	}{
		{"nil factory", nil},
		{"zero ref", NewFactory(ServiceRef[int]{}, nil, nil)},
		{"bad scope", NewFactory(NewServiceRef[int]("x", "global"), nil, nil)},
		{"reserved id", NewFactory(NewServiceRef[int](PluginMetadataRef.ID(), ScopePlugin), nil, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.f); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestResolveRootCachesInstance(t *testing.T) {
	calls := 0
	number := RootFactory(rootNumberRef, []Ref{rootConfigRef}, func(_ context.Context, deps Deps) (int, error) {
		calls++
		cfg := MustGet(deps, rootConfigRef)
		return len(cfg), nil
	})
	reg, err := NewRegistry(number, configFactory("hello"))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		v, err := Resolve(ctx, reg, rootNumberRef, "")
		if err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
		if v != 5 {
			t.Errorf("expected 5, got %d", v)
		}
	}
	if calls != 1 {
		t.Errorf("root factory should run once, ran %d times", calls)
	}
}

func TestResolvePluginPerPlugin(t *testing.T) {
	rootCalls := 0
	f := PluginFactoryWithRoot(pluginRef, []Ref{rootConfigRef, PluginMetadataRef},
		func(_ context.Context, deps Deps) (string, error) {
			rootCalls++
			if _, ok := deps[PluginMetadataRef.ID()]; ok {
				t.Error("root context must not receive plugin deps")
			}
			return MustGet(deps, rootConfigRef), nil
		},
		func(_ context.Context, deps Deps, shared string) (*counter, error) {
			meta := MustGet(deps, PluginMetadataRef)
			return &counter{plugin: meta.PluginID + "/" + shared}, nil
		},
	)
	reg, err := NewRegistry(f, configFactory("cfg"))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	a1 := MustResolve(ctx, reg, pluginRef, "a")
	a2 := MustResolve(ctx, reg, pluginRef, "a")
	b := MustResolve(ctx, reg, pluginRef, "b")

	if a1 != a2 {
		t.Error("expected one instance per plugin")
	}
	if a1 == b {
		t.Error("plugins must not share instances")
	}
	if a1.plugin != "a/cfg" || b.plugin != "b/cfg" {
		t.Errorf("unexpected instances %q %q", a1.plugin, b.plugin)
	}
	if rootCalls != 1 {
		t.Errorf("root context should be created once, got %d", rootCalls)
	}

	infos := reg.Registrations()
	for _, info := range infos {
		if info.ID == pluginRef.ID() && len(info.Plugins) != 2 {
			t.Errorf("expected 2 plugin instances, got %v", info.Plugins)
		}
	}
}

func TestResolvePluginOutsidePlugin(t *testing.T) {
	f := PluginFactory(pluginRef, nil, func(context.Context, Deps) (*counter, error) {
		return &counter{}, nil
	})
	reg, _ := NewRegistry(f)
	_, err := reg.Resolve(context.Background(), pluginRef, "")
	if !errors.Is(err, ErrScopeMismatch) {
		t.Errorf("expected ErrScopeMismatch, got %v", err)
	}
}

func TestRootCannotDependOnPlugin(t *testing.T) {
	p := PluginFactory(pluginRef, nil, func(context.Context, Deps) (*counter, error) {
		return &counter{}, nil
	})
	root := RootFactory(rootNumberRef, []Ref{pluginRef}, func(context.Context, Deps) (int, error) {
		return 1, nil
	})
	reg, _ := NewRegistry(p, root)
	err := reg.InitializeRoot(context.Background())
	if !errors.Is(err, ErrScopeMismatch) {
		t.Errorf("expected ErrScopeMismatch, got %v", err)
	}
}

func TestResolveMissing(t *testing.T) {
	number := RootFactory(rootNumberRef, []Ref{rootConfigRef}, func(context.Context, Deps) (int, error) {
		return 0, nil
	})
	reg, _ := NewRegistry(number)
	_, err := reg.Resolve(context.Background(), rootNumberRef, "")
	if !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "required by test.number") {
		t.Errorf("expected requiring service in message, got %q", err.Error())
	}
}

func TestResolveCycle(t *testing.T) {
	a := RootFactory(rootNumberRef, []Ref{rootConfigRef}, func(context.Context, Deps) (int, error) {
		return 0, nil
	})
	b := RootFactory(rootConfigRef, []Ref{rootNumberRef}, func(context.Context, Deps) (string, error) {
		return "", nil
	})
	reg, _ := NewRegistry(a, b)
	_, err := reg.Resolve(context.Background(), rootNumberRef, "")
	if !errors.Is(err, ErrCircularDependency) {
		t.Fatalf("expected ErrCircularDependency, got %v", err)
	}
	if !strings.Contains(err.Error(), "test.number -> test.config -> test.number") {
		t.Errorf("unexpected cycle path %q", err.Error())
	}
}

func TestFactoryErrorIsWrapped(t *testing.T) {
	sentinel := errors.New("boom")
	f := RootFactory(rootConfigRef, nil, func(context.Context, Deps) (string, error) {
		return "", sentinel
	})
	reg, _ := NewRegistry(f)
	err := reg.InitializeRoot(context.Background())
	if !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped sentinel, got %v", err)
	}
}

func TestPluginFactoryMustReturnProvider(t *testing.T) {
	f := NewFactory(pluginRef, nil, func(context.Context, Deps) (any, error) {
		return &counter{}, nil
	})
	reg, _ := NewRegistry(f)
	if _, err := reg.Resolve(context.Background(), pluginRef, "a"); err == nil {
		t.Error("expected error for plugin factory without provider")
	}
}

func TestPluginMetadata(t *testing.T) {
	reg, _ := NewRegistry()
	meta, err := Resolve(context.Background(), reg, PluginMetadataRef, "catalog")
	if err != nil {
		t.Fatal(err)
	}
	if meta.PluginID != "catalog" {
		t.Errorf("expected catalog, got %q", meta.PluginID)
	}
	if !reg.Has(PluginMetadataRef.ID()) {
		t.Error("metadata should always be available")
	}
}

func TestGetTypeMismatch(t *testing.T) {
	deps := Deps{rootConfigRef.ID(): 42}
	if _, err := Get(deps, rootConfigRef); err == nil {
		t.Error("expected type mismatch error")
	}
	if _, err := Get(Deps{}, rootConfigRef); err == nil {
		t.Error("expected missing dependency error")
	}
}
