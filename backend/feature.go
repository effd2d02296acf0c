package backend

import (
	"context"

	"github.com/kbukum/backendkit/di"
)

// FeatureKind distinguishes plugins from modules.
type FeatureKind string

const (
	KindPlugin FeatureKind = "plugin"
	KindModule FeatureKind = "module"
)

// InitOptions declares what a feature needs and how it initializes.
type InitOptions struct {
	Deps            []di.Ref
	ExtensionPoints []ExtensionPoint
	Init            func(ctx context.Context, deps di.Deps) error
}

// RegistrationPoints is what a feature's Register function may call.
type RegistrationPoints interface {
	RegisterInit(opts InitOptions)
	RegisterExtensionPoint(ref ExtensionPoint, impl any)
}

// Feature is a plugin or module added to a backend.
type Feature interface {
	Kind() FeatureKind
	PluginID() string
	// ModuleID is empty for plugins.
	ModuleID() string
	register(points *registration)
}

// PluginOptions describes a plugin.
type PluginOptions struct {
	PluginID string
	Register func(points RegistrationPoints)
}

// ModuleOptions describes a module extending a plugin.
type ModuleOptions struct {
	PluginID string
	ModuleID string
	Register func(points RegistrationPoints)
}

type feature struct {
	kind     FeatureKind
	pluginID string
	moduleID string
	fn       func(points RegistrationPoints)
}

func (f *feature) Kind() FeatureKind { return f.kind }
func (f *feature) PluginID() string  { return f.pluginID }
func (f *feature) ModuleID() string  { return f.moduleID }

func (f *feature) register(points *registration) {
	if f.fn != nil {
		f.fn(points)
	}
}

// NewPlugin creates a plugin feature.
func NewPlugin(opts PluginOptions) Feature {
	return &feature{kind: KindPlugin, pluginID: opts.PluginID, fn: opts.Register}
}

// NewModule creates a module feature.
func NewModule(opts ModuleOptions) Feature {
	return &feature{kind: KindModule, pluginID: opts.PluginID, moduleID: opts.ModuleID, fn: opts.Register}
}

// featureName is used in logs and errors.
func featureName(f Feature) string {
	if f.Kind() == KindModule {
		return "module '" + f.ModuleID() + "' for plugin '" + f.PluginID() + "'"
	}
	return "plugin '" + f.PluginID() + "'"
}

// registration collects what one feature registered.
type registration struct {
	feature         Feature
	inits           []InitOptions
	extensionPoints []providedExtension
}

type providedExtension struct {
	ref  ExtensionPoint
	impl any
}

func (r *registration) RegisterInit(opts InitOptions) {
	r.inits = append(r.inits, opts)
}

func (r *registration) RegisterExtensionPoint(ref ExtensionPoint, impl any) {
	r.extensionPoints = append(r.extensionPoints, providedExtension{ref: ref, impl: impl})
}
