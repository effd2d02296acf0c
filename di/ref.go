package di

import "fmt"

// Scope determines how often a service is instantiated.
type Scope string

const (
	// ScopeRoot services are created once per backend.
	ScopeRoot Scope = "root"
	// ScopePlugin services are created once per consuming plugin.
	ScopePlugin Scope = "plugin"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeRoot || s == ScopePlugin
}

// Ref identifies a service independently of its value type.
type Ref interface {
	ID() string
	Scope() Scope
}

// ServiceRef is a typed reference to a service of type T.
type ServiceRef[T any] struct {
	id    string
	scope Scope
}

// NewServiceRef creates a reference to a service of type T.
func NewServiceRef[T any](id string, scope Scope) ServiceRef[T] {
	return ServiceRef[T]{id: id, scope: scope}
}

// ID returns the service ID.
func (r ServiceRef[T]) ID() string { return r.id }

// Scope returns the service scope.
func (r ServiceRef[T]) Scope() Scope { return r.scope }

// IsZero reports whether the reference was never initialized.
func (r ServiceRef[T]) IsZero() bool { return r.id == "" }

func (r ServiceRef[T]) String() string {
	return fmt.Sprintf("serviceRef{%s,%s}", r.id, r.scope)
}

// PluginMetadata describes the plugin a plugin-scoped service is created for.
type PluginMetadata struct {
	PluginID string
}

// PluginMetadataRef is provided by every registry for plugin-scoped consumers.
var PluginMetadataRef = NewServiceRef[PluginMetadata]("core.pluginMetadata", ScopePlugin)
