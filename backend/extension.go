package backend

import (
	"fmt"

	"github.com/kbukum/backendkit/di"
)

// ExtensionPoint is an untyped extension point reference.
type ExtensionPoint interface {
	ID() string
	depKey() string
}

// ExtensionPointRef is a typed reference to an extension point of type T.
type ExtensionPointRef[T any] struct {
	id string
}

// NewExtensionPointRef creates a reference to an extension point.
func NewExtensionPointRef[T any](id string) ExtensionPointRef[T] {
	return ExtensionPointRef[T]{id: id}
}

// ID returns the extension point ID.
func (r ExtensionPointRef[T]) ID() string { return r.id }

func (r ExtensionPointRef[T]) depKey() string { return extensionDepKey(r.id) }

func (r ExtensionPointRef[T]) String() string {
	return fmt.Sprintf("extensionPoint{%s}", r.id)
}

func extensionDepKey(id string) string { return "extensionPoint:" + id }

// GetExtensionPoint returns the implementation of ref from init deps.
func GetExtensionPoint[T any](deps di.Deps, ref ExtensionPointRef[T]) (T, error) {
	var zero T
	v, ok := deps[ref.depKey()]
	if !ok {
		return zero, fmt.Errorf("backend: extension point %s not provided", ref.id)
	}
	impl, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("backend: extension point %s is %T, expected %T", ref.id, v, zero)
	}
	return impl, nil
}
