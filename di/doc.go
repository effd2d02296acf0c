// Package di resolves backend services from declarative factories.
//
// Every service is identified by a typed reference carrying an ID and a
// scope. Root-scoped services are created once per backend. Plugin-scoped
// services are created once per consuming plugin: their factory runs once
// with root dependencies and returns a PluginProvider, which the registry
// then invokes for every plugin that asks for the service.
//
// # Declaring a service
//
//	var Clock = di.NewServiceRef[Clock]("example.clock", di.ScopeRoot)
//
//	factory := di.RootFactory(Clock, nil, func(ctx context.Context, _ di.Deps) (Clock, error) {
//	    return systemClock{}, nil
//	})
//
// # Resolving
//
//	reg, err := di.NewRegistry(factory)
//	clock, err := di.Resolve(ctx, reg, Clock, "")
package di
