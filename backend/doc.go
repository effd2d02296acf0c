// Package backend assembles plugins, modules and service factories into a
// runnable backend.
//
// A backend starts in four steps: every feature registers its init and
// extension points, root-scoped services are created, each plugin's modules
// and then the plugin itself are initialized, and finally the root
// lifecycle's startup hooks run. Stop runs the shutdown hooks.
//
//	b, err := backend.New(backend.Options{Services: factories})
//	b.Add(catalogPlugin)
//	if err := b.Start(ctx); err != nil { ... }
//	defer b.Stop(ctx)
package backend
