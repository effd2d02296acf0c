// Package core declares the service references and contracts shared by
// backendkit plugins. Implementations live in their own packages and are
// wired through di factories.
package core
