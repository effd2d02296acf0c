// Package version reports the build of the running backend.
//
// Release builds set the version through -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/backendkit/version.Version=1.4.0"
//
// Commit and build time fall back to the VCS stamp of the Go toolchain.
package version
