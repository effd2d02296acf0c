// Package component defines the lifecycle and health contracts shared by
// backends and their infrastructure.
//
//   - Component: Name/Start/Stop/Health
//   - HealthChecker: health status reporting, combined with Aggregate
package component
