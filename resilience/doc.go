// Package resilience holds the fault-tolerance primitives used by backend
// services: retry with exponential backoff, per-key circuit breakers, and a
// bulkhead that caps concurrent work.
//
// The URL reader wraps each fetch in a host breaker and a retry:
//
//	err := breakers.Get(host).Execute(func() error {
//	    return resilience.RetryFunc(ctx, retryCfg, fetch)
//	})
//
// The scheduler runs every task inside a bulkhead.
package resilience
