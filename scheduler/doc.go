// Package scheduler provides core.Scheduler: periodic plugin tasks that
// start with the backend and stop with it.
//
//	backend:
//	  scheduler:
//	    maxConcurrency: 10
//	    defaultTimeout: 1m
//
// Runs are traced and counted in the backend.task.* metrics.
package scheduler
