// Package urlreader provides core.URLReader: HTTP reads restricted to an
// allow-list of hosts.
//
//	backend:
//	  reading:
//	    allow:
//	      - host: raw.githubusercontent.com
//	      - host: "*.example.com"
//	        paths: [/docs/]
//	    timeout: 30s
//	    maxSize: 10485760
//	    retry:
//	      maxAttempts: 3
//	    breaker:
//	      maxFailures: 5
//	      openTimeout: 30s
//
// Callers pass the ETag of a previous read to get NOT_MODIFIED instead of
// the body when nothing changed.
package urlreader
