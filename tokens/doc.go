// Package tokens provides core.TokenManager: short-lived HS256 tokens that
// backends present to each other.
//
//	backend:
//	  auth:
//	    keys:
//	      - secret: ${BACKEND_SECRET}
//	    tokenTtl: 1h
//
// Pair it with middleware.Auth to protect plugin routes.
package tokens
