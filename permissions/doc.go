// Package permissions provides core.Permissions backed by a static policy.
//
//	backend:
//	  permissions:
//	    enabled: true
//	    policy:
//	      "user:default/admin": ["*:*"]
//	      "*": ["entity:read"]
//
// With permissions disabled, which is the default, every request is allowed.
package permissions
