package permissions

import (
	"strings"

	"github.com/kbukum/backendkit/core"
)

// Everyone is the policy key whose patterns apply to all principals.
const Everyone = "*"

// Policy decides a single permission request.
type Policy interface {
	Decide(principal, permission string) core.AuthorizeDecision
}

// PolicyFunc adapts a function to Policy.
type PolicyFunc func(principal, permission string) core.AuthorizeDecision

// Decide implements Policy.
func (f PolicyFunc) Decide(principal, permission string) core.AuthorizeDecision {
	return f(principal, permission)
}

// AllowAll allows every request.
var AllowAll = PolicyFunc(func(string, string) core.AuthorizeDecision { return core.DecisionAllow })

// MapPolicy grants each principal the permissions matching its patterns,
// plus those listed under Everyone. Principals are compared case-insensitively
// since configuration keys are lowercased on load.
type MapPolicy struct {
	grants map[string][]string
}

// NewMapPolicy creates a policy from principal to permission patterns.
//
//	permissions.NewMapPolicy(map[string][]string{
//	    "user:default/admin": {"*:*"},
//	    "*":                  {"entity:read"},
//	})
func NewMapPolicy(grants map[string][]string) *MapPolicy {
	normalized := make(map[string][]string, len(grants))
	for principal, patterns := range grants {
		key := strings.ToLower(principal)
		normalized[key] = append(normalized[key], patterns...)
	}
	return &MapPolicy{grants: normalized}
}

// Decide implements Policy.
func (p *MapPolicy) Decide(principal, permission string) core.AuthorizeDecision {
	if MatchAny(p.grants[Everyone], permission) {
		return core.DecisionAllow
	}
	if principal != "" && MatchAny(p.grants[strings.ToLower(principal)], permission) {
		return core.DecisionAllow
	}
	return core.DecisionDeny
}
