package permissions

import "strings"

// MatchPattern reports whether pattern grants required. Permissions use the
// "resource:action" form and either part may be "*":
//
//	"*:*"          matches everything
//	"entity:*"     matches "entity:read" and "entity:delete"
//	"*:read"       matches "entity:read" and "task:read"
//	"entity:read"  matches only "entity:read"
//
// Values without ":" are compared whole, with "*" matching anything.
func MatchPattern(pattern, required string) bool {
	if pattern == required || pattern == "*" || pattern == "*:*" {
		return true
	}

	patParts := strings.SplitN(pattern, ":", 2)
	reqParts := strings.SplitN(required, ":", 2)
	if len(patParts) != len(reqParts) || len(patParts) == 1 {
		return matchWildcard(pattern, required)
	}
	return matchWildcard(patParts[0], reqParts[0]) && matchWildcard(patParts[1], reqParts[1])
}

// MatchAny reports whether any of patterns grants required.
func MatchAny(patterns []string, required string) bool {
	for _, p := range patterns {
		if MatchPattern(p, required) {
			return true
		}
	}
	return false
}

func matchWildcard(pattern, value string) bool {
	return pattern == "*" || pattern == value
}
