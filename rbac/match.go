package rbac

import "strings"

// matchPermission reports whether the dot-separated pattern covers the
// concrete permission. "*" matches exactly one segment; a trailing "**"
// matches any remaining segments, including none.
func matchPermission(pattern, permission string) bool {
	if pattern == permission {
		return true
	}
	if pattern == "**" {
		return true
	}

	pSegs := strings.Split(pattern, ".")
	cSegs := strings.Split(permission, ".")

	for i, seg := range pSegs {
		if seg == "**" {
			// Only the trailing position is a multi-segment wildcard.
			return i == len(pSegs)-1
		}
		if i >= len(cSegs) {
			return false
		}
		if seg != "*" && seg != cSegs[i] {
			return false
		}
	}

	return len(pSegs) == len(cSegs)
}

// validPermission accepts non-empty dot-separated patterns without
// whitespace. Empty segments ("a..b") are rejected.
func validPermission(p string) bool {
	if p == "" {
		return false
	}
	for _, seg := range strings.Split(p, ".") {
		if seg == "" {
			return false
		}
		if strings.ContainsAny(seg, " \t\n") {
			return false
		}
	}
	return true
}
