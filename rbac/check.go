package rbac

import "strings"

type checkKind uint8

const (
	checkPermission checkKind = iota
	checkRole
)

// Check is one element of an access requirement. Build values with
// [Permission] or [RoleName]; the zero value matches nothing.
type Check struct {
	kind  checkKind
	value string
}

// Permission builds a Check satisfied when the subject's resolved
// permission patterns match the given permission.
func Permission(p string) Check {
	return Check{kind: checkPermission, value: p}
}

// RoleName builds a Check satisfied when the subject holds the role,
// directly or through inheritance.
func RoleName(n string) Check {
	return Check{kind: checkRole, value: n}
}

// Permissions builds permission checks from a list.
func Permissions(ps ...string) []Check {
	out := make([]Check, 0, len(ps))
	for _, p := range ps {
		out = append(out, Permission(p))
	}
	return out
}

// RoleNames builds role checks from a list.
func RoleNames(ns ...string) []Check {
	out := make([]Check, 0, len(ns))
	for _, n := range ns {
		out = append(out, RoleName(n))
	}
	return out
}

// ChecksFromStrings converts the legacy stringly interface where entries
// containing a dot are permissions and bare words are role names. New
// callers should construct checks explicitly instead.
func ChecksFromStrings(entries []string) []Check {
	out := make([]Check, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(e, ".") {
			out = append(out, Permission(e))
		} else {
			out = append(out, RoleName(e))
		}
	}
	return out
}
