package rbac

import (
	"context"
	"errors"
	"sort"
)

// Resolver answers permission questions over the role graph and applies
// idempotent role mutations. It reads through the [RoleStore] on every
// call; it holds no cache and no state beyond the store reference.
//
// Resolver instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Resolver struct {
	store RoleStore
}

// NewResolver builds a Resolver over the given store.
func NewResolver(store RoleStore) (*Resolver, error) {
	if store == nil {
		return nil, errors.New("rbac: nil role store")
	}
	return &Resolver{store: store}, nil
}

// ResolvePermissions returns the union of permission patterns granted by
// the named roles and everything they transitively inherit. Unknown and
// disabled roles contribute nothing. The result is sorted and
// deduplicated; the input order never affects it. Cycles in the
// inheritance graph terminate because every role is expanded at most
// once.
//
// The subject's direct roles are fetched in a single batch; inherited
// roles are walked one at a time.
func (r *Resolver) ResolvePermissions(ctx context.Context, roleNames []string) ([]string, error) {
	permSet := make(map[string]struct{})
	visited := make(map[string]struct{}, len(roleNames))

	direct, err := r.store.GetByNames(ctx, roleNames)
	if err != nil {
		return nil, err
	}
	for _, name := range roleNames {
		visited[name] = struct{}{}
	}

	var queue []string
	for _, role := range direct {
		if role == nil || role.Status != StatusEnabled {
			continue
		}
		for _, p := range role.Permissions {
			permSet[p] = struct{}{}
		}
		queue = append(queue, role.Inherits...)
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if _, seen := visited[name]; seen {
			continue
		}
		visited[name] = struct{}{}

		role, err := r.store.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if role == nil || role.Status != StatusEnabled {
			continue
		}

		for _, p := range role.Permissions {
			permSet[p] = struct{}{}
		}
		queue = append(queue, role.Inherits...)
	}

	out := make([]string, 0, len(permSet))
	for p := range permSet {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// Can reports whether any pattern granted by the roles matches the
// permission.
func (r *Resolver) Can(ctx context.Context, roleNames []string, permission string) (bool, error) {
	patterns, err := r.ResolvePermissions(ctx, roleNames)
	if err != nil {
		return false, err
	}

	for _, pattern := range patterns {
		if matchPermission(pattern, permission) {
			return true, nil
		}
	}
	return false, nil
}

// HasRole reports whether the subject holds the role, directly or through
// the inheritance graph. Direct roles are fetched in a single batch.
func (r *Resolver) HasRole(ctx context.Context, roleNames []string, wanted string) (bool, error) {
	for _, name := range roleNames {
		if name == wanted {
			return true, nil
		}
	}

	visited := make(map[string]struct{}, len(roleNames))
	for _, name := range roleNames {
		visited[name] = struct{}{}
	}

	direct, err := r.store.GetByNames(ctx, roleNames)
	if err != nil {
		return false, err
	}

	var queue []string
	for _, role := range direct {
		if role == nil || role.Status != StatusEnabled {
			continue
		}
		queue = append(queue, role.Inherits...)
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if name == wanted {
			return true, nil
		}
		if _, seen := visited[name]; seen {
			continue
		}
		visited[name] = struct{}{}

		role, err := r.store.GetByName(ctx, name)
		if err != nil {
			return false, err
		}
		if role == nil || role.Status != StatusEnabled {
			continue
		}
		queue = append(queue, role.Inherits...)
	}

	return false, nil
}

// HasAccess reports whether ANY of the checks passes for the subject's
// roles. An empty check list never grants access.
func (r *Resolver) HasAccess(ctx context.Context, roleNames []string, checks []Check) (bool, error) {
	for _, check := range checks {
		switch check.kind {
		case checkPermission:
			ok, err := r.Can(ctx, roleNames, check.value)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		case checkRole:
			ok, err := r.HasRole(ctx, roleNames, check.value)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
	}
	return false, nil
}

/* =========================================================
   Mutations
   ========================================================= */

// AssignPermission adds a permission pattern to the role. Assigning a
// pattern the role already has is a no-op.
func (r *Resolver) AssignPermission(ctx context.Context, roleID, permission string) (*Role, error) {
	if !validPermission(permission) {
		return nil, ErrInvalidPermission
	}

	role, err := r.getByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	for _, p := range role.Permissions {
		if p == permission {
			return role, nil
		}
	}

	next := append(append([]string(nil), role.Permissions...), permission)
	return r.store.Update(ctx, role.ID, RolePatch{Permissions: &next})
}

// RevokePermission removes a permission pattern from the role. Revoking
// an absent pattern is a no-op.
func (r *Resolver) RevokePermission(ctx context.Context, roleID, permission string) (*Role, error) {
	if !validPermission(permission) {
		return nil, ErrInvalidPermission
	}

	role, err := r.getByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	next := make([]string, 0, len(role.Permissions))
	for _, p := range role.Permissions {
		if p != permission {
			next = append(next, p)
		}
	}
	if len(next) == len(role.Permissions) {
		return role, nil
	}

	return r.store.Update(ctx, role.ID, RolePatch{Permissions: &next})
}

// SyncPermissions replaces the role's permission list wholesale.
func (r *Resolver) SyncPermissions(ctx context.Context, roleID string, permissions []string) (*Role, error) {
	for _, p := range permissions {
		if !validPermission(p) {
			return nil, ErrInvalidPermission
		}
	}

	role, err := r.getByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	next := append([]string(nil), permissions...)
	return r.store.Update(ctx, role.ID, RolePatch{Permissions: &next})
}

// AssignInheritance makes the role inherit another role by name. The
// inherited role does not have to exist yet; unresolvable names simply
// contribute nothing at resolution time.
func (r *Resolver) AssignInheritance(ctx context.Context, roleID, inherited string) (*Role, error) {
	if inherited == "" {
		return nil, ErrInvalidRoleName
	}

	role, err := r.getByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	for _, n := range role.Inherits {
		if n == inherited {
			return role, nil
		}
	}

	next := append(append([]string(nil), role.Inherits...), inherited)
	return r.store.Update(ctx, role.ID, RolePatch{Inherits: &next})
}

// RevokeInheritance removes an inherited role by name. Removing an
// absent name is a no-op.
func (r *Resolver) RevokeInheritance(ctx context.Context, roleID, inherited string) (*Role, error) {
	if inherited == "" {
		return nil, ErrInvalidRoleName
	}

	role, err := r.getByID(ctx, roleID)
	if err != nil {
		return nil, err
	}

	next := make([]string, 0, len(role.Inherits))
	for _, n := range role.Inherits {
		if n != inherited {
			next = append(next, n)
		}
	}
	if len(next) == len(role.Inherits) {
		return role, nil
	}

	return r.store.Update(ctx, role.ID, RolePatch{Inherits: &next})
}

func (r *Resolver) getByID(ctx context.Context, roleID string) (*Role, error) {
	role, err := r.store.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	return role, nil
}
