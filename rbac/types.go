package rbac

import (
	"context"
	"errors"
	"time"
)

const (
	// StatusDisabled is an exported constant or variable used by the role manager.
	StatusDisabled = 0
	// StatusEnabled is an exported constant or variable used by the role manager.
	StatusEnabled = 1
)

var (
	// ErrRoleNotFound is an exported constant or variable used by the role manager.
	ErrRoleNotFound = errors.New("role not found")
	// ErrInvalidPermission is an exported constant or variable used by the role manager.
	ErrInvalidPermission = errors.New("invalid permission string")
	// ErrInvalidRoleName is an exported constant or variable used by the role manager.
	ErrInvalidRoleName = errors.New("invalid role name")
)

// Role is a named permission set that may inherit other roles by name.
type Role struct {
	ID          string
	Name        string
	Description string
	Permissions []string
	Inherits    []string
	Status      int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RolePatch is a partial update applied through [RoleStore.Update].
// Nil fields are left untouched. Permissions and Inherits replace the
// stored slices wholesale.
type RolePatch struct {
	Description *string
	Permissions *[]string
	Inherits    *[]string
	Status      *int
}

// RoleStore is the caller-implemented persistence interface for roles.
// Lookup methods return (nil, nil) when no matching record exists.
// GetByNames returns the subset of requested roles that exist; unknown
// names are simply absent from the result.
type RoleStore interface {
	GetByID(ctx context.Context, id string) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	GetByNames(ctx context.Context, names []string) ([]*Role, error)
	Create(ctx context.Context, role *Role) (*Role, error)
	Update(ctx context.Context, id string, patch RolePatch) (*Role, error)
}
