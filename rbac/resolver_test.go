package rbac

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
)

type memoryRoleStore struct {
	mu    sync.Mutex
	next  int
	roles map[string]*Role
}

func newMemoryRoleStore() *memoryRoleStore {
	return &memoryRoleStore{roles: make(map[string]*Role)}
}

func cloneRole(r *Role) *Role {
	out := *r
	out.Permissions = append([]string(nil), r.Permissions...)
	out.Inherits = append([]string(nil), r.Inherits...)
	return &out
}

func (s *memoryRoleStore) GetByID(_ context.Context, id string) (*Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.roles[id]; ok {
		return cloneRole(r), nil
	}
	return nil, nil
}

func (s *memoryRoleStore) GetByName(_ context.Context, name string) (*Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.Name == name {
			return cloneRole(r), nil
		}
	}
	return nil, nil
}

func (s *memoryRoleStore) GetByNames(ctx context.Context, names []string) ([]*Role, error) {
	out := make([]*Role, 0, len(names))
	for _, n := range names {
		r, err := s.GetByName(ctx, n)
		if err != nil {
			return nil, err
		}
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memoryRoleStore) Create(_ context.Context, role *Role) (*Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	r := cloneRole(role)
	r.ID = "role-" + strconv.Itoa(s.next)
	s.roles[r.ID] = r
	return cloneRole(r), nil
}

func (s *memoryRoleStore) Update(_ context.Context, id string, patch RolePatch) (*Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok {
		return nil, errors.New("memory store: unknown role id")
	}
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.Permissions != nil {
		r.Permissions = append([]string(nil), (*patch.Permissions)...)
	}
	if patch.Inherits != nil {
		r.Inherits = append([]string(nil), (*patch.Inherits)...)
	}
	if patch.Status != nil {
		r.Status = *patch.Status
	}
	return cloneRole(r), nil
}

func seedRole(t *testing.T, store *memoryRoleStore, name string, permissions, inherits []string) *Role {
	t.Helper()
	r, err := store.Create(context.Background(), &Role{
		Name:        name,
		Permissions: permissions,
		Inherits:    inherits,
		Status:      StatusEnabled,
	})
	if err != nil {
		t.Fatalf("seed role %s: %v", name, err)
	}
	return r
}

func newTestResolver(t *testing.T) (*Resolver, *memoryRoleStore) {
	t.Helper()
	store := newMemoryRoleStore()
	r, err := NewResolver(store)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r, store
}

// batchCountingStore counts how resolver lookups reach the store.
type batchCountingStore struct {
	*memoryRoleStore
	batchCalls int
	nameCalls  int
}

func (s *batchCountingStore) GetByName(ctx context.Context, name string) (*Role, error) {
	s.nameCalls++
	return s.memoryRoleStore.GetByName(ctx, name)
}

func (s *batchCountingStore) GetByNames(ctx context.Context, names []string) ([]*Role, error) {
	s.batchCalls++
	return s.memoryRoleStore.GetByNames(ctx, names)
}

func TestResolverBatchesDirectRoleFetch(t *testing.T) {
	base := newMemoryRoleStore()
	store := &batchCountingStore{memoryRoleStore: base}
	r, err := NewResolver(store)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	ctx := context.Background()

	seedRole(t, base, "reader", []string{"boards.read"}, nil)
	seedRole(t, base, "writer", []string{"boards.write"}, []string{"reader"})
	seedRole(t, base, "admin", []string{"admin.**"}, []string{"writer"})

	perms, err := r.ResolvePermissions(ctx, []string{"reader", "writer"})
	if err != nil {
		t.Fatalf("ResolvePermissions: %v", err)
	}
	if len(perms) != 2 {
		t.Fatalf("expected 2 permissions, got %v", perms)
	}
	if store.batchCalls != 1 {
		t.Fatalf("expected one batch fetch for the direct roles, got %d", store.batchCalls)
	}
	if store.nameCalls != 0 {
		t.Fatalf("direct roles must not be fetched one by one, got %d single fetches", store.nameCalls)
	}

	ok, err := r.HasRole(ctx, []string{"admin"}, "reader")
	if err != nil {
		t.Fatalf("HasRole: %v", err)
	}
	if !ok {
		t.Fatal("expected admin to hold inherited role reader")
	}
	if store.batchCalls != 2 {
		t.Fatalf("expected HasRole to batch-fetch direct roles, got %d batch calls", store.batchCalls)
	}
}

func TestResolvePermissionsUnionsInheritance(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	seedRole(t, store, "reader", []string{"boards.read"}, nil)
	seedRole(t, store, "writer", []string{"boards.write"}, []string{"reader"})
	seedRole(t, store, "admin", []string{"admin.**"}, []string{"writer"})

	perms, err := r.ResolvePermissions(ctx, []string{"admin"})
	if err != nil {
		t.Fatalf("ResolvePermissions: %v", err)
	}

	want := []string{"admin.**", "boards.read", "boards.write"}
	if len(perms) != len(want) {
		t.Fatalf("expected %v, got %v", want, perms)
	}
	for i := range want {
		if perms[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, perms)
		}
	}
}

func TestResolvePermissionsOrderIndependent(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	seedRole(t, store, "a", []string{"x.one", "x.two"}, nil)
	seedRole(t, store, "b", []string{"y.one"}, []string{"a"})

	first, err := r.ResolvePermissions(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("ResolvePermissions: %v", err)
	}
	second, err := r.ResolvePermissions(ctx, []string{"b", "a"})
	if err != nil {
		t.Fatalf("ResolvePermissions: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("result depends on input order: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("result depends on input order: %v vs %v", first, second)
		}
	}
}

func TestResolvePermissionsTerminatesOnCycle(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	seedRole(t, store, "ying", []string{"a.one"}, []string{"yang"})
	seedRole(t, store, "yang", []string{"b.one"}, []string{"ying"})

	perms, err := r.ResolvePermissions(ctx, []string{"ying"})
	if err != nil {
		t.Fatalf("ResolvePermissions on cyclic graph: %v", err)
	}
	if len(perms) != 2 {
		t.Fatalf("expected both cycle members to contribute once, got %v", perms)
	}
}

func TestResolvePermissionsSkipsUnknownAndDisabled(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	seedRole(t, store, "live", []string{"a.one"}, []string{"ghost"})
	dead := seedRole(t, store, "dead", []string{"b.one"}, nil)

	disabled := StatusDisabled
	if _, err := store.Update(ctx, dead.ID, RolePatch{Status: &disabled}); err != nil {
		t.Fatalf("disable role: %v", err)
	}

	perms, err := r.ResolvePermissions(ctx, []string{"live", "dead", "missing"})
	if err != nil {
		t.Fatalf("ResolvePermissions: %v", err)
	}
	if len(perms) != 1 || perms[0] != "a.one" {
		t.Fatalf("expected only the live role's permission, got %v", perms)
	}
}

func TestCanMatchesWildcards(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	seedRole(t, store, "support", []string{"tickets.*", "kb.**"}, nil)

	cases := []struct {
		permission string
		want       bool
	}{
		{"tickets.read", true},
		{"tickets.read.own", false},
		{"kb.articles.publish", true},
		{"billing.read", false},
	}
	for _, tc := range cases {
		got, err := r.Can(ctx, []string{"support"}, tc.permission)
		if err != nil {
			t.Fatalf("Can(%q): %v", tc.permission, err)
		}
		if got != tc.want {
			t.Errorf("Can(%q) = %v, want %v", tc.permission, got, tc.want)
		}
	}
}

func TestHasRoleFollowsInheritance(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	seedRole(t, store, "user", nil, nil)
	seedRole(t, store, "admin", nil, []string{"user"})

	ok, err := r.HasRole(ctx, []string{"admin"}, "user")
	if err != nil {
		t.Fatalf("HasRole: %v", err)
	}
	if !ok {
		t.Fatal("expected admin to hold inherited role user")
	}

	ok, err = r.HasRole(ctx, []string{"user"}, "admin")
	if err != nil {
		t.Fatalf("HasRole: %v", err)
	}
	if ok {
		t.Fatal("inheritance must not work upward")
	}
}

func TestHasAccessAnySemantics(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	seedRole(t, store, "viewer", []string{"boards.read"}, nil)

	ok, err := r.HasAccess(ctx, []string{"viewer"}, []Check{
		Permission("boards.delete"),
		RoleName("viewer"),
	})
	if err != nil {
		t.Fatalf("HasAccess: %v", err)
	}
	if !ok {
		t.Fatal("expected access when any check passes")
	}

	ok, err = r.HasAccess(ctx, []string{"viewer"}, nil)
	if err != nil {
		t.Fatalf("HasAccess: %v", err)
	}
	if ok {
		t.Fatal("empty check list must not grant access")
	}
}

func TestAssignPermissionIdempotent(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	role := seedRole(t, store, "editor", []string{"posts.write"}, nil)

	updated, err := r.AssignPermission(ctx, role.ID, "posts.publish")
	if err != nil {
		t.Fatalf("AssignPermission: %v", err)
	}
	if len(updated.Permissions) != 2 {
		t.Fatalf("expected 2 permissions, got %v", updated.Permissions)
	}

	again, err := r.AssignPermission(ctx, role.ID, "posts.publish")
	if err != nil {
		t.Fatalf("AssignPermission repeat: %v", err)
	}
	if len(again.Permissions) != 2 {
		t.Fatalf("repeated assign must be a no-op, got %v", again.Permissions)
	}
}

func TestRevokePermissionIdempotent(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	role := seedRole(t, store, "editor", []string{"posts.write", "posts.publish"}, nil)

	updated, err := r.RevokePermission(ctx, role.ID, "posts.publish")
	if err != nil {
		t.Fatalf("RevokePermission: %v", err)
	}
	if len(updated.Permissions) != 1 {
		t.Fatalf("expected 1 permission, got %v", updated.Permissions)
	}

	again, err := r.RevokePermission(ctx, role.ID, "posts.publish")
	if err != nil {
		t.Fatalf("RevokePermission repeat: %v", err)
	}
	if len(again.Permissions) != 1 {
		t.Fatalf("repeated revoke must be a no-op, got %v", again.Permissions)
	}
}

func TestSyncPermissionsReplaces(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	role := seedRole(t, store, "editor", []string{"posts.write"}, nil)

	updated, err := r.SyncPermissions(ctx, role.ID, []string{"media.upload", "media.delete"})
	if err != nil {
		t.Fatalf("SyncPermissions: %v", err)
	}
	if len(updated.Permissions) != 2 || updated.Permissions[0] != "media.upload" {
		t.Fatalf("expected replacement, got %v", updated.Permissions)
	}
}

func TestMutationsValidateInput(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	role := seedRole(t, store, "editor", nil, nil)

	if _, err := r.AssignPermission(ctx, role.ID, "has space.read"); !errors.Is(err, ErrInvalidPermission) {
		t.Fatalf("expected ErrInvalidPermission, got %v", err)
	}
	if _, err := r.AssignPermission(ctx, "missing-id", "posts.read"); !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
	if _, err := r.AssignInheritance(ctx, role.ID, ""); !errors.Is(err, ErrInvalidRoleName) {
		t.Fatalf("expected ErrInvalidRoleName, got %v", err)
	}
}

func TestInheritanceMutations(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	role := seedRole(t, store, "admin", nil, nil)

	updated, err := r.AssignInheritance(ctx, role.ID, "user")
	if err != nil {
		t.Fatalf("AssignInheritance: %v", err)
	}
	if len(updated.Inherits) != 1 || updated.Inherits[0] != "user" {
		t.Fatalf("expected inherits [user], got %v", updated.Inherits)
	}

	again, err := r.AssignInheritance(ctx, role.ID, "user")
	if err != nil {
		t.Fatalf("AssignInheritance repeat: %v", err)
	}
	if len(again.Inherits) != 1 {
		t.Fatalf("repeated assign must be a no-op, got %v", again.Inherits)
	}

	removed, err := r.RevokeInheritance(ctx, role.ID, "user")
	if err != nil {
		t.Fatalf("RevokeInheritance: %v", err)
	}
	if len(removed.Inherits) != 0 {
		t.Fatalf("expected empty inherits, got %v", removed.Inherits)
	}
}
