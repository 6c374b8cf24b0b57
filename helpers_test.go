package goAccounts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goAccounts/rbac"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

/* =========================================================
   In-memory account store
   ========================================================= */

type memoryAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*Account
}

func newMemoryAccountStore() *memoryAccountStore {
	return &memoryAccountStore{accounts: map[string]*Account{}}
}

func cloneAccount(a *Account) *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.Roles = append([]string(nil), a.Roles...)
	out.SocialLinks = make(map[string]string, len(a.SocialLinks))
	for k, v := range a.SocialLinks {
		out.SocialLinks[k] = v
	}
	return &out
}

func (s *memoryAccountStore) GetByID(_ context.Context, id string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAccount(s.accounts[id]), nil
}

func (s *memoryAccountStore) GetByEmail(_ context.Context, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, nil
}

func (s *memoryAccountStore) GetByUsername(_ context.Context, username string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Username == username {
			return cloneAccount(a), nil
		}
	}
	return nil, nil
}

func (s *memoryAccountStore) GetBySocialLink(_ context.Context, provider, externalID string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.SocialLinks[provider] == externalID {
			return cloneAccount(a), nil
		}
	}
	return nil, nil
}

func (s *memoryAccountStore) Create(_ context.Context, account *Account) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneAccount(account)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.SocialLinks == nil {
		stored.SocialLinks = map[string]string{}
	}
	s.accounts[stored.ID] = stored
	return cloneAccount(stored), nil
}

func (s *memoryAccountStore) Update(_ context.Context, id string, patch AccountPatch) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.accounts[id]
	if !ok {
		return nil, errors.New("update of unknown account")
	}

	if patch.Verified != nil {
		stored.Verified = *patch.Verified
	}
	if patch.Status != nil {
		stored.Status = *patch.Status
	}
	if patch.PasswordHash != nil {
		stored.PasswordHash = *patch.PasswordHash
	}
	if patch.Passwordless != nil {
		stored.Passwordless = *patch.Passwordless
	}
	if patch.Plan != nil {
		stored.Plan = *patch.Plan
	}
	if patch.TOTP != nil {
		stored.TOTP = *patch.TOTP
	}
	if patch.LastLoginAt != nil {
		stored.LastLoginAt = *patch.LastLoginAt
	}
	if stored.SocialLinks == nil {
		stored.SocialLinks = map[string]string{}
	}
	for k, v := range patch.SetSocialLinks {
		stored.SocialLinks[k] = v
	}
	for _, k := range patch.RemoveSocialLinks {
		delete(stored.SocialLinks, k)
	}

	return cloneAccount(stored), nil
}

/* =========================================================
   In-memory role store
   ========================================================= */

type memoryRoleStore struct {
	mu    sync.Mutex
	roles map[string]*rbac.Role
}

func newMemoryRoleStore(roles ...*rbac.Role) *memoryRoleStore {
	s := &memoryRoleStore{roles: map[string]*rbac.Role{}}
	for _, r := range roles {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.Status == 0 {
			r.Status = rbac.StatusEnabled
		}
		s.roles[r.ID] = r
	}
	return s
}

func cloneRole(r *rbac.Role) *rbac.Role {
	if r == nil {
		return nil
	}
	out := *r
	out.Permissions = append([]string(nil), r.Permissions...)
	out.Inherits = append([]string(nil), r.Inherits...)
	return &out
}

func (s *memoryRoleStore) GetByID(_ context.Context, id string) (*rbac.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRole(s.roles[id]), nil
}

func (s *memoryRoleStore) GetByName(_ context.Context, name string) (*rbac.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.Name == name {
			return cloneRole(r), nil
		}
	}
	return nil, nil
}

func (s *memoryRoleStore) GetByNames(_ context.Context, names []string) ([]*rbac.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*rbac.Role
	for _, name := range names {
		for _, r := range s.roles {
			if r.Name == name {
				out = append(out, cloneRole(r))
				break
			}
		}
	}
	return out, nil
}

func (s *memoryRoleStore) Create(_ context.Context, role *rbac.Role) (*rbac.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneRole(role)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	s.roles[stored.ID] = stored
	return cloneRole(stored), nil
}

func (s *memoryRoleStore) Update(_ context.Context, id string, patch rbac.RolePatch) (*rbac.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.roles[id]
	if !ok {
		return nil, rbac.ErrRoleNotFound
	}

	if patch.Description != nil {
		stored.Description = *patch.Description
	}
	if patch.Permissions != nil {
		stored.Permissions = append([]string(nil), (*patch.Permissions)...)
	}
	if patch.Inherits != nil {
		stored.Inherits = append([]string(nil), (*patch.Inherits)...)
	}
	if patch.Status != nil {
		stored.Status = *patch.Status
	}
	stored.UpdatedAt = time.Now()

	return cloneRole(stored), nil
}

/* =========================================================
   Recording notifier
   ========================================================= */

type sentMail struct {
	To       string
	Template string
	Data     map[string]any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	fail error
}

func (n *recordingNotifier) Send(_ context.Context, to, template string, data map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, sentMail{To: to, Template: template, Data: data})
	return nil
}

func (n *recordingNotifier) last(t *testing.T) sentMail {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatal("expected at least one mail to be sent")
	}
	return n.sent[len(n.sent)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *recordingNotifier) setFail(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fail = err
}

/* =========================================================
   Engine construction
   ========================================================= */

// engineTestConfig keeps Argon2 at its cheapest valid parameters so the
// flow tests stay fast.
func engineTestConfig() Config {
	cfg := defaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Mail.Enabled = true
	cfg.Mail.Retries = 1
	cfg.Mail.Timeout = time.Second
	cfg.Metrics.Enabled = true
	return cfg
}

type testEnv struct {
	engine   *Engine
	store    *memoryAccountStore
	roles    *memoryRoleStore
	notifier *recordingNotifier
	redis    *miniredis.Miniredis
}

func newTestEngine(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	mr, rdb := newTestRedis(t)
	t.Cleanup(mr.Close)

	store := newMemoryAccountStore()
	roles := newMemoryRoleStore(
		&rbac.Role{Name: "user", Permissions: []string{"boards.read", "boards.own.**"}},
		&rbac.Role{Name: "admin", Permissions: []string{"**"}, Inherits: []string{"user"}},
	)
	notifier := &recordingNotifier{}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAccountStore(store).
		WithRoleStore(roles).
		WithNotifier(notifier).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{
		engine:   engine,
		store:    store,
		roles:    roles,
		notifier: notifier,
		redis:    mr,
	}
}

func registerVerified(t *testing.T, env *testEnv, email, username, password string) *Account {
	t.Helper()

	res, err := env.engine.Register(context.Background(), RegisterRequest{
		Email:    email,
		Username: username,
		FullName: "Test Account",
		Password: password,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return res.Account
}
