package goAccounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goAccounts/rbac"
)

func TestResolveSessionRoundTrip(t *testing.T) {
	env := newTestEngine(t, engineTestConfig())
	registerVerified(t, env, "alice@example.com", "alice", "correct-password-123")

	res, err := env.engine.Login(context.Background(), LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-password-123",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	account, err := env.engine.ResolveSession(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("ResolveSession failed: %v", err)
	}
	if account.Email != "alice@example.com" {
		t.Fatalf("expected alice, got %q", account.Email)
	}
	if account.LastLoginAt.IsZero() {
		t.Fatal("expected last-login timestamp to be set")
	}
}

func TestResolveSessionRefreshIsThrottled(t *testing.T) {
	env := newTestEngine(t, engineTestConfig())
	registerVerified(t, env, "alice@example.com", "alice", "correct-password-123")

	res, err := env.engine.Login(context.Background(), LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-password-123",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	first, err := env.engine.ResolveSession(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("first ResolveSession failed: %v", err)
	}
	second, err := env.engine.ResolveSession(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("second ResolveSession failed: %v", err)
	}
	if !second.LastLoginAt.Equal(first.LastLoginAt) {
		t.Fatal("expected last-login timestamp to stay put within the refresh interval")
	}

	// An old timestamp gets refreshed on the next resolve.
	stale := time.Now().Add(-time.Hour)
	if _, err := env.store.Update(context.Background(), first.ID, AccountPatch{LastLoginAt: &stale}); err != nil {
		t.Fatalf("store update failed: %v", err)
	}
	third, err := env.engine.ResolveSession(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("third ResolveSession failed: %v", err)
	}
	if !third.LastLoginAt.After(stale) {
		t.Fatal("expected stale last-login timestamp to be refreshed")
	}
}

func TestResolveSessionInvalidToken(t *testing.T) {
	env := newTestEngine(t, engineTestConfig())

	if _, err := env.engine.ResolveSession(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestResolveSessionDisabledAccount(t *testing.T) {
	env := newTestEngine(t, engineTestConfig())
	account := registerVerified(t, env, "alice@example.com", "alice", "correct-password-123")

	res, err := env.engine.Login(context.Background(), LoginRequest{
		Email:    "alice@example.com",
		Password: "correct-password-123",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := env.engine.DisableAccount(context.Background(), account.ID); err != nil {
		t.Fatalf("DisableAccount failed: %v", err)
	}

	if _, err := env.engine.ResolveSession(context.Background(), res.Token); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestMe(t *testing.T) {
	env := newTestEngine(t, engineTestConfig())
	account := registerVerified(t, env, "alice@example.com", "alice", "correct-password-123")

	me, err := env.engine.Me(WithAccountID(context.Background(), account.ID))
	if err != nil {
		t.Fatalf("Me failed: %v", err)
	}
	if me == nil || me.ID != account.ID {
		t.Fatalf("expected alice, got %+v", me)
	}

	// Anonymous context resolves to no account, not an error.
	me, err = env.engine.Me(context.Background())
	if err != nil || me != nil {
		t.Fatalf("expected nil account for anonymous context, got %+v err=%v", me, err)
	}

	// Disabled accounts are treated as anonymous too.
	if _, err := env.engine.DisableAccount(context.Background(), account.ID); err != nil {
		t.Fatalf("DisableAccount failed: %v", err)
	}
	me, err = env.engine.Me(WithAccountID(context.Background(), account.ID))
	if err != nil || me != nil {
		t.Fatalf("expected nil account for disabled identity, got %+v err=%v", me, err)
	}
}

func TestEngineCan(t *testing.T) {
	env := newTestEngine(t, engineTestConfig())
	account := registerVerified(t, env, "alice@example.com", "alice", "correct-password-123")

	ok, err := env.engine.Can(context.Background(), account.ID, "boards.read")
	if err != nil || !ok {
		t.Fatalf("expected boards.read to be granted, ok=%v err=%v", ok, err)
	}
	ok, err = env.engine.Can(context.Background(), account.ID, "admin.settings")
	if err != nil || ok {
		t.Fatalf("expected admin.settings to be denied, ok=%v err=%v", ok, err)
	}
}

func TestEngineHasAccess(t *testing.T) {
	env := newTestEngine(t, engineTestConfig())
	account := registerVerified(t, env, "alice@example.com", "alice", "correct-password-123")

	ok, err := env.engine.HasAccess(context.Background(), account.ID, []rbac.Check{
		rbac.Permission("admin.settings"),
		rbac.RoleName("user"),
	})
	if err != nil || !ok {
		t.Fatalf("expected role check to grant access, ok=%v err=%v", ok, err)
	}

	ok, err = env.engine.HasAccess(context.Background(), account.ID, nil)
	if err != nil || ok {
		t.Fatalf("expected empty check list to deny, ok=%v err=%v", ok, err)
	}
}
