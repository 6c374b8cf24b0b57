package goAccounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccounts/internal/audit"
	"github.com/MrEthical07/goAccounts/jwt"
	"github.com/MrEthical07/goAccounts/password"
	"github.com/MrEthical07/goAccounts/rbac"
)

// Engine is the account-management core. It owns every credential and
// lifecycle flow (registration, login, verification, password reset,
// social identities, two-factor, status changes) and delegates
// persistence to the caller's [AccountStore] and [rbac.RoleStore].
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// Build one with [New]; the zero value is not usable.
type Engine struct {
	config Config

	accounts    AccountStore
	roles       *rbac.Resolver
	sessions    *jwt.Manager
	hasher      *password.Argon2
	totp        *totpManager
	tokens      *oneTimeTokenStore
	limiter     *loginLimiter
	mail        *mailer
	dispatcher  *audit.Dispatcher
	metrics     *Metrics
	provisioner Provisioner
}

// Config returns a copy of the engine's effective configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// Roles exposes the role resolver for authorization checks and role
// administration.
func (e *Engine) Roles() *rbac.Resolver {
	return e.roles
}

// MetricsSnapshot returns a point-in-time copy of all engine counters
// and histograms. Exporters poll this.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports audit events dropped under dispatcher backpressure.
func (e *Engine) AuditDropped() uint64 {
	return e.dispatcher.Dropped()
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used after Close.
func (e *Engine) Close() {
	e.dispatcher.Close()
}

/* =========================================================
   Authorization passthroughs
   ========================================================= */

// Can reports whether the account's roles grant the permission.
func (e *Engine) Can(ctx context.Context, accountID, permission string) (bool, error) {
	account, err := e.getByID(ctx, accountID)
	if err != nil {
		return false, err
	}
	return e.roles.Can(ctx, account.Roles, permission)
}

// HasAccess reports whether the account passes any of the checks.
func (e *Engine) HasAccess(ctx context.Context, accountID string, checks []rbac.Check) (bool, error) {
	account, err := e.getByID(ctx, accountID)
	if err != nil {
		return false, err
	}
	return e.roles.HasAccess(ctx, account.Roles, checks)
}

/* =========================================================
   Session resolution
   ========================================================= */

// ResolveSession verifies a session token, gates the referenced account
// and returns it. The account's last-login timestamp is refreshed when
// older than the configured interval, so hot sessions do not write the
// store on every request.
func (e *Engine) ResolveSession(ctx context.Context, token string) (*Account, error) {
	start := time.Now()

	claims, err := e.sessions.Verify(token)
	if err != nil {
		e.metrics.Inc(MetricSessionRejected)
		return nil, ErrInvalidToken
	}

	account, err := e.getByID(ctx, claims.ID)
	if err != nil {
		e.metrics.Inc(MetricSessionRejected)
		return nil, err
	}
	if err := e.checkAccount(account, true); err != nil {
		e.metrics.Inc(MetricSessionRejected)
		return nil, err
	}

	if time.Since(account.LastLoginAt) > e.config.Session.LoginRefreshInterval {
		now := time.Now()
		updated, err := e.accounts.Update(ctx, account.ID, AccountPatch{LastLoginAt: &now})
		if err != nil {
			return nil, err
		}
		account = updated
	}

	e.metrics.Inc(MetricSessionResolved)
	e.metrics.Observe(MetricResolveLatency, time.Since(start))
	return account, nil
}

// Me returns the account bound to the context, or nil when the context
// carries no usable identity. Gate failures (disabled, unverified,
// deleted) also yield nil rather than an error, so middleware can treat
// the request as anonymous.
func (e *Engine) Me(ctx context.Context) (*Account, error) {
	id, ok := AccountIDFromContext(ctx)
	if !ok {
		return nil, nil
	}

	account, err := e.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, nil
	}
	if err := e.checkAccount(account, true); err != nil {
		return nil, nil
	}
	return account, nil
}

/* =========================================================
   Internal helpers
   ========================================================= */

// checkAccount gates every operation on an existing account. Disabled
// always wins over unverified so an admin-disabled account cannot be
// revived through the verification flow.
func (e *Engine) checkAccount(account *Account, requireVerified bool) error {
	if account == nil {
		return ErrAccountNotFound
	}
	if account.Status != StatusEnabled {
		return ErrAccountDisabled
	}
	if requireVerified && !account.Verified {
		return ErrAccountNotVerified
	}
	return nil
}

func (e *Engine) getByID(ctx context.Context, id string) (*Account, error) {
	if id == "" {
		return nil, ErrMissingAccountID
	}
	account, err := e.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (e *Engine) getByEmail(ctx context.Context, email string) (*Account, error) {
	account, err := e.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// issueSession signs a session token for the account. Signing failures
// are infrastructure faults, surfaced as the retryable ErrTokenGeneration.
func (e *Engine) issueSession(account *Account) (string, error) {
	token, err := e.sessions.Issue(account.ID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return token, nil
}

// generateOneTime mints a typed single-use token for the account.
// Store failures surface as the retryable ErrTokenGeneration.
func (e *Engine) generateOneTime(ctx context.Context, typ TokenType, accountID string) (string, error) {
	token, err := e.tokens.Generate(ctx, typ, accountID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return token, nil
}

// consumeOneTime redeems a typed single-use token. Every failure mode
// (unknown, expired, wrong type, replayed) maps to ErrInvalidToken;
// Redis outages stay distinguishable for the caller's 5xx path.
func (e *Engine) consumeOneTime(ctx context.Context, typ TokenType, opaque string) (string, error) {
	accountID, err := e.tokens.Consume(ctx, typ, opaque)
	if err != nil {
		if errors.Is(err, errTokenRedisUnavailable) {
			return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
		}
		return "", ErrInvalidToken
	}
	return accountID, nil
}

func (e *Engine) emitAudit(ctx context.Context, eventType, accountID, email string, success bool, failure error, metadata map[string]string) {
	if e.dispatcher == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		AccountID: accountID,
		Email:     email,
		Success:   success,
		Metadata:  metadata,
	}
	if ip, ok := ClientIPFromContext(ctx); ok {
		event.IP = ip
	}
	if failure != nil {
		event.Error = failure.Error()
	}

	e.dispatcher.Emit(ctx, event)
}
