package goAccounts

import (
	"context"
	"time"
)

// Plan is the subscription tier attached to an account.
type Plan string

const (
	// PlanFree is an exported constant or variable used by the account engine.
	PlanFree Plan = "free"
	// PlanPaid is an exported constant or variable used by the account engine.
	PlanPaid Plan = "paid"
	// PlanPro is an exported constant or variable used by the account engine.
	PlanPro Plan = "pro"
	// PlanEnterprise is an exported constant or variable used by the account engine.
	PlanEnterprise Plan = "enterprise"
)

// ValidPlan reports whether p is one of the supported plan tiers.
func ValidPlan(p Plan) bool {
	switch p {
	case PlanFree, PlanPaid, PlanPro, PlanEnterprise:
		return true
	}
	return false
}

const (
	// StatusDisabled is an exported constant or variable used by the account engine.
	StatusDisabled = 0
	// StatusEnabled is an exported constant or variable used by the account engine.
	StatusEnabled = 1
)

// TokenType identifies a one-time token family. Tokens of different types
// never match each other even when the opaque strings collide.
type TokenType string

const (
	// TokenVerification is an exported constant or variable used by the account engine.
	TokenVerification TokenType = "verification"
	// TokenPasswordReset is an exported constant or variable used by the account engine.
	TokenPasswordReset TokenType = "password-reset"
	// TokenPasswordless is an exported constant or variable used by the account engine.
	TokenPasswordless TokenType = "passwordless"
)

// TOTPSettings is the per-account two-factor state. Secret set with
// Enabled=false means enrollment is pending confirmation.
type TOTPSettings struct {
	Enabled bool
	Secret  string
}

// Account is the full identity record managed by the engine.
//
// Account instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Account struct {
	ID           string
	Username     string
	FullName     string
	Email        string
	PasswordHash string
	Passwordless bool
	Avatar       string
	Roles        []string
	SocialLinks  map[string]string
	Status       int
	Plan         Plan
	Verified     bool
	TOTP         TOTPSettings
	LastLoginAt  time.Time
	CreatedAt    time.Time
}

// AccountPatch is a partial update applied through [AccountStore.Update].
// Nil fields are left untouched; the store applies the patch with
// last-write-wins semantics at the record level.
type AccountPatch struct {
	Verified     *bool
	Status       *int
	PasswordHash *string
	Passwordless *bool
	Plan         *Plan
	TOTP         *TOTPSettings
	LastLoginAt  *time.Time

	// SetSocialLinks merges provider entries into the account's link map.
	SetSocialLinks map[string]string
	// RemoveSocialLinks deletes provider entries from the link map.
	RemoveSocialLinks []string
}

// AccountStore is the primary interface that callers must implement to
// integrate goAccounts with their entity database. Lookup methods return
// (nil, nil) when no matching record exists; the engine maps absence to
// [ErrAccountNotFound] at the flow level.
//
// The store is assumed to enforce uniqueness on email and username.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetBySocialLink(ctx context.Context, provider, externalID string) (*Account, error)
	Create(ctx context.Context, account *Account) (*Account, error)
	Update(ctx context.Context, id string, patch AccountPatch) (*Account, error)
}

// SocialProfile is the external identity payload handed to social login
// and link operations by the OAuth callback layer.
type SocialProfile struct {
	ID       string
	Email    string
	Username string
	FullName string
	Avatar   string
}

// Mail template names passed to [Notifier.Send].
const (
	// TemplateWelcome is an exported constant or variable used by the account engine.
	TemplateWelcome = "welcome"
	// TemplateActivate is an exported constant or variable used by the account engine.
	TemplateActivate = "activate"
	// TemplateMagicLink is an exported constant or variable used by the account engine.
	TemplateMagicLink = "magic-link"
	// TemplateResetPassword is an exported constant or variable used by the account engine.
	TemplateResetPassword = "reset-password"
	// TemplatePasswordChanged is an exported constant or variable used by the account engine.
	TemplatePasswordChanged = "password-changed"
)

// Notifier delivers outbound account mail. Implementations should be safe
// for concurrent use; the engine applies its own retry and timeout budget
// around each Send call.
type Notifier interface {
	Send(ctx context.Context, to, template string, data map[string]any) error
}

// Provisioner mirrors new accounts into an external system (for example a
// self-hosted git forge). It is optional; a nil Provisioner disables the
// integration.
type Provisioner interface {
	CreateExternalAccount(ctx context.Context, email, username, password string) error
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Username string
	FullName string
	Email    string
	Password string
	Avatar   string
}

// RegisterResult is returned by [Engine.Register]. Token is set only when
// the account is verified immediately (verification disabled).
type RegisterResult struct {
	Account *Account
	Token   string
}

// LoginRequest is the input for [Engine.Login]. Email takes precedence
// over Username; TwoFactorCode is required only when the account has 2FA
// enabled.
type LoginRequest struct {
	Email         string
	Username      string
	Password      string
	TwoFactorCode string
}

// LoginResult is returned by [Engine.Login]. Either Token is set, or
// Passwordless is true and a magic link was mailed to Email.
type LoginResult struct {
	Token        string
	Passwordless bool
	Email        string
}

// TwoFactorSetup holds the pending TOTP secret and otpauth:// URI returned
// by [Engine.Enable2FA].
type TwoFactorSetup struct {
	Secret     string
	OTPAuthURL string
}
