package goAccounts

import (
	"errors"
	"fmt"
	"time"
)

/* =========================================================
   Top-level configuration
   ========================================================= */

// Config is the root configuration object for the account engine.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// The builder clones the configuration at Build time; later mutations of
// the caller's copy have no effect on a running engine.
type Config struct {
	Site         SiteConfig
	Mail         MailConfig
	Signup       SignupConfig
	Session      SessionConfig
	Password     PasswordConfig
	TwoFactor    TwoFactorConfig
	Tokens       TokenConfig
	Throttle     ThrottleConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
	Security     SecurityConfig
	Provisioning ProvisioningConfig
}

/* =========================================================
   Site
   ========================================================= */

// SiteConfig names the installation; both fields are interpolated into
// outbound mail payloads.
type SiteConfig struct {
	Name string
	URL  string
}

/* =========================================================
   Mail
   ========================================================= */

// MailConfig controls outbound notification dispatch.
type MailConfig struct {
	// Enabled gates every mail-dependent feature. With mail disabled,
	// verification is skipped at registration and passwordless login
	// fails with ErrPasswordlessUnavailable.
	Enabled bool

	// From is the sender identity passed to the notifier payload.
	From string

	// Retries is the number of delivery attempts per message.
	Retries int

	// Timeout bounds a single delivery attempt.
	Timeout time.Duration
}

/* =========================================================
   Signup
   ========================================================= */

// SignupConfig controls how new accounts come into existence.
type SignupConfig struct {
	// Enabled gates self-service registration, including implicit
	// registration through social login.
	Enabled bool

	// UsernameEnabled requires a unique username at registration. When
	// false, usernames are neither required nor checked.
	UsernameEnabled bool

	// PasswordlessEnabled allows accounts without a password. Such
	// accounts authenticate exclusively through magic links.
	PasswordlessEnabled bool

	// VerificationEnabled requires email confirmation before the first
	// login. Requires Mail.Enabled.
	VerificationEnabled bool

	// DefaultRoles is assigned to every new account.
	DefaultRoles []string

	// DefaultPlan is assigned to every new account.
	DefaultPlan Plan
}

/* =========================================================
   Session
   ========================================================= */

// SessionConfig controls stateless session tokens.
type SessionConfig struct {
	// Secret signs session tokens (HS256). Required in production
	// mode; in non-production builds an ephemeral random secret is
	// generated, which invalidates all sessions on restart.
	Secret []byte

	// TokenTTL is the session token lifetime.
	TokenTTL time.Duration

	// LoginRefreshInterval is the staleness threshold for the
	// last-login timestamp: resolving a session refreshes the
	// timestamp only when it is older than this interval.
	LoginRefreshInterval time.Duration
}

/* =========================================================
   Password hashing
   ========================================================= */

// PasswordConfig holds the Argon2id parameters and the password policy.
type PasswordConfig struct {
	MinLength   int
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/* =========================================================
   Two-factor
   ========================================================= */

// TwoFactorConfig controls TOTP enrollment and verification.
type TwoFactorConfig struct {
	// Enabled gates the enrollment operations. Accounts that already
	// finished enrollment keep enforcing 2FA at login regardless.
	Enabled bool

	// Issuer appears in the otpauth:// provisioning URI. Defaults to
	// Site.Name when empty.
	Issuer string

	// Digits is the code length.
	Digits int

	// Period is the TOTP step in seconds.
	Period int

	// Window is the number of steps accepted on either side of the
	// current one, absorbing clock drift between client and server.
	Window int
}

/* =========================================================
   One-time tokens
   ========================================================= */

// TokenConfig controls the Redis-backed one-time token store shared by
// verification, password-reset and passwordless flows.
type TokenConfig struct {
	// RedisPrefix namespaces every key written by the store.
	RedisPrefix string

	// TTL is the lifetime of an unconsumed token.
	TTL time.Duration
}

/* =========================================================
   Login throttling
   ========================================================= */

// ThrottleConfig controls the fixed-window login attempt limiter.
type ThrottleConfig struct {
	// EnableLoginThrottle turns the limiter on. Disabled by default;
	// the limiter needs Redis.
	EnableLoginThrottle bool

	// MaxLoginAttempts is the attempt cap per identifier per window.
	MaxLoginAttempts int

	// LoginWindow is the fixed window size.
	LoginWindow time.Duration
}

/* =========================================================
   Audit
   ========================================================= */

// AuditConfig controls the asynchronous audit event dispatcher.
type AuditConfig struct {
	Enabled bool

	// BufferSize is the dispatcher channel capacity.
	BufferSize int

	// DropIfFull selects drop-oldest-first behavior over blocking the
	// calling flow when the buffer is saturated.
	DropIfFull bool
}

/* =========================================================
   Metrics
   ========================================================= */

// MetricsConfig controls the in-process metrics registry.
type MetricsConfig struct {
	Enabled bool

	// EnableLatencyHistograms additionally records per-operation
	// latency buckets. Counters are always recorded when Enabled.
	EnableLatencyHistograms bool
}

/* =========================================================
   Security
   ========================================================= */

// SecurityConfig holds deployment-posture switches.
type SecurityConfig struct {
	// ProductionMode makes missing secrets a build error instead of
	// generating ephemeral ones.
	ProductionMode bool
}

/* =========================================================
   Provisioning
   ========================================================= */

// ProvisioningConfig controls the optional external account mirror.
type ProvisioningConfig struct {
	// Enabled invokes the Provisioner after each successful
	// registration. Requires a Provisioner on the builder.
	Enabled bool
}

/* =========================================================
   Defaults
   ========================================================= */

func defaultConfig() Config {
	return Config{
		Site: SiteConfig{
			Name: "goAccounts",
			URL:  "http://localhost:4000",
		},
		Mail: MailConfig{
			Enabled: false,
			From:    "no-reply@localhost",
			Retries: 3,
			Timeout: 10 * time.Second,
		},
		Signup: SignupConfig{
			Enabled:             true,
			UsernameEnabled:     true,
			PasswordlessEnabled: false,
			VerificationEnabled: false,
			DefaultRoles:        []string{"user"},
			DefaultPlan:         PlanFree,
		},
		Session: SessionConfig{
			TokenTTL:             30 * 24 * time.Hour,
			LoginRefreshInterval: 5 * time.Minute,
		},
		Password: PasswordConfig{
			MinLength:   6,
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		TwoFactor: TwoFactorConfig{
			Enabled: false,
			Digits:  6,
			Period:  30,
			Window:  2,
		},
		Tokens: TokenConfig{
			RedisPrefix: "goaccounts",
			TTL:         time.Hour,
		},
		Throttle: ThrottleConfig{
			EnableLoginThrottle: false,
			MaxLoginAttempts:    10,
			LoginWindow:         time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Security:     SecurityConfig{},
		Provisioning: ProvisioningConfig{},
	}
}

// DefaultConfig returns the baseline configuration. Callers mutate the
// returned value and pass it to [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(c Config) Config {
	out := c
	out.Session.Secret = append([]byte(nil), c.Session.Secret...)
	out.Signup.DefaultRoles = append([]string(nil), c.Signup.DefaultRoles...)
	return out
}

/* =========================================================
   Validation
   ========================================================= */

// Validate checks internal consistency. It is called once by the
// builder; configurations that fail validation never produce an engine.
func (c *Config) Validate() error {
	if c.Security.ProductionMode && len(c.Session.Secret) == 0 {
		return errors.New("config: session secret is required in production mode")
	}
	if len(c.Session.Secret) > 0 && len(c.Session.Secret) < 32 {
		return errors.New("config: session secret must be at least 32 bytes")
	}
	if c.Session.TokenTTL <= 0 {
		return errors.New("config: session token TTL must be positive")
	}
	if c.Session.LoginRefreshInterval < 0 {
		return errors.New("config: login refresh interval must not be negative")
	}
	if c.Signup.VerificationEnabled && !c.Mail.Enabled {
		return errors.New("config: signup verification requires mail")
	}
	if !ValidPlan(c.Signup.DefaultPlan) {
		return fmt.Errorf("config: invalid default plan %q", c.Signup.DefaultPlan)
	}
	if c.Password.MinLength < 1 {
		return errors.New("config: password min length must be at least 1")
	}
	if c.Password.Memory < 8*1024 {
		return errors.New("config: argon2 memory must be at least 8 MiB")
	}
	if c.Password.Time < 1 {
		return errors.New("config: argon2 time cost must be at least 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("config: argon2 parallelism must be at least 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("config: argon2 salt length must be at least 16 bytes")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("config: argon2 key length must be at least 16 bytes")
	}
	if c.TwoFactor.Digits < 6 || c.TwoFactor.Digits > 8 {
		return errors.New("config: totp digits must be between 6 and 8")
	}
	if c.TwoFactor.Period < 1 {
		return errors.New("config: totp period must be positive")
	}
	if c.TwoFactor.Window < 0 || c.TwoFactor.Window > 10 {
		return errors.New("config: totp window must be between 0 and 10")
	}
	if c.Tokens.RedisPrefix == "" {
		return errors.New("config: token redis prefix must not be empty")
	}
	if c.Tokens.TTL <= 0 {
		return errors.New("config: token TTL must be positive")
	}
	if c.Throttle.EnableLoginThrottle {
		if c.Throttle.MaxLoginAttempts < 1 {
			return errors.New("config: login throttle attempt cap must be at least 1")
		}
		if c.Throttle.LoginWindow <= 0 {
			return errors.New("config: login throttle window must be positive")
		}
	}
	if c.Mail.Enabled {
		if c.Mail.Retries < 1 {
			return errors.New("config: mail retries must be at least 1")
		}
		if c.Mail.Timeout <= 0 {
			return errors.New("config: mail timeout must be positive")
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 1 {
		return errors.New("config: audit buffer size must be at least 1")
	}
	return nil
}
