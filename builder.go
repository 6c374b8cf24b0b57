package goAccounts

import (
	"errors"

	"github.com/MrEthical07/goAccounts/internal"
	intaudit "github.com/MrEthical07/goAccounts/internal/audit"
	"github.com/MrEthical07/goAccounts/jwt"
	"github.com/MrEthical07/goAccounts/password"
	"github.com/MrEthical07/goAccounts/rbac"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by goAccounts APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	accountStore AccountStore
	roleStore    rbac.RoleStore
	notifier     Notifier
	provisioner  Provisioner
	auditSink    AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithAccountStore describes the withaccountstore operation and its observable behavior.
//
// WithAccountStore may return an error when input validation, dependency calls, or security checks fail.
// WithAccountStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAccountStore(store AccountStore) *Builder {
	b.accountStore = store
	return b
}

// WithRoleStore describes the withrolestore operation and its observable behavior.
//
// WithRoleStore may return an error when input validation, dependency calls, or security checks fail.
// WithRoleStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRoleStore(store rbac.RoleStore) *Builder {
	b.roleStore = store
	return b
}

// WithNotifier describes the withnotifier operation and its observable behavior.
//
// WithNotifier may return an error when input validation, dependency calls, or security checks fail.
// WithNotifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithProvisioner describes the withprovisioner operation and its observable behavior.
//
// WithProvisioner may return an error when input validation, dependency calls, or security checks fail.
// WithProvisioner does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithProvisioner(p Provisioner) *Builder {
	b.provisioner = p
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.accountStore == nil {
		return nil, errors.New("account store required")
	}
	if b.roleStore == nil {
		return nil, errors.New("role store required")
	}
	if cfg.Mail.Enabled && b.notifier == nil {
		return nil, errors.New("mail enabled without a notifier")
	}
	if cfg.Provisioning.Enabled && b.provisioner == nil {
		return nil, errors.New("provisioning enabled without a provisioner")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Non-production builds run on an ephemeral secret; every session
	// dies with the process. Production fails validation instead.
	if len(cfg.Session.Secret) == 0 {
		secret, err := internal.NewEphemeralSecret(32)
		if err != nil {
			return nil, err
		}
		cfg.Session.Secret = secret
	}

	if cfg.TwoFactor.Issuer == "" {
		cfg.TwoFactor.Issuer = cfg.Site.Name
	}

	resolver, err := rbac.NewResolver(b.roleStore)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:      cloneConfig(cfg),
		accounts:    b.accountStore,
		roles:       resolver,
		provisioner: b.provisioner,
	}

	engine.metrics = NewMetrics(cfg.Metrics)
	engine.dispatcher = intaudit.NewDispatcher(intaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.tokens = newOneTimeTokenStore(b.redis, cfg.Tokens.RedisPrefix, cfg.Tokens.TTL)
	engine.limiter = newLoginLimiter(b.redis, cfg.Tokens.RedisPrefix, cfg.Throttle)
	engine.totp = newTOTPManager(cfg.TwoFactor)
	engine.mail = newMailer(b.notifier, cfg.Mail, cfg.Site, engine.metrics)

	ph, err := password.NewArgon2(password.Config{
		MinLength:   cfg.Password.MinLength,
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.hasher = ph

	sm, err := jwt.NewManager(jwt.Config{
		Secret:   cfg.Session.Secret,
		TokenTTL: cfg.Session.TokenTTL,
		Issuer:   cfg.Site.Name,
	})
	if err != nil {
		return nil, err
	}
	engine.sessions = sm

	b.built = true

	return engine, nil
}
