package goAccounts

import (
	"io"

	"github.com/MrEthical07/goAccounts/internal/audit"
)

// AuditEvent is the structured record emitted for every account
// lifecycle change. Alias of the internal audit model so callers can
// implement sinks without importing internal packages.
type AuditEvent = audit.Event

// AuditSink receives emitted audit events.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// NewChannelSink returns a sink that writes events into a buffered
// channel, readable through its Events method.
func NewChannelSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink that writes one JSON object per line.
func NewJSONWriterSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

const (
	auditEventAccountCreated       = "account.created"
	auditEventAccountVerified      = "account.verified"
	auditEventLoginSuccess         = "login.success"
	auditEventLoginFailure         = "login.failure"
	auditEventLoginRateLimited     = "login.rate_limited"
	auditEventMagicLinkRequested   = "passwordless.requested"
	auditEventMagicLinkRedeemed    = "passwordless.redeemed"
	auditEventPasswordResetRequest = "password.reset_requested"
	auditEventPasswordResetConfirm = "password.reset_confirmed"
	auditEventSocialLogin          = "social.login"
	auditEventSocialLinked         = "social.linked"
	auditEventSocialUnlinked       = "social.unlinked"
	auditEventTwoFactorRequested   = "totp.setup_requested"
	auditEventTwoFactorEnabled     = "totp.enabled"
	auditEventTwoFactorDisabled    = "totp.disabled"
	auditEventTwoFactorFailure     = "totp.failure"
	auditEventAccountDisabled      = "account.disabled"
	auditEventAccountEnabled       = "account.enabled"
	auditEventPlanChanged          = "account.plan_changed"
	auditEventMailFailure          = "mail.failure"
)
