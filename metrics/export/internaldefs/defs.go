package internaldefs

import (
	goAccounts "github.com/MrEthical07/goAccounts"
)

// CounterDef defines a public type used by goAccounts APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goAccounts.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goAccounts APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goAccounts.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the account engine.
var CounterDefs = []CounterDef{
	{ID: goAccounts.MetricRegisterSuccess, Name: "goaccounts_register_success_total", Help: "Successful registrations."},
	{ID: goAccounts.MetricRegisterDuplicate, Name: "goaccounts_register_duplicate_total", Help: "Registrations rejected as duplicate email or username."},
	{ID: goAccounts.MetricRegisterFailure, Name: "goaccounts_register_failure_total", Help: "Failed registrations."},
	{ID: goAccounts.MetricVerifySuccess, Name: "goaccounts_verify_success_total", Help: "Successful email verifications."},
	{ID: goAccounts.MetricVerifyFailure, Name: "goaccounts_verify_failure_total", Help: "Failed email verifications."},
	{ID: goAccounts.MetricLoginSuccess, Name: "goaccounts_login_success_total", Help: "Successful login attempts."},
	{ID: goAccounts.MetricLoginFailure, Name: "goaccounts_login_failure_total", Help: "Failed login attempts."},
	{ID: goAccounts.MetricLoginRateLimited, Name: "goaccounts_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: goAccounts.MetricMagicLinkRequested, Name: "goaccounts_magic_link_requested_total", Help: "Requested passwordless magic links."},
	{ID: goAccounts.MetricMagicLinkRedeemed, Name: "goaccounts_magic_link_redeemed_total", Help: "Redeemed passwordless magic links."},
	{ID: goAccounts.MetricPasswordResetRequest, Name: "goaccounts_password_reset_request_total", Help: "Password reset requests."},
	{ID: goAccounts.MetricPasswordResetSuccess, Name: "goaccounts_password_reset_success_total", Help: "Successful password resets."},
	{ID: goAccounts.MetricPasswordResetFailure, Name: "goaccounts_password_reset_failure_total", Help: "Failed password resets."},
	{ID: goAccounts.MetricSocialLoginSuccess, Name: "goaccounts_social_login_success_total", Help: "Successful social logins."},
	{ID: goAccounts.MetricSocialLinked, Name: "goaccounts_social_linked_total", Help: "Social identities linked to accounts."},
	{ID: goAccounts.MetricSocialUnlinked, Name: "goaccounts_social_unlinked_total", Help: "Social identities unlinked from accounts."},
	{ID: goAccounts.MetricTwoFactorRequired, Name: "goaccounts_totp_required_total", Help: "Logins requiring a TOTP code."},
	{ID: goAccounts.MetricTwoFactorSuccess, Name: "goaccounts_totp_success_total", Help: "Successful TOTP verifications."},
	{ID: goAccounts.MetricTwoFactorFailure, Name: "goaccounts_totp_failure_total", Help: "Failed TOTP verifications."},
	{ID: goAccounts.MetricTwoFactorEnabled, Name: "goaccounts_totp_enabled_total", Help: "Completed TOTP enrollments."},
	{ID: goAccounts.MetricTwoFactorDisabled, Name: "goaccounts_totp_disabled_total", Help: "TOTP disable operations."},
	{ID: goAccounts.MetricAccountDisabled, Name: "goaccounts_account_disabled_total", Help: "Account disable operations."},
	{ID: goAccounts.MetricAccountEnabled, Name: "goaccounts_account_enabled_total", Help: "Account enable operations."},
	{ID: goAccounts.MetricPlanChanged, Name: "goaccounts_plan_changed_total", Help: "Account plan changes."},
	{ID: goAccounts.MetricSessionResolved, Name: "goaccounts_session_resolved_total", Help: "Successfully resolved session tokens."},
	{ID: goAccounts.MetricSessionRejected, Name: "goaccounts_session_rejected_total", Help: "Rejected session tokens."},
	{ID: goAccounts.MetricMailSent, Name: "goaccounts_mail_sent_total", Help: "Delivered notification mails."},
	{ID: goAccounts.MetricMailFailure, Name: "goaccounts_mail_failure_total", Help: "Failed notification mails after retries."},
}

// HistogramDefs is an exported constant or variable used by the account engine.
var HistogramDefs = []HistogramDef{
	{ID: goAccounts.MetricResolveLatency, Name: "goaccounts_resolve_latency_seconds", Help: "Session resolve latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the account engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the account engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
