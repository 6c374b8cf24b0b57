package goAccounts

import "context"

type contextKey string

const (
	ctxKeyAccountID contextKey = "goaccounts.account_id"
	ctxKeyClientIP  contextKey = "goaccounts.client_ip"
)

// WithAccountID attaches the authenticated account ID to ctx. Operations
// that act on "the current account" (Me, 2FA enrollment, Link/Unlink
// without an explicit ID) read it back.
func WithAccountID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyAccountID, id)
}

// AccountIDFromContext extracts the account ID set by [WithAccountID].
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKeyAccountID).(string)
	return id, ok && id != ""
}

// WithClientIP attaches the caller's network address to ctx. The login
// throttle keys attempts by identifier and IP when present.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyClientIP, ip)
}

// ClientIPFromContext extracts the address set by [WithClientIP].
func ClientIPFromContext(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(ctxKeyClientIP).(string)
	return ip, ok && ip != ""
}
