package middleware

import (
	"context"
	"net/http"
	"strings"

	goAccounts "github.com/MrEthical07/goAccounts"
)

type accountContextKey struct{}

// AccountFromContext returns the account injected by [Guard].
func AccountFromContext(ctx context.Context) (*goAccounts.Account, bool) {
	account, ok := ctx.Value(accountContextKey{}).(*goAccounts.Account)
	return account, ok
}

// Guard returns middleware that resolves the bearer session token and rejects
// the request with 401 when the token is missing, invalid, or resolves to an
// account that may not log in. The resolved account is injected into the
// request context alongside the engine's own account-ID key, so downstream
// Engine calls (Me, SocialLogin link flow) see the identity too.
func Guard(engine *goAccounts.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			account, err := engine.ResolveSession(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), accountContextKey{}, account)
			ctx = goAccounts.WithAccountID(ctx, account.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission wraps [Guard] and additionally requires the resolved
// account's roles to grant the permission. Failed checks return 403.
func RequirePermission(engine *goAccounts.Engine, permission string) func(http.Handler) http.Handler {
	guard := Guard(engine)
	return func(next http.Handler) http.Handler {
		return guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := AccountFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			allowed, err := engine.Roles().Can(r.Context(), account.Roles, permission)
			if err != nil || !allowed {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}))
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
