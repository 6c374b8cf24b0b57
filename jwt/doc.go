// Package jwt issues and verifies the stateless session tokens used by
// the account engine. Tokens are HS256-signed and carry only the account
// ID; validity is the signature plus the expiry check, with no
// server-side state.
package jwt
