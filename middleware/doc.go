// Package middleware exposes HTTP adapters built on top of goAccounts.Engine
// session resolution and permission checks.
//
// # Guards
//
//   - [Guard] — resolves the bearer session token and injects the account.
//   - [RequirePermission] — additionally requires a resolved permission.
//
// Each guard reads the Authorization header, calls Engine.ResolveSession, and
// injects the resolved account into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to the
// engine.
//
// # What this package must NOT do
//
//   - Parse or create session tokens directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from the Engine.
package middleware
