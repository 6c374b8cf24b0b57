// Package goAccounts provides an embeddable account-management engine with
// password and passwordless login, email verification, TOTP two-factor,
// social identity linking, and glob-permission RBAC over an inheritable
// role graph.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goAccounts is the public surface. It exposes [Engine], [Builder], [Config],
// the persistence contracts ([AccountStore], [rbac.RoleStore]), and value
// types (Account, LoginResult, MetricsSnapshot, etc.). All internal
// coordination — one-time token encoding, audit dispatch — lives under
// internal/ and is never exported.
//
// Persistence is the caller's problem: the engine never talks to a database
// directly. It talks to Redis for single-use tokens and login throttling,
// and to the caller's stores for everything durable. Lookup methods on those
// stores return (nil, nil) when no record exists; errors are reserved for
// infrastructure faults.
//
// # What this package must NOT do
//
//   - Expose Redis clients, token encodings, or hash formats in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Import any sub-package that re-imports goAccounts (no import cycles).
package goAccounts
