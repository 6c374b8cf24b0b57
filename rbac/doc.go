// Package rbac resolves permissions over a role-inheritance graph.
//
// Roles carry permission patterns and may inherit other roles. Resolution
// walks the graph with an explicit visited set, so cyclic inheritance
// terminates and contributes each role exactly once. Permission patterns
// support glob segments: "*" matches exactly one dot-separated segment,
// a trailing "**" matches any remainder.
//
// # Components
//
//   - [RoleStore] — caller-implemented persistence for role records.
//   - [Resolver] — read side (ResolvePermissions, Can, HasRole, HasAccess)
//     and idempotent mutation operations.
//   - [Check] — tagged union for access checks, built with [Permission]
//     and [RoleName].
//
// # What this package must NOT do
//
//   - Import the root goAccounts package.
//   - Cache resolutions — staleness policy belongs to the caller.
package rbac
