// Package internal contains helper utilities that are intentionally private to
// goAccounts, including the one-time token wire encoding and secure random
// generation.
//
// # Sub-packages
//
//   - audit — async event dispatch (Dispatcher + Sink implementations)
//
// # What this package must NOT do
//
//   - Export types that appear in the public goAccounts API.
//   - Be imported by any package outside the goAccounts module.
package internal
