// Package tokengate provides a stateless credential lifecycle engine built on
// HMAC-signed JWTs, bcrypt password verification, and a Redis-backed
// revocation denylist.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// tokengate is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (AuthResult, TokenPair, MetricsSnapshot). Token encoding,
// revocation storage, and password hashing live in the token, revocation, and
// password sub-packages; callers normally interact with them only through the
// Engine.
//
// # What this package must NOT do
//
//   - Persist accounts. Credential lookup is delegated to the caller's
//     [CredentialStore]; the engine holds no account state of its own.
//   - Treat a ledger failure as "not revoked". Revocation checks fail closed
//     with [ErrLedgerUnavailable].
//   - Compensate for clock skew between issuers and verifiers. The verifying
//     clock is authoritative; TokenConfig.Leeway is the only concession.
//
// # Token lifecycle
//
// Login mints an access/refresh pair. Authenticate validates access tokens on
// every request without server-side session state. Refresh rotates the pair,
// revoking the presented refresh token before the new pair is returned so a
// refresh token is single use. Logout denylists outstanding tokens for their
// remaining lifetime.
package tokengate
