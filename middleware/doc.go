// Package middleware exposes net/http adapters for request authentication and
// structured request logging built on top of tokengate.Engine.
//
// # Guards
//
//   - [Guard] — full authentication (decode, revocation ledger, account state)
//     via Engine.Authenticate, with Authorization-header and cookie transport.
//   - [RequestLog] — request-ID tagging and completion logging.
//
// Guard reads the Authorization header, falls back to the access_token cookie,
// and injects the validated [tokengate.AuthResult] into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from Engine.Authenticate.
package middleware
