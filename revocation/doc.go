// Package revocation implements the expiring denylist that backs token
// revocation. Entries live in Redis under "<prefix>:<token>" and carry a TTL
// equal to the revoked token's remaining lifetime, so the ledger never
// outgrows the set of tokens that are still decodable.
//
// # Architecture boundaries
//
// The ledger stores opaque token strings. It does not decode tokens, compute
// lifetimes, or decide policy; callers hand it a TTL.
//
// # What this package must NOT do
//
// Report "not revoked" on a transport failure. Every Redis error surfaces
// wrapped in [ErrLedgerUnavailable] so callers fail closed.
package revocation
