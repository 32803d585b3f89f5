// Package password implements credential hashing and verification with bcrypt.
//
// # Output format
//
// Hashes are standard bcrypt strings ($2a$/$2b$ prefixed), so digests
// produced by any conforming bcrypt implementation verify here and
// vice versa.
//
// The [Bcrypt] hasher supports transparent cost upgrades: if a stored
// hash was produced with a lower cost than configured,
// [Bcrypt.NeedsUpgrade] returns true so the caller can re-hash on the
// next successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Credential lookup
// and account-state policy are enforced by the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other tokengate package.
//   - Log plaintext passwords at runtime.
package password
