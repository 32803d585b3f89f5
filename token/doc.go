// Package token manages issuance and verification of HMAC-signed access and
// refresh tokens with strict validation semantics suitable for low-latency
// authentication paths.
package token
