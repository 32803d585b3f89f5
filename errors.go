package tokengate

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for unknown usernames,
	// inactive accounts, and password mismatches alike. The cases are
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is an exported constant or variable used by the token engine.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is an exported constant or variable used by the token engine.
	ErrExpiredToken = errors.New("token expired")
	// ErrRevokedToken is an exported constant or variable used by the token engine.
	ErrRevokedToken = errors.New("token revoked")
	// ErrWrongTokenType is an exported constant or variable used by the token engine.
	ErrWrongTokenType = errors.New("wrong token type")
	// ErrInactiveAccount is an exported constant or variable used by the token engine.
	ErrInactiveAccount = errors.New("account inactive")
	// ErrLedgerUnavailable is an exported constant or variable used by the token engine.
	ErrLedgerUnavailable = errors.New("revocation ledger unavailable")
	// ErrStoreUnavailable is an exported constant or variable used by the token engine.
	ErrStoreUnavailable = errors.New("credential store unavailable")
	// ErrCredentialNotFound is the sentinel CredentialStore implementations
	// return for an absent username. The engine never surfaces it.
	ErrCredentialNotFound = errors.New("credential not found")
	// ErrEngineNotReady is an exported constant or variable used by the token engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
