package tokengate

import (
	"context"
	"time"

	"github.com/MrEthical07/tokengate/token"
)

// Credential is the account record returned by [CredentialStore]. The
// engine reads it; it never writes fields back.
type Credential struct {
	Username     string
	PasswordHash string
	Role         string
	Active       bool
	LastLoginAt  time.Time
}

// CredentialStore is the interface callers implement to integrate
// tokengate with their account database. GetByUsername must return
// [ErrCredentialNotFound] (or an error wrapping it) for an unknown
// username; any other error is treated as store unavailability.
//
// TouchLastLogin is a best-effort side channel: the engine invokes it
// after successful logins and authentications and logs, but never
// surfaces, its failure.
type CredentialStore interface {
	GetByUsername(ctx context.Context, username string) (*Credential, error)
	TouchLastLogin(ctx context.Context, username string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, username, newHash string) error
}

// AuthResult is returned by [Engine.Authenticate]. It carries the
// authenticated subject and the decoded claims.
type AuthResult struct {
	Username string
	Role     string
	Claims   *token.Claims
}

// TokenPair bundles the two tokens minted by Login and Refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Kind re-exports the token kind discriminator.
type Kind = token.Kind

const (
	// KindAccess is an exported constant or variable used by the token engine.
	KindAccess = token.KindAccess
	// KindRefresh is an exported constant or variable used by the token engine.
	KindRefresh = token.KindRefresh
)
