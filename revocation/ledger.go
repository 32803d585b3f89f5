package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLedgerUnavailable is an exported constant or variable used by the token engine.
var ErrLedgerUnavailable = errors.New("revocation ledger unavailable")

const defaultPrefix = "revoked"

// minTTL keeps an entry alive briefly even when the token is at the very
// edge of expiry, covering configured decode leeway.
const minTTL = time.Second

// Ledger defines a public type used by tokengate APIs.
//
// Ledger instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Ledger struct {
	redis  redis.UniversalClient
	prefix string
}

// NewLedger builds a Ledger over the given Redis client. An empty prefix
// selects "revoked".
func NewLedger(client redis.UniversalClient, prefix string) *Ledger {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Ledger{redis: client, prefix: prefix}
}

func (l *Ledger) key(token string) string {
	return l.prefix + ":" + token
}

// Revoke marks a token revoked for ttl. Revoking an already-revoked
// token is a no-op and not an error.
//
//	Performance: 1 Redis SET.
func (l *Ledger) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl < minTTL {
		ttl = minTTL
	}
	if err := l.redis.Set(ctx, l.key(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return nil
}

// RevokeIfAbsent marks a token revoked only when no entry exists yet and
// reports whether this call created the entry. It is the arbitration
// primitive for refresh rotation: of N concurrent rotations of the same
// token, exactly one observes true.
//
//	Performance: 1 Redis SETNX.
func (l *Ledger) RevokeIfAbsent(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	if ttl < minTTL {
		ttl = minTTL
	}
	won, err := l.redis.SetNX(ctx, l.key(token), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return won, nil
}

// IsRevoked reports whether a token has a live ledger entry.
//
//	Performance: 1 Redis EXISTS.
func (l *Ledger) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := l.redis.Exists(ctx, l.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return n > 0, nil
}

// Ping probes ledger reachability.
func (l *Ledger) Ping(ctx context.Context) error {
	if err := l.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return nil
}
