//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	tokengate "github.com/MrEthical07/tokengate"
	"github.com/MrEthical07/tokengate/revocation"
)

// redisMode describes which Redis backend the compatibility suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) (redis.UniversalClient, func())
}

// redisModes returns the set of Redis backends to test.
// miniredis is always available.
// Real Redis standalone is used when REDIS_ADDR is set (e.g. "127.0.0.1:6379").
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				mr, err := miniredis.Run()
				if err != nil {
					t.Fatalf("miniredis: %v", err)
				}
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				return rdb, func() { _ = rdb.Close(); mr.Close() }
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "redis-standalone",
			setup: func(t *testing.T) (redis.UniversalClient, func()) {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 9})
				if err := rdb.FlushDB(context.Background()).Err(); err != nil {
					t.Fatalf("flush test db: %v", err)
				}
				return rdb, func() { _ = rdb.Close() }
			},
		})
	}

	return modes
}

func TestLedgerCompatAcrossBackends(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			ctx := context.Background()
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			ledger := revocation.NewLedger(rdb, "revoked")

			if err := ledger.Revoke(ctx, "tok-compat", time.Minute); err != nil {
				t.Fatalf("Revoke failed: %v", err)
			}
			revoked, err := ledger.IsRevoked(ctx, "tok-compat")
			if err != nil {
				t.Fatalf("IsRevoked failed: %v", err)
			}
			if !revoked {
				t.Fatal("expected token to be revoked")
			}

			won, err := ledger.RevokeIfAbsent(ctx, "tok-compat", time.Minute)
			if err != nil {
				t.Fatalf("RevokeIfAbsent failed: %v", err)
			}
			if won {
				t.Fatal("expected conditional revoke to lose on existing entry")
			}

			won, err = ledger.RevokeIfAbsent(ctx, "tok-fresh", time.Minute)
			if err != nil {
				t.Fatalf("RevokeIfAbsent failed: %v", err)
			}
			if !won {
				t.Fatal("expected conditional revoke to win on fresh token")
			}
		})
	}
}

func TestEngineLifecycleAcrossBackends(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			ctx := context.Background()
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			engine := newIntegrationEngine(t, rdb)

			access, refresh, err := engine.Login(ctx, "alice", integrationPassword)
			if err != nil {
				t.Fatalf("Login failed: %v", err)
			}

			if _, err := engine.Authenticate(ctx, access); err != nil {
				t.Fatalf("Authenticate failed: %v", err)
			}

			access2, _, err := engine.Refresh(ctx, refresh)
			if err != nil {
				t.Fatalf("Refresh failed: %v", err)
			}
			if _, _, err := engine.Refresh(ctx, refresh); !errors.Is(err, tokengate.ErrRevokedToken) {
				t.Fatalf("expected ErrRevokedToken on reuse, got %v", err)
			}

			if err := engine.Logout(ctx, access2, ""); err != nil {
				t.Fatalf("Logout failed: %v", err)
			}
			if _, err := engine.Authenticate(ctx, access2); !errors.Is(err, tokengate.ErrRevokedToken) {
				t.Fatalf("expected ErrRevokedToken after logout, got %v", err)
			}
		})
	}
}
