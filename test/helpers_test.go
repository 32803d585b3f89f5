//go:build integration
// +build integration

package test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	tokengate "github.com/MrEthical07/tokengate"
)

const integrationPassword = "correct-password-123"

// memStore is a minimal in-memory credential store for integration runs.
type memStore struct {
	mu    sync.Mutex
	creds map[string]*tokengate.Credential
}

func newMemStore(t *testing.T, usernames ...string) *memStore {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(integrationPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt hash failed: %v", err)
	}

	s := &memStore{creds: map[string]*tokengate.Credential{}}
	for _, u := range usernames {
		s.creds[u] = &tokengate.Credential{
			Username:     u,
			PasswordHash: string(hash),
			Role:         "member",
			Active:       true,
		}
	}
	return s
}

func (s *memStore) GetByUsername(_ context.Context, username string) (*tokengate.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.creds[username]
	if !ok {
		return nil, tokengate.ErrCredentialNotFound
	}
	out := *cred
	return &out, nil
}

func (s *memStore) TouchLastLogin(_ context.Context, username string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cred, ok := s.creds[username]; ok {
		cred.LastLoginAt = at
	}
	return nil
}

func (s *memStore) UpdatePasswordHash(_ context.Context, username, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cred, ok := s.creds[username]; ok {
		cred.PasswordHash = newHash
	}
	return nil
}

func integrationConfig() tokengate.Config {
	var cfg tokengate.Config
	cfg.Token.Secret = []byte("integration-signing-secret")
	cfg.Token.SigningMethod = "hs256"
	cfg.Token.AccessTTL = 30 * time.Minute
	cfg.Token.RefreshTTL = 7 * 24 * time.Hour
	cfg.Ledger.RedisPrefix = "revoked"
	cfg.Password.Cost = bcrypt.MinCost
	return cfg
}

func newIntegrationEngine(t *testing.T, rdb redis.UniversalClient) *tokengate.Engine {
	t.Helper()

	engine, err := tokengate.New().
		WithConfig(integrationConfig()).
		WithRedis(rdb).
		WithCredentialStore(newMemStore(t, "alice", "bob")).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

func newMiniredisEngine(t *testing.T) *tokengate.Engine {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return newIntegrationEngine(t, rdb)
}
