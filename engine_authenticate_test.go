package tokengate

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/tokengate/token"
)

func TestAuthenticateRejectsGarbage(t *testing.T) {
	store := newMockStore(t, "alice")
	engine, _ := newTestEngine(t, testConfig(), store)

	for _, input := range []string{"", "not.a.jwt", "a.b.c"} {
		_, err := engine.Authenticate(context.Background(), input)
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("input %q: expected ErrInvalidToken, got %v", input, err)
		}
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	store := newMockStore(t, "alice")
	engine, _ := newTestEngine(t, testConfig(), store)

	_, err := engine.Authenticate(context.Background(), expiredToken(t, token.KindAccess))
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
	if errors.Is(err, ErrInvalidToken) {
		t.Fatal("expired token must not also report ErrInvalidToken")
	}
}

func TestAuthenticateRejectsRefreshToken(t *testing.T) {
	store := newMockStore(t, "alice")
	engine, _ := newTestEngine(t, testConfig(), store)

	_, refresh, err := engine.Login(context.Background(), "alice", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := engine.Authenticate(context.Background(), refresh); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected ErrWrongTokenType, got %v", err)
	}
}

func TestAuthenticateRevokedToken(t *testing.T) {
	store := newMockStore(t, "alice")
	engine, _ := newTestEngine(t, testConfig(), store)

	access, refresh, err := engine.Login(context.Background(), "alice", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := engine.Logout(context.Background(), access, refresh); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, err := engine.Authenticate(context.Background(), access); !errors.Is(err, ErrRevokedToken) {
		t.Fatalf("expected ErrRevokedToken, got %v", err)
	}
}

func TestAuthenticateDeactivatedAccount(t *testing.T) {
	store := newMockStore(t, "alice")
	engine, _ := newTestEngine(t, testConfig(), store)

	access, _, err := engine.Login(context.Background(), "alice", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	store.setActive("alice", false)

	if _, err := engine.Authenticate(context.Background(), access); !errors.Is(err, ErrInactiveAccount) {
		t.Fatalf("expected ErrInactiveAccount, got %v", err)
	}
}

func TestAuthenticateDeletedAccount(t *testing.T) {
	store := newMockStore(t, "alice")
	engine, _ := newTestEngine(t, testConfig(), store)

	access, _, err := engine.Login(context.Background(), "alice", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	store.remove("alice")

	if _, err := engine.Authenticate(context.Background(), access); !errors.Is(err, ErrInactiveAccount) {
		t.Fatalf("expected ErrInactiveAccount, got %v", err)
	}
}

func TestAuthenticateFailsClosedWhenLedgerDown(t *testing.T) {
	store := newMockStore(t, "alice")
	engine, mr := newTestEngine(t, testConfig(), store)

	access, _, err := engine.Login(context.Background(), "alice", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	mr.Close()

	if _, err := engine.Authenticate(context.Background(), access); !errors.Is(err, ErrLedgerUnavailable) {
		t.Fatalf("expected ErrLedgerUnavailable, got %v", err)
	}
}

func TestAuthenticateStoreUnavailable(t *testing.T) {
	store := newMockStore(t, "alice")
	engine, _ := newTestEngine(t, testConfig(), store)

	access, _, err := engine.Login(context.Background(), "alice", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	store.failLookups = true

	if _, err := engine.Authenticate(context.Background(), access); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestAuthenticateTouchesLastLogin(t *testing.T) {
	store := newMockStore(t, "alice")
	engine, _ := newTestEngine(t, testConfig(), store)

	access, _, err := engine.Login(context.Background(), "alice", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	first, _ := store.lastTouched("alice")

	if _, err := engine.Authenticate(context.Background(), access); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	second, ok := store.lastTouched("alice")
	if !ok || second.Before(first) {
		t.Fatal("expected authenticate to refresh last login")
	}
}
