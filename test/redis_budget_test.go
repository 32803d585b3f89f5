//go:build integration
// +build integration

package test

import (
	"context"
	"net"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	tokengate "github.com/MrEthical07/tokengate"
)

// cmdCounter is a go-redis Hook that counts the number of Redis round-trips
// (individual commands and pipeline calls).
type cmdCounter struct {
	commands  atomic.Int64
	pipelines atomic.Int64
}

func (h *cmdCounter) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *cmdCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.commands.Add(1)
		return next(ctx, cmd)
	}
}

func (h *cmdCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		// Each pipeline call is one network round-trip regardless of command count.
		h.pipelines.Add(1)
		h.commands.Add(int64(len(cmds)))
		return next(ctx, cmds)
	}
}

func (h *cmdCounter) Reset() {
	h.commands.Store(0)
	h.pipelines.Store(0)
}

func (h *cmdCounter) Commands() int64 { return h.commands.Load() }

// newCountedEngine builds an engine against miniredis with a cmdCounter
// hook installed. Reset the counter before each measured operation.
func newCountedEngine(t *testing.T) (*tokengate.Engine, *cmdCounter) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	counter := &cmdCounter{}
	rdb.AddHook(counter)

	// Warm the connection: go-redis may emit extra commands on first use
	// (handshake, AUTH, SELECT, CLIENT SETNAME, etc.). Issuing a PING
	// before measuring avoids counting that noise.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("warmup ping: %v", err)
	}
	counter.Reset()

	return newIntegrationEngine(t, rdb), counter
}

// Command budgets per engine operation. Raising a budget needs a
// matching change in the revocation ledger docs.
func TestRedisCommandBudgets(t *testing.T) {
	ctx := context.Background()
	engine, counter := newCountedEngine(t)

	counter.Reset()
	access, refresh, err := engine.Login(ctx, "alice", integrationPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if got := counter.Commands(); got != 0 {
		t.Fatalf("Login must not touch Redis, used %d commands", got)
	}

	counter.Reset()
	if _, err := engine.Authenticate(ctx, access); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if got := counter.Commands(); got > 1 {
		t.Fatalf("Authenticate budget is 1 command, used %d", got)
	}

	counter.Reset()
	_, refresh2, err := engine.Refresh(ctx, refresh)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got := counter.Commands(); got > 2 {
		t.Fatalf("Refresh budget is 2 commands, used %d", got)
	}

	counter.Reset()
	if err := engine.Logout(ctx, access, refresh2); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if got := counter.Commands(); got > 2 {
		t.Fatalf("Logout budget is 2 commands, used %d", got)
	}
}
