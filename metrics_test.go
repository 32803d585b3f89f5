package tokengate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newMeteredEngine(t *testing.T) (*Engine, *miniredis.Miniredis) {
	t.Helper()

	cfg := testConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	return newTestEngine(t, cfg, newMockStore(t, "alice"))
}

func TestMetricsCountLoginOutcomes(t *testing.T) {
	engine, _ := newMeteredEngine(t)
	ctx := context.Background()

	if _, _, err := engine.Login(ctx, "alice", testPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, _, err := engine.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := engine.Login(ctx, "nobody", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	snap := engine.MetricsSnapshot()
	if got := snap.Counters[MetricLoginSuccess]; got != 1 {
		t.Fatalf("expected 1 login success, got %d", got)
	}
	if got := snap.Counters[MetricLoginFailure]; got != 2 {
		t.Fatalf("expected 2 login failures, got %d", got)
	}
}

func TestMetricsAuthenticateLatencyHistogram(t *testing.T) {
	engine, _ := newMeteredEngine(t)
	ctx := context.Background()

	access, _, err := engine.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := engine.Authenticate(ctx, access); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	snap := engine.MetricsSnapshot()
	buckets, ok := snap.Histograms[MetricAuthenticateLatency]
	if !ok {
		t.Fatal("latency histogram missing from snapshot")
	}

	var total uint64
	for _, b := range buckets {
		total += b
	}
	if total != 1 {
		t.Fatalf("expected 1 latency sample, got %d", total)
	}
	if got := snap.Counters[MetricAuthenticateSuccess]; got != 1 {
		t.Fatalf("expected 1 authenticate success, got %d", got)
	}
}

func TestMetricsRefreshReuse(t *testing.T) {
	engine, _ := newMeteredEngine(t)
	ctx := context.Background()

	_, refresh, err := engine.Login(ctx, "alice", testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, _, err := engine.Refresh(ctx, refresh); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if _, _, err := engine.Refresh(ctx, refresh); !errors.Is(err, ErrRevokedToken) {
		t.Fatalf("expected ErrRevokedToken, got %v", err)
	}

	snap := engine.MetricsSnapshot()
	if got := snap.Counters[MetricRefreshSuccess]; got != 1 {
		t.Fatalf("expected 1 refresh success, got %d", got)
	}
	if got := snap.Counters[MetricRefreshReuseDetected]; got != 1 {
		t.Fatalf("expected 1 reuse detection, got %d", got)
	}
}

func TestMetricsDisabledStaysZero(t *testing.T) {
	engine, _ := newTestEngine(t, testConfig(), newMockStore(t, "alice"))

	if _, _, err := engine.Login(context.Background(), "alice", testPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	snap := engine.MetricsSnapshot()
	if len(snap.Counters) != 0 {
		t.Fatalf("disabled metrics must snapshot empty, got %d counters", len(snap.Counters))
	}
	if engine.metrics.Value(MetricLoginSuccess) != 0 {
		t.Fatal("disabled metrics must not count")
	}
}

func TestMetricsIncIsConcurrencySafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricLogout)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricLogout); got != workers*perWorker {
		t.Fatalf("expected %d, got %d", workers*perWorker, got)
	}
}

func TestBucketIndexBoundaries(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{5 * time.Millisecond, 0},
		{6 * time.Millisecond, 1},
		{25 * time.Millisecond, 2},
		{50 * time.Millisecond, 3},
		{100 * time.Millisecond, 4},
		{250 * time.Millisecond, 5},
		{500 * time.Millisecond, 6},
		{time.Second, 7},
	}

	for _, tt := range tests {
		if got := bucketIndex(tt.d); got != tt.want {
			t.Fatalf("bucketIndex(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}
