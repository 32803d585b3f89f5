package internaldefs

import (
	tokengate "github.com/MrEthical07/tokengate"
)

// CounterDef defines a public type used by tokengate APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   tokengate.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by tokengate APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   tokengate.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the token engine.
var CounterDefs = []CounterDef{
	{ID: tokengate.MetricLoginSuccess, Name: "tokengate_login_success_total", Help: "Successful login attempts."},
	{ID: tokengate.MetricLoginFailure, Name: "tokengate_login_failure_total", Help: "Failed login attempts."},
	{ID: tokengate.MetricAuthenticateSuccess, Name: "tokengate_authenticate_success_total", Help: "Successful access token validations."},
	{ID: tokengate.MetricAuthenticateFailure, Name: "tokengate_authenticate_failure_total", Help: "Failed access token validations."},
	{ID: tokengate.MetricTokenExpired, Name: "tokengate_token_expired_total", Help: "Tokens rejected as expired."},
	{ID: tokengate.MetricTokenRevoked, Name: "tokengate_token_revoked_total", Help: "Tokens written to the revocation ledger."},
	{ID: tokengate.MetricRefreshSuccess, Name: "tokengate_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: tokengate.MetricRefreshFailure, Name: "tokengate_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: tokengate.MetricRefreshReuseDetected, Name: "tokengate_refresh_reuse_detected_total", Help: "Detected refresh token reuses."},
	{ID: tokengate.MetricLogout, Name: "tokengate_logout_total", Help: "Logout operations."},
	{ID: tokengate.MetricLedgerUnavailable, Name: "tokengate_ledger_unavailable_total", Help: "Operations failed on an unreachable revocation ledger."},
	{ID: tokengate.MetricStoreUnavailable, Name: "tokengate_store_unavailable_total", Help: "Operations failed on an unreachable credential store."},
}

// HistogramDefs is an exported constant or variable used by the token engine.
var HistogramDefs = []HistogramDef{
	{ID: tokengate.MetricAuthenticateLatency, Name: "tokengate_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the token engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the token engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies a raw snapshot slice into the fixed bucket
// shape, tolerating short or nil input.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// the exposition formats expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
