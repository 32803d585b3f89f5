package tokengate

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by tokengate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token    TokenConfig
	Ledger   LedgerConfig
	Password PasswordConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by tokengate APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	// Secret signs and verifies every token. There is no default; Build
	// fails without one. The secret is fixed for the Engine's lifetime.
	Secret        []byte
	SigningMethod string // "hs256" (default), "hs384", "hs512"
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	// Leeway widens expiry acceptance during decode. Zero means the
	// verifying clock is authoritative; skewed issuers are not
	// compensated for. Capped at 2 minutes.
	Leeway time.Duration
}

/*
====================================
LEDGER CONFIG
====================================
*/

// LedgerConfig defines a public type used by tokengate APIs.
//
// LedgerConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LedgerConfig struct {
	RedisPrefix string
	// MaxRetries bounds transparent retries of transient ledger and
	// store failures. 0 disables retrying.
	MaxRetries    int
	RetryInterval time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by tokengate APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Cost           int
	UpgradeOnLogin bool
}

// AuditConfig defines a public type used by tokengate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by tokengate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			SigningMethod: "hs256",
			AccessTTL:     30 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			Leeway:        0,
		},
		Ledger: LedgerConfig{
			RedisPrefix:   "revoked",
			MaxRetries:    2,
			RetryInterval: 50 * time.Millisecond,
		},
		Password: PasswordConfig{
			Cost:           12,
			UpgradeOnLogin: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation fails.
// Validate does not mutate shared global state and can be used concurrently.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.Secret) == 0 {
		return errors.New("Token Secret must be provided")
	}
	switch strings.ToLower(c.Token.SigningMethod) {
	case "hs256", "hs384", "hs512":
	default:
		return errors.New("unsupported token signing method")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("Token RefreshTTL must be >= AccessTTL")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}

	// Ledger
	if strings.ContainsAny(c.Ledger.RedisPrefix, " \t\n") {
		return errors.New("Ledger RedisPrefix must not contain whitespace")
	}
	if c.Ledger.MaxRetries < 0 || c.Ledger.MaxRetries > 10 {
		return errors.New("Ledger MaxRetries must be between 0 and 10")
	}
	if c.Ledger.MaxRetries > 0 && c.Ledger.RetryInterval <= 0 {
		return errors.New("Ledger RetryInterval must be > 0 when retries are enabled")
	}

	// Password
	if c.Password.Cost < 4 || c.Password.Cost > 16 {
		return errors.New("Password Cost must be between 4 and 16")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
