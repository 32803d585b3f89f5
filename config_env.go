package tokengate

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environment keys recognized by ConfigFromEnv. Names follow the
// deployment convention the stored credentials were provisioned under.
const (
	EnvSecretKey        = "JWT_SECRET_KEY"
	EnvAlgorithm        = "JWT_ALGORITHM"
	EnvIssuer           = "JWT_ISSUER"
	EnvAccessTTLMinutes = "ACCESS_TOKEN_EXPIRE_MINUTES"
	EnvRefreshTTLDays   = "REFRESH_TOKEN_EXPIRE_DAYS"
	EnvLeewaySeconds    = "TOKEN_LEEWAY_SECONDS"
	EnvLedgerPrefix     = "REVOKED_KEY_PREFIX"
	EnvLedgerMaxRetries = "LEDGER_MAX_RETRIES"
	EnvBcryptCost       = "BCRYPT_COST"
	EnvAuditEnabled     = "AUDIT_ENABLED"
	EnvMetricsEnabled   = "METRICS_ENABLED"
)

// ConfigFromEnv builds a Config from process environment variables, with
// defaults for everything except the signing secret. The returned Config
// has already passed Validate.
func ConfigFromEnv() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(EnvAlgorithm, "hs256")
	v.SetDefault(EnvAccessTTLMinutes, 30)
	v.SetDefault(EnvRefreshTTLDays, 7)
	v.SetDefault(EnvLeewaySeconds, 0)
	v.SetDefault(EnvLedgerPrefix, "revoked")
	v.SetDefault(EnvLedgerMaxRetries, 2)
	v.SetDefault(EnvBcryptCost, 12)
	v.SetDefault(EnvAuditEnabled, false)
	v.SetDefault(EnvMetricsEnabled, false)

	secret := strings.TrimSpace(v.GetString(EnvSecretKey))
	if secret == "" {
		return Config{}, errors.New("JWT_SECRET_KEY environment variable is required")
	}

	cfg := defaultConfig()
	cfg.Token.Secret = []byte(secret)
	cfg.Token.SigningMethod = strings.ToLower(v.GetString(EnvAlgorithm))
	cfg.Token.Issuer = v.GetString(EnvIssuer)
	cfg.Token.AccessTTL = time.Duration(v.GetInt(EnvAccessTTLMinutes)) * time.Minute
	cfg.Token.RefreshTTL = time.Duration(v.GetInt(EnvRefreshTTLDays)) * 24 * time.Hour
	cfg.Token.Leeway = time.Duration(v.GetInt(EnvLeewaySeconds)) * time.Second
	cfg.Ledger.RedisPrefix = v.GetString(EnvLedgerPrefix)
	cfg.Ledger.MaxRetries = v.GetInt(EnvLedgerMaxRetries)
	cfg.Password.Cost = v.GetInt(EnvBcryptCost)
	cfg.Audit.Enabled = v.GetBool(EnvAuditEnabled)
	cfg.Metrics.Enabled = v.GetBool(EnvMetricsEnabled)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
