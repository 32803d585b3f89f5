package tokengate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/MrEthical07/tokengate/password"
	"github.com/MrEthical07/tokengate/revocation"
	"github.com/MrEthical07/tokengate/token"
)

// Engine defines a public type used by tokengate APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config  Config
	codec   *token.Codec
	ledger  *revocation.Ledger
	hasher  *password.Bcrypt
	store   CredentialStore
	audit   *auditDispatcher
	metrics *Metrics
	logger  *zap.Logger
}

// Close describes the close operation and its observable behavior.
//
// Close drains and stops the audit dispatcher. The Engine must not be
// used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Ping probes revocation ledger reachability. Callers can use it for
// readiness checks before serving traffic.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.ledger == nil {
		return ErrEngineNotReady
	}
	if err := e.ledger.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return nil
}

// Login describes the login operation and its observable behavior.
//
// Login verifies the supplied username and password against the
// credential store and mints an access/refresh pair. Unknown usernames,
// inactive accounts, and password mismatches all return
// ErrInvalidCredentials; callers cannot distinguish them.
// Login may also return ErrStoreUnavailable when the credential store
// cannot be reached after bounded retries.
func (e *Engine) Login(ctx context.Context, username, pass string) (string, string, error) {
	if e == nil || e.hasher == nil || e.store == nil {
		return "", "", ErrEngineNotReady
	}
	if username == "" || pass == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, username, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "empty_input"}
		})
		return "", "", ErrInvalidCredentials
	}

	cred, err := e.lookupCredential(ctx, username)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			e.metricInc(MetricStoreUnavailable)
			e.emitAudit(ctx, auditEventLoginFailure, false, username, "", err, nil)
			return "", "", err
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, username, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "user_not_found"}
		})
		return "", "", ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(pass, cred.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, username, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "password_mismatch"}
		})
		return "", "", ErrInvalidCredentials
	}
	if !cred.Active {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, username, "", ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"reason": "account_inactive"}
		})
		return "", "", ErrInvalidCredentials
	}

	if e.config.Password.UpgradeOnLogin {
		if needsUpgrade, err := e.hasher.NeedsUpgrade(cred.PasswordHash); err == nil && needsUpgrade {
			if upgraded, err := e.hasher.Hash(pass); err == nil {
				// Rehash update is best-effort and must not block successful login.
				if err := e.store.UpdatePasswordHash(ctx, username, upgraded); err != nil {
					e.logger.Warn("password hash upgrade failed",
						zap.String("username", username), zap.Error(err))
				}
			} else {
				e.logger.Warn("password hash upgrade generation failed",
					zap.String("username", username), zap.Error(err))
			}
		}
	}
	pass = ""

	pair, err := e.issuePair(username, cred.Role)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, username, "", err, nil)
		return "", "", err
	}

	e.touchLastLogin(ctx, username)

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, username, "", nil, nil)

	return pair.AccessToken, pair.RefreshToken, nil
}

// Authenticate describes the authenticate operation and its observable behavior.
//
// Authenticate validates an access token end to end: signature and
// expiry, revocation ledger, token kind, and current account state. The
// checks run in that order, so an expired token reports ErrExpiredToken
// even if it was also revoked. A reachable ledger is mandatory;
// Authenticate never treats ledger failure as "not revoked".
func (e *Engine) Authenticate(ctx context.Context, tokenStr string) (*AuthResult, error) {
	if e == nil || e.codec == nil || e.ledger == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	result, err := e.authenticate(ctx, tokenStr)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
	}
	return result, err
}

func (e *Engine) authenticate(ctx context.Context, tokenStr string) (*AuthResult, error) {
	claims, err := e.decode(tokenStr)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			e.metricInc(MetricTokenExpired)
		}
		e.metricInc(MetricAuthenticateFailure)
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, "", "", err, nil)
		return nil, err
	}

	if err := e.checkRevoked(ctx, tokenStr); err != nil {
		if errors.Is(err, ErrRevokedToken) {
			e.metricInc(MetricTokenRevoked)
		} else {
			e.metricInc(MetricLedgerUnavailable)
		}
		e.metricInc(MetricAuthenticateFailure)
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, claims.Subject, claims.Kind, err, nil)
		return nil, err
	}

	if token.Kind(claims.Kind) != token.KindAccess {
		e.metricInc(MetricAuthenticateFailure)
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, claims.Subject, claims.Kind, ErrWrongTokenType, nil)
		return nil, ErrWrongTokenType
	}

	if err := e.requireActive(ctx, claims.Subject); err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			e.metricInc(MetricStoreUnavailable)
		}
		e.metricInc(MetricAuthenticateFailure)
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, claims.Subject, claims.Kind, err, nil)
		return nil, err
	}

	e.touchLastLogin(ctx, claims.Subject)

	e.metricInc(MetricAuthenticateSuccess)
	e.emitAudit(ctx, auditEventAuthenticateSuccess, true, claims.Subject, claims.Kind, nil, nil)

	return &AuthResult{
		Username: claims.Subject,
		Role:     claims.Role,
		Claims:   claims,
	}, nil
}

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh exchanges a live refresh token for a new access/refresh pair.
// The presented token is revoked for its remaining lifetime before the
// new pair is returned, and the revocation is a conditional set: when
// two callers race on the same token, exactly one wins and the other
// receives ErrRevokedToken. A refresh token is therefore single use.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if e == nil || e.codec == nil || e.ledger == nil {
		return "", "", ErrEngineNotReady
	}

	claims, err := e.decode(refreshToken)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			e.metricInc(MetricTokenExpired)
		}
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", string(token.KindRefresh), err, nil)
		return "", "", err
	}

	if err := e.checkRevoked(ctx, refreshToken); err != nil {
		if errors.Is(err, ErrRevokedToken) {
			e.metricInc(MetricRefreshReuseDetected)
			e.emitAudit(ctx, auditEventRefreshReuse, false, claims.Subject, claims.Kind, err, nil)
		} else {
			e.metricInc(MetricLedgerUnavailable)
			e.emitAudit(ctx, auditEventRefreshFailure, false, claims.Subject, claims.Kind, err, nil)
		}
		e.metricInc(MetricRefreshFailure)
		return "", "", err
	}

	if token.Kind(claims.Kind) != token.KindRefresh {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, claims.Subject, claims.Kind, ErrWrongTokenType, nil)
		return "", "", ErrWrongTokenType
	}

	cred, err := e.lookupCredential(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			e.metricInc(MetricStoreUnavailable)
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshFailure, false, claims.Subject, claims.Kind, err, nil)
			return "", "", err
		}
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, claims.Subject, claims.Kind, ErrInactiveAccount, nil)
		return "", "", ErrInactiveAccount
	}
	if !cred.Active {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, claims.Subject, claims.Kind, ErrInactiveAccount, nil)
		return "", "", ErrInactiveAccount
	}

	// The old token must be durably revoked before the new pair exists.
	// RevokeIfAbsent arbitrates concurrent refreshes: the loser sees an
	// existing entry and is treated as reuse.
	won, err := e.revokeIfAbsent(ctx, refreshToken, claims.Remaining(time.Now()))
	if err != nil {
		e.metricInc(MetricLedgerUnavailable)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, claims.Subject, claims.Kind, err, nil)
		return "", "", err
	}
	if !won {
		e.metricInc(MetricRefreshReuseDetected)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshReuse, false, claims.Subject, claims.Kind, ErrRevokedToken, nil)
		return "", "", ErrRevokedToken
	}

	pair, err := e.issuePair(claims.Subject, cred.Role)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, claims.Subject, claims.Kind, err, nil)
		return "", "", err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, claims.Subject, claims.Kind, nil, nil)

	return pair.AccessToken, pair.RefreshToken, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout revokes the presented access token and, when non-empty, the
// refresh token, each for its remaining lifetime. Revocation is
// idempotent: logging out twice with the same tokens succeeds both
// times. An already-expired token is a successful no-op.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if e == nil || e.codec == nil || e.ledger == nil {
		return ErrEngineNotReady
	}

	username, err := e.revokeToken(ctx, accessToken)
	if err != nil {
		e.emitAudit(ctx, auditEventLogout, false, username, string(token.KindAccess), err, nil)
		return err
	}

	if refreshToken != "" {
		if _, err := e.revokeToken(ctx, refreshToken); err != nil {
			e.emitAudit(ctx, auditEventLogout, false, username, string(token.KindRefresh), err, nil)
			return err
		}
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, username, "", nil, nil)

	return nil
}

// revokeToken decodes and denylists one token. Expired tokens need no
// ledger entry and succeed silently.
func (e *Engine) revokeToken(ctx context.Context, tokenStr string) (string, error) {
	claims, err := e.decode(tokenStr)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return "", nil
		}
		return "", err
	}

	if err := e.revoke(ctx, tokenStr, claims.Remaining(time.Now())); err != nil {
		e.metricInc(MetricLedgerUnavailable)
		return claims.Subject, err
	}

	e.metricInc(MetricTokenRevoked)
	e.emitAudit(ctx, auditEventTokenRevoked, true, claims.Subject, claims.Kind, nil, nil)

	return claims.Subject, nil
}

func (e *Engine) issuePair(username, role string) (*TokenPair, error) {
	access, err := e.codec.Issue(username, role, token.KindAccess, e.config.Token.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := e.codec.Issue(username, role, token.KindRefresh, e.config.Token.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (e *Engine) decode(tokenStr string) (*token.Claims, error) {
	claims, err := e.codec.Decode(tokenStr)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func (e *Engine) requireActive(ctx context.Context, username string) error {
	cred, err := e.lookupCredential(ctx, username)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return err
		}
		// The account behind a valid token has disappeared; treat it the
		// same as a deactivated one.
		return ErrInactiveAccount
	}
	if !cred.Active {
		return ErrInactiveAccount
	}
	return nil
}

func (e *Engine) touchLastLogin(ctx context.Context, username string) {
	if e.store == nil {
		return
	}
	if err := e.store.TouchLastLogin(ctx, username, time.Now().UTC()); err != nil {
		e.logger.Warn("last login update failed",
			zap.String("username", username), zap.Error(err))
	}
}

/*
====================================
RETRYING BACKEND ACCESS
====================================
*/

// lookupCredential fetches a credential, retrying transient store
// failures. Absence is returned as ErrCredentialNotFound and is never
// retried.
func (e *Engine) lookupCredential(ctx context.Context, username string) (*Credential, error) {
	var cred *Credential
	op := func() error {
		c, err := e.store.GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, ErrCredentialNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		cred = c
		return nil
	}
	if err := backoff.Retry(op, e.newBackOff(ctx)); err != nil {
		if errors.Is(err, ErrCredentialNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return cred, nil
}

func (e *Engine) checkRevoked(ctx context.Context, tokenStr string) error {
	var revoked bool
	op := func() error {
		r, err := e.ledger.IsRevoked(ctx, tokenStr)
		if err != nil {
			return err
		}
		revoked = r
		return nil
	}
	if err := backoff.Retry(op, e.newBackOff(ctx)); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if revoked {
		return ErrRevokedToken
	}
	return nil
}

func (e *Engine) revoke(ctx context.Context, tokenStr string, ttl time.Duration) error {
	op := func() error {
		return e.ledger.Revoke(ctx, tokenStr, ttl)
	}
	if err := backoff.Retry(op, e.newBackOff(ctx)); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return nil
}

func (e *Engine) revokeIfAbsent(ctx context.Context, tokenStr string, ttl time.Duration) (bool, error) {
	var won bool
	op := func() error {
		w, err := e.ledger.RevokeIfAbsent(ctx, tokenStr, ttl)
		if err != nil {
			return err
		}
		won = w
		return nil
	}
	if err := backoff.Retry(op, e.newBackOff(ctx)); err != nil {
		return false, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	return won, nil
}

func (e *Engine) newBackOff(ctx context.Context) backoff.BackOff {
	if e.config.Ledger.MaxRetries <= 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(e.config.Ledger.RetryInterval),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.WithContext(
		backoff.WithMaxRetries(b, uint64(e.config.Ledger.MaxRetries)), ctx)
}
