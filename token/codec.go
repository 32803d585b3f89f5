package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod defines a public type used by tokengate APIs.
//
// SigningMethod instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SigningMethod string

const (
	// MethodHS256 is an exported constant or variable used by the token engine.
	MethodHS256 SigningMethod = "hs256"
	// MethodHS384 is an exported constant or variable used by the token engine.
	MethodHS384 SigningMethod = "hs384"
	// MethodHS512 is an exported constant or variable used by the token engine.
	MethodHS512 SigningMethod = "hs512"
)

// Kind discriminates access tokens from refresh tokens. It is carried
// in the "type" claim and checked on every decode path.
type Kind string

const (
	// KindAccess is an exported constant or variable used by the token engine.
	KindAccess Kind = "access"
	// KindRefresh is an exported constant or variable used by the token engine.
	KindRefresh Kind = "refresh"
)

var (
	// ErrMalformed covers structural damage, signature mismatch, and a
	// missing or unrecognized "type" claim.
	ErrMalformed = errors.New("token malformed")
	// ErrExpired is returned only for a token whose signature verified but
	// whose expiry lies in the past. It is never folded into ErrMalformed.
	ErrExpired = errors.New("token expired")
)

// Config defines a public type used by tokengate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Secret        []byte
	SigningMethod SigningMethod
	Issuer        string
	Leeway        time.Duration
}

// Claims is the decoded payload of an issued token. Subject carries the
// username, Kind the token class, and Role an opaque authorization hint
// the engine passes through without interpreting.
type Claims struct {
	Role string `json:"role,omitempty"`
	Kind string `json:"type"`
	jwt.RegisteredClaims
}

// Codec issues and decodes HMAC-signed tokens. The secret is fixed at
// construction; rotating it requires building a new Codec.
type Codec struct {
	config Config
}

// NewCodec describes the newcodec operation and its observable behavior.
//
// NewCodec may return an error when input validation fails.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret required")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodHS256
	}
	switch cfg.SigningMethod {
	case MethodHS256, MethodHS384, MethodHS512:
	default:
		return nil, errors.New("unsupported signing method")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)

	return &Codec{config: cfg}, nil
}

// Issue signs a token of the given kind for subject with the supplied
// lifetime. Issue performs no I/O and is safe for concurrent use.
func (c *Codec) Issue(subject, role string, kind Kind, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("invalid TTL")
	}
	switch kind {
	case KindAccess, KindRefresh:
	default:
		return "", errors.New("invalid token kind")
	}

	// The jti keeps tokens unique even when subject, kind, and the
	// second-precision timestamps all coincide; rotation depends on the
	// new refresh token never colliding with the revoked one.
	now := time.Now()
	claims := Claims{
		Role: role,
		Kind: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.config.Issuer,
			ID:        uuid.NewString(),
		},
	}

	tok := jwt.NewWithClaims(c.method(), claims)
	return tok.SignedString(c.config.Secret)
}

// Decode verifies signature and expiry and returns the claims.
//
// Decode distinguishes two failure classes: ErrExpired for a
// well-signed token past its expiry, ErrMalformed for everything else.
// Leeway, when configured, widens expiry acceptance only; issuance
// clocks are otherwise taken at face value.
func (c *Codec) Decode(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.method().Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrMalformed
	}
	switch Kind(claims.Kind) {
	case KindAccess, KindRefresh:
	default:
		return nil, fmt.Errorf("%w: unknown token type %q", ErrMalformed, claims.Kind)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformed)
	}

	return claims, nil
}

// Remaining reports the lifetime left on decoded claims, clamped at zero.
func (cl *Claims) Remaining(now time.Time) time.Duration {
	if cl.ExpiresAt == nil {
		return 0
	}
	d := cl.ExpiresAt.Time.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func (c *Codec) method() jwt.SigningMethod {
	switch c.config.SigningMethod {
	case MethodHS384:
		return jwt.SigningMethodHS384
	case MethodHS512:
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}
