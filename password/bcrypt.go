package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	minCost = bcrypt.MinCost
	maxCost = 16
	// DefaultCost matches the cost the stored digests in existing
	// deployments were produced with.
	DefaultCost = 12
)

// Config defines a public type used by tokengate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Cost int
}

// Bcrypt hashes and verifies credentials. The zero value is not usable;
// construct through NewBcrypt.
type Bcrypt struct {
	config Config
}

// NewBcrypt describes the newbcrypt operation and its observable behavior.
//
// NewBcrypt may return an error when input validation fails.
func NewBcrypt(cfg Config) (*Bcrypt, error) {
	if cfg.Cost == 0 {
		cfg.Cost = DefaultCost
	}
	if cfg.Cost < minCost || cfg.Cost > maxCost {
		return nil, errors.New("bcrypt cost out of range")
	}

	return &Bcrypt{config: cfg}, nil
}

// Hash produces a bcrypt digest of password at the configured cost.
//
// Hash does not mutate shared global state and can be used concurrently.
func (b *Bcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	// bcrypt truncates beyond 72 bytes; reject rather than silently verify a prefix.
	if len(password) > 72 {
		return "", errors.New("password exceeds 72 bytes")
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), b.config.Cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether password matches the stored digest. A mismatch
// is (false, nil); the error return covers malformed digests only.
// bcrypt's comparison is constant time in the password.
func (b *Bcrypt) Verify(password, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

// NeedsUpgrade describes the needsupgrade operation and its observable behavior.
//
// NeedsUpgrade may return an error when the digest cost cannot be read.
func (b *Bcrypt) NeedsUpgrade(digest string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return false, err
	}
	return cost < b.config.Cost, nil
}
