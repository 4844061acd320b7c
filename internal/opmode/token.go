package opmode

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Mode selects which outbound number places calls.
type Mode string

const (
	ModePrimary Mode = "primary"
	ModeReserve Mode = "reserve"
)

func (m Mode) IsValid() bool {
	return m == ModePrimary || m == ModeReserve
}

// DefaultCacheTTL bounds how long a cached verdict is trusted.
const DefaultCacheTTL = 5 * time.Minute

var (
	ErrTokenInvalid = errors.New("mode token invalid")
	ErrTokenStale   = errors.New("mode token stale")
)

type modeClaims struct {
	Mode string `json:"mode"`
	jwt.RegisteredClaims
}

// Signer mints and verifies HS256 mode tokens. The token is client-held, so
// every read re-verifies signature, shape and age.
type Signer struct {
	key []byte
	ttl time.Duration
}

func NewSigner(key string, ttl time.Duration) (*Signer, error) {
	if len(key) == 0 {
		return nil, errors.New("mode token signing key is required")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Signer{key: []byte(key), ttl: ttl}, nil
}

func (s *Signer) Mint(mode Mode, now time.Time) (string, error) {
	if !mode.IsValid() {
		return "", fmt.Errorf("mint mode token: unknown mode %q", mode)
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, modeClaims{
		Mode: string(mode),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	})
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign mode token: %w", err)
	}
	return signed, nil
}

// Verify returns the cached mode when the token is authentic and was issued
// no more than ttl before now and not after it.
func (s *Signer) Verify(raw string, now time.Time) (Mode, error) {
	if raw == "" {
		return "", ErrTokenInvalid
	}
	claims := &modeClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.key, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	mode := Mode(claims.Mode)
	if !mode.IsValid() || claims.IssuedAt == nil {
		return "", ErrTokenInvalid
	}
	issued := claims.IssuedAt.Time
	if issued.After(now) {
		return "", fmt.Errorf("%w: issued in the future", ErrTokenInvalid)
	}
	if now.Sub(issued) >= s.ttl {
		return "", ErrTokenStale
	}
	return mode, nil
}
