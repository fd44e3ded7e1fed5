// Package token issues and verifies signed, time-bounded identity tokens.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure taxonomy.
var (
	// ErrTokenInvalid indicates a malformed or otherwise unusable token.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrSignatureInvalid indicates a tampered token or wrong key.
	ErrSignatureInvalid = errors.New("token signature invalid")
	// ErrTokenExpired indicates the token's expiry has passed.
	ErrTokenExpired = errors.New("token expired")
)

// Claims carries the signed token payload. The subject is the decimal
// string form of the user id.
type Claims struct {
	jwt.RegisteredClaims
}

// Service signs and verifies HS256 tokens with a shared secret. The
// algorithm is fixed; there is no negotiation and no clock-skew leeway.
type Service struct {
	secret     []byte
	lifetime   time.Duration
	skipExpiry bool
}

// Option customises Service construction.
type Option func(*Service)

// SkipExpiryCheck disables expiry validation in Verify. Signature checks
// still apply. Intended for offline inspection of stale tokens only.
func SkipExpiryCheck() Option {
	return func(s *Service) { s.skipExpiry = true }
}

// NewService constructs a Service from the shared secret and a token
// lifetime in hours.
func NewService(secret string, lifetimeHours int, opts ...Option) *Service {
	s := &Service{
		secret:   []byte(secret),
		lifetime: time.Duration(lifetimeHours) * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lifetime exposes the configured token validity span.
func (s *Service) Lifetime() time.Duration {
	return s.lifetime
}

// Issue builds claims with issued_at = now and expires_at = now + lifetime
// and returns the compact signed representation.
func (s *Service) Issue(userID int64) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses the token, checks the signature against the shared secret
// and, unless disabled, rejects expired claims.
func (s *Service) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	parserOpts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.skipExpiry {
		parserOpts = append(parserOpts, jwt.WithoutClaimsValidation())
	}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, parserOpts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrTokenInvalid
		}
	}
	return claims, nil
}

// ExtractUserID verifies the token and parses its subject as a user id.
func (s *Service) ExtractUserID(raw string) (int64, error) {
	claims, err := s.Verify(raw)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrTokenInvalid
	}
	return id, nil
}
