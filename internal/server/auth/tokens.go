package auth

import (
	"time"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// PurposeClaims bind an identity to a purpose tag and an issuance time.
type PurposeClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
}

// TokenService issues and verifies stateless purpose-scoped tokens.
// Verified tokens stay valid until their TTL elapses; there is no
// revocation or single-use tracking.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret []byte) *TokenService {
	return &TokenService{secret: secret, now: time.Now}
}

// WithClock replaces the time source used for issuance and expiry checks.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue returns a signed token for identity scoped to purpose.
func (s *TokenService) Issue(identity, purpose string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, PurposeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  identity,
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
		Purpose: purpose,
	})
	return token.SignedString(s.secret)
}

// Verify checks the signature, purpose and age of token and returns the
// embedded identity. A token is expired once now is past iat+ttl.
func (s *TokenService) Verify(token, purpose string, ttl time.Duration) (string, error) {
	claims := &PurposeClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithStrictDecoding())
	if err != nil || !parsed.Valid {
		return "", common.ErrInvalidSignature
	}

	if claims.Purpose != purpose || claims.Subject == "" || claims.IssuedAt == nil {
		return "", common.ErrInvalidSignature
	}

	if s.now().After(claims.IssuedAt.Time.Add(ttl)) {
		return "", common.ErrTokenExpired
	}

	return claims.Subject, nil
}
