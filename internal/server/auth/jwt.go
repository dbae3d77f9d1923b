// Package auth issues and verifies the signed tokens used by the server:
// session tokens carried in the session cookie and purpose-scoped tokens
// such as password reset links.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the session token claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
	Admin  bool  `json:"adm,omitempty"`
}

// Session is the identity recovered from a valid session token.
type Session struct {
	UserID int64
	Admin  bool
}

func GenerateSessionToken(userID int64, admin bool, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
		Admin:  admin,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func ParseSessionToken(tokenString string, secretKey []byte) (*Session, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(), jwt.WithStrictDecoding())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidSignature
	}

	if !token.Valid {
		return nil, common.ErrInvalidSignature
	}

	return &Session{UserID: claims.UserID, Admin: claims.Admin}, nil
}
