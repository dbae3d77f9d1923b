// Package cryptox implements password hashing for user credentials.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/dmitrijs2005/admissions/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	saltSize   = 16
	hashScheme = "argon2id"
)

var errMalformedHash = errors.New("malformed password hash")

// DeriveKey stretches password with salt using Argon2id
// (1 pass, 64 MiB, 4 lanes, 32-byte output).
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// HashPassword returns a self-describing encoded hash of the form
// "argon2id$<salt hex>$<key hex>" with a fresh random salt.
func HashPassword(password string) string {
	salt := common.GenerateRandByteArray(saltSize)
	key := DeriveKey([]byte(password), salt)
	return hashScheme + "$" + hex.EncodeToString(salt) + "$" + hex.EncodeToString(key)
}

// VerifyPassword reports whether password matches the encoded hash.
// Comparison is constant-time.
func VerifyPassword(encoded, password string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != hashScheme {
		return false, errMalformedHash
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false, errMalformedHash
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil {
		return false, errMalformedHash
	}

	got := DeriveKey([]byte(password), salt)
	defer common.WipeByteArray(got)

	return subtle.ConstantTimeCompare(want, got) == 1, nil
}
