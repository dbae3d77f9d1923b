// Package common defines shared constants and sentinel errors used across
// the admissions service layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorInvalidInput = errors.New("invalid input")

	// Application lifecycle errors.
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrAlreadySubmitted    = errors.New("application already submitted")
	ErrNoDraftExists       = errors.New("no draft application exists")
	ErrDeadlinePassed      = errors.New("submission deadline has passed")
	ErrInvalidReviewStatus = errors.New("invalid review status")

	// Attachment errors.
	ErrPayloadTooLarge = errors.New("payload too large")

	// Document errors.
	ErrRender         = errors.New("render error")
	ErrLetterNotFound = errors.New("letter not found")

	// Token errors. ErrInvalidSignature covers tampered, malformed and
	// wrong-purpose tokens; ErrTokenExpired is reported only for tokens whose
	// signature checks out.
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")
)
