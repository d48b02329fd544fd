package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrTokenInvalid covers malformed, tampered and unknown tokens.
	ErrTokenInvalid = errors.New("auth: token invalid")

	// ErrTokenExpired is returned when a token is structurally valid but
	// past its expiry.
	ErrTokenExpired = errors.New("auth: token expired")

	ErrNotFound     = errors.New("auth: not found")
	ErrEmailTaken   = errors.New("auth: email already registered")
	ErrInvalidInput = errors.New("auth: invalid input")
)
