package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")

	// Token related errors
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")

	// Job related errors
	ErrJobNotFound = errors.New("job not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
