package auth

import "errors"

var (
	ErrMissingCredentials = errors.New("email and password are required")
	ErrMissingTokens      = errors.New("login response carries no tokens")
)
