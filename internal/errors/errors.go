package errors

import (
	"errors"
	"fmt"
)

// Common error types for the API access layer
var (
	// Session errors
	ErrSessionExpired = errors.New("session expired")
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrSessionChanged = errors.New("session changed during refresh")

	// Token errors
	ErrNoRefreshToken      = errors.New("no refresh token")
	ErrRefreshFailed       = errors.New("token refresh failed")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Backend errors
	ErrUnknownBackend = errors.New("unknown backend")
	ErrTransport      = errors.New("transport failure")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("unsupported operation")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
