package sessions

import (
	"fmt"
	"time"

	"github.com/storkych/ccj-frontend-sub000/internal/errors"
)

// Termination describes a session forcibly ended by a backend.
type Termination struct {
	Status     int       // HTTP status of the response that ended the session
	Detail     string    // Server-provided reason
	LoginRoute string    // Where the UI shell should send the user
	At         time.Time // When the guard observed the signal
}

// ExpiredError is returned in place of any ordinary error once a backend has
// signalled that the session token expired. It matches ErrSessionExpired.
type ExpiredError struct {
	Termination
}

func (e *ExpiredError) Error() string {
	if e.Detail == "" {
		return errors.ErrSessionExpired.Error()
	}
	return fmt.Sprintf("%s: %s", errors.ErrSessionExpired, e.Detail)
}

func (e *ExpiredError) Is(target error) bool {
	return target == errors.ErrSessionExpired
}

// IsExpired reports whether err ends the session.
func IsExpired(err error) bool {
	return errors.Is(err, errors.ErrSessionExpired)
}
