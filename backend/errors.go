package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	ierrors "github.com/storkych/ccj-frontend-sub000/internal/errors"
)

// Error is the normalized form of every non-OK backend response. Status is
// zero when no HTTP status applies.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// StatusCode returns the HTTP status of err when it is an *Error.
func StatusCode(err error) (int, bool) {
	var e *Error
	if !ierrors.As(err, &e) || e.Status == 0 {
		return 0, false
	}
	return e.Status, true
}

// IsStatus reports whether err is an *Error with the given status.
func IsStatus(err error, status int) bool {
	s, ok := StatusCode(err)
	return ok && s == status
}

// syntheticBody stands in for a body that could not be read.
func syntheticBody(status int) string {
	return fmt.Sprintf("HTTP %d", status)
}

// newError builds the normalized error: the JSON detail field when present,
// otherwise the raw text, otherwise a synthetic status line.
func newError(status int, body string) *Error {
	return &Error{Message: errorMessage(status, body), Status: status}
}

func errorMessage(status int, body string) string {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		if detail, ok := parsed["detail"]; ok && detail != nil {
			if s, ok := detail.(string); ok {
				return s
			}
			if data, err := json.Marshal(detail); err == nil {
				return string(data)
			}
		}
	}
	if strings.TrimSpace(body) != "" {
		return body
	}
	return syntheticBody(status)
}
