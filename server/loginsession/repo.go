package loginsession

import "time"

// Session is one login of one user. Access tokens carry its ID; revoking it
// makes the stub answer with the "Token expired" signal.
type Session struct {
	ID        string
	UserID    string
	Revoked   bool
	RevokedAt time.Time
	CreatedAt time.Time
}

type Repo interface {
	Upsert(session Session) error
	Get(sessionID string) (Session, error)
	Revoke(sessionID string, at time.Time) error
	Delete(sessionID string) error
}
