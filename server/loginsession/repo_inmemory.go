package loginsession

import (
	"fmt"
	"sync"
	"time"

	"github.com/storkych/ccj-frontend-sub000/internal/errors"
)

// InMemoryLoginSessionRepo keeps login sessions in a map keyed by session ID.
type InMemoryLoginSessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

var _ Repo = (*InMemoryLoginSessionRepo)(nil)

func NewInMemoryLoginSessionRepo() *InMemoryLoginSessionRepo {
	return &InMemoryLoginSessionRepo{
		sessions: make(map[string]Session),
	}
}

func (r *InMemoryLoginSessionRepo) Upsert(session Session) error {
	if session.ID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session
	return nil
}

// Get returns errors.ErrNotFound for unknown sessions.
func (r *InMemoryLoginSessionRepo) Get(sessionID string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return Session{}, errors.ErrNotFound
	}
	return session, nil
}

// Revoke marks a session revoked. Revoking twice keeps the first time.
func (r *InMemoryLoginSessionRepo) Revoke(sessionID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return errors.ErrNotFound
	}
	if !session.Revoked {
		session.Revoked = true
		session.RevokedAt = at
		r.sessions[sessionID] = session
	}
	return nil
}

func (r *InMemoryLoginSessionRepo) Delete(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}
