package refreshtokens

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/storkych/ccj-frontend-sub000/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

const tokenLength = 32 // 32 bytes = 256 bits

// Manager issues opaque refresh tokens bound to a login session
type Manager struct {
	repo   Repo
	expiry time.Duration
}

// NewManager creates a new refresh token manager
func NewManager(repo Repo, expiry time.Duration) *Manager {
	return &Manager{
		repo:   repo,
		expiry: expiry,
	}
}

// Create generates a new refresh token and stores it
func (m *Manager) Create(userID, sessionID string) (string, error) {
	tokenBytes := make([]byte, tokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:     tokenStr,
		UserID:    userID,
		SessionID: sessionID,
		Iat:       NowTimeFunc(),
	}); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return tokenStr, nil
}

// Get retrieves a refresh token from storage
func (m *Manager) Get(token string) (*StoredRefreshToken, error) {
	return m.repo.Get(token)
}

// Delete removes a refresh token from storage
func (m *Manager) Delete(token string) error {
	return m.repo.Delete(token)
}

// IsExpired checks if a refresh token has outlived the configured expiry
func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.expiry
}

// Validate returns the stored token, or ErrNotFound / ErrRefreshTokenExpired.
// Expired tokens are removed.
func (m *Manager) Validate(token string) (*StoredRefreshToken, error) {
	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, err
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return nil, errors.ErrRefreshTokenExpired
	}
	return rt, nil
}

// Rotate replaces a valid token with a new one for the same session.
func (m *Manager) Rotate(token string) (string, error) {
	rt, err := m.Validate(token)
	if err != nil {
		return "", err
	}
	next, err := m.Create(rt.UserID, rt.SessionID)
	if err != nil {
		return "", err
	}
	if err := m.repo.Delete(token); err != nil {
		return "", fmt.Errorf("failed to delete rotated refresh token: %w", err)
	}
	return next, nil
}
