package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/storkych/ccj-frontend-sub000/credentials/kv"
	ierrors "github.com/storkych/ccj-frontend-sub000/internal/errors"
)

const (
	// TokensKey addresses the serialized TokenPair.
	TokensKey = "ccj.tokens"
	// UserKey addresses the serialized SessionUser.
	UserKey = "ccj.user"
)

// Store holds the current token pair and session user for every backend
// client of a process. It is passed explicitly to the clients that need it.
type Store struct {
	kv kv.Store
	mu sync.Mutex
}

// NewStore creates a credential store persisted in s.
func NewStore(s kv.Store) *Store {
	return &Store{kv: s}
}

// Load returns the persisted pair. Missing, unreadable or malformed data is
// reported as an empty pair.
func (s *Store) Load(ctx context.Context) TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) TokenPair {
	data, found, err := s.kv.Get(ctx, TokensKey)
	if err != nil {
		log.Err(err).Str("key", TokensKey).Msg("Failed to read persisted tokens")
		return TokenPair{}
	}
	if !found {
		return TokenPair{}
	}

	var pair TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		log.Warn().Err(err).Str("key", TokensKey).Msg("Ignoring malformed persisted tokens")
		return TokenPair{}
	}
	return pair
}

// Save overwrites the persisted pair.
func (s *Store) Save(ctx context.Context, pair TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, pair)
}

func (s *Store) save(ctx context.Context, pair TokenPair) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}
	if err := s.kv.Set(ctx, TokensKey, data); err != nil {
		return fmt.Errorf("failed to persist tokens: %w", err)
	}
	return nil
}

// Rotate stores the result of refreshing presented. The old refresh token is
// kept when newRefresh is empty. If the stored refresh token is no longer
// presented (logout, forced termination or a new login happened meanwhile)
// nothing is written and ErrSessionChanged is returned.
func (s *Store) Rotate(ctx context.Context, presented, access, newRefresh string) (TokenPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.load(ctx)
	switch held := current.RefreshToken(); {
	case held != "" && held == presented:
	case newRefresh != "" && held == newRefresh:
		// A concurrent caller sharing the same refresh already stored it.
		return current, nil
	default:
		return TokenPair{}, ierrors.ErrSessionChanged
	}

	refresh := newRefresh
	if refresh == "" {
		refresh = presented
	}
	pair := NewTokenPair(access, refresh)
	if err := s.save(ctx, pair); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// Clear removes both the token pair and the session user.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Remove(ctx, TokensKey); err != nil {
		return fmt.Errorf("failed to remove tokens: %w", err)
	}
	if err := s.kv.Remove(ctx, UserKey); err != nil {
		return fmt.Errorf("failed to remove session user: %w", err)
	}
	return nil
}

// User returns the persisted session user, if any.
func (s *Store) User(ctx context.Context) (*SessionUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, found, err := s.kv.Get(ctx, UserKey)
	if err != nil || !found {
		return nil, false
	}
	var user SessionUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, false
	}
	return &user, true
}

// SaveUser overwrites the persisted session user.
func (s *Store) SaveUser(ctx context.Context, user SessionUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveUser(ctx, user)
}

func (s *Store) saveUser(ctx context.Context, user SessionUser) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode session user: %w", err)
	}
	if err := s.kv.Set(ctx, UserKey, data); err != nil {
		return fmt.Errorf("failed to persist session user: %w", err)
	}
	return nil
}

// SaveSession stores the result of a successful login.
func (s *Store) SaveSession(ctx context.Context, pair TokenPair, user *SessionUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(ctx, pair); err != nil {
		return err
	}
	if user == nil {
		if err := s.kv.Remove(ctx, UserKey); err != nil {
			return fmt.Errorf("failed to remove session user: %w", err)
		}
		return nil
	}
	return s.saveUser(ctx, *user)
}
