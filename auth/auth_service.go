package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/storkych/ccj-frontend-sub000/backend"
	"github.com/storkych/ccj-frontend-sub000/credentials"
	"github.com/storkych/ccj-frontend-sub000/internal/utils"
)

const (
	LoginPath  = "/auth/login"
	LogoutPath = "/auth/logout"
	MePath     = "/auth/me"
)

// LoginRequest is the body of a login call.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by the core backend on a successful login.
type LoginResponse struct {
	Access  *string                  `json:"access,omitempty"`
	Refresh *string                  `json:"refresh,omitempty"`
	User    *credentials.SessionUser `json:"user,omitempty"`
}

// Rearmer restarts session-expiry tracking after a new login.
type Rearmer interface {
	Rearm()
}

// Service starts and ends sessions against the core backend.
type Service struct {
	api   *backend.Client
	store *credentials.Store
	guard Rearmer
}

func NewService(api *backend.Client, store *credentials.Store, guard Rearmer) *Service {
	return &Service{api: api, store: store, guard: guard}
}

// Login exchanges credentials for a token pair and stores the session.
func (s *Service) Login(ctx context.Context, email, password string) (*credentials.SessionUser, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	var resp LoginResponse
	err := s.api.Post(ctx, LoginPath, LoginRequest{Email: email, Password: password}, &resp, backend.WithoutRetry())
	if err != nil {
		return nil, err
	}
	if utils.Value(resp.Access) == "" {
		return nil, ErrMissingTokens
	}

	pair := credentials.NewTokenPair(utils.Value(resp.Access), utils.Value(resp.Refresh))
	if err := s.store.SaveSession(ctx, pair, resp.User); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	if s.guard != nil {
		s.guard.Rearm()
	}

	log.Info().Str("email", email).Msg("Logged in")
	return resp.User, nil
}

// Logout tells the backend to revoke the refresh token, then clears the
// local session whatever the backend answered.
func (s *Service) Logout(ctx context.Context) error {
	pair := s.store.Load(ctx)
	if pair.HasRefresh() {
		body := map[string]string{"refresh": pair.RefreshToken()}
		if _, err := s.api.Do(ctx, LogoutPath, backend.WithMethod(http.MethodPost), backend.WithBody(body), backend.WithoutRetry()); err != nil {
			log.Err(err).Msg("Logout: backend revocation failed")
		}
	}
	return s.store.Clear(ctx)
}

// CurrentUser returns the stored session user without a network call.
func (s *Service) CurrentUser(ctx context.Context) (*credentials.SessionUser, bool) {
	return s.store.User(ctx)
}

// Me fetches the authenticated principal and refreshes the stored copy.
func (s *Service) Me(ctx context.Context) (*credentials.SessionUser, error) {
	var user credentials.SessionUser
	if err := s.api.Get(ctx, MePath, &user); err != nil {
		return nil, err
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return &user, nil
}
