package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/storkych/ccj-frontend-sub000/auth"
	"github.com/storkych/ccj-frontend-sub000/backend"
	"github.com/storkych/ccj-frontend-sub000/credentials"
	"github.com/storkych/ccj-frontend-sub000/credentials/kv"
	"github.com/storkych/ccj-frontend-sub000/internal/config"
	ierrors "github.com/storkych/ccj-frontend-sub000/internal/errors"
	"github.com/storkych/ccj-frontend-sub000/resources"
	"github.com/storkych/ccj-frontend-sub000/server"
	"github.com/storkych/ccj-frontend-sub000/sessions"
)

const (
	testEmail    = "foreman@example.com"
	testPassword = "s3cret"
)

type stack struct {
	server  *server.Server
	store   *credentials.Store
	set     *backend.Set
	auth    *auth.Service
	catalog *resources.Catalog
}

func newStack(t *testing.T) *stack {
	t.Helper()
	server.HashCost = bcrypt.MinCost

	users := server.NewUserDirectory()
	_, err := users.Add(testEmail, "Ivan Foreman", "foreman", testPassword)
	require.NoError(t, err)

	srv, err := server.New(config.New(), users)
	require.NoError(t, err)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	for _, name := range []string{"CCJ_API_URL", "CCJ_NOTIFICATIONS_URL", "CCJ_VISITS_URL", "CCJ_TICKETS_URL", "CCJ_AI_URL", "CCJ_FILES_URL"} {
		t.Setenv(name, ts.URL)
	}
	cfg := config.New()

	store := credentials.NewStore(kv.NewInMemory())
	set := backend.NewSet(cfg, store, nil, nil)
	return &stack{
		server:  srv,
		store:   store,
		set:     set,
		auth:    auth.NewService(set.API(), store, set.Guard),
		catalog: resources.New(set),
	}
}

func (s *stack) login(t *testing.T) {
	t.Helper()
	user, err := s.auth.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.Equal(t, testEmail, user.Email)
}

func TestNew_RequiresSigningKey(t *testing.T) {
	_, err := server.New(stubConfig{Config: config.New()}, server.NewUserDirectory())
	require.Error(t, err)
}

type stubConfig struct {
	config.Config
}

func (stubConfig) GetSigningKey() string { return "" }

func TestRoutes(t *testing.T) {
	s := newStack(t)
	require.Contains(t, s.server.Routes(), "POST "+server.RouteAuthLogin)
	require.Contains(t, s.server.Routes(), "POST "+server.RouteAuthRefresh)
	require.Contains(t, s.server.Routes(), "GET "+server.RouteObject)
}

func TestLogin_StoresSession(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.login(t)

	pair := s.store.Load(ctx)
	require.True(t, pair.HasAccess())
	require.True(t, pair.HasRefresh())

	exp, ok := pair.AccessExpiry()
	require.True(t, ok)
	require.True(t, exp.After(time.Now()))

	user, ok := s.auth.CurrentUser(ctx)
	require.True(t, ok)
	require.Equal(t, "foreman", user.Role)

	me, err := s.auth.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, user.ID, me.ID)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newStack(t)

	_, err := s.auth.Login(context.Background(), testEmail, "nope")
	require.Error(t, err)
	require.True(t, backend.IsStatus(err, http.StatusUnauthorized))
	require.Equal(t, int64(0), s.server.RefreshCalls())
	require.True(t, s.store.Load(context.Background()).IsEmpty())
}

func TestObjects_RoundTrip(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.login(t)

	created, err := s.catalog.CreateObject(ctx, resources.Object{Name: "Block A", Address: "Lenina 1"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, "planned", created.Status)

	got, err := s.catalog.GetObject(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Block A", got.Name)

	list, err := s.catalog.ListObjects(ctx, resources.ListQuery{Search: "block"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.catalog.DeleteObject(ctx, created.ID))

	_, err = s.catalog.GetObject(ctx, created.ID)
	var be *backend.Error
	require.ErrorAs(t, err, &be)
	require.Equal(t, http.StatusNotFound, be.Status)
	require.Equal(t, "Not found.", be.Message)
}

func TestObjects_ValidationError(t *testing.T) {
	s := newStack(t)
	s.login(t)

	_, err := s.catalog.CreateObject(context.Background(), resources.Object{})
	var be *backend.Error
	require.ErrorAs(t, err, &be)
	require.Equal(t, http.StatusBadRequest, be.Status)
	require.Contains(t, be.Message, "This field is required.")
}

func TestNotifications_SeparateBackend(t *testing.T) {
	s := newStack(t)
	s.login(t)

	notes, err := s.catalog.ListNotifications(context.Background(), resources.ListQuery{})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Contains(t, notes[0].Text, testEmail)
}

func TestUnauthenticated(t *testing.T) {
	s := newStack(t)

	_, err := s.catalog.ListObjects(context.Background(), resources.ListQuery{})
	var be *backend.Error
	require.ErrorAs(t, err, &be)
	require.Equal(t, http.StatusUnauthorized, be.Status)
	require.Equal(t, "Authentication credentials were not provided.", be.Message)
	require.Equal(t, int64(0), s.server.RefreshCalls())
}

func TestInvalidAccess_RefreshesAndKeepsRefreshToken(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.login(t)

	before := s.store.Load(ctx)
	require.NoError(t, s.store.Save(ctx, credentials.NewTokenPair("not-a-jwt", before.RefreshToken())))

	_, err := s.catalog.ListObjects(ctx, resources.ListQuery{})
	require.NoError(t, err)
	require.Equal(t, int64(1), s.server.RefreshCalls())

	after := s.store.Load(ctx)
	require.NotEqual(t, "not-a-jwt", after.AccessToken())
	require.Equal(t, before.RefreshToken(), after.RefreshToken())
}

func TestInvalidAccess_RotatedRefreshToken(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.server.SetRefreshRotation(true)
	s.login(t)

	before := s.store.Load(ctx)
	require.NoError(t, s.store.Save(ctx, credentials.NewTokenPair("not-a-jwt", before.RefreshToken())))

	_, err := s.catalog.ListObjects(ctx, resources.ListQuery{})
	require.NoError(t, err)

	after := s.store.Load(ctx)
	require.NotEqual(t, before.RefreshToken(), after.RefreshToken())

	// The replaced refresh token is no longer accepted.
	_, err = s.set.Coordinator.Refresh(ctx, before.RefreshToken())
	require.True(t, ierrors.Is(err, ierrors.ErrRefreshFailed))
}

func TestExpiredSession_ForcesLogout(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.login(t)

	var events []sessions.Termination
	unsubscribe := s.set.Guard.Subscribe(func(term sessions.Termination) {
		events = append(events, term)
	})
	defer unsubscribe()

	_, err := s.set.API().Do(ctx, server.RouteExpireSession, backend.WithMethod(http.MethodPost))
	require.NoError(t, err)

	_, err = s.catalog.ListObjects(ctx, resources.ListQuery{})
	require.Error(t, err)
	require.True(t, sessions.IsExpired(err))
	require.True(t, ierrors.Is(err, ierrors.ErrSessionExpired))

	var be *backend.Error
	require.False(t, ierrors.As(err, &be))

	require.True(t, s.store.Load(ctx).IsEmpty())
	_, ok := s.store.User(ctx)
	require.False(t, ok)

	select {
	case <-s.set.Guard.Done():
	default:
		t.Fatal("guard did not signal termination")
	}
	require.Len(t, events, 1)
	require.Equal(t, http.StatusForbidden, events[0].Status)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.login(t)

	refreshToken := s.store.Load(ctx).RefreshToken()
	require.NoError(t, s.auth.Logout(ctx))
	require.True(t, s.store.Load(ctx).IsEmpty())

	_, err := s.set.Coordinator.Refresh(ctx, refreshToken)
	require.True(t, ierrors.Is(err, ierrors.ErrRefreshFailed))
}

func TestLogin_AfterExpiryRearmsGuard(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.login(t)

	_, err := s.set.API().Do(ctx, server.RouteExpireSession, backend.WithMethod(http.MethodPost))
	require.NoError(t, err)
	_, err = s.catalog.ListObjects(ctx, resources.ListQuery{})
	require.True(t, sessions.IsExpired(err))

	s.login(t)
	select {
	case <-s.set.Guard.Done():
		t.Fatal("guard still terminated after a new login")
	default:
	}

	_, err = s.catalog.ListObjects(ctx, resources.ListQuery{})
	require.NoError(t, err)
}
