package sessions_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/storkych/ccj-frontend-sub000/credentials"
	"github.com/storkych/ccj-frontend-sub000/credentials/kv"
	ierrors "github.com/storkych/ccj-frontend-sub000/internal/errors"
	"github.com/storkych/ccj-frontend-sub000/sessions"
	"github.com/stretchr/testify/require"
)

func loggedInStore(t *testing.T) *credentials.Store {
	t.Helper()
	s := credentials.NewStore(kv.NewInMemory())
	require.NoError(t, s.SaveSession(context.Background(),
		credentials.NewTokenPair("A1", "R1"),
		&credentials.SessionUser{ID: "u-1", Email: "foreman@example.com"},
	))
	return s
}

func TestDetectExpiry(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"json detail", http.StatusForbidden, `{"detail":"Token expired, please re-login"}`, true},
		{"plain text", http.StatusForbidden, "Token expired", true},
		{"plain text with prefix", http.StatusForbidden, "error: Token expired at 12:00", true},
		{"json without marker", http.StatusForbidden, `{"detail":"You do not have permission"}`, false},
		{"json marker outside detail", http.StatusForbidden, `{"message":"Token expired"}`, false},
		{"json non-string detail", http.StatusForbidden, `{"detail":["Token expired"]}`, false},
		{"json non-object", http.StatusForbidden, `"Token expired"`, false},
		{"wrong status json", http.StatusUnauthorized, `{"detail":"Token expired"}`, false},
		{"wrong status text", http.StatusInternalServerError, "Token expired", false},
		{"empty body", http.StatusForbidden, "", false},
		{"case sensitive", http.StatusForbidden, "token expired", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := sessions.DetectExpiry(tt.status, tt.body)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestInspectOrdinaryErrorLeavesStoreUntouched(t *testing.T) {
	store := loggedInStore(t)
	g := sessions.NewGuard(store, "/login")

	err := g.Inspect(context.Background(), http.StatusForbidden, `{"detail":"Forbidden"}`)
	require.NoError(t, err)
	require.Equal(t, "A1", store.Load(context.Background()).AccessToken())
	_, ok := store.User(context.Background())
	require.True(t, ok)

	select {
	case <-g.Done():
		t.Fatal("session must not be terminated")
	default:
	}
}

func TestInspectExpiredSessionClearsAndSignals(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	sessions.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { sessions.NowTimeFunc = time.Now })

	store := loggedInStore(t)
	g := sessions.NewGuard(store, "/login")

	var got []sessions.Termination
	unsubscribe := g.Subscribe(func(term sessions.Termination) {
		got = append(got, term)
	})
	defer unsubscribe()

	err := g.Inspect(context.Background(), http.StatusForbidden, `{"detail":"Token expired, please re-login"}`)
	require.Error(t, err)
	require.ErrorIs(t, err, ierrors.ErrSessionExpired)
	require.True(t, sessions.IsExpired(err))

	var expired *sessions.ExpiredError
	require.True(t, errors.As(err, &expired))
	require.Equal(t, "/login", expired.LoginRoute)
	require.Equal(t, "Token expired, please re-login", expired.Detail)
	require.Equal(t, now, expired.At)

	require.True(t, store.Load(context.Background()).IsEmpty())
	_, ok := store.User(context.Background())
	require.False(t, ok)

	require.Len(t, got, 1)
	require.Equal(t, http.StatusForbidden, got[0].Status)

	select {
	case <-g.Done():
	default:
		t.Fatal("done channel must be closed")
	}

	last, ok := g.Last()
	require.True(t, ok)
	require.Equal(t, expired.Termination, last)
}

func TestUnsubscribe(t *testing.T) {
	g := sessions.NewGuard(loggedInStore(t), "/login")
	calls := 0
	unsubscribe := g.Subscribe(func(sessions.Termination) { calls++ })
	unsubscribe()

	require.Error(t, g.Inspect(context.Background(), http.StatusForbidden, "Token expired"))
	require.Zero(t, calls)
}

func TestRearmAfterTermination(t *testing.T) {
	g := sessions.NewGuard(loggedInStore(t), "/login")
	require.Error(t, g.Inspect(context.Background(), http.StatusForbidden, "Token expired"))
	require.Error(t, g.Inspect(context.Background(), http.StatusForbidden, "Token expired"), "a second signal must not panic")

	g.Rearm()
	select {
	case <-g.Done():
		t.Fatal("rearmed guard must not be done")
	default:
	}
	_, ok := g.Last()
	require.False(t, ok)
}

type failingClearer struct{ calls int }

func (f *failingClearer) Clear(context.Context) error {
	f.calls++
	return errors.New("disk full")
}

func TestInspectStillSignalsWhenClearFails(t *testing.T) {
	c := &failingClearer{}
	g := sessions.NewGuard(c, "/login")

	err := g.Inspect(context.Background(), http.StatusForbidden, "Token expired")
	require.ErrorIs(t, err, ierrors.ErrSessionExpired)
	require.Equal(t, 1, c.calls)
}
