package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/storkych/ccj-frontend-sub000/backend"
	"github.com/storkych/ccj-frontend-sub000/credentials"
	"github.com/storkych/ccj-frontend-sub000/credentials/kv"
	ierrors "github.com/storkych/ccj-frontend-sub000/internal/errors"
	"github.com/storkych/ccj-frontend-sub000/sessions"
	"github.com/storkych/ccj-frontend-sub000/token/refresh"
	"github.com/stretchr/testify/require"
)

// testFixture holds a core backend, a notifications backend and the shared
// credential plumbing.
type testFixture struct {
	store   *credentials.Store
	coord   *refresh.Coordinator
	guard   *sessions.Guard
	core    *httptest.Server
	notify  *httptest.Server
	api     *backend.Client
	notices *backend.Client

	refreshHandler http.HandlerFunc
	refreshCalls   atomic.Int32
	refreshBodies  []string
	mu             sync.Mutex
}

func setupTestFixture(t *testing.T, coreMux, notifyMux *http.ServeMux) *testFixture {
	t.Helper()

	f := &testFixture{
		store: credentials.NewStore(kv.NewInMemory()),
	}
	f.refreshHandler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access":"T2"}`))
	}

	if coreMux == nil {
		coreMux = http.NewServeMux()
	}
	coreMux.HandleFunc("POST "+refresh.Path, func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		var body refresh.Request
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.refreshBodies = append(f.refreshBodies, body.Refresh)
		f.mu.Unlock()
		f.refreshHandler(w, r)
	})
	if notifyMux == nil {
		notifyMux = http.NewServeMux()
	}

	f.core = httptest.NewServer(coreMux)
	f.notify = httptest.NewServer(notifyMux)
	t.Cleanup(f.core.Close)
	t.Cleanup(f.notify.Close)

	f.coord = refresh.NewCoordinator(f.core.URL, f.core.Client())
	f.guard = sessions.NewGuard(f.store, "/login")
	f.api = backend.NewClient(backend.Endpoint{Tag: backend.TagAPI, BaseURL: f.core.URL}, f.store, f.coord, f.guard)
	f.notices = backend.NewClient(backend.Endpoint{Tag: backend.TagNotifications, BaseURL: f.notify.URL}, f.store, f.coord, f.guard)
	return f
}

func (f *testFixture) login(t *testing.T, access, refreshToken string) {
	t.Helper()
	require.NoError(t, f.store.SaveSession(context.Background(),
		credentials.NewTokenPair(access, refreshToken),
		&credentials.SessionUser{ID: "u-1", Role: "inspector"},
	))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func bearerIs(r *http.Request, token string) bool {
	return r.Header.Get("Authorization") == "Bearer "+token
}

// Scenario A
func TestCreateObjectWithValidToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /objects", func(w http.ResponseWriter, r *http.Request) {
		require.True(t, bearerIs(r, "T1"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in["id"] = 42
		writeJSON(w, http.StatusOK, in)
	})

	f := setupTestFixture(t, mux, nil)
	f.login(t, "T1", "R1")

	resp, err := f.api.Do(context.Background(), "/objects",
		backend.WithMethod(http.MethodPost),
		backend.WithBody(map[string]string{"name": "Block A"}),
	)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.Status)
	require.True(t, resp.IsJSON())
	require.Equal(t, map[string]any{"id": float64(42), "name": "Block A"}, resp.JSON)
	require.Zero(t, f.refreshCalls.Load())
}

// Scenario B
func TestExpiredAccessTokenIsRefreshedAndRetried(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /notifications", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !bearerIs(r, "T2") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid"})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "text": "Delivery arrived"}})
	})

	f := setupTestFixture(t, nil, mux)
	f.login(t, "T1", "R1")

	var list []map[string]any
	err := f.notices.Get(context.Background(), "/notifications", &list)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Delivery arrived", list[0]["text"])

	require.EqualValues(t, 2, calls.Load())
	require.EqualValues(t, 1, f.refreshCalls.Load())
	require.Equal(t, []string{"R1"}, f.refreshBodies)

	pair := f.store.Load(context.Background())
	require.Equal(t, "T2", pair.AccessToken())
	require.Equal(t, "R1", pair.RefreshToken(), "refresh token is carried forward")
}

func TestRefreshedTokenIsStoredBeforeRetry(t *testing.T) {
	var f *testFixture
	var storedAtRetry string
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /objects", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		storedAtRetry = f.store.Load(context.Background()).AccessToken()
		writeJSON(w, http.StatusOK, []string{})
	})

	f = setupTestFixture(t, mux, nil)
	f.refreshHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"access": "T2", "refresh": "R2"})
	}
	f.login(t, "T1", "R1")

	_, err := f.api.Do(context.Background(), "/objects")
	require.NoError(t, err)
	require.Equal(t, "T2", storedAtRetry)
	require.Equal(t, "R2", f.store.Load(context.Background()).RefreshToken())
}

func TestRetryAllowedFalseNeverRefreshes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /objects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
	})

	f := setupTestFixture(t, mux, nil)
	f.login(t, "T1", "R1")

	_, err := f.api.Do(context.Background(), "/objects", backend.WithoutRetry())
	var apiErr *backend.Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, "Authentication credentials were not provided.", apiErr.Message)
	require.Zero(t, f.refreshCalls.Load())
}

func TestRetriedRequestIsNotRetriedAgain(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /objects", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	f := setupTestFixture(t, mux, nil)
	f.login(t, "T1", "R1")

	_, err := f.api.Do(context.Background(), "/objects")
	require.True(t, backend.IsStatus(err, http.StatusUnauthorized))
	require.EqualValues(t, 2, calls.Load())
	require.EqualValues(t, 1, f.refreshCalls.Load())
}

func TestUnauthorizedWithoutRefreshToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /objects", func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
	})

	f := setupTestFixture(t, mux, nil)

	_, err := f.api.Do(context.Background(), "/objects")
	require.True(t, backend.IsStatus(err, http.StatusUnauthorized))
	require.Zero(t, f.refreshCalls.Load())
}

// Scenario D
func TestFailedRefreshSurfacesOriginalUnauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /objects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "access token expired"})
	})

	f := setupTestFixture(t, mux, nil)
	f.refreshHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "refresh token invalid"})
	}
	f.login(t, "T1", "R1")

	_, err := f.api.Do(context.Background(), "/objects")
	var apiErr *backend.Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Equal(t, "access token expired", apiErr.Message)

	pair := f.store.Load(context.Background())
	require.Equal(t, "T1", pair.AccessToken())
	require.Equal(t, "R1", pair.RefreshToken())
	require.EqualValues(t, 1, f.refreshCalls.Load())
}

// Scenario C
func TestTokenExpiredSignalEndsSession(t *testing.T) {
	for _, tc := range []struct {
		name        string
		contentType string
		body        string
	}{
		{"json detail", "application/json", `{"detail":"Token expired, please re-login"}`},
		{"plain text", "text/plain", "Token expired"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /tickets", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tc.contentType)
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(tc.body))
			})

			f := setupTestFixture(t, mux, nil)
			f.login(t, "T1", "R1")

			var terminated atomic.Int32
			f.guard.Subscribe(func(sessions.Termination) { terminated.Add(1) })

			_, err := f.api.Do(context.Background(), "/tickets")
			require.ErrorIs(t, err, ierrors.ErrSessionExpired)

			var apiErr *backend.Error
			require.False(t, errors.As(err, &apiErr), "no normalized error for an expired session")

			require.True(t, f.store.Load(context.Background()).IsEmpty())
			_, ok := f.store.User(context.Background())
			require.False(t, ok)
			require.EqualValues(t, 1, terminated.Load())
		})
	}
}

func TestForbiddenWithoutMarkerIsOrdinaryError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /objects/7", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
	})

	f := setupTestFixture(t, mux, nil)
	f.login(t, "T1", "R1")

	err := f.api.Delete(context.Background(), "/objects/7")
	var apiErr *backend.Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusForbidden, apiErr.Status)
	require.Equal(t, "You do not have permission to perform this action.", apiErr.Message)
	require.Equal(t, "T1", f.store.Load(context.Background()).AccessToken())
}

func TestErrorMessageNormalization(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        string
	}{
		{"detail string", 400, "application/json", `{"detail":"Name is required"}`, "Name is required"},
		{"detail object", 400, "application/json", `{"detail":{"name":["required"]}}`, `{"name":["required"]}`},
		{"json without detail", 422, "application/json", `{"name":["required"]}`, `{"name":["required"]}`},
		{"plain text", 502, "text/html", "Bad gateway", "Bad gateway"},
		{"empty body", 500, "", "", "HTTP 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /x", func(w http.ResponseWriter, r *http.Request) {
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			f := setupTestFixture(t, mux, nil)

			_, err := f.api.Do(context.Background(), "/x")
			var apiErr *backend.Error
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tt.status, apiErr.Status)
			require.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestPlainTextResponse(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	f := setupTestFixture(t, mux, nil)

	resp, err := f.api.Do(context.Background(), "/health")
	require.NoError(t, err)
	require.False(t, resp.IsJSON())
	require.Equal(t, "ok", resp.Text)
	require.Nil(t, resp.JSON)
}

func TestAbsoluteURLIsUsedVerbatim(t *testing.T) {
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/media/plan.pdf", r.URL.Path)
		require.True(t, bearerIs(r, "T1"))
		_, _ = w.Write([]byte("pdf"))
	}))
	defer other.Close()

	f := setupTestFixture(t, nil, nil)
	f.login(t, "T1", "R1")

	resp, err := f.api.Do(context.Background(), other.URL+"/media/plan.pdf")
	require.NoError(t, err)
	require.Equal(t, "pdf", resp.Text)
}

func TestCallerHeadersAndQuery(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /files/upload", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "text/csv", r.Header.Get("Content-Type"))
		require.Equal(t, "12", r.URL.Query().Get("object"))
		require.Equal(t, []string{"a", "b"}, r.URL.Query()["tag"])
		w.WriteHeader(http.StatusNoContent)
	})
	f := setupTestFixture(t, mux, nil)

	resp, err := f.api.Do(context.Background(), "files/upload",
		backend.WithMethod("post"),
		backend.WithHeader("Content-Type", "text/csv"),
		backend.WithQuery("object", "12"),
		backend.WithQuery("tag", "a", "b"),
		backend.WithBody("a,b\n1,2\n"),
	)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.Status)
}

func TestTransportFailurePropagates(t *testing.T) {
	f := setupTestFixture(t, nil, nil)
	url := f.notify.URL
	f.notify.Close()

	_, err := f.notices.Do(context.Background(), url+"/notifications")
	require.ErrorIs(t, err, ierrors.ErrTransport)
	var apiErr *backend.Error
	require.False(t, errors.As(err, &apiErr))
}

func TestInvalidJSONBodyIsAnError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /broken", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{oops"))
	})
	f := setupTestFixture(t, mux, nil)

	_, err := f.api.Do(context.Background(), "/broken")
	require.Error(t, err)
}

func TestUnencodableBodyFailsBeforeSending(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })
	f := setupTestFixture(t, mux, nil)

	_, err := f.api.Do(context.Background(), "/objects", backend.WithMethod(http.MethodPost), backend.WithBody(make(chan int)))
	require.Error(t, err)
	require.Zero(t, hits.Load())
}

func TestUnauthorizedOnOneBackendDoesNotTouchAnother(t *testing.T) {
	coreMux := http.NewServeMux()
	coreMux.HandleFunc("GET /objects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []string{"a"})
	})
	notifyMux := http.NewServeMux()
	notifyMux.HandleFunc("GET /notifications", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	f := setupTestFixture(t, coreMux, notifyMux)
	f.refreshHandler = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}
	f.login(t, "T1", "R1")

	_, err := f.notices.Do(context.Background(), "/notifications")
	require.True(t, backend.IsStatus(err, http.StatusUnauthorized))

	var objects []string
	require.NoError(t, f.api.Get(context.Background(), "/objects", &objects))
	require.Equal(t, []string{"a"}, objects)
}

func TestConcurrentUnauthorizedRequestsShareOneRefresh(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /notifications", func(w http.ResponseWriter, r *http.Request) {
		if !bearerIs(r, "T2") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, []string{})
	})

	f := setupTestFixture(t, nil, mux)
	f.refreshHandler = func(w http.ResponseWriter, r *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, map[string]string{"access": "T2"})
	}
	f.login(t, "T1", "R1")

	const callers = 5
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.notices.Do(context.Background(), "/notifications")
			errs <- err
		}()
	}

	// Release only once every caller has joined the single in-flight refresh.
	require.Eventually(t, func() bool { return f.coord.Waiting() == callers }, testTimeout, testTick)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, f.refreshCalls.Load())
	require.EqualValues(t, 1, f.coord.Calls())
}
