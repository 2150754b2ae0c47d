package sessions

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ExpiredMarker is the text a backend puts in a 403 body to end the session.
const ExpiredMarker = "Token expired"

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Clearer wipes every persisted credential.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Guard inspects failed responses for the server-side "token expired" signal
// and ends the session when it sees one.
type Guard struct {
	store      Clearer
	loginRoute string
	logger     zerolog.Logger

	mu          sync.Mutex
	subscribers map[int]func(Termination)
	nextID      int
	done        chan struct{}
	last        *Termination
}

// NewGuard creates a guard that clears store and points subscribers at
// loginRoute when a session ends.
func NewGuard(store Clearer, loginRoute string) *Guard {
	return &Guard{
		store:       store,
		loginRoute:  loginRoute,
		logger:      log.Logger,
		subscribers: make(map[int]func(Termination)),
		done:        make(chan struct{}),
	}
}

func (g *Guard) SetLogger(l zerolog.Logger) {
	g.logger = l
}

// DetectExpiry reports whether a response is the expiry signal: status 403
// and a JSON detail containing ExpiredMarker or, for a body that is not
// JSON, raw text containing it.
func DetectExpiry(status int, body string) (string, bool) {
	if status != http.StatusForbidden {
		return "", false
	}

	var parsed any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		if strings.Contains(body, ExpiredMarker) {
			return strings.TrimSpace(body), true
		}
		return "", false
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return "", false
	}
	detail, ok := obj["detail"].(string)
	if !ok || !strings.Contains(detail, ExpiredMarker) {
		return "", false
	}
	return detail, true
}

// Inspect is called for every non-OK response. It returns nil when the
// response is an ordinary error, and an *ExpiredError after clearing the
// credential store and notifying subscribers when the session has ended.
func (g *Guard) Inspect(ctx context.Context, status int, body string) error {
	detail, expired := DetectExpiry(status, body)
	if !expired {
		return nil
	}

	term := Termination{
		Status:     status,
		Detail:     detail,
		LoginRoute: g.loginRoute,
		At:         NowTimeFunc(),
	}

	// Clearing must not depend on the caller's deadline.
	if err := g.store.Clear(context.WithoutCancel(ctx)); err != nil {
		g.logger.Err(err).Msg("Failed to clear credentials after session expiry")
	}
	g.logger.Warn().Str("detail", detail).Str("redirect", g.loginRoute).Msg("Session expired, forcing logout")

	g.terminate(term)
	return &ExpiredError{Termination: term}
}

func (g *Guard) terminate(term Termination) {
	g.mu.Lock()
	g.last = &term
	select {
	case <-g.done:
	default:
		close(g.done)
	}
	subs := make([]func(Termination), 0, len(g.subscribers))
	for _, fn := range g.subscribers {
		subs = append(subs, fn)
	}
	g.mu.Unlock()

	for _, fn := range subs {
		fn(term)
	}
}

// Subscribe registers fn to be called on every forced termination. The
// returned function removes the subscription.
func (g *Guard) Subscribe(fn func(Termination)) func() {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID
	g.nextID++
	g.subscribers[id] = fn
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subscribers, id)
	}
}

// Done returns a channel closed when the current session is terminated.
func (g *Guard) Done() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.done
}

// Last returns the most recent termination, if any.
func (g *Guard) Last() (Termination, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.last == nil {
		return Termination{}, false
	}
	return *g.last, true
}

// Rearm starts watching a new session after a successful login.
func (g *Guard) Rearm() {
	g.mu.Lock()
	defer g.mu.Unlock()

	select {
	case <-g.done:
		g.done = make(chan struct{})
	default:
	}
	g.last = nil
}
