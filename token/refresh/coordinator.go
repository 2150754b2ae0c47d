package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/storkych/ccj-frontend-sub000/internal/errors"
	"github.com/storkych/ccj-frontend-sub000/internal/utils"
	"golang.org/x/sync/singleflight"
)

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result is a successfully refreshed credential. Refresh is empty when the
// backend did not rotate the refresh token.
type Result struct {
	Access  string
	Refresh string
}

// Coordinator exchanges refresh tokens for new access tokens against the
// core backend. Its own requests are never authenticated and never retried.
type Coordinator struct {
	url        string
	httpClient Doer
	group      *singleflight.Group
	logger     zerolog.Logger
	calls      atomic.Int64
	waiting    atomic.Int64
}

type Option func(*Coordinator)

// WithoutSingleFlight makes every caller issue its own refresh call, even
// when several callers present the same refresh token at once.
func WithoutSingleFlight() Option {
	return func(c *Coordinator) {
		c.group = nil
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// NewCoordinator creates a coordinator for the core backend at coreBaseURL.
func NewCoordinator(coreBaseURL string, httpClient Doer, opts ...Option) *Coordinator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Coordinator{
		url:        strings.TrimRight(coreBaseURL, "/") + Path,
		httpClient: httpClient,
		group:      &singleflight.Group{},
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calls returns the number of refresh requests actually sent.
func (c *Coordinator) Calls() int64 {
	return c.calls.Load()
}

// Waiting returns the number of callers currently waiting on a shared
// refresh call.
func (c *Coordinator) Waiting() int64 {
	return c.waiting.Load()
}

// Refresh exchanges refreshToken for a new access token. Concurrent calls
// presenting the same refresh token share one request unless single-flight
// is disabled. A non-OK response yields an error matching ErrRefreshFailed.
func (c *Coordinator) Refresh(ctx context.Context, refreshToken string) (*Result, error) {
	if refreshToken == "" {
		return nil, errors.ErrNoRefreshToken
	}
	if c.group == nil {
		return c.exchange(ctx, refreshToken)
	}

	// The shared call must outlive any single waiter's cancellation.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(refreshToken, func() (any, error) {
		return c.exchange(shared, refreshToken)
	})
	c.waiting.Add(1)
	defer c.waiting.Add(-1)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug().Msg("joined in-flight token refresh")
		}
		return res.Val.(*Result), nil
	}
}

func (c *Coordinator) exchange(ctx context.Context, refreshToken string) (*Result, error) {
	body, err := json.Marshal(Request{Refresh: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.calls.Add(1)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Warn().Int("status", resp.StatusCode).Msg("Token refresh rejected")
		return nil, fmt.Errorf("%w: HTTP %d", errors.ErrRefreshFailed, resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: invalid response body: %w", errors.ErrRefreshFailed, err)
	}
	if utils.Value(out.Access) == "" {
		return nil, fmt.Errorf("%w: response carries no access token", errors.ErrRefreshFailed)
	}

	c.logger.Debug().Bool("rotated", utils.Value(out.Refresh) != "").Msg("Access token refreshed")
	return &Result{
		Access:  utils.Value(out.Access),
		Refresh: utils.Value(out.Refresh),
	}, nil
}
