package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/storkych/ccj-frontend-sub000/credentials"
	ierrors "github.com/storkych/ccj-frontend-sub000/internal/errors"
	"github.com/storkych/ccj-frontend-sub000/token/refresh"
)

const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerRequestID     = "X-Request-ID"
	contentTypeJSON     = "application/json"

	maxLoggedBody = 512
)

// TokenStore is the part of the credential store a client needs.
type TokenStore interface {
	Load(ctx context.Context) credentials.TokenPair
	Rotate(ctx context.Context, presented, access, newRefresh string) (credentials.TokenPair, error)
}

// Refresher exchanges a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*refresh.Result, error)
}

// Inspector looks at failed responses and returns a non-nil error when the
// session has to end.
type Inspector interface {
	Inspect(ctx context.Context, status int, body string) error
}

// HTTPDoer issues HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	_ TokenStore = (*credentials.Store)(nil)
	_ Refresher  = (*refresh.Coordinator)(nil)
)

// Client issues requests against one backend. Every client of a process
// shares the same token store, refresher and guard.
type Client struct {
	endpoint   Endpoint
	httpClient HTTPDoer
	store      TokenStore
	refresher  Refresher
	guard      Inspector
	logger     zerolog.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(h HTTPDoer) ClientOption {
	return func(c *Client) {
		c.httpClient = h
	}
}

func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client for endpoint.
func NewClient(endpoint Endpoint, store TokenStore, refresher Refresher, guard Inspector, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
		store:      store,
		refresher:  refresher,
		guard:      guard,
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("backend", endpoint.Tag.String()).Logger()
	return c
}

func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Do performs one logical request. A 401 is answered by at most one token
// refresh and one retry. A non-OK response returns either the session guard's
// terminal error or an *Error; transport failures are returned wrapped.
func (c *Client) Do(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Send(ctx, NewRequest(path, opts...))
}

// DoJSON performs a request and decodes the JSON response body into out.
func (c *Client) DoJSON(ctx context.Context, path string, out any, opts ...RequestOption) error {
	resp, err := c.Do(ctx, path, opts...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.DoJSON(ctx, path, out, append([]RequestOption{WithMethod(http.MethodGet)}, opts...)...)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.DoJSON(ctx, path, out, append([]RequestOption{WithMethod(http.MethodPost), WithBody(body)}, opts...)...)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.DoJSON(ctx, path, out, append([]RequestOption{WithMethod(http.MethodPut), WithBody(body)}, opts...)...)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.DoJSON(ctx, path, out, append([]RequestOption{WithMethod(http.MethodPatch), WithBody(body)}, opts...)...)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) error {
	return c.DoJSON(ctx, path, nil, append([]RequestOption{WithMethod(http.MethodDelete)}, opts...)...)
}

// Send performs a prepared request.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	res, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}

	if res.status == http.StatusUnauthorized && req.RetryAllowed {
		retried, ok, err := c.refreshAndRetry(ctx, req)
		if err != nil {
			return nil, err
		}
		if ok {
			return retried, nil
		}
	}

	if res.status < 200 || res.status > 299 {
		return nil, c.failure(ctx, res)
	}

	if res.readErr != nil {
		return nil, fmt.Errorf("%w: reading %s response: %w", ierrors.ErrTransport, c.endpoint.Tag, res.readErr)
	}
	return newResponse(res.status, res.header, res.body)
}

// refreshAndRetry returns ok=false when no refresh was possible and the
// original 401 should be reported.
func (c *Client) refreshAndRetry(ctx context.Context, req *Request) (*Response, bool, error) {
	pair := c.store.Load(ctx)
	if !pair.HasRefresh() {
		return nil, false, nil
	}

	result, err := c.refresher.Refresh(ctx, pair.RefreshToken())
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		c.logger.Warn().Err(err).Str("path", req.Path).Msg("Token refresh failed, reporting original 401")
		return nil, false, nil
	}

	// The new pair must be persisted before the retry reads it.
	if _, err := c.store.Rotate(ctx, pair.RefreshToken(), result.Access, result.Refresh); err != nil {
		if ierrors.Is(err, ierrors.ErrSessionChanged) {
			c.logger.Warn().Str("path", req.Path).Msg("Session ended during refresh, reporting original 401")
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to store refreshed tokens: %w", err)
	}

	retry := req.clone()
	retry.RetryAllowed = false
	resp, err := c.Send(ctx, retry)
	return resp, true, err
}

func (c *Client) failure(ctx context.Context, res *rawResponse) error {
	text := string(res.body)
	if res.readErr != nil {
		text = syntheticBody(res.status)
	}
	if err := c.guard.Inspect(ctx, res.status, text); err != nil {
		return err
	}
	return newError(res.status, text)
}

type rawResponse struct {
	status  int
	header  http.Header
	body    []byte
	readErr error
}

func (c *Client) roundTrip(ctx context.Context, req *Request) (*rawResponse, error) {
	body, err := req.encodeBody()
	if err != nil {
		return nil, err
	}

	target := c.endpoint.Resolve(req.Path)
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", c.endpoint.Tag, err)
	}
	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	requestID := uuid.NewString()
	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerRequestID, requestID)
	if pair := c.store.Load(ctx); pair.HasAccess() {
		httpReq.Header.Set(headerAuthorization, "Bearer "+pair.AccessToken())
	}
	for k, vs := range req.Header {
		httpReq.Header[k] = append([]string(nil), vs...)
	}

	c.logRequest(httpReq, requestID, req, body)
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Err(err).Str("request_id", requestID).Str("url", httpReq.URL.String()).Msg("Request failed")
		return nil, fmt.Errorf("%w: %s %s: %w", ierrors.ErrTransport, req.Method, httpReq.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	out := &rawResponse{status: resp.StatusCode, header: resp.Header}
	out.body, out.readErr = io.ReadAll(resp.Body)

	c.logResponse(requestID, out, time.Since(start))
	return out, nil
}

// Audit logging never fails a request.
func (c *Client) logRequest(httpReq *http.Request, requestID string, req *Request, body []byte) {
	defer func() { _ = recover() }()
	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", httpReq.Method).
		Str("url", httpReq.URL.Redacted()).
		Bool("retry_allowed", req.RetryAllowed).
		Bool("authenticated", httpReq.Header.Get(headerAuthorization) != "").
		Str("body", preview(body)).
		Msg("Backend request")
}

func (c *Client) logResponse(requestID string, res *rawResponse, took time.Duration) {
	defer func() { _ = recover() }()
	ev := c.logger.Debug()
	if res.status >= 400 {
		ev = c.logger.Info()
	}
	ev.Str("request_id", requestID).
		Int("status", res.status).
		Dur("took", took).
		AnErr("read_error", res.readErr).
		Str("body", preview(res.body)).
		Msg("Backend response")
}

func preview(body []byte) string {
	if len(body) <= maxLoggedBody {
		return string(body)
	}
	return string(body[:maxLoggedBody]) + "..."
}
