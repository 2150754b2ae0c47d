package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Request describes one logical call against a backend. RetryAllowed starts
// true and is cleared on the single retry that follows a token refresh.
type Request struct {
	Path         string
	Method       string
	Header       http.Header
	Query        url.Values
	Body         any
	RetryAllowed bool
}

// RequestOption customises a Request.
type RequestOption func(*Request)

func NewRequest(path string, opts ...RequestOption) *Request {
	r := &Request{
		Path:         path,
		Method:       http.MethodGet,
		Header:       make(http.Header),
		RetryAllowed: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func WithMethod(method string) RequestOption {
	return func(r *Request) {
		r.Method = strings.ToUpper(method)
	}
}

// WithHeader sets a request header. Caller headers win over the defaults,
// including Content-Type.
func WithHeader(key, value string) RequestOption {
	return func(r *Request) {
		r.Header.Set(key, value)
	}
}

// WithBody sets the request body. []byte and string are sent as is, anything
// else is JSON encoded.
func WithBody(body any) RequestOption {
	return func(r *Request) {
		r.Body = body
	}
}

func WithQuery(key string, values ...string) RequestOption {
	return func(r *Request) {
		if r.Query == nil {
			r.Query = make(url.Values)
		}
		for _, v := range values {
			r.Query.Add(key, v)
		}
	}
}

// WithoutRetry disables the refresh-and-retry on 401.
func WithoutRetry() RequestOption {
	return func(r *Request) {
		r.RetryAllowed = false
	}
}

func (r *Request) clone() *Request {
	c := *r
	c.Header = r.Header.Clone()
	if r.Query != nil {
		c.Query = make(url.Values, len(r.Query))
		for k, v := range r.Query {
			c.Query[k] = append([]string(nil), v...)
		}
	}
	return &c
}

func (r *Request) encodeBody() ([]byte, error) {
	switch b := r.Body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	case json.RawMessage:
		return b, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		return data, nil
	}
}
