// Package resources is the typed catalogue of backend operations used by the
// dashboard. Every function maps to exactly one backend call.
package resources

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/storkych/ccj-frontend-sub000/backend"
)

// Clients is satisfied by *backend.Set.
type Clients interface {
	Client(tag backend.Tag) (*backend.Client, error)
}

// Catalog groups the operations of every backend.
type Catalog struct {
	clients Clients
}

func New(clients Clients) *Catalog {
	return &Catalog{clients: clients}
}

// ListQuery holds the common paging and filtering parameters.
type ListQuery struct {
	Page     int
	PageSize int
	Search   string
	Filters  map[string]string
}

func (q ListQuery) options() []backend.RequestOption {
	var opts []backend.RequestOption
	if q.Page > 0 {
		opts = append(opts, backend.WithQuery("page", strconv.Itoa(q.Page)))
	}
	if q.PageSize > 0 {
		opts = append(opts, backend.WithQuery("page_size", strconv.Itoa(q.PageSize)))
	}
	if q.Search != "" {
		opts = append(opts, backend.WithQuery("search", q.Search))
	}
	for k, v := range q.Filters {
		opts = append(opts, backend.WithQuery(k, v))
	}
	return opts
}

func call[T any](ctx context.Context, c *Catalog, tag backend.Tag, method, path string, body any, opts ...backend.RequestOption) (T, error) {
	var out T
	client, err := c.clients.Client(tag)
	if err != nil {
		return out, err
	}
	opts = append([]backend.RequestOption{backend.WithMethod(method)}, opts...)
	if body != nil {
		opts = append(opts, backend.WithBody(body))
	}
	if err := client.DoJSON(ctx, path, &out, opts...); err != nil {
		return out, err
	}
	return out, nil
}

func list[T any](ctx context.Context, c *Catalog, tag backend.Tag, path string, q ListQuery) ([]T, error) {
	return call[[]T](ctx, c, tag, http.MethodGet, path, nil, q.options()...)
}

func get[T any](ctx context.Context, c *Catalog, tag backend.Tag, path string) (*T, error) {
	return call[*T](ctx, c, tag, http.MethodGet, path, nil)
}

func remove(ctx context.Context, c *Catalog, tag backend.Tag, path string) error {
	client, err := c.clients.Client(tag)
	if err != nil {
		return err
	}
	return client.Delete(ctx, path)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func itemPath(collection string, id int64, sub ...string) string {
	p := fmt.Sprintf("%s/%d", collection, id)
	for _, s := range sub {
		p += "/" + s
	}
	return p
}
