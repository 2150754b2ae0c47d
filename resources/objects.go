package resources

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/storkych/ccj-frontend-sub000/backend"
)

const objectsPath = "/objects"

// Object is a construction site under oversight. Geometry is kept opaque.
type Object struct {
	ID          int64           `json:"id,omitempty"`
	Name        string          `json:"name"`
	Address     string          `json:"address,omitempty"`
	Status      string          `json:"status,omitempty"`
	ForemanID   string          `json:"foreman_id,omitempty"`
	InspectorID string          `json:"inspector_id,omitempty"`
	Polygon     json.RawMessage `json:"polygon,omitempty"`
}

func (c *Catalog) ListObjects(ctx context.Context, q ListQuery) ([]Object, error) {
	return list[Object](ctx, c, backend.TagAPI, objectsPath, q)
}

func (c *Catalog) GetObject(ctx context.Context, id int64) (*Object, error) {
	return get[Object](ctx, c, backend.TagAPI, itemPath(objectsPath, id))
}

func (c *Catalog) CreateObject(ctx context.Context, obj Object) (*Object, error) {
	return call[*Object](ctx, c, backend.TagAPI, http.MethodPost, objectsPath, obj)
}

func (c *Catalog) UpdateObject(ctx context.Context, id int64, patch map[string]any) (*Object, error) {
	return call[*Object](ctx, c, backend.TagAPI, http.MethodPatch, itemPath(objectsPath, id), patch)
}

func (c *Catalog) DeleteObject(ctx context.Context, id int64) error {
	return remove(ctx, c, backend.TagAPI, itemPath(objectsPath, id))
}

// ActivateObject moves an object from planning to active construction.
func (c *Catalog) ActivateObject(ctx context.Context, id int64) (*Object, error) {
	return call[*Object](ctx, c, backend.TagAPI, http.MethodPost, itemPath(objectsPath, id, "activate"), map[string]any{})
}
