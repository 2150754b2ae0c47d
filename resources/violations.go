package resources

import (
	"context"
	"net/http"

	"github.com/storkych/ccj-frontend-sub000/backend"
)

const violationsPath = "/violations"

type Violation struct {
	ID          int64    `json:"id,omitempty"`
	ObjectID    int64    `json:"object_id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Status      string   `json:"status,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	Photos      []string `json:"photos,omitempty"`
}

func (c *Catalog) ListViolations(ctx context.Context, q ListQuery) ([]Violation, error) {
	return list[Violation](ctx, c, backend.TagAPI, violationsPath, q)
}

func (c *Catalog) GetViolation(ctx context.Context, id int64) (*Violation, error) {
	return get[Violation](ctx, c, backend.TagAPI, itemPath(violationsPath, id))
}

func (c *Catalog) CreateViolation(ctx context.Context, v Violation) (*Violation, error) {
	return call[*Violation](ctx, c, backend.TagAPI, http.MethodPost, violationsPath, v)
}

// SetViolationStatus moves a violation through its review workflow.
func (c *Catalog) SetViolationStatus(ctx context.Context, id int64, status, comment string) (*Violation, error) {
	body := map[string]string{"status": status, "comment": comment}
	return call[*Violation](ctx, c, backend.TagAPI, http.MethodPost, itemPath(violationsPath, id, "status"), body)
}
