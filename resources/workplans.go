package resources

import (
	"context"
	"net/http"

	"github.com/storkych/ccj-frontend-sub000/backend"
)

const workPlansPath = "/work-plans"

type WorkItem struct {
	ID        int64   `json:"id,omitempty"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity,omitempty"`
	Unit      string  `json:"unit,omitempty"`
	StartDate string  `json:"start_date,omitempty"`
	EndDate   string  `json:"end_date,omitempty"`
}

type WorkPlan struct {
	ID       int64      `json:"id,omitempty"`
	ObjectID int64      `json:"object_id"`
	Title    string     `json:"title,omitempty"`
	Version  int        `json:"version,omitempty"`
	Items    []WorkItem `json:"items,omitempty"`
}

func (c *Catalog) ListWorkPlans(ctx context.Context, objectID int64) ([]WorkPlan, error) {
	q := ListQuery{Filters: map[string]string{"object_id": itoa(objectID)}}
	return list[WorkPlan](ctx, c, backend.TagAPI, workPlansPath, q)
}

func (c *Catalog) GetWorkPlan(ctx context.Context, id int64) (*WorkPlan, error) {
	return get[WorkPlan](ctx, c, backend.TagAPI, itemPath(workPlansPath, id))
}

func (c *Catalog) CreateWorkPlan(ctx context.Context, plan WorkPlan) (*WorkPlan, error) {
	return call[*WorkPlan](ctx, c, backend.TagAPI, http.MethodPost, workPlansPath, plan)
}

// ProposeWorkPlanChange submits a new version of the plan for approval.
func (c *Catalog) ProposeWorkPlanChange(ctx context.Context, id int64, items []WorkItem, comment string) (*WorkPlan, error) {
	body := map[string]any{"items": items, "comment": comment}
	return call[*WorkPlan](ctx, c, backend.TagAPI, http.MethodPost, itemPath(workPlansPath, id, "versions"), body)
}
