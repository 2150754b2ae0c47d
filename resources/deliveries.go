package resources

import (
	"context"
	"net/http"

	"github.com/storkych/ccj-frontend-sub000/backend"
)

const deliveriesPath = "/deliveries"

type Delivery struct {
	ID          int64  `json:"id,omitempty"`
	ObjectID    int64  `json:"object_id"`
	Supplier    string `json:"supplier,omitempty"`
	Material    string `json:"material,omitempty"`
	Status      string `json:"status,omitempty"`
	PlannedDate string `json:"planned_date,omitempty"`
}

func (c *Catalog) ListDeliveries(ctx context.Context, q ListQuery) ([]Delivery, error) {
	return list[Delivery](ctx, c, backend.TagAPI, deliveriesPath, q)
}

func (c *Catalog) GetDelivery(ctx context.Context, id int64) (*Delivery, error) {
	return get[Delivery](ctx, c, backend.TagAPI, itemPath(deliveriesPath, id))
}

func (c *Catalog) CreateDelivery(ctx context.Context, d Delivery) (*Delivery, error) {
	return call[*Delivery](ctx, c, backend.TagAPI, http.MethodPost, deliveriesPath, d)
}

// AcceptDelivery records the on-site acceptance of a delivery.
func (c *Catalog) AcceptDelivery(ctx context.Context, id int64, comment string) (*Delivery, error) {
	return call[*Delivery](ctx, c, backend.TagAPI, http.MethodPost, itemPath(deliveriesPath, id, "accept"), map[string]string{"comment": comment})
}
