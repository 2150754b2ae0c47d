package resources

import (
	"context"
	"net/http"

	"github.com/storkych/ccj-frontend-sub000/backend"
)

const ticketsPath = "/tickets"

type Ticket struct {
	ID      int64  `json:"id,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body,omitempty"`
	Status  string `json:"status,omitempty"`
}

func (c *Catalog) ListTickets(ctx context.Context, q ListQuery) ([]Ticket, error) {
	return list[Ticket](ctx, c, backend.TagTickets, ticketsPath, q)
}

func (c *Catalog) CreateTicket(ctx context.Context, t Ticket) (*Ticket, error) {
	return call[*Ticket](ctx, c, backend.TagTickets, http.MethodPost, ticketsPath, t)
}
