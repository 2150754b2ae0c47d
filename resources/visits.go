package resources

import (
	"context"
	"net/http"

	"github.com/storkych/ccj-frontend-sub000/backend"
)

const visitsPath = "/visits"

type Visit struct {
	ID        int64  `json:"id,omitempty"`
	ObjectID  int64  `json:"object_id"`
	UserID    string `json:"user_id,omitempty"`
	StartedAt string `json:"started_at,omitempty"`
	EndedAt   string `json:"ended_at,omitempty"`
}

// QRSession is a short-lived code the inspector scans on site to prove
// presence.
type QRSession struct {
	Token     string `json:"token"`
	ObjectID  int64  `json:"object_id"`
	ExpiresAt string `json:"expires_at,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
}

func (c *Catalog) ListVisits(ctx context.Context, q ListQuery) ([]Visit, error) {
	return list[Visit](ctx, c, backend.TagVisits, visitsPath, q)
}

func (c *Catalog) CreateVisit(ctx context.Context, v Visit) (*Visit, error) {
	return call[*Visit](ctx, c, backend.TagVisits, http.MethodPost, visitsPath, v)
}

func (c *Catalog) StartQRSession(ctx context.Context, objectID int64) (*QRSession, error) {
	return call[*QRSession](ctx, c, backend.TagVisits, http.MethodPost, "/qr/sessions", map[string]int64{"object_id": objectID})
}
