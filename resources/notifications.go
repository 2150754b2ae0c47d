package resources

import (
	"context"
	"net/http"

	"github.com/storkych/ccj-frontend-sub000/backend"
)

const notificationsPath = "/notifications"

type Notification struct {
	ID        int64  `json:"id"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at,omitempty"`
}

func (c *Catalog) ListNotifications(ctx context.Context, q ListQuery) ([]Notification, error) {
	return list[Notification](ctx, c, backend.TagNotifications, notificationsPath, q)
}

func (c *Catalog) MarkNotificationRead(ctx context.Context, id int64) error {
	_, err := call[struct{}](ctx, c, backend.TagNotifications, http.MethodPost, itemPath(notificationsPath, id, "read"), map[string]any{})
	return err
}
