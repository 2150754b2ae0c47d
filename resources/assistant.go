package resources

import (
	"context"
	"net/http"

	"github.com/storkych/ccj-frontend-sub000/backend"
)

type AssistantAnswer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

// AskAssistant sends a free-form question, optionally scoped to an object.
func (c *Catalog) AskAssistant(ctx context.Context, question string, objectID int64) (*AssistantAnswer, error) {
	body := map[string]any{"question": question}
	if objectID != 0 {
		body["object_id"] = objectID
	}
	return call[*AssistantAnswer](ctx, c, backend.TagAI, http.MethodPost, "/ask", body)
}
