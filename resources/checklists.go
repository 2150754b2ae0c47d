package resources

import (
	"context"
	"net/http"

	"github.com/storkych/ccj-frontend-sub000/backend"
)

const checklistsPath = "/checklists"

type ChecklistAnswer struct {
	QuestionID int64  `json:"question_id"`
	Value      string `json:"value"`
	Comment    string `json:"comment,omitempty"`
}

type Checklist struct {
	ID       int64             `json:"id,omitempty"`
	ObjectID int64             `json:"object_id"`
	Kind     string            `json:"kind,omitempty"`
	Status   string            `json:"status,omitempty"`
	Answers  []ChecklistAnswer `json:"answers,omitempty"`
}

func (c *Catalog) ListChecklists(ctx context.Context, q ListQuery) ([]Checklist, error) {
	return list[Checklist](ctx, c, backend.TagAPI, checklistsPath, q)
}

func (c *Catalog) GetChecklist(ctx context.Context, id int64) (*Checklist, error) {
	return get[Checklist](ctx, c, backend.TagAPI, itemPath(checklistsPath, id))
}

func (c *Catalog) SubmitChecklist(ctx context.Context, id int64, answers []ChecklistAnswer) (*Checklist, error) {
	body := map[string]any{"answers": answers}
	return call[*Checklist](ctx, c, backend.TagAPI, http.MethodPost, itemPath(checklistsPath, id, "submit"), body)
}
