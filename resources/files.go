package resources

import (
	"context"
	"net/http"

	"github.com/storkych/ccj-frontend-sub000/backend"
)

type ObjectFile struct {
	ID          int64  `json:"id,omitempty"`
	ObjectID    int64  `json:"object_id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	URL         string `json:"url,omitempty"`
}

func objectFilesPath(objectID int64) string {
	return itemPath(objectsPath, objectID, "files")
}

func (c *Catalog) ListObjectFiles(ctx context.Context, objectID int64) ([]ObjectFile, error) {
	return list[ObjectFile](ctx, c, backend.TagFiles, objectFilesPath(objectID), ListQuery{})
}

// RegisterObjectFile records file metadata; the returned URL is where the
// content is uploaded.
func (c *Catalog) RegisterObjectFile(ctx context.Context, f ObjectFile) (*ObjectFile, error) {
	return call[*ObjectFile](ctx, c, backend.TagFiles, http.MethodPost, objectFilesPath(f.ObjectID), f)
}

func (c *Catalog) DeleteObjectFile(ctx context.Context, objectID, fileID int64) error {
	return remove(ctx, c, backend.TagFiles, itemPath(objectFilesPath(objectID), fileID))
}
