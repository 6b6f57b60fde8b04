package repository

import (
	"context"
	"fmt"

	"quizontal-backend/internal/docstore"
	"quizontal-backend/internal/models"
)

const downloadSchema = `{
	"type": "object",
	"required": ["user_id", "media_id"],
	"properties": {
		"user_id": {"type": "string", "minLength": 1},
		"media_id": {"type": "string", "minLength": 1}
	}
}`

type downloadDoc struct {
	UserID    string           `json:"user_id"`
	MediaID   string           `json:"media_id"`
	MediaType models.MediaKind `json:"media_type"`
	Media     models.MediaItem `json:"media"`
}

// DownloadRepository appends download audit records
type DownloadRepository struct {
	docs *docstore.Collection[downloadDoc]
}

// NewDownloadRepository creates a new download repository
func NewDownloadRepository(backend docstore.Backend) *DownloadRepository {
	return &DownloadRepository{
		docs: docstore.NewCollection[downloadDoc](backend, "downloads", docstore.WithSchema(downloadSchema)),
	}
}

// Create appends a download record
func (r *DownloadRepository) Create(ctx context.Context, d *models.Download) error {
	doc, err := r.docs.Create(ctx, downloadDoc{
		UserID:    d.UserID,
		MediaID:   d.MediaID,
		MediaType: d.MediaType,
		Media:     d.Media,
	})
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	d.ID = doc.ID
	d.CreatedAt = doc.CreatedAt
	return nil
}
