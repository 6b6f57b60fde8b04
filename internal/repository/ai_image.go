package repository

import (
	"context"
	"fmt"

	"quizontal-backend/internal/docstore"
	"quizontal-backend/internal/models"

	"github.com/samber/lo"
)

type aiImageDoc struct {
	UserID    string `json:"user_id"`
	Prompt    string `json:"prompt"`
	ImageURL  string `json:"image_url"`
	ObjectKey string `json:"object_key"`
}

// AIImageRepository handles store operations for generated images
type AIImageRepository struct {
	docs *docstore.Collection[aiImageDoc]
}

// NewAIImageRepository creates a new AI image repository
func NewAIImageRepository(backend docstore.Backend) *AIImageRepository {
	return &AIImageRepository{
		docs: docstore.NewCollection[aiImageDoc](backend, "ai_images"),
	}
}

// Create stores a generated image record
func (r *AIImageRepository) Create(ctx context.Context, img *models.AIImage) error {
	doc, err := r.docs.Create(ctx, aiImageDoc{
		UserID:    img.UserID,
		Prompt:    img.Prompt,
		ImageURL:  img.ImageURL,
		ObjectKey: img.ObjectKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create ai image: %w", err)
	}
	img.ID = doc.ID
	img.CreatedAt = doc.CreatedAt
	return nil
}

// ListByUser returns a user's generated images, newest first
func (r *AIImageRepository) ListByUser(ctx context.Context, userID string) ([]*models.AIImage, error) {
	docs, err := r.docs.Query(ctx, docstore.Eq("user_id", userID))
	if err != nil {
		return nil, fmt.Errorf("failed to list ai images: %w", err)
	}
	images := lo.Map(docs, func(d docstore.Document[aiImageDoc], _ int) *models.AIImage {
		return &models.AIImage{
			ID:        d.ID,
			UserID:    d.Data.UserID,
			Prompt:    d.Data.Prompt,
			ImageURL:  d.Data.ImageURL,
			ObjectKey: d.Data.ObjectKey,
			CreatedAt: d.CreatedAt,
		}
	})
	return lo.Reverse(images), nil
}
