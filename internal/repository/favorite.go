package repository

import (
	"context"
	"fmt"

	"quizontal-backend/internal/docstore"
	"quizontal-backend/internal/models"

	"github.com/samber/lo"
)

const favoriteSchema = `{
	"type": "object",
	"required": ["user_id", "media_id", "media"],
	"properties": {
		"user_id": {"type": "string", "minLength": 1},
		"media_id": {"type": "string", "minLength": 1},
		"media_type": {"type": "string"},
		"media": {"type": "object", "required": ["id"]}
	}
}`

type favoriteDoc struct {
	UserID    string           `json:"user_id"`
	MediaID   string           `json:"media_id"`
	MediaType models.MediaKind `json:"media_type"`
	Media     models.MediaItem `json:"media"`
}

// FavoriteRepository handles store operations for favorites
type FavoriteRepository struct {
	docs *docstore.Collection[favoriteDoc]
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(backend docstore.Backend) *FavoriteRepository {
	return &FavoriteRepository{
		docs: docstore.NewCollection[favoriteDoc](backend, "favorites", docstore.WithSchema(favoriteSchema)),
	}
}

// Create stores a favorite and fills in its ID and creation time
func (r *FavoriteRepository) Create(ctx context.Context, f *models.Favorite) error {
	doc, err := r.docs.Create(ctx, favoriteDoc{
		UserID:    f.UserID,
		MediaID:   f.MediaID,
		MediaType: f.MediaType,
		Media:     f.Media,
	})
	if err != nil {
		return fmt.Errorf("failed to create favorite: %w", err)
	}
	f.ID = doc.ID
	f.CreatedAt = doc.CreatedAt
	return nil
}

// ListByUser returns a user's favorites, oldest first
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]*models.Favorite, error) {
	return r.query(ctx, docstore.Eq("user_id", userID))
}

// Find returns every favorite record for the (user, media) pair
func (r *FavoriteRepository) Find(ctx context.Context, userID, mediaID string) ([]*models.Favorite, error) {
	return r.query(ctx, docstore.Eq("user_id", userID), docstore.Eq("media_id", mediaID))
}

// Delete removes a favorite document
func (r *FavoriteRepository) Delete(ctx context.Context, id string) error {
	if err := r.docs.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return nil
}

func (r *FavoriteRepository) query(ctx context.Context, preds ...docstore.Predicate) ([]*models.Favorite, error) {
	docs, err := r.docs.Query(ctx, preds...)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return lo.Map(docs, func(d docstore.Document[favoriteDoc], _ int) *models.Favorite {
		return &models.Favorite{
			ID:        d.ID,
			UserID:    d.Data.UserID,
			MediaID:   d.Data.MediaID,
			MediaType: d.Data.MediaType,
			Media:     d.Data.Media,
			CreatedAt: d.CreatedAt,
		}
	}), nil
}
