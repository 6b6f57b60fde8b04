package repository

import (
	"context"
	"fmt"

	"quizontal-backend/internal/docstore"
	"quizontal-backend/internal/models"

	"github.com/samber/lo"
)

const collectionSchema = `{
	"type": "object",
	"required": ["owner_id", "name", "visibility", "item_count", "preview_images"],
	"properties": {
		"owner_id": {"type": "string", "minLength": 1},
		"name": {"type": "string", "minLength": 1},
		"description": {"type": "string"},
		"visibility": {"enum": ["public", "private"]},
		"item_count": {"type": "integer", "minimum": 0},
		"preview_images": {"type": "array", "items": {"type": "string"}, "maxItems": 3}
	}
}`

type collectionDoc struct {
	OwnerID       string            `json:"owner_id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Visibility    models.Visibility `json:"visibility"`
	ItemCount     int               `json:"item_count"`
	PreviewImages []string          `json:"preview_images"`
}

// CollectionRepository handles store operations for collections
type CollectionRepository struct {
	docs *docstore.Collection[collectionDoc]
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(backend docstore.Backend) *CollectionRepository {
	return &CollectionRepository{
		docs: docstore.NewCollection[collectionDoc](backend, "collections", docstore.WithSchema(collectionSchema)),
	}
}

// Create stores a new collection and fills in its ID and creation time
func (r *CollectionRepository) Create(ctx context.Context, c *models.Collection) error {
	doc, err := r.docs.Create(ctx, collectionDoc{
		OwnerID:       c.OwnerID,
		Name:          c.Name,
		Description:   c.Description,
		Visibility:    c.Visibility,
		ItemCount:     c.ItemCount,
		PreviewImages: nonNil(c.PreviewImages),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	c.ID = doc.ID
	c.CreatedAt = doc.CreatedAt
	return nil
}

// GetByID retrieves a collection by ID
func (r *CollectionRepository) GetByID(ctx context.Context, id string) (*models.Collection, error) {
	doc, err := r.docs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return toCollection(doc), nil
}

// ListByOwner returns the collections owned by ownerID, oldest first
func (r *CollectionRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Collection, error) {
	docs, err := r.docs.Query(ctx, docstore.Eq("owner_id", ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return lo.Map(docs, func(d docstore.Document[collectionDoc], _ int) *models.Collection {
		return toCollection(d)
	}), nil
}

// ListAll returns every collection in the store
func (r *CollectionRepository) ListAll(ctx context.Context) ([]*models.Collection, error) {
	docs, err := r.docs.Query(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return lo.Map(docs, func(d docstore.Document[collectionDoc], _ int) *models.Collection {
		return toCollection(d)
	}), nil
}

// UpdateStats writes the derived item count and preview list
func (r *CollectionRepository) UpdateStats(ctx context.Context, id string, itemCount int, previews []string) error {
	err := r.docs.Update(ctx, id, map[string]any{
		"item_count":     itemCount,
		"preview_images": nonNil(previews),
	})
	if err != nil {
		return fmt.Errorf("failed to update collection stats: %w", err)
	}
	return nil
}

// UpdateDetails writes the user-editable fields
func (r *CollectionRepository) UpdateDetails(ctx context.Context, id, name, description string, visibility models.Visibility) error {
	err := r.docs.Update(ctx, id, map[string]any{
		"name":        name,
		"description": description,
		"visibility":  visibility,
	})
	if err != nil {
		return fmt.Errorf("failed to update collection: %w", err)
	}
	return nil
}

// Delete removes a collection document. Its memberships are left alone.
func (r *CollectionRepository) Delete(ctx context.Context, id string) error {
	if err := r.docs.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

func toCollection(d docstore.Document[collectionDoc]) *models.Collection {
	return &models.Collection{
		ID:            d.ID,
		OwnerID:       d.Data.OwnerID,
		Name:          d.Data.Name,
		Description:   d.Data.Description,
		Visibility:    d.Data.Visibility,
		ItemCount:     d.Data.ItemCount,
		PreviewImages: nonNil(d.Data.PreviewImages),
		CreatedAt:     d.CreatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
