package repository

import (
	"context"
	"fmt"

	"quizontal-backend/internal/docstore"
	"quizontal-backend/internal/models"

	"github.com/samber/lo"
)

const membershipSchema = `{
	"type": "object",
	"required": ["collection_id", "owner_id", "media_id"],
	"properties": {
		"collection_id": {"type": "string", "minLength": 1},
		"owner_id": {"type": "string", "minLength": 1},
		"media_id": {"type": "string", "minLength": 1},
		"thumbnail_url": {"type": "string"},
		"media": {"type": "object"}
	}
}`

type membershipDoc struct {
	CollectionID string           `json:"collection_id"`
	OwnerID      string           `json:"owner_id"`
	MediaID      string           `json:"media_id"`
	ThumbnailURL string           `json:"thumbnail_url"`
	Media        models.MediaItem `json:"media"`
}

// MembershipRepository handles store operations for collection memberships
type MembershipRepository struct {
	docs *docstore.Collection[membershipDoc]
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(backend docstore.Backend) *MembershipRepository {
	return &MembershipRepository{
		docs: docstore.NewCollection[membershipDoc](backend, "memberships", docstore.WithSchema(membershipSchema)),
	}
}

// Create stores a membership and fills in its ID and creation time
func (r *MembershipRepository) Create(ctx context.Context, m *models.Membership) error {
	doc, err := r.docs.Create(ctx, membershipDoc{
		CollectionID: m.CollectionID,
		OwnerID:      m.OwnerID,
		MediaID:      m.MediaID,
		ThumbnailURL: m.ThumbnailURL,
		Media:        m.Media,
	})
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}
	m.ID = doc.ID
	m.CreatedAt = doc.CreatedAt
	return nil
}

// ListByCollection returns the members of a collection in insertion order
func (r *MembershipRepository) ListByCollection(ctx context.Context, collectionID string) ([]*models.Membership, error) {
	return r.query(ctx, docstore.Eq("collection_id", collectionID))
}

// ListByCollections returns the members of several collections in insertion order
func (r *MembershipRepository) ListByCollections(ctx context.Context, collectionIDs ...string) ([]*models.Membership, error) {
	if len(collectionIDs) == 0 {
		return nil, nil
	}
	return r.query(ctx, docstore.In("collection_id", collectionIDs...))
}

// Find returns every membership record for the (collection, media) pair
func (r *MembershipRepository) Find(ctx context.Context, collectionID, mediaID string) ([]*models.Membership, error) {
	return r.query(ctx, docstore.Eq("collection_id", collectionID), docstore.Eq("media_id", mediaID))
}

// ListAll returns every membership in the store
func (r *MembershipRepository) ListAll(ctx context.Context) ([]*models.Membership, error) {
	return r.query(ctx)
}

// Delete removes a membership document
func (r *MembershipRepository) Delete(ctx context.Context, id string) error {
	if err := r.docs.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete membership: %w", err)
	}
	return nil
}

func (r *MembershipRepository) query(ctx context.Context, preds ...docstore.Predicate) ([]*models.Membership, error) {
	docs, err := r.docs.Query(ctx, preds...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	return lo.Map(docs, func(d docstore.Document[membershipDoc], _ int) *models.Membership {
		return &models.Membership{
			ID:           d.ID,
			CollectionID: d.Data.CollectionID,
			OwnerID:      d.Data.OwnerID,
			MediaID:      d.Data.MediaID,
			ThumbnailURL: d.Data.ThumbnailURL,
			Media:        d.Data.Media,
			CreatedAt:    d.CreatedAt,
		}
	}), nil
}
