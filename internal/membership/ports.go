package membership

import (
	"context"

	"quizontal-backend/internal/models"
)

// CollectionStore persists collection records
type CollectionStore interface {
	Create(ctx context.Context, c *models.Collection) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Collection, error)
	UpdateStats(ctx context.Context, id string, itemCount int, previews []string) error
	UpdateDetails(ctx context.Context, id, name, description string, visibility models.Visibility) error
	Delete(ctx context.Context, id string) error
}

// MembershipStore persists (collection, media) relations
type MembershipStore interface {
	Create(ctx context.Context, m *models.Membership) error
	ListByCollection(ctx context.Context, collectionID string) ([]*models.Membership, error)
	ListByCollections(ctx context.Context, collectionIDs ...string) ([]*models.Membership, error)
	Find(ctx context.Context, collectionID, mediaID string) ([]*models.Membership, error)
	Delete(ctx context.Context, id string) error
}

// FavoriteStore persists (user, media) favorites
type FavoriteStore interface {
	Create(ctx context.Context, f *models.Favorite) error
	ListByUser(ctx context.Context, userID string) ([]*models.Favorite, error)
	Find(ctx context.Context, userID, mediaID string) ([]*models.Favorite, error)
	Delete(ctx context.Context, id string) error
}

// DownloadStore appends download audit records
type DownloadStore interface {
	Create(ctx context.Context, d *models.Download) error
}

// Stores groups the store dependencies of a session
type Stores struct {
	Collections CollectionStore
	Memberships MembershipStore
	Favorites   FavoriteStore
	Downloads   DownloadStore
}
