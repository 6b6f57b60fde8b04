package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quizontal-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// CollectionService manages the session user's collections. Every mutation
// writes to the store first and touches the cache only after the write is
// acknowledged.
type CollectionService struct {
	userID      string
	cache       *Cache
	collections CollectionStore
	memberships MembershipStore
}

// NewCollectionService creates a collection service bound to one session cache
func NewCollectionService(userID string, cache *Cache, stores Stores) *CollectionService {
	return &CollectionService{
		userID:      userID,
		cache:       cache,
		collections: stores.Collections,
		memberships: stores.Memberships,
	}
}

func validateDetails(name string, visibility models.Visibility) (string, models.Visibility, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if visibility == "" {
		visibility = models.VisibilityPublic
	}
	if !visibility.Valid() {
		return "", "", &ValidationError{Field: "visibility", Message: "must be public or private"}
	}
	return name, visibility, nil
}

// CreateCollection persists a new empty collection and then caches it
func (s *CollectionService) CreateCollection(ctx context.Context, name, description string, visibility models.Visibility) (*models.Collection, error) {
	name, visibility, err := validateDetails(name, visibility)
	if err != nil {
		return nil, err
	}

	col := &models.Collection{
		OwnerID:       s.userID,
		Name:          name,
		Description:   strings.TrimSpace(description),
		Visibility:    visibility,
		PreviewImages: []string{},
	}
	if err := s.collections.Create(ctx, col); err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	s.cache.insertCollection(*col)
	return col, nil
}

// UpdateCollection changes the name, description and visibility of a collection
func (s *CollectionService) UpdateCollection(ctx context.Context, collectionID, name, description string, visibility models.Visibility) (*models.Collection, error) {
	name, visibility, err := validateDetails(name, visibility)
	if err != nil {
		return nil, err
	}
	if _, _, ok := s.cache.lookup(collectionID); !ok {
		return nil, ErrNotFound
	}

	description = strings.TrimSpace(description)
	if err := s.collections.UpdateDetails(ctx, collectionID, name, description, visibility); err != nil {
		return nil, fmt.Errorf("failed to update collection: %w", err)
	}

	col, ok := s.cache.updateDetails(collectionID, name, description, visibility)
	if !ok {
		return nil, ErrNotFound
	}
	return col, nil
}

// AddToCollection makes item a member of the collection. Adding an existing
// member is a no-op.
func (s *CollectionService) AddToCollection(ctx context.Context, collectionID string, item models.MediaItem) error {
	if item.ID == "" {
		return &ValidationError{Field: "media.id", Message: "must not be empty"}
	}

	_, members, ok := s.cache.lookup(collectionID)
	if !ok {
		return ErrNotFound
	}
	if s.cache.isMember(collectionID, item.ID) {
		return nil
	}

	m := models.Membership{
		CollectionID: collectionID,
		OwnerID:      s.userID,
		MediaID:      item.ID,
		ThumbnailURL: item.Thumbnail(),
		Media:        item,
	}
	if err := s.memberships.Create(ctx, &m); err != nil {
		return fmt.Errorf("failed to add to collection: %w", err)
	}

	next := append(members, m)
	if err := s.collections.UpdateStats(ctx, collectionID, len(next), previewsOf(next)); err != nil {
		return fmt.Errorf("failed to update collection stats: %w", err)
	}

	s.cache.addMember(m)
	return nil
}

// RemoveFromCollection removes every membership record of the media item.
// Removing a non-member is a no-op.
func (s *CollectionService) RemoveFromCollection(ctx context.Context, collectionID, mediaID string) error {
	_, members, ok := s.cache.lookup(collectionID)
	if !ok {
		return ErrNotFound
	}
	if !s.cache.isMember(collectionID, mediaID) {
		return nil
	}

	records, err := s.memberships.Find(ctx, collectionID, mediaID)
	if err != nil {
		return fmt.Errorf("failed to find memberships: %w", err)
	}
	for _, r := range records {
		if err := s.memberships.Delete(ctx, r.ID); err != nil && !isGone(err) {
			return fmt.Errorf("failed to remove from collection: %w", err)
		}
	}

	var remaining []models.Membership
	for _, m := range members {
		if m.MediaID != mediaID {
			remaining = append(remaining, m)
		}
	}
	if err := s.collections.UpdateStats(ctx, collectionID, len(remaining), previewsOf(remaining)); err != nil {
		return fmt.Errorf("failed to update collection stats: %w", err)
	}

	s.cache.removeMember(collectionID, mediaID)
	return nil
}

// ListCollections returns a snapshot of the cached collections
func (s *CollectionService) ListCollections() []*models.Collection {
	return s.cache.collectionsSnapshot()
}

// CollectionItems returns the media items of a collection in insertion order
func (s *CollectionService) CollectionItems(collectionID string) ([]models.MediaItem, error) {
	_, members, ok := s.cache.lookup(collectionID)
	if !ok {
		return nil, ErrNotFound
	}
	items := make([]models.MediaItem, 0, len(members))
	for _, m := range members {
		items = append(items, m.Media)
	}
	return items, nil
}

// DeleteCollection deletes the collection record and then its memberships.
// Once the collection record is gone it leaves the cache even if some
// memberships could not be deleted; that case is reported as *PartialFailure.
func (s *CollectionService) DeleteCollection(ctx context.Context, collectionID string) error {
	_, cached, ok := s.cache.lookup(collectionID)
	if !ok {
		return ErrNotFound
	}

	if err := s.collections.Delete(ctx, collectionID); err != nil && !isGone(err) {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	defer s.cache.dropCollection(collectionID)

	records, err := s.memberships.ListByCollection(ctx, collectionID)
	if err != nil {
		log.Warn().Err(err).Str("collection_id", collectionID).Msg("Failed to list memberships of deleted collection")
		return &PartialFailure{CollectionID: collectionID, Remaining: len(cached), Err: err}
	}

	var errs []error
	for _, r := range records {
		if err := s.memberships.Delete(ctx, r.ID); err != nil && !isGone(err) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		log.Warn().
			Str("collection_id", collectionID).
			Int("remaining", len(errs)).
			Msg("Collection deleted with membership stragglers")
		return &PartialFailure{CollectionID: collectionID, Remaining: len(errs), Err: errors.Join(errs...)}
	}
	return nil
}
