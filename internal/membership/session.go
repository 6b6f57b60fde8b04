package membership

import (
	"context"
	"fmt"

	"quizontal-backend/internal/models"
)

// Session is the explicit per-login context: the identity, its cache and the
// services bound to that cache. It lives from login to logout.
type Session struct {
	Identity    models.Identity
	Cache       *Cache
	Collections *CollectionService
	Favorites   *FavoritesService

	downloads DownloadStore
}

// NewSession creates an unloaded session for ident
func NewSession(ident models.Identity, stores Stores) *Session {
	cache := NewCache(ident.UserID, stores)
	return &Session{
		Identity:    ident,
		Cache:       cache,
		Collections: NewCollectionService(ident.UserID, cache, stores),
		Favorites:   NewFavoritesService(ident.UserID, cache, stores),
		downloads:   stores.Downloads,
	}
}

// Load rebuilds the cache from the store
func (s *Session) Load(ctx context.Context) error {
	return s.Cache.Load(ctx)
}

// Close discards the cache
func (s *Session) Close() {
	s.Cache.Clear()
}

// RecordDownload appends a download audit record for item
func (s *Session) RecordDownload(ctx context.Context, item models.MediaItem) (*models.Download, error) {
	if item.ID == "" {
		return nil, &ValidationError{Field: "media.id", Message: "must not be empty"}
	}

	d := &models.Download{
		UserID:    s.Identity.UserID,
		MediaID:   item.ID,
		MediaType: item.Kind,
		Media:     item,
	}
	if err := s.downloads.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to record download: %w", err)
	}
	return d, nil
}
