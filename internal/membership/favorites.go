package membership

import (
	"context"
	"fmt"

	"quizontal-backend/internal/models"
)

// FavoritesService toggles favorites for the session user
type FavoritesService struct {
	userID    string
	cache     *Cache
	favorites FavoriteStore
}

// NewFavoritesService creates a favorites service bound to one session cache
func NewFavoritesService(userID string, cache *Cache, stores Stores) *FavoritesService {
	return &FavoritesService{
		userID:    userID,
		cache:     cache,
		favorites: stores.Favorites,
	}
}

// ToggleFavorite flips the favorite state of item and returns the new state.
// Un-favoriting deletes every stored record for the (user, media) pair.
func (s *FavoritesService) ToggleFavorite(ctx context.Context, item models.MediaItem) (bool, error) {
	if item.ID == "" {
		return false, &ValidationError{Field: "media.id", Message: "must not be empty"}
	}

	if !s.cache.hasFavorite(item.ID) {
		fav := models.Favorite{
			UserID:    s.userID,
			MediaID:   item.ID,
			MediaType: item.Kind,
			Media:     item,
		}
		if err := s.favorites.Create(ctx, &fav); err != nil {
			return false, fmt.Errorf("failed to add favorite: %w", err)
		}
		s.cache.putFavorite(fav)
		return true, nil
	}

	records, err := s.favorites.Find(ctx, s.userID, item.ID)
	if err != nil {
		return true, fmt.Errorf("failed to find favorites: %w", err)
	}
	for _, r := range records {
		if err := s.favorites.Delete(ctx, r.ID); err != nil && !isGone(err) {
			return true, fmt.Errorf("failed to remove favorite: %w", err)
		}
	}
	s.cache.dropFavorite(item.ID)
	return false, nil
}

// IsFavorite reports whether the media item is favorited. No store call is made.
func (s *FavoritesService) IsFavorite(mediaID string) bool {
	return s.cache.hasFavorite(mediaID)
}

// Favorites returns the cached favorites, most recent first
func (s *FavoritesService) Favorites() []*models.Favorite {
	return s.cache.favoritesSnapshot()
}
