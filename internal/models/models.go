package models

import (
	"fmt"
	"time"
)

// MediaKind is the gallery section a media item comes from
type MediaKind string

const (
	MediaPhoto     MediaKind = "photo"
	MediaVideo     MediaKind = "video"
	MediaWallpaper MediaKind = "wallpaper"
)

// Valid reports whether k is a known media kind
func (k MediaKind) Valid() bool {
	switch k {
	case MediaPhoto, MediaVideo, MediaWallpaper:
		return true
	}
	return false
}

// MediaItem is a photo, video or wallpaper returned by the media provider
type MediaItem struct {
	ID           string    `json:"id"`
	Kind         MediaKind `json:"kind"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	DownloadURL  string    `json:"download_url,omitempty"`
	Author       string    `json:"author,omitempty"`
	AuthorURL    string    `json:"author_url,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	Likes        int       `json:"likes"`
	Downloads    int       `json:"downloads"`
	Width        int       `json:"width,omitempty"`
	Height       int       `json:"height,omitempty"`
}

// Thumbnail returns the image used on collection cards
func (m MediaItem) Thumbnail() string {
	if m.ThumbnailURL != "" {
		return m.ThumbnailURL
	}
	return m.URL
}

// FileName returns the suggested file name for a download
func (m MediaItem) FileName() string {
	ext := "jpg"
	if m.Kind == MediaVideo {
		ext = "mp4"
	}
	return fmt.Sprintf("quizontal-%s.%s", m.ID, ext)
}

// Visibility controls who can see a collection
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is a known visibility
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Collection is a user-curated set of media items
type Collection struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"owner_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Visibility    Visibility `json:"visibility"`
	ItemCount     int        `json:"item_count"`
	PreviewImages []string   `json:"preview_images"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Membership records that a media item belongs to a collection
type Membership struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collection_id"`
	OwnerID      string    `json:"owner_id"`
	MediaID      string    `json:"media_id"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Media        MediaItem `json:"media"`
	CreatedAt    time.Time `json:"created_at"`
}

// Favorite is a media item liked by a user, with the item snapshot taken at that moment
type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	MediaID   string    `json:"media_id"`
	MediaType MediaKind `json:"media_type"`
	Media     MediaItem `json:"media"`
	CreatedAt time.Time `json:"created_at"`
}

// Download is an append-only audit record of a download
type Download struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	MediaID   string    `json:"media_id"`
	MediaType MediaKind `json:"media_type"`
	Media     MediaItem `json:"media"`
	CreatedAt time.Time `json:"created_at"`
}

// User represents a registered user profile
type User struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	Provider     string    `json:"provider"`
	ProviderUID  string    `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastLogin    time.Time `json:"last_login"`
}

// Identity returns the session identity of the user
func (u *User) Identity() Identity {
	return Identity{
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		AvatarURL:   u.PhotoURL,
	}
}

// Identity is the logged-in user a session belongs to
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// AIImage is an image produced by the AI generator
type AIImage struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Prompt      string    `json:"prompt"`
	ImageURL    string    `json:"image_url"`
	ObjectKey   string    `json:"object_key,omitempty"`
	Placeholder bool      `json:"placeholder"`
	CreatedAt   time.Time `json:"created_at"`
}
