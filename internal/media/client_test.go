package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"quizontal-backend/internal/config"
	"quizontal-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const imageHits = `{
	"total": 500, "totalHits": 50,
	"hits": [{
		"id": 195893, "tags": "blossom, bloom, flower",
		"webformatURL": "https://cdn.test/web.jpg", "largeImageURL": "https://cdn.test/large.jpg",
		"imageWidth": 4000, "imageHeight": 2250,
		"downloads": 12, "likes": 7, "user_id": 48777, "user": "Josch13"
	}]
}`

const videoHits = `{
	"totalHits": 1,
	"hits": [{
		"id": 125, "tags": "flowers, yellow",
		"videos": {
			"large": {"url": "https://cdn.test/large.mp4", "width": 1920, "height": 1080, "thumbnail": "https://cdn.test/l.jpg"},
			"medium": {"url": "https://cdn.test/medium.mp4", "width": 1280, "height": 720, "thumbnail": "https://cdn.test/m.jpg"}
		},
		"downloads": 3, "likes": 1, "user_id": 1, "user": "cam"
	}]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.MediaConfig{BaseURL: srv.URL, APIKey: "k", PerPage: 20, TimeoutSeconds: 5})
}

func TestSearchPhotos(t *testing.T) {
	var got url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/", r.URL.Path)
		got = r.URL.Query()
		w.Write([]byte(imageHits))
	})

	page, err := c.Search(context.Background(), models.MediaPhoto, " flowers ", 0, 1000)
	require.NoError(t, err)

	assert.Equal(t, "flowers", got.Get("q"))
	assert.Equal(t, "1", got.Get("page"))
	assert.Equal(t, "200", got.Get("per_page"))
	assert.Equal(t, "k", got.Get("key"))

	require.Len(t, page.Items, 1)
	item := page.Items[0]
	assert.Equal(t, "photo-195893", item.ID)
	assert.Equal(t, "https://cdn.test/large.jpg", item.URL)
	assert.Equal(t, "https://cdn.test/web.jpg", item.Thumbnail())
	assert.Equal(t, []string{"blossom", "bloom", "flower"}, item.Tags)
	assert.Equal(t, 7, item.Likes)
	assert.Equal(t, 12, item.Downloads)
	assert.Equal(t, "https://pixabay.com/users/Josch13-48777/", item.AuthorURL)
	assert.Equal(t, 50, page.Total)
	assert.False(t, page.HasMore)
}

func TestSearchWallpapersAndVideos(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/videos/" {
			w.Write([]byte(videoHits))
			return
		}
		assert.Equal(t, "backgrounds", r.URL.Query().Get("category"))
		assert.Equal(t, "3", r.URL.Query().Get("per_page"))
		w.Write([]byte(imageHits))
	})

	page, err := c.Search(context.Background(), models.MediaWallpaper, "sky", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, "wallpaper-195893", page.Items[0].ID)
	assert.Equal(t, 2, page.Page)

	page, err = c.Search(context.Background(), models.MediaVideo, "flowers", 1, 0)
	require.NoError(t, err)
	item := page.Items[0]
	assert.Equal(t, "video-125", item.ID)
	assert.Equal(t, "https://cdn.test/medium.mp4", item.URL)
	assert.Equal(t, "https://cdn.test/large.mp4", item.DownloadURL)
	assert.Equal(t, "https://cdn.test/m.jpg", item.ThumbnailURL)
	assert.Equal(t, "quizontal-video-125.mp4", item.FileName())
}

func TestTrending(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "popular", r.URL.Query().Get("order"))
		assert.Equal(t, "true", r.URL.Query().Get("editors_choice"))
		w.Write([]byte(imageHits))
	})

	page, err := c.Trending(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.True(t, page.HasMore)
}

func TestSearchErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited"))
	})

	_, err := c.Search(context.Background(), models.MediaPhoto, "x", 1, 10)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)

	_, err = c.Search(context.Background(), "audio", "x", 1, 10)
	assert.Error(t, err)

	_, err = NewClient(config.MediaConfig{}).Search(context.Background(), models.MediaPhoto, "x", 1, 10)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestCategories(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 8)
	assert.Equal(t, "Nature", cats[0].Name)
	assert.Equal(t, "abstract", cats[7].Query)
}
