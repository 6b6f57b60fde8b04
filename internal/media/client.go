// Package media searches the stock media provider.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"quizontal-backend/internal/config"
	"quizontal-backend/internal/models"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

const (
	minPerPage = 3
	maxPerPage = 200
)

// ErrNoAPIKey is returned when no provider key is configured
var ErrNoAPIKey = errors.New("media api key is not configured")

// StatusError is a non-200 reply from the provider
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("media provider returned status %d: %s", e.StatusCode, e.Body)
}

// Page is one page of search results
type Page struct {
	Items   []models.MediaItem `json:"items"`
	Page    int                `json:"page"`
	PerPage int                `json:"per_page"`
	Total   int                `json:"total"`
	HasMore bool               `json:"has_more"`
}

// Client talks to a Pixabay-compatible search API
type Client struct {
	baseURL string
	apiKey  string
	perPage int
	http    *http.Client
}

// NewClient creates a media client
func NewClient(cfg config.MediaConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		perPage: cfg.PerPage,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Search returns one page of media of the given kind matching query
func (c *Client) Search(ctx context.Context, kind models.MediaKind, query string, page, perPage int) (*Page, error) {
	params := url.Values{}
	params.Set("q", strings.TrimSpace(query))

	switch kind {
	case models.MediaPhoto:
		params.Set("image_type", "photo")
	case models.MediaWallpaper:
		params.Set("image_type", "photo")
		params.Set("category", "backgrounds")
		params.Set("orientation", "vertical")
	case models.MediaVideo:
	default:
		return nil, fmt.Errorf("unknown media kind %q", kind)
	}
	return c.fetch(ctx, kind, params, page, perPage)
}

// Trending returns popular editor-picked photos
func (c *Client) Trending(ctx context.Context, page, perPage int) (*Page, error) {
	params := url.Values{}
	params.Set("image_type", "photo")
	params.Set("order", "popular")
	params.Set("editors_choice", "true")
	return c.fetch(ctx, models.MediaPhoto, params, page, perPage)
}

func (c *Client) fetch(ctx context.Context, kind models.MediaKind, params url.Values, page, perPage int) (*Page, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}

	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = c.perPage
	}
	perPage = lo.Clamp(perPage, minPerPage, maxPerPage)

	params.Set("key", c.apiKey)
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("safesearch", "true")

	endpoint := c.baseURL + "/api/"
	if kind == models.MediaVideo {
		endpoint = c.baseURL + "/api/videos/"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build media request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query media provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read media response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return parsePage(body, kind, page, perPage), nil
}

func parsePage(body []byte, kind models.MediaKind, page, perPage int) *Page {
	r := gjson.ParseBytes(body)
	hits := r.Get("hits").Array()

	items := make([]models.MediaItem, 0, len(hits))
	for _, h := range hits {
		if kind == models.MediaVideo {
			items = append(items, parseVideo(h))
		} else {
			items = append(items, parseImage(h, kind))
		}
	}

	total := int(r.Get("totalHits").Int())
	return &Page{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasMore: page*perPage < total,
	}
}

func parseImage(h gjson.Result, kind models.MediaKind) models.MediaItem {
	return models.MediaItem{
		ID:           fmt.Sprintf("%s-%d", kind, h.Get("id").Int()),
		Kind:         kind,
		URL:          h.Get("largeImageURL").String(),
		ThumbnailURL: h.Get("webformatURL").String(),
		DownloadURL:  h.Get("largeImageURL").String(),
		Author:       h.Get("user").String(),
		AuthorURL:    authorURL(h),
		Tags:         splitTags(h.Get("tags").String()),
		Likes:        int(h.Get("likes").Int()),
		Downloads:    int(h.Get("downloads").Int()),
		Width:        int(h.Get("imageWidth").Int()),
		Height:       int(h.Get("imageHeight").Int()),
	}
}

func parseVideo(h gjson.Result) models.MediaItem {
	medium := h.Get("videos.medium")
	download := h.Get("videos.large.url").String()
	if download == "" {
		download = medium.Get("url").String()
	}
	return models.MediaItem{
		ID:           fmt.Sprintf("%s-%d", models.MediaVideo, h.Get("id").Int()),
		Kind:         models.MediaVideo,
		URL:          medium.Get("url").String(),
		ThumbnailURL: medium.Get("thumbnail").String(),
		DownloadURL:  download,
		Author:       h.Get("user").String(),
		AuthorURL:    authorURL(h),
		Tags:         splitTags(h.Get("tags").String()),
		Likes:        int(h.Get("likes").Int()),
		Downloads:    int(h.Get("downloads").Int()),
		Width:        int(medium.Get("width").Int()),
		Height:       int(medium.Get("height").Int()),
	}
}

func authorURL(h gjson.Result) string {
	user, id := h.Get("user").String(), h.Get("user_id").Int()
	if user == "" || id == 0 {
		return ""
	}
	return fmt.Sprintf("https://pixabay.com/users/%s-%d/", user, id)
}

func splitTags(tags string) []string {
	parts := lo.Map(strings.Split(tags, ","), func(s string, _ int) string { return strings.TrimSpace(s) })
	return lo.Compact(parts)
}
