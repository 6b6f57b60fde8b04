package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizontal-backend/internal/docstore"
	"quizontal-backend/internal/identity"
	"quizontal-backend/internal/media"
	"quizontal-backend/internal/membership"
	"quizontal-backend/internal/middleware"
	"quizontal-backend/internal/models"
	"quizontal-backend/internal/repository"
	"quizontal-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	err error
}

func (s *stubSource) Search(ctx context.Context, kind models.MediaKind, query string, page, perPage int) (*media.Page, error) {
	if s.err != nil {
		return nil, s.err
	}
	item := models.MediaItem{ID: string(kind) + "-1", Kind: kind, URL: "https://cdn.test/" + query + ".jpg"}
	return &media.Page{Items: []models.MediaItem{item}, Page: page, PerPage: perPage, Total: 1}, nil
}

func (s *stubSource) Trending(ctx context.Context, page, perPage int) (*media.Page, error) {
	return s.Search(ctx, models.MediaPhoto, "trending", page, perPage)
}

type testServer struct {
	router   http.Handler
	backend  *docstore.MemoryBackend
	notifier *identity.Notifier
	source   *stubSource

	collections membership.CollectionStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	backend := docstore.NewMemoryBackend()
	notifier := identity.NewNotifier(64)
	t.Cleanup(notifier.Close)

	stores := membership.Stores{
		Collections: repository.NewCollectionRepository(backend),
		Memberships: repository.NewMembershipRepository(backend),
		Favorites:   repository.NewFavoriteRepository(backend),
		Downloads:   repository.NewDownloadRepository(backend),
	}
	sessions := membership.NewManager(stores)
	userService := services.NewUserService(repository.NewUserRepository(backend), nil, notifier, "test-secret", time.Hour)
	source := &stubSource{}
	aiService := services.NewAIService(nil, source, nil, repository.NewAIImageRepository(backend), 4)

	auth := NewAuthHandler(userService)
	mediaHandler := NewMediaHandler(source)
	collections := NewCollectionHandler(sessions)
	favorites := NewFavoriteHandler(sessions)
	downloads := NewDownloadHandler(sessions)
	ai := NewAIHandler(aiService)
	users := NewUserHandler(userService)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", auth.Signup)
		r.Post("/auth/login", auth.Login)
		r.Get("/auth/{provider}/url", auth.OAuthURL)
		r.Get("/media/trending", mediaHandler.Trending)
		r.Get("/media/categories", mediaHandler.Categories)
		r.Get("/media/{kind}", mediaHandler.Search)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))
			r.Post("/auth/logout", auth.Logout)
			r.Get("/me", users.GetMe)
			r.Patch("/me", users.UpdateMe)
			r.Get("/collections", collections.List)
			r.Post("/collections", collections.Create)
			r.Post("/collections/reload", collections.Reload)
			r.Patch("/collections/{id}", collections.Update)
			r.Delete("/collections/{id}", collections.Delete)
			r.Get("/collections/{id}/items", collections.Items)
			r.Post("/collections/{id}/items", collections.AddItem)
			r.Delete("/collections/{id}/items/{media_id}", collections.RemoveItem)
			r.Get("/favorites", favorites.List)
			r.Post("/favorites/toggle", favorites.Toggle)
			r.Get("/favorites/{media_id}", favorites.Check)
			r.Post("/downloads", downloads.Record)
			r.Post("/ai/generate", ai.Generate)
		})
	})

	return &testServer{router: r, backend: backend, notifier: notifier, source: source, collections: stores.Collections}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signup(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", SignupRequest{DisplayName: "Ann", Email: email, Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp services.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ann@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", SignupRequest{DisplayName: "Ann", Email: "ann@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/signup", "", SignupRequest{DisplayName: "Bob", Email: "bob@example.com", Password: "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "ann@example.com", Password: "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "ann@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/auth/myspace/url", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[models.User](t, rec)
	assert.Equal(t, "ann@example.com", me.Email)
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec = s.do(t, http.MethodPatch, "/api/v1/me", token, UpdateProfileRequest{DisplayName: "Annie"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Annie", decode[models.User](t, rec).DisplayName)

	rec = s.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var kinds []identity.EventKind
	for len(kinds) < 3 {
		kinds = append(kinds, (<-s.notifier.Events()).Kind)
	}
	assert.Equal(t, []identity.EventKind{identity.SessionStarted, identity.SessionStarted, identity.SessionEnded}, kinds)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/collections", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Authorization header required"}`, rec.Body.String())
}

func TestCollectionLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ann@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/collections", token, CollectionRequest{Name: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/collections", token, CollectionRequest{Name: "Beach", Description: "summer"})
	require.Equal(t, http.StatusCreated, rec.Code)
	col := decode[models.Collection](t, rec)
	assert.Equal(t, models.VisibilityPublic, col.Visibility)

	item := models.MediaItem{ID: "photo-1", Kind: models.MediaPhoto, URL: "https://cdn.test/1.jpg"}
	itemsPath := "/api/v1/collections/" + col.ID + "/items"
	for i := 0; i < 2; i++ {
		rec = s.do(t, http.MethodPost, itemsPath, token, AddItemRequest{Media: item})
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/collections", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Collections []models.Collection `json:"collections"`
	}](t, rec)
	require.Len(t, list.Collections, 1)
	assert.Equal(t, 1, list.Collections[0].ItemCount)
	assert.Equal(t, []string{"https://cdn.test/1.jpg"}, list.Collections[0].PreviewImages)

	rec = s.do(t, http.MethodGet, itemsPath, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"photo-1"`)

	rec = s.do(t, http.MethodPatch, "/api/v1/collections/"+col.ID, token, CollectionRequest{Name: "Beach 2024", Visibility: "secret"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/v1/collections/"+col.ID, token, CollectionRequest{Name: "Beach 2024", Visibility: models.VisibilityPrivate})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Beach 2024", decode[models.Collection](t, rec).Name)

	rec = s.do(t, http.MethodDelete, itemsPath+"/photo-1", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/v1/collections/"+col.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, itemsPath, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteCollectionPartialFailure(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ann@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/collections", token, CollectionRequest{Name: "Beach"})
	require.Equal(t, http.StatusCreated, rec.Code)
	col := decode[models.Collection](t, rec)

	for _, id := range []string{"photo-1", "photo-2"} {
		rec = s.do(t, http.MethodPost, "/api/v1/collections/"+col.ID+"/items", token, AddItemRequest{Media: models.MediaItem{ID: id}})
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	s.backend.SetFailure(func(op, kind, id string) error {
		if op == "delete" && kind == "memberships" {
			return errors.New("permission denied")
		}
		return nil
	})

	rec = s.do(t, http.MethodDelete, "/api/v1/collections/"+col.ID, token, nil)
	require.Equal(t, http.StatusMultiStatus, rec.Code)
	resp := decode[PartialFailureResponse](t, rec)
	assert.Equal(t, col.ID, resp.CollectionID)
	assert.Equal(t, 2, resp.Remaining)

	rec = s.do(t, http.MethodGet, "/api/v1/collections", token, nil)
	assert.JSONEq(t, `{"collections":[]}`, rec.Body.String())
}

func TestStoreFailureIsBadGateway(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ann@example.com")

	s.backend.SetFailure(func(op, kind, id string) error {
		if op == "create" && kind == "collections" {
			return errors.New("connection reset")
		}
		return nil
	})

	rec := s.do(t, http.MethodPost, "/api/v1/collections", token, CollectionRequest{Name: "Beach"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestFavoritesToggle(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ann@example.com")
	item := models.MediaItem{ID: "video-9", Kind: models.MediaVideo}

	rec := s.do(t, http.MethodPost, "/api/v1/favorites/toggle", token, ToggleRequest{Media: item})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"media_id":"video-9","favorite":true}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/favorites/video-9", token, nil)
	assert.JSONEq(t, `{"media_id":"video-9","favorite":true}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/favorites", token, nil)
	assert.Contains(t, rec.Body.String(), `"media_id":"video-9"`)

	rec = s.do(t, http.MethodPost, "/api/v1/favorites/toggle", token, ToggleRequest{Media: item})
	assert.JSONEq(t, `{"media_id":"video-9","favorite":false}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/favorites/toggle", token, ToggleRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadSurvivesAuditFailure(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ann@example.com")
	item := models.MediaItem{ID: "video-3", Kind: models.MediaVideo, URL: "https://cdn.test/v.mp4", DownloadURL: "https://cdn.test/v-hd.mp4"}

	rec := s.do(t, http.MethodPost, "/api/v1/downloads", token, DownloadRequest{Media: item})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, DownloadResponse{URL: "https://cdn.test/v-hd.mp4", FileName: "quizontal-video-3.mp4"}, decode[DownloadResponse](t, rec))
	assert.Equal(t, 1, s.backend.Count("downloads"))

	s.backend.SetFailure(func(op, kind, id string) error {
		if kind == "downloads" {
			return errors.New("quota exceeded")
		}
		return nil
	})
	rec = s.do(t, http.MethodPost, "/api/v1/downloads", token, DownloadRequest{Media: item})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, s.backend.Count("downloads"))
}

func TestMediaRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/media/wallpaper?q=sky&page=2&per_page=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[media.Page](t, rec)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, "wallpaper-1", page.Items[0].ID)

	rec = s.do(t, http.MethodGet, "/api/v1/media/trending", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/media/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]media.Category](t, rec), 8)

	rec = s.do(t, http.MethodGet, "/api/v1/media/audio", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.source.err = media.ErrNoAPIKey
	rec = s.do(t, http.MethodGet, "/api/v1/media/photo?q=cat", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.source.err = &media.StatusError{StatusCode: http.StatusTooManyRequests}
	rec = s.do(t, http.MethodGet, "/api/v1/media/photo?q=cat", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAIGenerateValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ann@example.com")

	rec := s.do(t, http.MethodPost, "/api/v1/ai/generate", token, GenerateRequest{Prompt: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/ai/generate", token, GenerateRequest{Prompt: "fox", Count: 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"placeholder":true`)
}

func TestReloadAfterNotFound(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "ann@example.com")

	rec := s.do(t, http.MethodGet, "/api/v1/collections", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	me := decode[models.User](t, s.do(t, http.MethodGet, "/api/v1/me", token, nil))
	col := &models.Collection{OwnerID: me.ID, Name: "Other tab", Visibility: models.VisibilityPublic}
	require.NoError(t, s.collections.Create(context.Background(), col))

	itemsPath := "/api/v1/collections/" + col.ID + "/items"
	rec = s.do(t, http.MethodPost, itemsPath, token, AddItemRequest{Media: models.MediaItem{ID: "photo-1"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/collections/reload", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Other tab"`)

	rec = s.do(t, http.MethodPost, itemsPath, token, AddItemRequest{Media: models.MediaItem{ID: "photo-1"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
