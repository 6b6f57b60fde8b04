package repository

import (
	"context"
	"testing"
	"time"

	"quizontal-backend/internal/docstore"
	"quizontal-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectionRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewCollectionRepository(docstore.NewMemoryBackend())

	c := &models.Collection{OwnerID: "u1", Name: "Trip", Visibility: models.VisibilityPublic}
	require.NoError(t, repo.Create(ctx, c))
	require.NotEmpty(t, c.ID)
	require.False(t, c.CreatedAt.IsZero())

	require.NoError(t, repo.UpdateStats(ctx, c.ID, 2, []string{"a", "b"}))
	require.NoError(t, repo.UpdateDetails(ctx, c.ID, "Road trip", "summer", models.VisibilityPrivate))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Road trip", got.Name)
	assert.Equal(t, models.VisibilityPrivate, got.Visibility)
	assert.Equal(t, 2, got.ItemCount)
	assert.Equal(t, []string{"a", "b"}, got.PreviewImages)

	list, err := repo.ListByOwner(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.Create(ctx, &models.Collection{OwnerID: "u2", Name: "Pets", Visibility: models.VisibilityPublic}))
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, c.ID))
	_, err = repo.GetByID(ctx, c.ID)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestCollectionRepositoryRejectsEmptyName(t *testing.T) {
	backend := docstore.NewMemoryBackend()
	repo := NewCollectionRepository(backend)

	err := repo.Create(context.Background(), &models.Collection{OwnerID: "u1", Visibility: models.VisibilityPublic})
	require.Error(t, err)
	assert.Equal(t, 0, backend.Count("collections"))
}

func TestMembershipRepositoryQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewMembershipRepository(docstore.NewMemoryBackend())

	for _, m := range []*models.Membership{
		{CollectionID: "c1", OwnerID: "u1", MediaID: "p1", Media: models.MediaItem{ID: "p1"}},
		{CollectionID: "c2", OwnerID: "u1", MediaID: "p1", Media: models.MediaItem{ID: "p1"}},
		{CollectionID: "c1", OwnerID: "u1", MediaID: "p2", Media: models.MediaItem{ID: "p2"}},
	} {
		require.NoError(t, repo.Create(ctx, m))
	}

	members, err := repo.ListByCollection(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "p1", members[0].MediaID)
	assert.Equal(t, "p2", members[1].MediaID)

	found, err := repo.Find(ctx, "c2", "p1")
	require.NoError(t, err)
	require.Len(t, found, 1)

	both, err := repo.ListByCollections(ctx, "c1", "c2")
	require.NoError(t, err)
	assert.Len(t, both, 3)

	none, err := repo.ListByCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUserRepositoryLookups(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(docstore.NewMemoryBackend())

	pw := &models.User{DisplayName: "Ann", Email: "Ann@Example.com", Provider: "password", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, pw))
	gh := &models.User{DisplayName: "Bob", Provider: "github", ProviderUID: "42"}
	require.NoError(t, repo.Create(ctx, gh))

	got, err := repo.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, pw.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	got, err = repo.GetByProviderUID(ctx, "github", "42")
	require.NoError(t, err)
	assert.Equal(t, gh.ID, got.ID)

	_, err = repo.GetByProviderUID(ctx, "google", "42")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLastLogin(ctx, gh.ID, at))
	gh.PhotoURL = "https://cdn/avatar.jpg"
	require.NoError(t, repo.UpdateProfile(ctx, gh))

	got, err = repo.GetByID(ctx, gh.ID)
	require.NoError(t, err)
	assert.True(t, at.Equal(got.LastLogin))
	assert.Equal(t, "https://cdn/avatar.jpg", got.PhotoURL)
}

func TestAIImageRepositoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewAIImageRepository(docstore.NewMemoryBackend())

	require.NoError(t, repo.Create(ctx, &models.AIImage{UserID: "u1", Prompt: "first"}))
	require.NoError(t, repo.Create(ctx, &models.AIImage{UserID: "u1", Prompt: "second"}))

	images, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "second", images[0].Prompt)
}
