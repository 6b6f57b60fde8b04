package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
}

const noteSchema = `{
	"type": "object",
	"required": ["owner_id", "title"],
	"properties": {
		"owner_id": {"type": "string", "minLength": 1},
		"title": {"type": "string", "minLength": 1}
	}
}`

func TestCollectionTypedRoundTrip(t *testing.T) {
	ctx := context.Background()
	notes := NewCollection[note](NewMemoryBackend(), "notes", WithSchema(noteSchema))

	created, err := notes.Create(ctx, note{OwnerID: "u1", Title: "hello"})
	require.NoError(t, err)

	got, err := notes.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Data.Title)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)

	docs, err := notes.Query(ctx, Eq("owner_id", "u1"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, created.ID, docs[0].ID)
}

func TestCollectionSchemaRejectsBeforeWrite(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	notes := NewCollection[note](backend, "notes", WithSchema(noteSchema))

	_, err := notes.Create(ctx, note{OwnerID: "u1"})
	require.Error(t, err)
	assert.Equal(t, 0, backend.Count("notes"))
}

func TestCollectionWrapsBackendErrors(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	notes := NewCollection[note](backend, "notes")

	_, err := notes.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("connection reset")
	backend.SetFailure(func(op, kind, id string) error { return boom })

	_, err = notes.Create(ctx, note{OwnerID: "u1", Title: "x"})
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "create", storeErr.Op)
	assert.Equal(t, "notes", storeErr.Kind)
	assert.ErrorIs(t, err, boom)
}

func TestNewCollectionPanicsOnBadSchema(t *testing.T) {
	assert.Panics(t, func() {
		NewCollection[note](NewMemoryBackend(), "notes", WithSchema(`{"type": `))
	})
}
