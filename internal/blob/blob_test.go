package blob

import (
	"context"
	"testing"
	"time"

	"quizontal-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "uploads/u1/1700000000123_my_photo.jpg", ObjectKey("uploads", "u1", "my photo.jpg", at))
	assert.Equal(t, "avatars/u1/1700000000123_passwd", ObjectKey("avatars", "u1", "../../etc/passwd", at))
	assert.Equal(t, "ai/u1/1700000000123_file", ObjectKey("ai", "u1", "", at))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a/b.jpg",
		publicURL(config.StorageConfig{PublicURL: "https://cdn.example.com/"}, "a/b.jpg"))
	assert.Equal(t, "http://localhost:9000/images/a.jpg",
		publicURL(config.StorageConfig{Endpoint: "http://localhost:9000", Bucket: "images", DisableSSL: true}, "a.jpg"))
	assert.Equal(t, "https://media.s3.eu-west-1.amazonaws.com/a.jpg",
		publicURL(config.StorageConfig{Bucket: "media", Region: "eu-west-1"}, "a.jpg"))
}

func TestS3StorePresign(t *testing.T) {
	store, err := NewS3Store(context.Background(), config.StorageConfig{
		Region:    "us-east-1",
		Bucket:    "media",
		AccessKey: "AKID",
		SecretKey: "SECRET",
		Endpoint:  "http://localhost:9000",
	})
	require.NoError(t, err)

	u, err := store.PresignPut(context.Background(), "uploads/u1/x.jpg", "image/jpeg", 5*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, u, "http://localhost:9000/media/uploads/u1/x.jpg")
	assert.Contains(t, u, "X-Amz-Signature=")
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}
