package minio

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/eventix/ticketing/ticketing-service/config"
	"github.com/eventix/ticketing/ticketing-service/imagestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewStoreRequiresCredentials(t *testing.T) {
	_, err := NewStore(config.MinIO{Endpoint: "localhost:9000", Bucket: "images"})
	assert.Error(t, err)

	_, err = NewStore(config.MinIO{Bucket: "images", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)
}

func TestURLPrefix(t *testing.T) {
	s, err := NewStore(config.MinIO{Endpoint: "localhost:9000", Bucket: "images", AccessKey: "a", SecretKey: "b"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/images", s.URLPrefix())

	s, err = NewStore(config.MinIO{
		Endpoint:      "minio:9000",
		Bucket:        "images",
		AccessKey:     "a",
		SecretKey:     "b",
		PublicBaseURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/images", s.URLPrefix())
}

func TestSaveAndDelete(t *testing.T) {
	endpoint := os.Getenv("MINIO_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_TEST_ENDPOINT not set")
	}

	s, err := NewStore(config.MinIO{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_TEST_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_TEST_SECRET_KEY"),
		Bucket:    "ticketing-test",
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.EnsureBucket(ctx, zap.NewNop()))

	key := imagestore.NewKey("events", "jpg")
	url, err := s.Save(ctx, key, strings.NewReader("jpeg"), 4, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, key))

	require.NoError(t, s.Delete(ctx, key))
}
