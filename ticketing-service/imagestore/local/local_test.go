package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eventix/ticketing/ticketing-service/imagestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	key := imagestore.NewKey("events", ".JPG")
	url, err := s.Save(ctx, key, strings.NewReader("jpeg bytes"), 10, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/"+key, url)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	got, ok := imagestore.KeyFromURL(url, "/uploads")
	require.True(t, ok)
	assert.Equal(t, key, got)

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))
}

func TestRejectsEscapingKeys(t *testing.T) {
	s, err := NewStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "../outside.jpg", strings.NewReader("x"), 1, "image/jpeg")
	assert.Error(t, err)

	_, err = s.Save(context.Background(), "/etc/passwd", strings.NewReader("x"), 1, "image/jpeg")
	assert.Error(t, err)
}

func TestNewKey(t *testing.T) {
	key := imagestore.NewKey("categories", "")
	assert.True(t, strings.HasPrefix(key, "categories/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, imagestore.NewKey("categories", ""))
}
