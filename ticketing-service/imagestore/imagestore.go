// Package imagestore persists uploaded event and category images and hands
// back the public path under which they are served.
package imagestore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store saves and removes image objects addressed by key.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// NewKey returns a unique object key such as "events/1700000000-<uuid>.jpg".
func NewKey(folder, ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "jpg"
	}
	return path.Join(folder, fmt.Sprintf("%d-%s.%s", time.Now().Unix(), uuid.NewString(), ext))
}

// KeyFromURL recovers the object key from a path returned by Save, given the
// prefix the store serves objects under.
func KeyFromURL(url, prefix string) (string, bool) {
	prefix = strings.TrimSuffix(prefix, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}
