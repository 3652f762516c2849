// Package cache keeps fetched document bodies on disk so that a rerun after
// a partial failure only goes back to the network for what is missing.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Entry is the metadata stored next to each cached body.
type Entry struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	Size         int       `json:"size"`
	SavedAt      time.Time `json:"saved_at"`
}

// Fresh reports whether the entry is younger than maxAge. A non-positive
// maxAge means entries never go stale and must be revalidated instead.
func (e Entry) Fresh(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return now.Sub(e.SavedAt) <= maxAge
}

// Documents stores bodies as <key>.body and metadata as <key>.meta.json,
// key being sha256(url). There is no eviction beyond PurgeByAge.
type Documents struct {
	Dir string
}

func (c *Documents) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	return os.MkdirAll(c.Dir, 0o755)
}

// Key returns the on-disk key for url.
func Key(url string) string {
	h := sha256.Sum256([]byte(url))
	return hex.EncodeToString(h[:])
}

func (c *Documents) metaPath(key string) string { return filepath.Join(c.Dir, key+".meta.json") }
func (c *Documents) bodyPath(key string) string { return filepath.Join(c.Dir, key+".body") }

// LoadMeta returns entry metadata if present.
func (c *Documents) LoadMeta(_ context.Context, url string) (*Entry, error) {
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	f, err := os.Open(c.metaPath(Key(url)))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var e Entry
	if err := json.NewDecoder(f).Decode(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// LoadBody returns the cached body if present.
func (c *Documents) LoadBody(_ context.Context, url string) ([]byte, error) {
	if err := c.ensureDir(); err != nil {
		return nil, err
	}
	return os.ReadFile(c.bodyPath(Key(url)))
}

// Save writes body then metadata; metadata is renamed into place last so a
// crash never leaves meta pointing at a partial body.
func (c *Documents) Save(_ context.Context, url, contentType, etag, lastModified string, body []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	key := Key(url)
	if err := os.WriteFile(c.bodyPath(key), body, 0o644); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	meta := Entry{
		URL:          url,
		ContentType:  contentType,
		ETag:         etag,
		LastModified: lastModified,
		Size:         len(body),
		SavedAt:      time.Now().UTC(),
	}
	tmp := c.metaPath(key) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create meta: %w", err)
	}
	if err := json.NewEncoder(f).Encode(&meta); err != nil {
		f.Close()
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, c.metaPath(key))
}
