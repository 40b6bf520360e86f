// Package cache is a local download cache for hub files. Blobs are
// stored on disk and indexed by source URL in a boltdb file, with ETag
// revalidation against the hub on reuse.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boltdb/bolt"
)

var (
	errNoBucket = errors.New("bucket not found")

	filesBucket = []byte("files")
)

// entry is the index record for one cached URL.
type entry struct {
	ETag      string    `json:"etag,omitempty"`
	Commit    string    `json:"commit,omitempty"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Cache is a directory of downloaded blobs plus their boltdb index.
type Cache struct {
	dir        string
	db         *bolt.DB
	httpClient *http.Client
}

// Option configures a Cache.
type Option func(*Cache)

// WithHTTPClient replaces the HTTP client used for downloads.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Cache) {
		c.httpClient = httpClient
	}
}

// Open opens (or creates) a cache rooted at dir.
func Open(dir string, opts ...Option) (*Cache, error) {
	if err := os.MkdirAll(filepath.Join(dir, "blobs"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := bolt.Open(filepath.Join(dir, "index.db"), 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache index: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(filesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	c := &Cache{
		dir:        dir,
		db:         db,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close closes the underlying boltdb.
func (c *Cache) Close() error {
	return c.db.Close()
}

// DownloadOptions controls a single download.
type DownloadOptions struct {
	// Force redownloads even when a fresh cached copy exists.
	Force bool
	// Token authenticates the request when set.
	Token string
}

func (c *Cache) lookup(url string) (*entry, error) {
	var e *entry
	err := c.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(filesBucket)
		if bucket == nil {
			return errNoBucket
		}
		data := bucket.Get([]byte(url))
		if data == nil {
			return nil
		}
		e = &entry{}
		return json.Unmarshal(data, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (c *Cache) store(url string, e *entry) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(filesBucket)
		if bucket == nil {
			return errNoBucket
		}
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(url), data)
	})
}

func blobName(url, etag string) string {
	hash := sha256.Sum256([]byte(url + "\x00" + etag))
	return hex.EncodeToString(hash[:])
}

// Download fetches url into the cache and returns the local blob path.
// A cached copy is revalidated with If-None-Match; on a 304 the cached
// path is returned without transferring the body again.
func (c *Cache) Download(ctx context.Context, url string, opts *DownloadOptions) (string, error) {
	if opts == nil {
		opts = &DownloadOptions{}
	}

	cached, err := c.lookup(url)
	if err != nil {
		return "", fmt.Errorf("failed to read cache index: %w", err)
	}
	if cached != nil {
		if _, err := os.Stat(cached.Path); err != nil {
			cached = nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create download request: %w", err)
	}
	if opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.Token)
	}
	if cached != nil && cached.ETag != "" && !opts.Force {
		req.Header.Set("If-None-Match", cached.ETag)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		return cached.Path, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("download of %s failed with status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	etag := strings.Trim(resp.Header.Get("ETag"), `"`)
	commit := resp.Header.Get("X-Repo-Commit")

	blobPath := filepath.Join(c.dir, "blobs", blobName(url, etag))
	tmp, err := os.CreateTemp(filepath.Join(c.dir, "blobs"), ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	size, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), blobPath); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to finalize blob: %w", err)
	}

	e := &entry{
		ETag:      etag,
		Commit:    commit,
		Path:      blobPath,
		Size:      size,
		FetchedAt: time.Now(),
	}
	if err := c.store(url, e); err != nil {
		return "", fmt.Errorf("failed to update cache index: %w", err)
	}
	return blobPath, nil
}

// Commit returns the X-Repo-Commit recorded for a cached URL, or empty
// when the URL is not cached.
func (c *Cache) Commit(url string) (string, error) {
	cached, err := c.lookup(url)
	if err != nil || cached == nil {
		return "", err
	}
	return cached.Commit, nil
}
