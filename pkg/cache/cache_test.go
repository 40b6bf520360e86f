package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
)

func newTestCache(t *testing.T) (*Cache, *httptest.Server, *int64) {
	t.Helper()

	var fullFetches int64
	content := []byte("file content v1")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const etag = `"abc123"`
		if r.Header.Get("If-None-Match") == "abc123" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		atomic.AddInt64(&fullFetches, 1)
		w.Header().Set("ETag", etag)
		w.Header().Set("X-Repo-Commit", "deadbeef")
		_, _ = w.Write(content)
	}))
	t.Cleanup(server.Close)

	c, err := Open(t.TempDir(), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return c, server, &fullFetches
}

func TestDownloadAndRevalidate(t *testing.T) {
	c, server, fullFetches := newTestCache(t)
	ctx := context.Background()
	url := server.URL + "/user/repo/resolve/main/file.bin"

	path, err := c.Download(ctx, url, nil)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if string(data) != "file content v1" {
		t.Errorf("blob content = %q", data)
	}

	// Second download revalidates and reuses the blob.
	path2, err := c.Download(ctx, url, nil)
	if err != nil {
		t.Fatalf("second Download returned error: %v", err)
	}
	if path2 != path {
		t.Errorf("revalidated path = %q, want %q", path2, path)
	}
	if got := atomic.LoadInt64(fullFetches); got != 1 {
		t.Errorf("server served %d full responses, want 1", got)
	}

	commit, err := c.Commit(url)
	if err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	if commit != "deadbeef" {
		t.Errorf("commit = %q, want deadbeef", commit)
	}
}

func TestDownloadForce(t *testing.T) {
	c, server, fullFetches := newTestCache(t)
	ctx := context.Background()
	url := server.URL + "/user/repo/resolve/main/file.bin"

	if _, err := c.Download(ctx, url, nil); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if _, err := c.Download(ctx, url, &DownloadOptions{Force: true}); err != nil {
		t.Fatalf("forced Download returned error: %v", err)
	}
	if got := atomic.LoadInt64(fullFetches); got != 2 {
		t.Errorf("server served %d full responses, want 2 with Force", got)
	}
}

func TestDownloadMissingBlob(t *testing.T) {
	c, server, fullFetches := newTestCache(t)
	ctx := context.Background()
	url := server.URL + "/user/repo/resolve/main/file.bin"

	path, err := c.Download(ctx, url, nil)
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}

	// Removing the blob behind the index forces a refetch.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove blob: %v", err)
	}
	if _, err := c.Download(ctx, url, nil); err != nil {
		t.Fatalf("Download after blob loss returned error: %v", err)
	}
	if got := atomic.LoadInt64(fullFetches); got != 2 {
		t.Errorf("server served %d full responses, want 2", got)
	}
}

func TestDownloadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	c, err := Open(t.TempDir(), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if _, err := c.Download(context.Background(), server.URL+"/missing", nil); err == nil {
		t.Error("Download of a missing file should fail")
	}
}
