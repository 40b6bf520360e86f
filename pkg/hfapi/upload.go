package hfapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wzshiming/hfapi/pkg/lfs"
	"github.com/wzshiming/hfapi/pkg/repoid"
)

type preuploadRequest struct {
	Files []preuploadFile `json:"files"`
}

type preuploadFile struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Sample string `json:"sample"`
}

type preuploadResponse struct {
	Files []preuploadResponseFile `json:"files"`
}

type preuploadResponseFile struct {
	Path         string `json:"path"`
	UploadMode   string `json:"uploadMode"`
	ShouldIgnore bool   `json:"shouldIgnore"`
}

type commitHeader struct {
	Summary      string `json:"summary"`
	Description  string `json:"description,omitempty"`
	ParentCommit string `json:"parentCommit,omitempty"`
}

type commitFile struct {
	Content  string `json:"content"`
	Path     string `json:"path"`
	Encoding string `json:"encoding"`
}

type commitLFSFile struct {
	Path string `json:"path"`
	Algo string `json:"algo"`
	OID  string `json:"oid"`
	Size int64  `json:"size"`
}

type commitDeletedFile struct {
	Path string `json:"path"`
}

type commitOperation struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// UploadOptions controls a single-file upload.
type UploadOptions struct {
	// Revision is the branch to commit to, main when empty.
	Revision string
	// CommitSummary is the commit message summary. A default is
	// derived from the file path when empty.
	CommitSummary string
	// CommitDescription is the extended commit message.
	CommitDescription string
	// ParentCommit, when set, makes the commit fail if the branch
	// head moved.
	ParentCommit string
}

const preuploadSampleSize = 512

// preupload asks the hub which upload mode a file should use.
func (c *Client) preupload(ctx context.Context, repo string, repoType repoid.RepoType, revision, path string, size int64, sample []byte) (string, error) {
	req := preuploadRequest{
		Files: []preuploadFile{{
			Path:   path,
			Size:   size,
			Sample: base64.StdEncoding.EncodeToString(sample),
		}},
	}
	target := fmt.Sprintf("/api/%s/%s/preupload/%s", repoid.APIPrefix(repoType), repo, revision)
	var resp preuploadResponse
	if err := c.do(ctx, http.MethodPost, target, nil, req, &resp); err != nil {
		return "", err
	}
	for _, file := range resp.Files {
		if file.Path == path {
			if file.ShouldIgnore {
				return "", fmt.Errorf("file %q is ignored by the hub", path)
			}
			return file.UploadMode, nil
		}
	}
	return "", fmt.Errorf("preupload response missing file %q", path)
}

// commit posts an NDJSON commit payload and returns the created commit.
func (c *Client) commit(ctx context.Context, repo string, repoType repoid.RepoType, revision string, header commitHeader, ops []commitOperation) (*CommitInfo, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(commitOperation{Key: "header", Value: header}); err != nil {
		return nil, fmt.Errorf("failed to encode commit header: %w", err)
	}
	for _, op := range ops {
		if err := enc.Encode(op); err != nil {
			return nil, fmt.Errorf("failed to encode commit operation: %w", err)
		}
	}

	target := fmt.Sprintf("%s/api/%s/%s/commit/%s", c.endpoint, repoid.APIPrefix(repoType), repo, revision)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create commit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute commit request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp)
	}

	var info CommitInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode commit response: %w", err)
	}
	return &info, nil
}

// UploadFile commits a single file to a repository. Small files travel
// inline in the commit; files above the LFS threshold are pushed
// through the LFS batch API first and committed as pointers.
func (c *Client) UploadFile(ctx context.Context, repo string, repoType repoid.RepoType, path string, content io.ReadSeeker, opts *UploadOptions) (*CommitInfo, error) {
	if opts == nil {
		opts = &UploadOptions{}
	}
	if strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("invalid path %q, must be relative", path)
	}
	if !repoid.Valid(repoType) {
		return nil, fmt.Errorf("invalid repo type %q", repoType)
	}
	if err := c.checkWriteToken(); err != nil {
		return nil, err
	}

	revision := opts.Revision
	if revision == "" {
		revision = "main"
	}

	oid, size, err := lfs.HashReader(content)
	if err != nil {
		return nil, err
	}

	sample := make([]byte, preuploadSampleSize)
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind content: %w", err)
	}
	n, err := io.ReadFull(content, sample)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to sample content: %w", err)
	}
	sample = sample[:n]

	uploadMode, err := c.preupload(ctx, repo, repoType, revision, path, size, sample)
	if err != nil {
		return nil, err
	}
	if uploadMode == "" {
		if size > c.lfsThreshold {
			uploadMode = "lfs"
		} else {
			uploadMode = "regular"
		}
	}

	summary := opts.CommitSummary
	if summary == "" {
		summary = fmt.Sprintf("Upload %s with hfapi", path)
	}
	header := commitHeader{
		Summary:      summary,
		Description:  opts.CommitDescription,
		ParentCommit: opts.ParentCommit,
	}

	var op commitOperation
	switch uploadMode {
	case "lfs":
		if err := c.uploadLFS(ctx, repo, repoType, oid, size, content); err != nil {
			return nil, err
		}
		op = commitOperation{Key: "lfsFile", Value: commitLFSFile{
			Path: path,
			Algo: "sha256",
			OID:  oid,
			Size: size,
		}}
	case "regular":
		if _, err := content.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to rewind content: %w", err)
		}
		data, err := io.ReadAll(content)
		if err != nil {
			return nil, fmt.Errorf("failed to read content: %w", err)
		}
		op = commitOperation{Key: "file", Value: commitFile{
			Content:  base64.StdEncoding.EncodeToString(data),
			Path:     path,
			Encoding: "base64",
		}}
	default:
		return nil, fmt.Errorf("unknown upload mode %q for %q", uploadMode, path)
	}

	return c.commit(ctx, repo, repoType, revision, header, []commitOperation{op})
}

// uploadLFS pushes content to the repository's LFS store.
func (c *Client) uploadLFS(ctx context.Context, repo string, repoType repoid.RepoType, oid string, size int64, content io.ReadSeeker) error {
	repoURL := c.endpoint + "/" + repoid.ResolvePrefix(repoType) + repo
	token, err := c.resolveToken()
	if err != nil {
		return err
	}
	authorization := ""
	if token != "" {
		authorization = "Bearer " + token
	}
	return c.lfsClient.Upload(ctx, repoURL, oid, size, content, authorization)
}

// DeleteFile commits the removal of a single file.
func (c *Client) DeleteFile(ctx context.Context, repo string, repoType repoid.RepoType, path string, opts *UploadOptions) (*CommitInfo, error) {
	if opts == nil {
		opts = &UploadOptions{}
	}
	if !repoid.Valid(repoType) {
		return nil, fmt.Errorf("invalid repo type %q", repoType)
	}
	if err := c.checkWriteToken(); err != nil {
		return nil, err
	}

	revision := opts.Revision
	if revision == "" {
		revision = "main"
	}
	summary := opts.CommitSummary
	if summary == "" {
		summary = fmt.Sprintf("Delete %s with hfapi", path)
	}
	header := commitHeader{
		Summary:      summary,
		Description:  opts.CommitDescription,
		ParentCommit: opts.ParentCommit,
	}
	op := commitOperation{Key: "deletedFile", Value: commitDeletedFile{Path: path}}
	return c.commit(ctx, repo, repoType, revision, header, []commitOperation{op})
}
