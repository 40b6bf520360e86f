package lfs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to a remote Git LFS server.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a new Client for transferring LFS objects.
func NewClient(httpClient *http.Client) *Client {
	return &Client{
		httpClient: httpClient,
	}
}

// BatchRequest represents a request to the LFS batch API
type BatchRequest struct {
	Operation string        `json:"operation"`
	Transfers []string      `json:"transfers,omitempty"`
	Objects   []BatchObject `json:"objects"`
}

// BatchObject represents an object in a batch request
type BatchObject struct {
	Oid  string `json:"oid"`
	Size int64  `json:"size"`
}

// BatchResponse represents a response from the LFS batch API
type BatchResponse struct {
	Transfer string                `json:"transfer,omitempty"`
	Objects  []BatchResponseObject `json:"objects"`
}

// BatchResponseObject represents an object in a batch response
type BatchResponseObject struct {
	Oid           string            `json:"oid"`
	Size          int64             `json:"size"`
	Authenticated bool              `json:"authenticated,omitempty"`
	Actions       map[string]Action `json:"actions,omitempty"`
	Error         *ObjectError      `json:"error,omitempty"`
}

// Action represents an action in a batch response
type Action struct {
	Href      string            `json:"href"`
	Header    map[string]string `json:"header,omitempty"`
	ExpiresIn int               `json:"expires_in,omitempty"`
	ExpiresAt time.Time         `json:"expires_at,omitempty"`
}

// ObjectError represents an error for an object in a batch response
type ObjectError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// batchURL derives the LFS batch endpoint from a Git repository URL,
// appending the .git suffix when the URL does not carry one.
func batchURL(repoURL string) string {
	endpoint := strings.TrimSuffix(repoURL, "/")
	if !strings.HasSuffix(endpoint, ".git") {
		endpoint += ".git"
	}
	return endpoint + "/info/lfs/objects/batch"
}

// Batch issues a batch API request for the given operation ("download"
// or "upload"). The authorization value, if non-empty, is sent as the
// Authorization header.
func (c *Client) Batch(ctx context.Context, repoURL, operation string, objects []BatchObject, authorization string) (*BatchResponse, error) {
	if len(objects) == 0 {
		return &BatchResponse{}, nil
	}

	reqBody := BatchRequest{
		Operation: operation,
		Transfers: []string{"basic"},
		Objects:   objects,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, batchURL(repoURL), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create batch request: %w", err)
	}

	req.Header.Set("Content-Type", "application/vnd.git-lfs+json")
	req.Header.Set("Accept", "application/vnd.git-lfs+json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute batch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("batch request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var batchResp BatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&batchResp); err != nil {
		return nil, fmt.Errorf("failed to decode batch response: %w", err)
	}

	return &batchResp, nil
}

// Upload pushes a single object to the LFS server backing repoURL.
// If the server reports no upload action for the object, it already
// has the content and the upload is skipped.
func (c *Client) Upload(ctx context.Context, repoURL, oid string, size int64, content io.ReadSeeker, authorization string) error {
	batchResp, err := c.Batch(ctx, repoURL, "upload", []BatchObject{{Oid: oid, Size: size}}, authorization)
	if err != nil {
		return err
	}

	var obj *BatchResponseObject
	for i := range batchResp.Objects {
		if batchResp.Objects[i].Oid == oid {
			obj = &batchResp.Objects[i]
			break
		}
	}
	if obj == nil {
		return fmt.Errorf("object %s missing from batch response", oid)
	}
	if obj.Error != nil {
		return fmt.Errorf("object %s rejected by server: %s (code %d)", oid, obj.Error.Message, obj.Error.Code)
	}

	upload, ok := obj.Actions["upload"]
	if !ok {
		// Server already has the object.
		return nil
	}

	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind content for %s: %w", oid, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, upload.Href, content)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")
	for key, value := range upload.Header {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", oid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload of %s failed with status %d: %s", oid, resp.StatusCode, string(body))
	}

	if verify, ok := obj.Actions["verify"]; ok {
		if err := c.verify(ctx, verify, oid, size); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) verify(ctx context.Context, action Action, oid string, size int64) error {
	body, err := json.Marshal(BatchObject{Oid: oid, Size: size})
	if err != nil {
		return fmt.Errorf("failed to marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action.Href, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/vnd.git-lfs+json")
	for key, value := range action.Header {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to verify object %s: %w", oid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("verify of %s failed with status %d: %s", oid, resp.StatusCode, string(respBody))
	}
	return nil
}
