// Package hfapi is a client for the Hugging Face Hub HTTP API: repo
// management, model and dataset search, file upload and download URLs.
package hfapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/wzshiming/hfapi/internal/utils"
	"github.com/wzshiming/hfapi/pkg/credential"
	"github.com/wzshiming/hfapi/pkg/lfs"
)

// DefaultEndpoint is the public hub endpoint.
const DefaultEndpoint = "https://huggingface.co"

// defaultLFSThreshold is the file size above which uploads go through
// the LFS batch API instead of inline base64 commit content.
const defaultLFSThreshold = 10 * 1024 * 1024 // 10MB

// TokenStore provides the access token used when no explicit token is
// configured. credential.Folder satisfies it.
type TokenStore interface {
	Token() (string, error)
}

// Client talks to a Hugging Face compatible hub.
type Client struct {
	endpoint     string
	token        string
	tokenStore   TokenStore
	httpClient   *http.Client
	lfsClient    *lfs.Client
	lfsThreshold int64
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint points the client at a different hub, for example a
// local stub server.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = strings.TrimSuffix(endpoint, "/")
	}
}

// WithToken sets a fixed access token, bypassing the token store.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the default retrying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTokenStore sets the store consulted for a token when none is set
// explicitly.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) {
		c.tokenStore = store
	}
}

// WithLFSMultipartThreshold overrides the size at which uploads switch
// to the LFS batch API.
func WithLFSMultipartThreshold(threshold int64) Option {
	return func(c *Client) {
		c.lfsThreshold = threshold
	}
}

// NewClient creates a new Client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint:     DefaultEndpoint,
		lfsThreshold: defaultLFSThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = utils.HTTPClient
	}
	if c.tokenStore == nil {
		c.tokenStore = credential.NewFolder()
	}
	c.lfsClient = lfs.NewClient(c.httpClient)
	return c
}

// Endpoint returns the hub endpoint the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// resolveToken returns the effective access token: the explicit token
// when set, otherwise the token store's.
func (c *Client) resolveToken() (string, error) {
	if c.token != "" {
		return c.token, nil
	}
	return c.tokenStore.Token()
}

// APIError is a non-2xx response from the hub.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("hub request %s failed with status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("hub request %s failed with status %d: %s", e.URL, e.StatusCode, e.Message)
}

// StatusCodeOf returns the hub status code carried by err, or 0 when
// err is not an APIError.
func StatusCodeOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		URL:        resp.Request.URL.String(),
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return apiErr
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// do performs a hub API request. A non-nil in body is sent as JSON.
// When out is non-nil the response body is decoded into it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// authorize attaches the bearer token to req when one is available.
func (c *Client) authorize(req *http.Request) error {
	token, err := c.resolveToken()
	if err != nil {
		return fmt.Errorf("failed to resolve token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// Whoami returns the account behind the configured token.
func (c *Client) Whoami(ctx context.Context) (*Account, error) {
	var account Account
	if err := c.do(ctx, http.MethodGet, "/api/whoami-v2", nil, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}
