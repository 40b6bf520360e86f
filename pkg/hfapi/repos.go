package hfapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/wzshiming/hfapi/pkg/repoid"
)

// SpacesSDKTypes are the SDKs a space repository can be created with.
var SpacesSDKTypes = []string{"gradio", "streamlit", "static"}

// CreateRepoOptions controls repository creation.
type CreateRepoOptions struct {
	// Organization creates the repo under an organization instead
	// of the token's user namespace.
	Organization string
	// Type selects the repo type. The zero value is a model.
	Type repoid.RepoType
	// Private creates the repo hidden from listings.
	Private bool
	// ExistOK suppresses the conflict error when the repo already
	// exists.
	ExistOK bool
	// SpaceSDK selects the SDK for space repos. Required when Type
	// is a space, forbidden otherwise.
	SpaceSDK string
}

type createRepoRequest struct {
	Type         string `json:"type,omitempty"`
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
	Private      bool   `json:"private"`
	SDK          string `json:"sdk,omitempty"`
}

type createRepoResponse struct {
	URL string `json:"url"`
}

func isValidSpaceSDK(sdk string) bool {
	for _, known := range SpacesSDKTypes {
		if sdk == known {
			return true
		}
	}
	return false
}

// checkWriteToken rejects organization tokens. Write operations must
// use a personal token and select the organization explicitly.
func (c *Client) checkWriteToken() error {
	token, err := c.resolveToken()
	if err != nil {
		return err
	}
	if strings.HasPrefix(token, "api_org") {
		return fmt.Errorf("you must use your personal account token: organization tokens cannot perform this operation")
	}
	return nil
}

// CreateRepo creates a new repository and returns its URL on the hub.
func (c *Client) CreateRepo(ctx context.Context, name string, opts *CreateRepoOptions) (string, error) {
	if opts == nil {
		opts = &CreateRepoOptions{}
	}
	if !repoid.Valid(opts.Type) {
		return "", fmt.Errorf("invalid repo type %q", opts.Type)
	}
	if opts.Type == repoid.RepoTypeSpace {
		if opts.SpaceSDK == "" {
			return "", fmt.Errorf("a space SDK is required, choose one of %v", SpacesSDKTypes)
		}
		if !isValidSpaceSDK(opts.SpaceSDK) {
			return "", fmt.Errorf("invalid space SDK %q, choose one of %v", opts.SpaceSDK, SpacesSDKTypes)
		}
	} else if opts.SpaceSDK != "" {
		return "", fmt.Errorf("a space SDK is only valid when creating a space")
	}
	if err := c.checkWriteToken(); err != nil {
		return "", err
	}

	req := createRepoRequest{
		Type:         string(opts.Type),
		Name:         name,
		Organization: opts.Organization,
		Private:      opts.Private,
		SDK:          opts.SpaceSDK,
	}
	var resp createRepoResponse
	err := c.do(ctx, http.MethodPost, "/api/repos/create", nil, req, &resp)
	if err != nil {
		if opts.ExistOK && StatusCodeOf(err) == http.StatusConflict {
			return c.RepoURL(name, opts.Organization, opts.Type), nil
		}
		return "", err
	}
	if resp.URL == "" {
		return c.RepoURL(name, opts.Organization, opts.Type), nil
	}
	return resp.URL, nil
}

// RepoURL is the web URL of a repository on the configured hub.
func (c *Client) RepoURL(name, organization string, repoType repoid.RepoType) string {
	return c.endpoint + "/" + repoid.ResolvePrefix(repoType) + FullRepoName(name, organization)
}

// FullRepoName joins an organization and repo name into "org/name".
// With no organization the name is returned as is; callers that know
// the token's user prepend it themselves.
func FullRepoName(name, organization string) string {
	if organization == "" {
		return name
	}
	return organization + "/" + name
}

type deleteRepoRequest struct {
	Type         string `json:"type,omitempty"`
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
}

// DeleteRepo removes a repository from the hub. This is permanent.
func (c *Client) DeleteRepo(ctx context.Context, name string, organization string, repoType repoid.RepoType) error {
	if !repoid.Valid(repoType) {
		return fmt.Errorf("invalid repo type %q", repoType)
	}
	if err := c.checkWriteToken(); err != nil {
		return err
	}
	req := deleteRepoRequest{
		Type:         string(repoType),
		Name:         name,
		Organization: organization,
	}
	return c.do(ctx, http.MethodDelete, "/api/repos/delete", nil, req, nil)
}

type moveRepoRequest struct {
	FromRepo string `json:"fromRepo"`
	ToRepo   string `json:"toRepo"`
	Type     string `json:"type,omitempty"`
}

// MoveRepo transfers a repository to a new "owner/name" location. Both
// identifiers must carry exactly one slash.
func (c *Client) MoveRepo(ctx context.Context, fromRepo, toRepo string, repoType repoid.RepoType) error {
	for _, id := range []string{fromRepo, toRepo} {
		if strings.Count(id, "/") != 1 {
			return fmt.Errorf("invalid repo id %q, expected owner/name", id)
		}
	}
	if !repoid.Valid(repoType) {
		return fmt.Errorf("invalid repo type %q", repoType)
	}
	if err := c.checkWriteToken(); err != nil {
		return err
	}
	req := moveRepoRequest{
		FromRepo: fromRepo,
		ToRepo:   toRepo,
		Type:     string(repoType),
	}
	return c.do(ctx, http.MethodPost, "/api/repos/move", nil, req, nil)
}

type repoSettingsRequest struct {
	Private *bool `json:"private,omitempty"`
}

// UpdateRepoVisibility switches a repository between private and
// public.
func (c *Client) UpdateRepoVisibility(ctx context.Context, repo string, repoType repoid.RepoType, private bool) error {
	if !repoid.Valid(repoType) {
		return fmt.Errorf("invalid repo type %q", repoType)
	}
	if err := c.checkWriteToken(); err != nil {
		return err
	}
	path := fmt.Sprintf("/api/%s/%s/settings", repoid.APIPrefix(repoType), repo)
	return c.do(ctx, http.MethodPut, path, nil, repoSettingsRequest{Private: &private}, nil)
}

type createBranchRequest struct {
	StartingPoint string `json:"startingPoint,omitempty"`
}

// CreateBranch creates a branch, optionally from a starting revision.
func (c *Client) CreateBranch(ctx context.Context, repo string, repoType repoid.RepoType, branch, startingPoint string) error {
	path := fmt.Sprintf("/api/%s/%s/branch/%s", repoid.APIPrefix(repoType), repo, branch)
	return c.do(ctx, http.MethodPost, path, nil, createBranchRequest{StartingPoint: startingPoint}, nil)
}

// DeleteBranch removes a branch. The default branch cannot be deleted.
func (c *Client) DeleteBranch(ctx context.Context, repo string, repoType repoid.RepoType, branch string) error {
	path := fmt.Sprintf("/api/%s/%s/branch/%s", repoid.APIPrefix(repoType), repo, branch)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

type createTagRequest struct {
	Tag     string `json:"tag"`
	Message string `json:"message,omitempty"`
}

// CreateTag tags the given revision.
func (c *Client) CreateTag(ctx context.Context, repo string, repoType repoid.RepoType, revision, tag, message string) error {
	path := fmt.Sprintf("/api/%s/%s/tag/%s", repoid.APIPrefix(repoType), repo, revision)
	return c.do(ctx, http.MethodPost, path, nil, createTagRequest{Tag: tag, Message: message}, nil)
}

// DeleteTag removes a tag.
func (c *Client) DeleteTag(ctx context.Context, repo string, repoType repoid.RepoType, tag string) error {
	path := fmt.Sprintf("/api/%s/%s/tag/%s", repoid.APIPrefix(repoType), repo, tag)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// ListRefs returns the branches and tags of a repository.
func (c *Client) ListRefs(ctx context.Context, repo string, repoType repoid.RepoType) (*Refs, error) {
	if !repoid.Valid(repoType) {
		return nil, fmt.Errorf("invalid repo type %q", repoType)
	}
	path := fmt.Sprintf("/api/%s/%s/refs", repoid.APIPrefix(repoType), repo)
	var refs Refs
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &refs); err != nil {
		return nil, err
	}
	return &refs, nil
}
