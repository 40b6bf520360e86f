package hfapi

import "encoding/json"

// Sibling is a file in a repository.
type Sibling struct {
	RFilename string `json:"rfilename"`
}

// ModelInfo is the hub's metadata for a model repository.
type ModelInfo struct {
	ID             string          `json:"id"`
	ModelID        string          `json:"modelId,omitempty"`
	Author         string          `json:"author,omitempty"`
	SHA            string          `json:"sha,omitempty"`
	Private        bool            `json:"private"`
	Disabled       bool            `json:"disabled,omitempty"`
	Gated          bool            `json:"gated,omitempty"`
	Downloads      int             `json:"downloads"`
	Likes          int             `json:"likes"`
	Tags           []string        `json:"tags"`
	PipelineTag    string          `json:"pipeline_tag,omitempty"`
	LibraryName    string          `json:"library_name,omitempty"`
	Siblings       []Sibling       `json:"siblings"`
	CardData       map[string]any  `json:"cardData,omitempty"`
	Config         json.RawMessage `json:"config,omitempty"`
	SecurityStatus json.RawMessage `json:"securityStatus,omitempty"`
	CreatedAt      string          `json:"createdAt,omitempty"`
	LastModified   string          `json:"lastModified,omitempty"`
	DefaultBranch  string          `json:"defaultBranch,omitempty"`
}

// DatasetInfo is the hub's metadata for a dataset repository.
type DatasetInfo struct {
	ID            string         `json:"id"`
	Author        string         `json:"author,omitempty"`
	SHA           string         `json:"sha,omitempty"`
	Private       bool           `json:"private"`
	Downloads     int            `json:"downloads"`
	Likes         int            `json:"likes"`
	Tags          []string       `json:"tags"`
	Siblings      []Sibling      `json:"siblings"`
	CardData      map[string]any `json:"cardData,omitempty"`
	CreatedAt     string         `json:"createdAt,omitempty"`
	LastModified  string         `json:"lastModified,omitempty"`
	DefaultBranch string         `json:"defaultBranch,omitempty"`
}

// MetricInfo is a single entry from the hub's metrics listing.
type MetricInfo struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`
	Citation    string `json:"citation,omitempty"`
}

// Org is an organization an account belongs to.
type Org struct {
	Name     string `json:"name"`
	APIToken string `json:"apiToken,omitempty"`
}

// Account is the whoami response: the identity behind a token.
type Account struct {
	Name     string `json:"name"`
	Fullname string `json:"fullname,omitempty"`
	Email    string `json:"email,omitempty"`
	Orgs     []Org  `json:"orgs,omitempty"`
}

// CommitInfo describes a commit created through the commit endpoint.
type CommitInfo struct {
	CommitURL     string `json:"commitUrl"`
	CommitOID     string `json:"commitOid"`
	CommitMessage string `json:"commitMessage"`
}

// RefInfo is a single git ref (branch or tag) of a repository.
type RefInfo struct {
	Name         string `json:"name"`
	Ref          string `json:"ref"`
	TargetCommit string `json:"targetCommit"`
}

// Refs groups a repository's refs by kind.
type Refs struct {
	Branches []RefInfo `json:"branches"`
	Converts []RefInfo `json:"converts"`
	Tags     []RefInfo `json:"tags"`
}

// TreeEntry is one entry from the repository tree listing.
type TreeEntry struct {
	Type string `json:"type"`
	Path string `json:"path"`
	Size int64  `json:"size,omitempty"`
	OID  string `json:"oid,omitempty"`
}
