// Package repoid parses references to hosted repositories (models,
// datasets and spaces) into their type, owner and name components.
package repoid

import (
	"errors"
	"fmt"
	"strings"
)

// RepoType identifies the kind of repository a reference points at.
// The empty value means "model", which is the hub default and is
// omitted from API paths.
type RepoType string

const (
	RepoTypeModel   RepoType = ""
	RepoTypeDataset RepoType = "dataset"
	RepoTypeSpace   RepoType = "space"
)

// ErrInvalidIdentifier is returned when a reference cannot be parsed
// into a repository identifier.
var ErrInvalidIdentifier = errors.New("invalid repository identifier")

// RepoID is a parsed repository reference. Name is never empty; Owner
// is empty only for the single-segment bare form.
type RepoID struct {
	Type  RepoType
	Owner string
	Name  string
}

// String returns the identifier in "owner/name" form, or just "name"
// when there is no owner.
func (id RepoID) String() string {
	if id.Owner == "" {
		return id.Name
	}
	return id.Owner + "/" + id.Name
}

// URL path prefixes use the plural form, while bare three-segment
// identifiers use the singular form. Both are distinct external
// contracts and are kept separate on purpose.
var urlTypePrefixes = map[string]RepoType{
	"datasets": RepoTypeDataset,
	"spaces":   RepoTypeSpace,
}

var bareTypePrefixes = map[string]RepoType{
	"dataset": RepoTypeDataset,
	"space":   RepoTypeSpace,
}

// Parse parses a repository reference into a RepoID. The reference may
// be a bare name ("id"), an owner-qualified name ("owner/id"), a typed
// name ("dataset/owner/id", "space/owner/id"), or a full URL under
// hubURL ("https://hub.example/datasets/owner/id").
func Parse(ref, hubURL string) (RepoID, error) {
	hubURL = strings.TrimSuffix(hubURL, "/")

	if hubURL != "" && strings.HasPrefix(ref, hubURL+"/") {
		return parseURL(strings.TrimPrefix(ref, hubURL+"/"), ref)
	}

	segments := strings.Split(ref, "/")
	switch len(segments) {
	case 1:
		return RepoID{Name: segments[0]}, nil
	case 2:
		return RepoID{Owner: segments[0], Name: segments[1]}, nil
	case 3:
		repoType, ok := bareTypePrefixes[segments[0]]
		if !ok {
			return RepoID{}, fmt.Errorf("%w: unknown repo type %q in %q", ErrInvalidIdentifier, segments[0], ref)
		}
		return RepoID{Type: repoType, Owner: segments[1], Name: segments[2]}, nil
	default:
		return RepoID{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, ref)
	}
}

func parseURL(path, ref string) (RepoID, error) {
	path = strings.Trim(path, "/")

	segments := strings.Split(path, "/")
	switch len(segments) {
	case 1:
		if segments[0] == "" {
			return RepoID{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, ref)
		}
		return RepoID{Name: segments[0]}, nil
	case 2:
		return RepoID{Owner: segments[0], Name: segments[1]}, nil
	case 3:
		repoType, ok := urlTypePrefixes[segments[0]]
		if !ok {
			return RepoID{}, fmt.Errorf("%w: unknown repo type prefix %q in %q", ErrInvalidIdentifier, segments[0], ref)
		}
		return RepoID{Type: repoType, Owner: segments[1], Name: segments[2]}, nil
	default:
		return RepoID{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, ref)
	}
}

// Valid reports whether t is a known repository type.
func Valid(t RepoType) bool {
	switch t {
	case RepoTypeModel, RepoTypeDataset, RepoTypeSpace:
		return true
	}
	return false
}

// APIPrefix returns the plural path segment used by the hub API for
// the given repository type.
func APIPrefix(t RepoType) string {
	switch t {
	case RepoTypeDataset:
		return "datasets"
	case RepoTypeSpace:
		return "spaces"
	default:
		return "models"
	}
}

// ResolvePrefix returns the path prefix used by file resolve URLs.
// Models resolve from the hub root, datasets and spaces under their
// plural prefix.
func ResolvePrefix(t RepoType) string {
	switch t {
	case RepoTypeDataset:
		return "datasets/"
	case RepoTypeSpace:
		return "spaces/"
	default:
		return ""
	}
}
