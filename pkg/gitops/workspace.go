// Package gitops manages local working copies of hub repositories:
// clone, LFS tracking, commit and push.
package gitops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/wzshiming/hfapi/internal/utils"
	"github.com/wzshiming/hfapi/pkg/credential"
)

// Workspace is a local clone of a hub repository.
type Workspace struct {
	dir  string
	repo *git.Repository
}

func basicAuth(token string) *githttp.BasicAuth {
	if token == "" {
		return nil
	}
	return &githttp.BasicAuth{
		Username: credential.UsernamePlaceholder,
		Password: token,
	}
}

// Clone clones remoteURL into dir. The token, if non-empty, is used
// for authentication.
func Clone(ctx context.Context, remoteURL, dir, token string) (*Workspace, error) {
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:  remoteURL,
		Auth: basicAuth(token),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", remoteURL, err)
	}
	return &Workspace{dir: dir, repo: repo}, nil
}

// Init creates a new repository in dir with the given remote.
func Init(dir, remoteURL string) (*Workspace, error) {
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to init repository: %w", err)
	}
	if remoteURL != "" {
		_, err = repo.CreateRemote(&config.RemoteConfig{
			Name: "origin",
			URLs: []string{remoteURL},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add remote: %w", err)
		}
	}
	return &Workspace{dir: dir, repo: repo}, nil
}

// Open opens an existing working copy.
func Open(dir string) (*Workspace, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}
	return &Workspace{dir: dir, repo: repo}, nil
}

// Dir returns the working copy location.
func (w *Workspace) Dir() string {
	return w.dir
}

const lfsAttributeSuffix = " filter=lfs diff=lfs merge=lfs -text"

// TrackLFS adds patterns to .gitattributes as LFS-filtered. Patterns
// already tracked are skipped.
func (w *Workspace) TrackLFS(patterns ...string) error {
	attrPath := filepath.Join(w.dir, ".gitattributes")
	content, err := os.ReadFile(attrPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read .gitattributes: %w", err)
	}

	attrs := ParseGitAttributes(string(content))
	tracked := map[string]struct{}{}
	for _, pattern := range attrs.Patterns() {
		tracked[pattern] = struct{}{}
	}

	var added []string
	for _, pattern := range patterns {
		if _, ok := tracked[pattern]; ok {
			continue
		}
		tracked[pattern] = struct{}{}
		added = append(added, pattern)
	}
	if len(added) == 0 {
		return nil
	}
	sort.Strings(added)

	var b strings.Builder
	b.Write(content)
	if len(content) > 0 && content[len(content)-1] != '\n' {
		b.WriteByte('\n')
	}
	for _, pattern := range added {
		b.WriteString(pattern)
		b.WriteString(lfsAttributeSuffix)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(attrPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write .gitattributes: %w", err)
	}
	return nil
}

// IsTrackedLFS reports whether a path is LFS-filtered by the working
// copy's .gitattributes.
func (w *Workspace) IsTrackedLFS(path string) (bool, error) {
	content, err := os.ReadFile(filepath.Join(w.dir, ".gitattributes"))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read .gitattributes: %w", err)
	}
	return ParseGitAttributes(string(content)).IsLFS(path), nil
}

// CommitAll stages every change in the working copy and commits it.
func (w *Workspace) CommitAll(message, name, email string) (string, error) {
	wt, err := w.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("failed to stage changes: %w", err)
	}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  name,
			Email: email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return hash.String(), nil
}

// Push pushes the current branch to origin.
func (w *Workspace) Push(ctx context.Context, token string) error {
	err := w.repo.PushContext(ctx, &git.PushOptions{
		Auth: basicAuth(token),
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to push: %w", err)
	}
	return nil
}

// EnableLargeFiles relaxes http.postBuffer in the working copy's git
// config so pushes of large non-LFS files do not fail. It shells out
// because go-git does not expose this knob.
func (w *Workspace) EnableLargeFiles(ctx context.Context) error {
	cmd := utils.Command(ctx, "git", "config", "http.postBuffer", "524288000")
	cmd.Dir = w.dir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to set http.postBuffer: %w", err)
	}
	cmd = utils.Command(ctx, "git", "config", "lfs.allowincompletepush", "true")
	cmd.Dir = w.dir
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to set lfs.allowincompletepush: %w", err)
	}
	return nil
}
