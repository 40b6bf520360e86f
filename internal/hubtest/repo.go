package hubtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/gorilla/mux"
)

func sortRefs(refs []refInfo) {
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Name < refs[j].Name
	})
}

type createRepoRequest struct {
	Type         string `json:"type"`
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
	Private      bool   `json:"private"`
	SDK          string `json:"sdk,omitempty"`
}

type deleteRepoRequest struct {
	Type         string `json:"type"`
	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
}

type moveRepoRequest struct {
	FromRepo string `json:"fromRepo"`
	ToRepo   string `json:"toRepo"`
	Type     string `json:"type"`
}

type repoSettingsRequest struct {
	Private *bool `json:"private,omitempty"`
}

func (h *Hub) handleCreateRepo(w http.ResponseWriter, r *http.Request) {
	var req createRepoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		responseJSON(w, fmt.Errorf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	name := req.Name
	if req.Organization != "" {
		name = req.Organization + "/" + name
	}
	plural := pluralOf(req.Type)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.repos[repoKey(plural, name)]; ok {
		responseJSON(w, fmt.Errorf("repository %q already exists", name), http.StatusConflict)
		return
	}

	repo := &Repo{
		Name:     name,
		Type:     plural,
		Private:  req.Private,
		SDK:      req.SDK,
		Files:    map[string][]byte{},
		LFSPaths: map[string]string{},
		Branches: map[string]string{},
		RepoTags: map[string]string{},
	}
	repo.Head = fakeCommitOID(plural, name, "init")
	repo.Branches["main"] = repo.Head
	if owner, _, ok := cutOwner(name); ok {
		repo.Author = owner
	}
	h.repos[repoKey(plural, name)] = repo

	responseJSON(w, map[string]string{
		"url": requestOrigin(r) + "/" + resolvePrefixOf(plural) + name,
	}, http.StatusOK)
}

func cutOwner(name string) (string, string, bool) {
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return name[:i], name[i+1:], true
		}
	}
	return "", name, false
}

func (h *Hub) handleDeleteRepo(w http.ResponseWriter, r *http.Request) {
	var req deleteRepoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		responseJSON(w, fmt.Errorf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	name := req.Name
	if req.Organization != "" {
		name = req.Organization + "/" + name
	}
	plural := pluralOf(req.Type)

	h.mu.Lock()
	defer h.mu.Unlock()

	key := repoKey(plural, name)
	if _, ok := h.repos[key]; !ok {
		responseJSON(w, fmt.Errorf("repository %q not found", name), http.StatusNotFound)
		return
	}
	delete(h.repos, key)
	w.WriteHeader(http.StatusOK)
}

func (h *Hub) handleMoveRepo(w http.ResponseWriter, r *http.Request) {
	var req moveRepoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		responseJSON(w, fmt.Errorf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	plural := pluralOf(req.Type)

	h.mu.Lock()
	defer h.mu.Unlock()

	fromKey := repoKey(plural, req.FromRepo)
	repo, ok := h.repos[fromKey]
	if !ok {
		responseJSON(w, fmt.Errorf("repository %q not found", req.FromRepo), http.StatusNotFound)
		return
	}
	toKey := repoKey(plural, req.ToRepo)
	if _, ok := h.repos[toKey]; ok {
		responseJSON(w, fmt.Errorf("destination repository %q already exists", req.ToRepo), http.StatusConflict)
		return
	}

	delete(h.repos, fromKey)
	repo.Name = req.ToRepo
	if owner, _, ok := cutOwner(req.ToRepo); ok {
		repo.Author = owner
	}
	h.repos[toKey] = repo
	w.WriteHeader(http.StatusOK)
}

func (h *Hub) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req repoSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		responseJSON(w, fmt.Errorf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	repo, name := h.lookup(r)
	if repo == nil {
		responseJSON(w, fmt.Errorf("repository %q not found", name), http.StatusNotFound)
		return
	}
	if req.Private != nil {
		repo.Private = *req.Private
	}
	w.WriteHeader(http.StatusOK)
}

type createBranchRequest struct {
	StartingPoint string `json:"startingPoint,omitempty"`
}

func (h *Hub) handleCreateBranch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	branch := vars["branch"]

	var req createBranchRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	repo, name := h.lookup(r)
	if repo == nil {
		responseJSON(w, fmt.Errorf("repository %q not found", name), http.StatusNotFound)
		return
	}
	if _, ok := repo.Branches[branch]; ok {
		responseJSON(w, fmt.Errorf("branch %q already exists", branch), http.StatusConflict)
		return
	}

	start := repo.Head
	if req.StartingPoint != "" {
		start = req.StartingPoint
	}
	repo.Branches[branch] = start
	w.WriteHeader(http.StatusOK)
}

func (h *Hub) handleDeleteBranch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	branch := vars["branch"]

	h.mu.Lock()
	defer h.mu.Unlock()

	repo, name := h.lookup(r)
	if repo == nil {
		responseJSON(w, fmt.Errorf("repository %q not found", name), http.StatusNotFound)
		return
	}
	if branch == "main" {
		responseJSON(w, fmt.Errorf("cannot delete default branch %q", branch), http.StatusForbidden)
		return
	}
	if _, ok := repo.Branches[branch]; !ok {
		responseJSON(w, fmt.Errorf("branch %q not found", branch), http.StatusNotFound)
		return
	}
	delete(repo.Branches, branch)
	w.WriteHeader(http.StatusOK)
}

type createTagRequest struct {
	Tag     string `json:"tag"`
	Message string `json:"message,omitempty"`
}

func (h *Hub) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	revision := vars["tag"]

	var req createTagRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responseJSON(w, fmt.Errorf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}
	}
	if req.Tag == "" {
		responseJSON(w, fmt.Errorf("tag name is required"), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	repo, name := h.lookup(r)
	if repo == nil {
		responseJSON(w, fmt.Errorf("repository %q not found", name), http.StatusNotFound)
		return
	}
	if _, ok := repo.RepoTags[req.Tag]; ok {
		responseJSON(w, fmt.Errorf("tag %q already exists", req.Tag), http.StatusConflict)
		return
	}

	target := repo.Head
	if commit, ok := repo.Branches[revision]; ok {
		target = commit
	} else if revision != "" && revision != "main" {
		target = revision
	}
	repo.RepoTags[req.Tag] = target
	w.WriteHeader(http.StatusOK)
}

func (h *Hub) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tag := vars["tag"]

	h.mu.Lock()
	defer h.mu.Unlock()

	repo, name := h.lookup(r)
	if repo == nil {
		responseJSON(w, fmt.Errorf("repository %q not found", name), http.StatusNotFound)
		return
	}
	if _, ok := repo.RepoTags[tag]; !ok {
		responseJSON(w, fmt.Errorf("tag %q not found", tag), http.StatusNotFound)
		return
	}
	delete(repo.RepoTags, tag)
	w.WriteHeader(http.StatusOK)
}

type refInfo struct {
	Name         string `json:"name"`
	Ref          string `json:"ref"`
	TargetCommit string `json:"targetCommit"`
}

func (h *Hub) handleListRefs(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	repo, name := h.lookup(r)
	if repo == nil {
		responseJSON(w, fmt.Errorf("repository %q not found", name), http.StatusNotFound)
		return
	}

	branches := []refInfo{}
	for branch, commit := range repo.Branches {
		branches = append(branches, refInfo{
			Name:         branch,
			Ref:          "refs/heads/" + branch,
			TargetCommit: commit,
		})
	}
	tags := []refInfo{}
	for tag, commit := range repo.RepoTags {
		tags = append(tags, refInfo{
			Name:         tag,
			Ref:          "refs/tags/" + tag,
			TargetCommit: commit,
		})
	}
	sortRefs(branches)
	sortRefs(tags)

	responseJSON(w, map[string][]refInfo{
		"branches": branches,
		"converts": {},
		"tags":     tags,
	}, http.StatusOK)
}
