package hubtest

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

type sibling struct {
	RFilename string `json:"rfilename"`
}

type repoInfo struct {
	ID             string         `json:"id"`
	ModelID        string         `json:"modelId,omitempty"`
	Author         string         `json:"author,omitempty"`
	SHA            string         `json:"sha,omitempty"`
	Private        bool           `json:"private"`
	Downloads      int            `json:"downloads"`
	Likes          int            `json:"likes"`
	Tags           []string       `json:"tags"`
	PipelineTag    string         `json:"pipeline_tag,omitempty"`
	Siblings       []sibling      `json:"siblings"`
	CardData       map[string]any `json:"cardData,omitempty"`
	SecurityStatus map[string]any `json:"securityStatus,omitempty"`
	DefaultBranch  string         `json:"defaultBranch,omitempty"`
}

func (h *Hub) repoInfoOf(repo *Repo, withCardData, withSecurity bool) repoInfo {
	info := repoInfo{
		ID:            repo.Name,
		Author:        repo.Author,
		SHA:           repo.Head,
		Private:       repo.Private,
		Downloads:     repo.Downloads,
		Likes:         repo.Likes,
		Tags:          repo.Tags,
		PipelineTag:   repo.Pipeline,
		Siblings:      []sibling{},
		DefaultBranch: "main",
	}
	if repo.Type == "models" {
		info.ModelID = repo.Name
	}
	if info.Tags == nil {
		info.Tags = []string{}
	}
	paths := make([]string, 0, len(repo.Files))
	for path := range repo.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		info.Siblings = append(info.Siblings, sibling{RFilename: path})
	}
	if withCardData {
		info.CardData = repo.CardData
	}
	if withSecurity {
		info.SecurityStatus = map[string]any{"scansDone": true}
	}
	return info
}

func (h *Hub) handleList(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	plural := vars["repoType"]
	query := r.URL.Query()

	author := query.Get("author")
	searchText := query.Get("search")
	tagFilters := query["filter"]
	limit, _ := strconv.Atoi(query.Get("limit"))
	withCardData, _ := strconv.ParseBool(query.Get("cardData"))

	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.repos))
	for key, repo := range h.repos {
		if repo.Type != plural {
			continue
		}
		names = append(names, key)
	}
	sort.Strings(names)

	results := []repoInfo{}
	for _, key := range names {
		repo := h.repos[key]
		if author != "" && repo.Author != author {
			continue
		}
		if searchText != "" && !strings.Contains(strings.ToLower(repo.Name), strings.ToLower(searchText)) {
			continue
		}
		if !hasAllTags(repo.Tags, tagFilters) {
			continue
		}
		results = append(results, h.repoInfoOf(repo, withCardData, false))
		if limit > 0 && len(results) >= limit {
			break
		}
	}

	responseJSON(w, results, http.StatusOK)
}

func hasAllTags(tags, wanted []string) bool {
	for _, want := range wanted {
		found := false
		for _, tag := range tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (h *Hub) handleRepoInfo(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	withSecurity, _ := strconv.ParseBool(query.Get("securityStatus"))

	h.mu.Lock()
	defer h.mu.Unlock()

	repo, name := h.lookup(r)
	if repo == nil {
		responseJSON(w, fmt.Errorf("repository %q not found", name), http.StatusNotFound)
		return
	}

	responseJSON(w, h.repoInfoOf(repo, true, withSecurity), http.StatusOK)
}

type treeEntry struct {
	Type string `json:"type"`
	Path string `json:"path"`
	Size int64  `json:"size"`
	OID  string `json:"oid,omitempty"`
}

func (h *Hub) handleTree(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	repo, name := h.lookup(r)
	if repo == nil {
		responseJSON(w, fmt.Errorf("repository %q not found", name), http.StatusNotFound)
		return
	}

	paths := make([]string, 0, len(repo.Files))
	for path := range repo.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	entries := []treeEntry{}
	for _, path := range paths {
		entries = append(entries, treeEntry{
			Type: "blob",
			Path: path,
			Size: int64(len(repo.Files[path])),
			OID:  repo.LFSPaths[path],
		})
	}
	responseJSON(w, entries, http.StatusOK)
}
