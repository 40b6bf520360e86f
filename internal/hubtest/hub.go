// Package hubtest is an in-memory hub server for tests and for the
// hubstub command. It speaks the same API surface the client package
// consumes: repo management, listings, commits, resolve and LFS.
package hubtest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/wzshiming/hfapi/pkg/search"
)

const defaultLFSThreshold = 10 * 1024 * 1024

// Repo is one in-memory repository.
type Repo struct {
	Name     string
	Type     string // models, datasets or spaces
	Private  bool
	SDK      string
	Author   string
	Tags     []string
	Pipeline string
	CardData map[string]any

	Downloads int
	Likes     int

	Files    map[string][]byte
	LFSPaths map[string]string // path -> oid, set by lfsFile commits
	Branches map[string]string // name -> commit
	RepoTags map[string]string // tag -> commit
	Head     string
}

// Hub is the in-memory fake hub.
type Hub struct {
	mu sync.Mutex

	repos        map[string]*Repo // key: "{plural}/{owner/name}"
	lfsObjects   map[string][]byte
	tokens       map[string]string // token -> username
	modelVocab   map[string][]search.Tag
	datasetVocab map[string][]search.Tag
	metrics      []map[string]string

	lfsThreshold int64

	root *mux.Router
}

// Option configures a Hub.
type Option func(*Hub)

// WithLFSThreshold overrides the preupload size cutoff for LFS mode.
func WithLFSThreshold(threshold int64) Option {
	return func(h *Hub) {
		h.lfsThreshold = threshold
	}
}

// NewHub creates an empty in-memory hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		repos:        map[string]*Repo{},
		lfsObjects:   map[string][]byte{},
		tokens:       map[string]string{},
		modelVocab:   map[string][]search.Tag{},
		datasetVocab: map[string][]search.Tag{},
		lfsThreshold: defaultLFSThreshold,
		root:         mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.register()
	return h
}

// ServeHTTP implements the http.Handler interface.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}

func (h *Hub) register() {
	r := h.root

	r.HandleFunc("/api/whoami-v2", h.handleWhoami).Methods(http.MethodGet)

	r.HandleFunc("/api/repos/create", h.handleCreateRepo).Methods(http.MethodPost)
	r.HandleFunc("/api/repos/delete", h.handleDeleteRepo).Methods(http.MethodDelete)
	r.HandleFunc("/api/repos/move", h.handleMoveRepo).Methods(http.MethodPost)

	r.HandleFunc("/api/models-tags-by-type", h.handleModelVocab).Methods(http.MethodGet)
	r.HandleFunc("/api/datasets-tags-by-type", h.handleDatasetVocab).Methods(http.MethodGet)
	r.HandleFunc("/api/metrics", h.handleMetrics).Methods(http.MethodGet)

	r.HandleFunc("/api/{repoType:models|datasets|spaces}/{repo:.+}/settings", h.handleSettings).Methods(http.MethodPut)
	r.HandleFunc("/api/{repoType:models|datasets|spaces}/{repo:.+}/branch/{branch:.*}", h.handleCreateBranch).Methods(http.MethodPost)
	r.HandleFunc("/api/{repoType:models|datasets|spaces}/{repo:.+}/branch/{branch:.*}", h.handleDeleteBranch).Methods(http.MethodDelete)
	r.HandleFunc("/api/{repoType:models|datasets|spaces}/{repo:.+}/tag/{tag:.*}", h.handleCreateTag).Methods(http.MethodPost)
	r.HandleFunc("/api/{repoType:models|datasets|spaces}/{repo:.+}/tag/{tag:.*}", h.handleDeleteTag).Methods(http.MethodDelete)
	r.HandleFunc("/api/{repoType:models|datasets|spaces}/{repo:.+}/refs", h.handleListRefs).Methods(http.MethodGet)

	r.HandleFunc("/api/{repoType:models|datasets|spaces}/{repo:.+}/preupload/{revision:.*}", h.handlePreupload).Methods(http.MethodPost)
	r.HandleFunc("/api/{repoType:models|datasets|spaces}/{repo:.+}/commit/{revision:.*}", h.handleCommit).Methods(http.MethodPost)
	r.HandleFunc("/api/{repoType:models|datasets|spaces}/{repo:.+}/revision/{revision:.*}", h.handleRepoInfo).Methods(http.MethodGet)
	r.HandleFunc("/api/{repoType:models|datasets|spaces}/{repo:.+}/tree/{refpath:.*}", h.handleTree).Methods(http.MethodGet)
	r.HandleFunc("/api/{repoType:models|datasets}", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/api/{repoType:models|datasets|spaces}/{repo:.+}", h.handleRepoInfo).Methods(http.MethodGet)

	r.HandleFunc("/{repoType:datasets|spaces}/{repo:.+}/resolve/{refpath:.*}", h.handleResolve).Methods(http.MethodGet, http.MethodHead)

	r.HandleFunc("/{repo:.+}.git/info/lfs/objects/batch", h.handleLFSBatch).Methods(http.MethodPost)
	r.HandleFunc("/lfs/objects/{oid}", h.handleLFSUpload).Methods(http.MethodPut)
	r.HandleFunc("/lfs/verify", h.handleLFSVerify).Methods(http.MethodPost)

	r.HandleFunc("/{repo:.+}/resolve/{refpath:.*}", h.handleResolve).Methods(http.MethodGet, http.MethodHead)
}

func responseJSON(w http.ResponseWriter, data any, sc int) {
	header := w.Header()
	if header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/json; charset=utf-8")
	}

	if sc >= http.StatusBadRequest {
		header.Del("Content-Length")
		header.Set("X-Content-Type-Options", "nosniff")
	}

	if sc != 0 {
		w.WriteHeader(sc)
	}

	if data == nil {
		_, _ = w.Write([]byte("{}"))
		return
	}

	switch t := data.(type) {
	case error:
		var dataErr struct {
			Error string `json:"error"`
		}
		dataErr.Error = t.Error()
		data = dataErr
	case string:
		var dataErr struct {
			Error string `json:"error"`
		}
		dataErr.Error = t
		data = dataErr
	}

	enc := json.NewEncoder(w)
	_ = enc.Encode(data)
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwdProto := r.Header.Get("X-Forwarded-Proto"); fwdProto != "" {
		scheme = fwdProto
	}
	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

func repoKey(plural, name string) string {
	return plural + "/" + name
}

func pluralOf(repoType string) string {
	switch repoType {
	case "dataset":
		return "datasets"
	case "space":
		return "spaces"
	default:
		return "models"
	}
}

func resolvePrefixOf(plural string) string {
	switch plural {
	case "datasets", "spaces":
		return plural + "/"
	default:
		return ""
	}
}

func fakeCommitOID(parts ...string) string {
	hash := sha256.New()
	for _, part := range parts {
		hash.Write([]byte(part))
		hash.Write([]byte{0})
	}
	return hex.EncodeToString(hash.Sum(nil))[:40]
}

// SetToken registers a token for a username. Requests carrying the
// token authenticate as that user.
func (h *Hub) SetToken(token, username string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tokens[token] = username
}

// SetModelVocab installs the vocabulary served by models-tags-by-type.
func (h *Hub) SetModelVocab(vocab map[string][]search.Tag) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.modelVocab = vocab
}

// SetDatasetVocab installs the vocabulary served by
// datasets-tags-by-type.
func (h *Hub) SetDatasetVocab(vocab map[string][]search.Tag) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.datasetVocab = vocab
}

// SetMetrics installs the metrics listing.
func (h *Hub) SetMetrics(metrics []map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.metrics = metrics
}

// AddRepo seeds a repository. The repo's Type must be the plural form
// (models, datasets, spaces); empty means models.
func (h *Hub) AddRepo(repo *Repo) *Repo {
	h.mu.Lock()
	defer h.mu.Unlock()
	if repo.Type == "" {
		repo.Type = "models"
	}
	if repo.Files == nil {
		repo.Files = map[string][]byte{}
	}
	if repo.LFSPaths == nil {
		repo.LFSPaths = map[string]string{}
	}
	if repo.Branches == nil {
		repo.Branches = map[string]string{}
	}
	if repo.RepoTags == nil {
		repo.RepoTags = map[string]string{}
	}
	if repo.Author == "" {
		if owner, _, ok := strings.Cut(repo.Name, "/"); ok {
			repo.Author = owner
		}
	}
	if repo.Head == "" {
		repo.Head = fakeCommitOID(repo.Type, repo.Name, "init")
	}
	if _, ok := repo.Branches["main"]; !ok {
		repo.Branches["main"] = repo.Head
	}
	h.repos[repoKey(repo.Type, repo.Name)] = repo
	return repo
}

// Repo returns a seeded repository by plural type and name, or nil.
func (h *Hub) Repo(plural, name string) *Repo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.repos[repoKey(plural, name)]
}

// LFSObject returns a stored LFS object body, or nil.
func (h *Hub) LFSObject(oid string) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lfsObjects[oid]
}

func (h *Hub) lookup(r *http.Request) (*Repo, string) {
	vars := mux.Vars(r)
	plural := vars["repoType"]
	if plural == "" {
		plural = "models"
	}
	name := vars["repo"]
	return h.repos[repoKey(plural, name)], name
}

func (h *Hub) handleWhoami(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	username, ok := h.tokens[token]
	if !ok {
		responseJSON(w, fmt.Errorf("invalid token"), http.StatusUnauthorized)
		return
	}
	responseJSON(w, map[string]any{
		"name":     username,
		"fullname": username,
		"orgs":     []any{},
	}, http.StatusOK)
}

func (h *Hub) handleModelVocab(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	responseJSON(w, h.modelVocab, http.StatusOK)
}

func (h *Hub) handleDatasetVocab(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	responseJSON(w, h.datasetVocab, http.StatusOK)
}

func (h *Hub) handleMetrics(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	metrics := h.metrics
	if metrics == nil {
		metrics = []map[string]string{}
	}
	responseJSON(w, metrics, http.StatusOK)
}
