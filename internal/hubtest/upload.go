package hubtest

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

type preuploadRequest struct {
	Files []preuploadFile `json:"files"`
}

type preuploadFile struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Sample string `json:"sample"`
}

type preuploadResponseFile struct {
	Path         string `json:"path"`
	UploadMode   string `json:"uploadMode"`
	ShouldIgnore bool   `json:"shouldIgnore"`
}

func (h *Hub) handlePreupload(w http.ResponseWriter, r *http.Request) {
	var req preuploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		responseJSON(w, fmt.Errorf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	files := []preuploadResponseFile{}
	for _, file := range req.Files {
		uploadMode := "regular"
		if file.Size > h.lfsThreshold {
			uploadMode = "lfs"
		}
		files = append(files, preuploadResponseFile{
			Path:       file.Path,
			UploadMode: uploadMode,
		})
	}
	responseJSON(w, map[string]any{"files": files}, http.StatusOK)
}

type commitOperation struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type commitHeader struct {
	Summary      string `json:"summary"`
	Description  string `json:"description"`
	ParentCommit string `json:"parentCommit"`
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

func (h *Hub) handleCommit(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	revision := vars["revision"]

	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 1024*1024), 100*1024*1024)

	var header commitHeader
	type fileChange struct {
		path    string
		content []byte
		lfsOID  string
		delete  bool
	}
	var changes []fileChange

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		var op commitOperation
		if err := json.Unmarshal([]byte(line), &op); err != nil {
			responseJSON(w, fmt.Errorf("invalid NDJSON line: %v", err), http.StatusBadRequest)
			return
		}

		switch op.Key {
		case "header":
			if err := json.Unmarshal(op.Value, &header); err != nil {
				responseJSON(w, fmt.Errorf("invalid header: %v", err), http.StatusBadRequest)
				return
			}

		case "file":
			var file commitFile
			if err := json.Unmarshal(op.Value, &file); err != nil {
				responseJSON(w, fmt.Errorf("invalid file operation: %v", err), http.StatusBadRequest)
				return
			}
			content := []byte(file.Content)
			if file.Encoding == "base64" {
				decoded, err := base64.StdEncoding.DecodeString(file.Content)
				if err != nil {
					responseJSON(w, fmt.Errorf("failed to decode base64 content for %s: %v", file.Path, err), http.StatusBadRequest)
					return
				}
				content = decoded
			}
			changes = append(changes, fileChange{path: file.Path, content: content})

		case "lfsFile":
			var lfsFile commitLFSFile
			if err := json.Unmarshal(op.Value, &lfsFile); err != nil {
				responseJSON(w, fmt.Errorf("invalid LFS file operation: %v", err), http.StatusBadRequest)
				return
			}
			changes = append(changes, fileChange{path: lfsFile.Path, lfsOID: lfsFile.OID})

		case "deletedFile":
			var deleted commitDeletedFile
			if err := json.Unmarshal(op.Value, &deleted); err != nil {
				responseJSON(w, fmt.Errorf("invalid delete operation: %v", err), http.StatusBadRequest)
				return
			}
			changes = append(changes, fileChange{path: deleted.Path, delete: true})
		}
	}

	if err := scanner.Err(); err != nil {
		responseJSON(w, fmt.Errorf("failed to read request body: %v", err), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	repo, name := h.lookup(r)
	if repo == nil {
		responseJSON(w, fmt.Errorf("repository %q not found", name), http.StatusNotFound)
		return
	}
	if header.ParentCommit != "" && header.ParentCommit != repo.Head {
		responseJSON(w, fmt.Errorf("parent commit %q is not the head of %q", header.ParentCommit, revision), http.StatusConflict)
		return
	}

	for _, change := range changes {
		switch {
		case change.delete:
			if _, ok := repo.Files[change.path]; !ok {
				responseJSON(w, fmt.Errorf("file %q not found", change.path), http.StatusBadRequest)
				return
			}
			delete(repo.Files, change.path)
			delete(repo.LFSPaths, change.path)
		case change.lfsOID != "":
			content, ok := h.lfsObjects[change.lfsOID]
			if !ok {
				responseJSON(w, fmt.Errorf("LFS object %q was not uploaded", change.lfsOID), http.StatusBadRequest)
				return
			}
			repo.Files[change.path] = content
			repo.LFSPaths[change.path] = change.lfsOID
		default:
			repo.Files[change.path] = change.content
			delete(repo.LFSPaths, change.path)
		}
	}

	message := header.Summary
	if message == "" {
		message = "Upload files"
	}
	if header.Description != "" {
		message += "\n\n" + header.Description
	}

	commit := fakeCommitOID(repo.Type, repo.Name, repo.Head, message, time.Now().String())
	repo.Head = commit
	repo.Branches[revision] = commit

	responseJSON(w, map[string]string{
		"commitUrl":     fmt.Sprintf("%s/%s/commit/%s", requestOrigin(r), repo.Name, commit),
		"commitOid":     commit,
		"commitMessage": message,
	}, http.StatusOK)
}

func (h *Hub) handleResolve(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	refpath := vars["refpath"]

	// refpath is "{revision}/{path}", the revision never contains a
	// slash in this fake.
	_, path, ok := strings.Cut(refpath, "/")
	if !ok {
		responseJSON(w, fmt.Errorf("invalid resolve path %q", refpath), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	repo, name := h.lookup(r)
	if repo == nil {
		responseJSON(w, fmt.Errorf("repository %q not found", name), http.StatusNotFound)
		return
	}
	content, ok := repo.Files[path]
	if !ok {
		responseJSON(w, fmt.Errorf("file %q not found in repository %q", path, name), http.StatusNotFound)
		return
	}

	etag := repo.LFSPaths[path]
	if etag == "" {
		etag = fakeCommitOID("blob", path, string(content))
	}
	w.Header().Set("X-Repo-Commit", repo.Head)
	w.Header().Set("ETag", fmt.Sprintf("%q", etag))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(content)))

	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(content)
}
