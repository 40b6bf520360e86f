package hubtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

type lfsBatchRequest struct {
	Operation string           `json:"operation"`
	Objects   []lfsBatchObject `json:"objects"`
}

type lfsBatchObject struct {
	Oid  string `json:"oid"`
	Size int64  `json:"size"`
}

type lfsAction struct {
	Href   string            `json:"href"`
	Header map[string]string `json:"header,omitempty"`
}

type lfsBatchResponseObject struct {
	Oid           string               `json:"oid"`
	Size          int64                `json:"size"`
	Authenticated bool                 `json:"authenticated,omitempty"`
	Actions       map[string]lfsAction `json:"actions,omitempty"`
}

func (h *Hub) handleLFSBatch(w http.ResponseWriter, r *http.Request) {
	var req lfsBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		responseJSON(w, fmt.Errorf("invalid batch request: %v", err), http.StatusBadRequest)
		return
	}

	origin := requestOrigin(r)

	h.mu.Lock()
	defer h.mu.Unlock()

	objects := []lfsBatchResponseObject{}
	for _, obj := range req.Objects {
		out := lfsBatchResponseObject{
			Oid:           obj.Oid,
			Size:          obj.Size,
			Authenticated: true,
		}
		_, stored := h.lfsObjects[obj.Oid]
		switch req.Operation {
		case "upload":
			if !stored {
				out.Actions = map[string]lfsAction{
					"upload": {Href: origin + "/lfs/objects/" + obj.Oid},
					"verify": {Href: origin + "/lfs/verify"},
				}
			}
		case "download":
			if stored {
				out.Actions = map[string]lfsAction{
					"download": {Href: origin + "/lfs/objects/" + obj.Oid},
				}
			}
		}
		objects = append(objects, out)
	}

	w.Header().Set("Content-Type", "application/vnd.git-lfs+json")
	responseJSON(w, map[string]any{
		"transfer": "basic",
		"objects":  objects,
	}, http.StatusOK)
}

func (h *Hub) handleLFSUpload(w http.ResponseWriter, r *http.Request) {
	oid := mux.Vars(r)["oid"]

	content, err := io.ReadAll(r.Body)
	if err != nil {
		responseJSON(w, fmt.Errorf("failed to read object body: %v", err), http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.lfsObjects[oid] = content
	w.WriteHeader(http.StatusOK)
}

func (h *Hub) handleLFSVerify(w http.ResponseWriter, r *http.Request) {
	var obj lfsBatchObject
	if err := json.NewDecoder(r.Body).Decode(&obj); err != nil {
		responseJSON(w, fmt.Errorf("invalid verify request: %v", err), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	content, ok := h.lfsObjects[obj.Oid]
	if !ok || int64(len(content)) != obj.Size {
		responseJSON(w, fmt.Errorf("object %q not found", obj.Oid), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}
