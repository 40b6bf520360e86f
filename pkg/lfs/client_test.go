package lfs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
)

// testLFSServer is a minimal LFS server covering batch, upload and
// verify for a single in-memory object store.
type testLFSServer struct {
	objects  map[string][]byte
	verified map[string]bool
}

func newTestLFSServer(t *testing.T) (*httptest.Server, *testLFSServer) {
	t.Helper()
	state := &testLFSServer{
		objects:  map[string][]byte{},
		verified: map[string]bool{},
	}

	m := mux.NewRouter()
	var server *httptest.Server

	m.Methods(http.MethodPost).Path("/user/repo.git/info/lfs/objects/batch").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req BatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := BatchResponse{Transfer: "basic"}
		for _, obj := range req.Objects {
			out := BatchResponseObject{Oid: obj.Oid, Size: obj.Size}
			if _, ok := state.objects[obj.Oid]; !ok && req.Operation == "upload" {
				out.Actions = map[string]Action{
					"upload": {
						Href:   server.URL + "/objects/" + obj.Oid,
						Header: map[string]string{"X-Test-Upload": "1"},
					},
					"verify": {
						Href: server.URL + "/verify",
					},
				}
			}
			resp.Objects = append(resp.Objects, out)
		}
		w.Header().Set("Content-Type", "application/vnd.git-lfs+json")
		json.NewEncoder(w).Encode(resp)
	})

	m.Methods(http.MethodPut).Path("/objects/{oid}").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Test-Upload") != "1" {
			http.Error(w, "missing action header", http.StatusBadRequest)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		state.objects[mux.Vars(r)["oid"]] = body
		w.WriteHeader(http.StatusOK)
	})

	m.Methods(http.MethodPost).Path("/verify").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var obj BatchObject
		if err := json.NewDecoder(r.Body).Decode(&obj); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		stored, ok := state.objects[obj.Oid]
		if !ok || int64(len(stored)) != obj.Size {
			http.Error(w, "object not found", http.StatusNotFound)
			return
		}
		state.verified[obj.Oid] = true
		w.WriteHeader(http.StatusOK)
	})

	server = httptest.NewServer(m)
	t.Cleanup(server.Close)
	return server, state
}

func TestUpload(t *testing.T) {
	server, state := newTestLFSServer(t)
	client := NewClient(server.Client())

	content := []byte("lfs object content")
	oid, size, err := HashReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("HashReader returned error: %v", err)
	}

	repoURL := server.URL + "/user/repo"
	err = client.Upload(context.Background(), repoURL, oid, size, bytes.NewReader(content), "")
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if got := state.objects[oid]; !bytes.Equal(got, content) {
		t.Errorf("stored content = %q, want %q", got, content)
	}
	if !state.verified[oid] {
		t.Error("object was not verified after upload")
	}
}

func TestUploadAlreadyStored(t *testing.T) {
	server, state := newTestLFSServer(t)
	client := NewClient(server.Client())

	content := []byte("preexisting object")
	oid, size, err := HashReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("HashReader returned error: %v", err)
	}
	state.objects[oid] = content

	// Server reports no upload action, so no PUT or verify happens.
	err = client.Upload(context.Background(), server.URL+"/user/repo.git", oid, size, bytes.NewReader(content), "")
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if state.verified[oid] {
		t.Error("verify should be skipped when the server already has the object")
	}
}

func TestBatchEmpty(t *testing.T) {
	server, _ := newTestLFSServer(t)
	client := NewClient(server.Client())

	resp, err := client.Batch(context.Background(), server.URL+"/user/repo", "upload", nil, "")
	if err != nil {
		t.Fatalf("Batch returned error: %v", err)
	}
	if len(resp.Objects) != 0 {
		t.Errorf("Batch with no objects returned %d objects", len(resp.Objects))
	}
}
