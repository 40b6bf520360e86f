package hfapi

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/wzshiming/hfapi/internal/hubtest"
	"github.com/wzshiming/hfapi/pkg/repoid"
)

func TestCreateRepo(t *testing.T) {
	client, hub := newTestClient(t)
	ctx := context.Background()

	url, err := client.CreateRepo(ctx, "my-model", &CreateRepoOptions{Organization: "testuser"})
	if err != nil {
		t.Fatalf("CreateRepo returned error: %v", err)
	}
	if !strings.HasSuffix(url, "/testuser/my-model") {
		t.Errorf("repo url = %q, want suffix /testuser/my-model", url)
	}
	if hub.Repo("models", "testuser/my-model") == nil {
		t.Error("repository was not created on the hub")
	}
}

func TestCreateRepoConflict(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	if _, err := client.CreateRepo(ctx, "dup", nil); err != nil {
		t.Fatalf("first CreateRepo returned error: %v", err)
	}
	_, err := client.CreateRepo(ctx, "dup", nil)
	if err == nil {
		t.Fatal("duplicate CreateRepo should fail")
	}
	if code := StatusCodeOf(err); code != http.StatusConflict {
		t.Errorf("StatusCodeOf(err) = %d, want %d", code, http.StatusConflict)
	}

	// ExistOK turns the conflict into a success.
	url, err := client.CreateRepo(ctx, "dup", &CreateRepoOptions{ExistOK: true})
	if err != nil {
		t.Fatalf("CreateRepo with ExistOK returned error: %v", err)
	}
	if url == "" {
		t.Error("CreateRepo with ExistOK returned empty url")
	}
}

func TestCreateRepoSpaceSDK(t *testing.T) {
	client, hub := newTestClient(t)
	ctx := context.Background()

	// Spaces require an SDK.
	_, err := client.CreateRepo(ctx, "my-space", &CreateRepoOptions{Type: repoid.RepoTypeSpace})
	if err == nil {
		t.Error("creating a space without an SDK should fail")
	}

	_, err = client.CreateRepo(ctx, "my-space", &CreateRepoOptions{Type: repoid.RepoTypeSpace, SpaceSDK: "flask"})
	if err == nil {
		t.Error("creating a space with an unknown SDK should fail")
	}

	_, err = client.CreateRepo(ctx, "my-model", &CreateRepoOptions{SpaceSDK: "gradio"})
	if err == nil {
		t.Error("an SDK on a non-space repo should fail")
	}

	url, err := client.CreateRepo(ctx, "my-space", &CreateRepoOptions{
		Organization: "testuser",
		Type:         repoid.RepoTypeSpace,
		SpaceSDK:     "gradio",
	})
	if err != nil {
		t.Fatalf("CreateRepo returned error: %v", err)
	}
	if !strings.Contains(url, "/spaces/") {
		t.Errorf("space url = %q, want a /spaces/ prefix", url)
	}
	repo := hub.Repo("spaces", "testuser/my-space")
	if repo == nil {
		t.Fatal("space was not created on the hub")
	}
	if repo.SDK != "gradio" {
		t.Errorf("space SDK = %q, want gradio", repo.SDK)
	}
}

func TestOrganizationTokenRejected(t *testing.T) {
	client, _ := newTestClient(t)
	orgClient := NewClient(
		WithEndpoint(client.Endpoint()),
		WithToken("api_org_xxx"),
	)
	ctx := context.Background()

	if _, err := orgClient.CreateRepo(ctx, "nope", nil); err == nil {
		t.Error("CreateRepo with an organization token should fail")
	}
	if err := orgClient.DeleteRepo(ctx, "nope", "", repoid.RepoTypeModel); err == nil {
		t.Error("DeleteRepo with an organization token should fail")
	}
}

func TestDeleteRepo(t *testing.T) {
	client, hub := newTestClient(t)
	ctx := context.Background()

	hub.AddRepo(&hubtest.Repo{Name: "testuser/doomed"})

	if err := client.DeleteRepo(ctx, "doomed", "testuser", repoid.RepoTypeModel); err != nil {
		t.Fatalf("DeleteRepo returned error: %v", err)
	}
	if hub.Repo("models", "testuser/doomed") != nil {
		t.Error("repository still exists after delete")
	}

	err := client.DeleteRepo(ctx, "doomed", "testuser", repoid.RepoTypeModel)
	if code := StatusCodeOf(err); code != http.StatusNotFound {
		t.Errorf("deleting a missing repo: StatusCodeOf(err) = %d, want %d", code, http.StatusNotFound)
	}
}

func TestMoveRepo(t *testing.T) {
	client, hub := newTestClient(t)
	ctx := context.Background()

	hub.AddRepo(&hubtest.Repo{Name: "testuser/old-name"})

	if err := client.MoveRepo(ctx, "testuser/old-name", "testuser/new-name", repoid.RepoTypeModel); err != nil {
		t.Fatalf("MoveRepo returned error: %v", err)
	}
	if hub.Repo("models", "testuser/old-name") != nil {
		t.Error("source repository still exists after move")
	}
	if hub.Repo("models", "testuser/new-name") == nil {
		t.Error("destination repository missing after move")
	}

	// Identifiers must be owner/name.
	if err := client.MoveRepo(ctx, "new-name", "testuser/other", repoid.RepoTypeModel); err == nil {
		t.Error("MoveRepo without an owner should fail")
	}
	if err := client.MoveRepo(ctx, "testuser/new-name", "a/b/c", repoid.RepoTypeModel); err == nil {
		t.Error("MoveRepo with a nested destination should fail")
	}
}

func TestUpdateRepoVisibility(t *testing.T) {
	client, hub := newTestClient(t)
	ctx := context.Background()

	repo := hub.AddRepo(&hubtest.Repo{Name: "testuser/visible"})

	if err := client.UpdateRepoVisibility(ctx, "testuser/visible", repoid.RepoTypeModel, true); err != nil {
		t.Fatalf("UpdateRepoVisibility returned error: %v", err)
	}
	if !repo.Private {
		t.Error("repository should be private")
	}
	if err := client.UpdateRepoVisibility(ctx, "testuser/visible", repoid.RepoTypeModel, false); err != nil {
		t.Fatalf("UpdateRepoVisibility returned error: %v", err)
	}
	if repo.Private {
		t.Error("repository should be public again")
	}
}

func TestBranchesAndTags(t *testing.T) {
	client, hub := newTestClient(t)
	ctx := context.Background()

	hub.AddRepo(&hubtest.Repo{Name: "testuser/refs"})

	if err := client.CreateBranch(ctx, "testuser/refs", repoid.RepoTypeModel, "dev", ""); err != nil {
		t.Fatalf("CreateBranch returned error: %v", err)
	}
	if err := client.CreateBranch(ctx, "testuser/refs", repoid.RepoTypeModel, "dev", ""); err == nil {
		t.Error("creating an existing branch should fail")
	}
	if err := client.CreateTag(ctx, "testuser/refs", repoid.RepoTypeModel, "main", "v1.0", "first release"); err != nil {
		t.Fatalf("CreateTag returned error: %v", err)
	}

	refs, err := client.ListRefs(ctx, "testuser/refs", repoid.RepoTypeModel)
	if err != nil {
		t.Fatalf("ListRefs returned error: %v", err)
	}
	if len(refs.Branches) != 2 {
		t.Errorf("got %d branches, want 2", len(refs.Branches))
	}
	if len(refs.Tags) != 1 || refs.Tags[0].Name != "v1.0" {
		t.Errorf("tags = %+v, want one v1.0 tag", refs.Tags)
	}

	if err := client.DeleteBranch(ctx, "testuser/refs", repoid.RepoTypeModel, "dev"); err != nil {
		t.Fatalf("DeleteBranch returned error: %v", err)
	}
	if err := client.DeleteBranch(ctx, "testuser/refs", repoid.RepoTypeModel, "main"); err == nil {
		t.Error("deleting the default branch should fail")
	}
	if err := client.DeleteTag(ctx, "testuser/refs", repoid.RepoTypeModel, "v1.0"); err != nil {
		t.Fatalf("DeleteTag returned error: %v", err)
	}

	refs, err = client.ListRefs(ctx, "testuser/refs", repoid.RepoTypeModel)
	if err != nil {
		t.Fatalf("ListRefs returned error: %v", err)
	}
	if len(refs.Branches) != 1 || len(refs.Tags) != 0 {
		t.Errorf("refs after cleanup = %+v, want only main", refs)
	}
}

func TestFullRepoName(t *testing.T) {
	if got := FullRepoName("model", "org"); got != "org/model" {
		t.Errorf("FullRepoName = %q, want org/model", got)
	}
	if got := FullRepoName("model", ""); got != "model" {
		t.Errorf("FullRepoName = %q, want model", got)
	}
}
