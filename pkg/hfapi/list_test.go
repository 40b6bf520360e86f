package hfapi

import (
	"context"
	"testing"

	"github.com/wzshiming/hfapi/internal/hubtest"
	"github.com/wzshiming/hfapi/pkg/filters"
	"github.com/wzshiming/hfapi/pkg/repoid"
	"github.com/wzshiming/hfapi/pkg/search"
)

func seedModels(hub *hubtest.Hub) {
	hub.AddRepo(&hubtest.Repo{
		Name:     "alice/bert-base",
		Tags:     []string{"pytorch", "task:fill-mask", "language:en"},
		Pipeline: "fill-mask",
		CardData: map[string]any{"co2_eq_emissions": 20.5},
	})
	hub.AddRepo(&hubtest.Repo{
		Name:     "alice/tiny-distilbert",
		Tags:     []string{"pytorch", "task:text-classification"},
		Pipeline: "text-classification",
		CardData: map[string]any{"co2_eq_emissions": "100g"},
	})
	hub.AddRepo(&hubtest.Repo{
		Name: "bob/resnet",
		Tags: []string{"vision"},
	})
}

func TestListModels(t *testing.T) {
	client, hub := newTestClient(t)
	seedModels(hub)
	ctx := context.Background()

	models, err := client.ListModels(ctx, nil)
	if err != nil {
		t.Fatalf("ListModels returned error: %v", err)
	}
	if len(models) != 3 {
		t.Fatalf("got %d models, want 3", len(models))
	}

	models, err = client.ListModels(ctx, &ListModelsOptions{Author: "alice"})
	if err != nil {
		t.Fatalf("ListModels returned error: %v", err)
	}
	if len(models) != 2 {
		t.Errorf("got %d models for author alice, want 2", len(models))
	}

	models, err = client.ListModels(ctx, &ListModelsOptions{Search: "bert", Limit: 1})
	if err != nil {
		t.Fatalf("ListModels returned error: %v", err)
	}
	if len(models) != 1 {
		t.Errorf("got %d models for search bert with limit 1, want 1", len(models))
	}
}

func TestListModelsWithFilter(t *testing.T) {
	client, hub := newTestClient(t)
	seedModels(hub)
	ctx := context.Background()

	filter, err := filters.NewModelFilter(filters.Task("fill-mask"), filters.Language("en"))
	if err != nil {
		t.Fatalf("NewModelFilter returned error: %v", err)
	}

	models, err := client.ListModels(ctx, &ListModelsOptions{Filter: filter})
	if err != nil {
		t.Fatalf("ListModels returned error: %v", err)
	}
	if len(models) != 1 || models[0].ID != "alice/bert-base" {
		t.Errorf("filtered models = %+v, want only alice/bert-base", models)
	}

	// A dataset filter cannot drive a model listing.
	datasetFilter, err := filters.NewDatasetFilter()
	if err != nil {
		t.Fatalf("NewDatasetFilter returned error: %v", err)
	}
	if _, err := client.ListModels(ctx, &ListModelsOptions{Filter: datasetFilter}); err == nil {
		t.Error("ListModels with a dataset filter should fail")
	}
}

func TestListModelsWithEmissions(t *testing.T) {
	client, hub := newTestClient(t)
	seedModels(hub)
	ctx := context.Background()

	max := 50.0
	models, err := client.ListModels(ctx, &ListModelsOptions{
		Emissions: &filters.EmissionsThreshold{Max: &max},
	})
	if err != nil {
		t.Fatalf("ListModels returned error: %v", err)
	}

	// bert-base reports 20.5 and passes; tiny-distilbert reports 100g
	// and is excluded; resnet reports nothing and is kept.
	ids := map[string]bool{}
	for _, model := range models {
		ids[model.ID] = true
	}
	if !ids["alice/bert-base"] || !ids["bob/resnet"] || ids["alice/tiny-distilbert"] {
		t.Errorf("emissions-filtered models = %v", ids)
	}
}

func TestListDatasets(t *testing.T) {
	client, hub := newTestClient(t)
	hub.AddRepo(&hubtest.Repo{
		Name: "alice/squad-clone",
		Type: "datasets",
		Tags: []string{"languages:en", "task_categories:question-answering"},
	})
	hub.AddRepo(&hubtest.Repo{Name: "bob/imagenet-mini", Type: "datasets"})
	ctx := context.Background()

	datasets, err := client.ListDatasets(ctx, nil)
	if err != nil {
		t.Fatalf("ListDatasets returned error: %v", err)
	}
	if len(datasets) != 2 {
		t.Fatalf("got %d datasets, want 2", len(datasets))
	}

	filter, err := filters.NewDatasetFilter(filters.Facet("languages", "en"))
	if err != nil {
		t.Fatalf("NewDatasetFilter returned error: %v", err)
	}
	datasets, err = client.ListDatasets(ctx, &ListDatasetsOptions{Filter: filter})
	if err != nil {
		t.Fatalf("ListDatasets returned error: %v", err)
	}
	if len(datasets) != 1 || datasets[0].ID != "alice/squad-clone" {
		t.Errorf("filtered datasets = %+v, want only alice/squad-clone", datasets)
	}
}

func TestListMetrics(t *testing.T) {
	client, hub := newTestClient(t)
	hub.SetMetrics([]map[string]string{
		{"id": "accuracy", "description": "share of correct predictions"},
		{"id": "bleu"},
	})

	metrics, err := client.ListMetrics(context.Background())
	if err != nil {
		t.Fatalf("ListMetrics returned error: %v", err)
	}
	if len(metrics) != 2 || metrics[0].ID != "accuracy" {
		t.Errorf("metrics = %+v, want accuracy and bleu", metrics)
	}
}

func TestModelInfo(t *testing.T) {
	client, hub := newTestClient(t)
	repo := hub.AddRepo(&hubtest.Repo{
		Name:  "alice/bert-base",
		Files: map[string][]byte{"config.json": []byte("{}"), "weights.bin": []byte("www")},
	})
	ctx := context.Background()

	info, err := client.ModelInfo(ctx, "alice/bert-base", nil)
	if err != nil {
		t.Fatalf("ModelInfo returned error: %v", err)
	}
	if info.ID != "alice/bert-base" {
		t.Errorf("info id = %q", info.ID)
	}
	if info.SHA != repo.Head {
		t.Errorf("info sha = %q, want %q", info.SHA, repo.Head)
	}
	if len(info.Siblings) != 2 {
		t.Errorf("got %d siblings, want 2", len(info.Siblings))
	}

	info, err = client.ModelInfo(ctx, "alice/bert-base", &ModelInfoOptions{
		Revision:       "main",
		SecurityStatus: true,
	})
	if err != nil {
		t.Fatalf("ModelInfo at revision returned error: %v", err)
	}
	if len(info.SecurityStatus) == 0 {
		t.Error("security status missing from response")
	}

	if _, err := client.ModelInfo(ctx, "alice/missing", nil); err == nil {
		t.Error("ModelInfo for a missing repo should fail")
	}
}

func TestListRepoFiles(t *testing.T) {
	client, hub := newTestClient(t)
	hub.AddRepo(&hubtest.Repo{
		Name:  "alice/bert-base",
		Files: map[string][]byte{"config.json": []byte("{}"), "README.md": []byte("hi")},
	})

	files, err := client.ListRepoFiles(context.Background(), "alice/bert-base", repoid.RepoTypeModel, "")
	if err != nil {
		t.Fatalf("ListRepoFiles returned error: %v", err)
	}
	if len(files) != 2 || files[0] != "README.md" || files[1] != "config.json" {
		t.Errorf("files = %v, want [README.md config.json]", files)
	}
}

func TestModelTags(t *testing.T) {
	client, hub := newTestClient(t)
	hub.SetModelVocab(map[string][]search.Tag{
		"pipeline_tag": {{ID: "text-classification", Label: "Text Classification"}},
		"library":      {{ID: "pytorch", Label: "PyTorch"}},
	})

	args, err := client.ModelTags(context.Background())
	if err != nil {
		t.Fatalf("ModelTags returned error: %v", err)
	}
	value, ok := args.Value("pipeline_tag", "Text Classification")
	if !ok || value != "text-classification" {
		t.Errorf("Value = %q, %v", value, ok)
	}
}

func TestDatasetTags(t *testing.T) {
	client, hub := newTestClient(t)
	hub.SetDatasetVocab(map[string][]search.Tag{
		"size_categories": {{ID: "100K<n<1M", Label: "100K<n<1M"}},
	})

	args, err := client.DatasetTags(context.Background())
	if err != nil {
		t.Fatalf("DatasetTags returned error: %v", err)
	}
	value, ok := args.Value("size_categories", "100K<n<1M")
	if !ok || value != "100K<n<1M" {
		t.Errorf("Value = %q, %v", value, ok)
	}
}

func TestDownloadURL(t *testing.T) {
	client := NewClient(WithEndpoint("https://hub.example.com"))

	tests := []struct {
		repoType repoid.RepoType
		revision string
		want     string
	}{
		{repoid.RepoTypeModel, "", "https://hub.example.com/alice/repo/resolve/main/file.bin"},
		{repoid.RepoTypeDataset, "dev", "https://hub.example.com/datasets/alice/repo/resolve/dev/file.bin"},
		{repoid.RepoTypeSpace, "main", "https://hub.example.com/spaces/alice/repo/resolve/main/file.bin"},
	}
	for _, tt := range tests {
		got := client.DownloadURL("alice/repo", tt.repoType, tt.revision, "file.bin")
		if got != tt.want {
			t.Errorf("DownloadURL(%q, %q) = %q, want %q", tt.repoType, tt.revision, got, tt.want)
		}
	}
}

func TestTree(t *testing.T) {
	client, hub := newTestClient(t)
	hub.AddRepo(&hubtest.Repo{
		Name:  "alice/bert-base",
		Files: map[string][]byte{"config.json": []byte("{}")},
	})

	entries, err := client.Tree(context.Background(), "alice/bert-base", repoid.RepoTypeModel, "", "", false)
	if err != nil {
		t.Fatalf("Tree returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "config.json" || entries[0].Type != "blob" {
		t.Errorf("entries = %+v", entries)
	}
}
