package filters

import (
	"errors"
	"reflect"
	"testing"
)

func TestModelFilterTags(t *testing.T) {
	f, err := NewModelFilter(
		Author("facebook"),
		Name("bart-base"),
		Library("pytorch", "tensorflow"),
		Task("fill-mask"),
		Language("en"),
	)
	if err != nil {
		t.Fatalf("NewModelFilter returned error: %v", err)
	}

	if f.Author() != "facebook" {
		t.Errorf("Author() = %q, want %q", f.Author(), "facebook")
	}
	if f.Name() != "bart-base" {
		t.Errorf("Name() = %q, want %q", f.Name(), "bart-base")
	}

	want := []string{
		"library:pytorch",
		"library:tensorflow",
		"task:fill-mask",
		"language:en",
	}
	if got := f.Tags(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tags() = %v, want %v", got, want)
	}
}

func TestFilterDeduplicatesTags(t *testing.T) {
	f, err := NewModelFilter(
		Language("en", "fr", "en"),
		Facet("language", "en"),
	)
	if err != nil {
		t.Fatalf("NewModelFilter returned error: %v", err)
	}

	want := []string{"language:en", "language:fr"}
	if got := f.Tags(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tags() = %v, want %v", got, want)
	}
}

func TestFilterEmpty(t *testing.T) {
	f, err := NewModelFilter(Author("x"))
	if err != nil {
		t.Fatalf("NewModelFilter returned error: %v", err)
	}
	if got := f.Tags(); len(got) != 0 {
		t.Errorf("Tags() = %v, want empty", got)
	}
}

func TestFilterUnknownFacet(t *testing.T) {
	_, err := NewModelFilter(Facet("benchmark", "raft"))
	if !errors.Is(err, ErrUnknownFacet) {
		t.Errorf("NewModelFilter(benchmark) = %v, want ErrUnknownFacet", err)
	}

	_, err = NewDatasetFilter(Facet("library", "pytorch"))
	if !errors.Is(err, ErrUnknownFacet) {
		t.Errorf("NewDatasetFilter(library) = %v, want ErrUnknownFacet", err)
	}

	_, err = NewModelFilter(Facet("no_such_facet", "x"))
	if !errors.Is(err, ErrUnknownFacet) {
		t.Errorf("NewModelFilter(no_such_facet) = %v, want ErrUnknownFacet", err)
	}
}

func TestDatasetFilterTags(t *testing.T) {
	f, err := NewDatasetFilter(
		Facet("benchmark", "raft"),
		Facet("languages", "en", "fr"),
		Facet("size_categories", "100K<n<1M"),
	)
	if err != nil {
		t.Fatalf("NewDatasetFilter returned error: %v", err)
	}

	want := []string{
		"benchmark:raft",
		"languages:en",
		"languages:fr",
		"size_categories:100K<n<1M",
	}
	if got := f.Tags(); !reflect.DeepEqual(got, want) {
		t.Errorf("Tags() = %v, want %v", got, want)
	}
	if f.Kind() != KindDataset {
		t.Errorf("Kind() = %q, want %q", f.Kind(), KindDataset)
	}
}

func TestTagsReturnsCopy(t *testing.T) {
	f, err := NewModelFilter(Library("pytorch"))
	if err != nil {
		t.Fatalf("NewModelFilter returned error: %v", err)
	}
	tags := f.Tags()
	tags[0] = "mutated"
	if got := f.Tags()[0]; got != "library:pytorch" {
		t.Errorf("Tags() was mutated through returned slice: %q", got)
	}
}
