// Package filters builds the query filters accepted by the hub list
// endpoints. Filters are immutable once constructed: facet values are
// validated against a closed per-kind vocabulary and normalized into a
// canonical ordered sequence of "facet:value" tags.
package filters

import (
	"errors"
	"fmt"
)

// ErrUnknownFacet is returned when a filter is constructed with a
// facet name outside the closed vocabulary for its kind. Rejecting the
// name at construction keeps typos from silently producing no-op
// filters.
var ErrUnknownFacet = errors.New("unknown facet")

// Kind is the kind of repository a filter targets.
type Kind string

const (
	KindModel   Kind = "model"
	KindDataset Kind = "dataset"
)

var modelFacets = map[string]struct{}{
	"library":         {},
	"language":        {},
	"license":         {},
	"task":            {},
	"trained_dataset": {},
	"tags":            {},
}

var datasetFacets = map[string]struct{}{
	"benchmark":         {},
	"language_creators": {},
	"languages":         {},
	"multilinguality":   {},
	"size_categories":   {},
	"task_categories":   {},
	"task_ids":          {},
}

// Filter is a normalized query filter. The zero value is not usable;
// construct one with NewModelFilter or NewDatasetFilter.
type Filter struct {
	kind   Kind
	author string
	name   string
	tags   []string
	seen   map[string]struct{}
}

// Option configures a Filter during construction.
type Option func(*Filter) error

// Author restricts results to repositories owned by the given user or
// organization. It is sent as a dedicated query field, not as a tag.
func Author(author string) Option {
	return func(f *Filter) error {
		f.author = author
		return nil
	}
}

// Name restricts results to repositories whose identifier contains the
// given fragment. Like Author it is a query field, not a tag.
func Name(fragment string) Option {
	return func(f *Filter) error {
		f.name = fragment
		return nil
	}
}

// Facet adds one or more values for a named facet. The facet name must
// belong to the filter kind's vocabulary. Each value becomes a
// "facet:value" tag; repeated tags collapse, first-seen order wins.
func Facet(name string, values ...string) Option {
	return func(f *Filter) error {
		if err := f.checkFacet(name); err != nil {
			return err
		}
		for _, value := range values {
			f.addTag(name + ":" + value)
		}
		return nil
	}
}

// Task filters models by task (pipeline tag).
func Task(task string) Option {
	return Facet("task", task)
}

// Library filters models by the libraries they are compatible with.
func Library(libraries ...string) Option {
	return Facet("library", libraries...)
}

// Language filters models by language.
func Language(languages ...string) Option {
	return Facet("language", languages...)
}

// NewModelFilter builds a filter over model repositories.
func NewModelFilter(opts ...Option) (*Filter, error) {
	return newFilter(KindModel, opts)
}

// NewDatasetFilter builds a filter over dataset repositories.
func NewDatasetFilter(opts ...Option) (*Filter, error) {
	return newFilter(KindDataset, opts)
}

func newFilter(kind Kind, opts []Option) (*Filter, error) {
	f := &Filter{
		kind: kind,
		seen: make(map[string]struct{}),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *Filter) checkFacet(name string) error {
	var vocab map[string]struct{}
	switch f.kind {
	case KindDataset:
		vocab = datasetFacets
	default:
		vocab = modelFacets
	}
	if _, ok := vocab[name]; !ok {
		return fmt.Errorf("%w: %q is not a %s facet", ErrUnknownFacet, name, f.kind)
	}
	return nil
}

func (f *Filter) addTag(tag string) {
	if _, ok := f.seen[tag]; ok {
		return
	}
	f.seen[tag] = struct{}{}
	f.tags = append(f.tags, tag)
}

// Kind returns the repository kind the filter targets.
func (f *Filter) Kind() Kind {
	return f.kind
}

// Author returns the author query field, if any.
func (f *Filter) Author() string {
	return f.author
}

// Name returns the name-fragment query field, if any.
func (f *Filter) Name() string {
	return f.name
}

// Tags returns the canonical "facet:value" tags in first-seen order.
// An empty slice means no facet filtering: the server returns the
// unfiltered listing.
func (f *Filter) Tags() []string {
	tags := make([]string, len(f.tags))
	copy(tags, f.tags)
	return tags
}
