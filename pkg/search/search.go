// Package search exposes the hub's tag vocabularies as lookup tables
// so callers can build filters without retyping literal tag strings.
// The namespace is built once from a fetched vocabulary snapshot and
// every lookup is validated against that snapshot.
package search

import (
	"sort"
	"strings"
)

// Tag is a single vocabulary entry as served by the hub's
// tags-by-type endpoints.
type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type,omitempty"`
}

// Arguments is an immutable snapshot of the tag vocabulary, keyed by
// facet and by normalized entry name.
type Arguments struct {
	facets map[string]map[string]string
}

// New builds an Arguments namespace from a vocabulary snapshot. Each
// entry is reachable under both its normalized label and its
// normalized id; the stored value is always the canonical tag id.
func New(vocab map[string][]Tag) *Arguments {
	facets := make(map[string]map[string]string, len(vocab))
	for facet, tags := range vocab {
		entries := make(map[string]string, len(tags)*2)
		for _, tag := range tags {
			if tag.ID == "" {
				continue
			}
			entries[NormalizeKey(tag.ID)] = tag.ID
			if tag.Label != "" {
				entries[NormalizeKey(tag.Label)] = tag.ID
			}
		}
		facets[facet] = entries
	}
	return &Arguments{facets: facets}
}

// Facets returns the facet names present in the snapshot, sorted.
func (a *Arguments) Facets() []string {
	names := make([]string, 0, len(a.facets))
	for name := range a.facets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether the snapshot carries the given facet.
func (a *Arguments) Has(facet string) bool {
	_, ok := a.facets[facet]
	return ok
}

// Value looks up the canonical tag id for a facet entry. The key is
// normalized before lookup, so "Text Classification",
// "text-classification" and "Text_Classification" all resolve to the
// same entry. The second result is false when the facet or entry is
// not part of the snapshot.
func (a *Arguments) Value(facet, key string) (string, bool) {
	entries, ok := a.facets[facet]
	if !ok {
		return "", false
	}
	value, ok := entries[NormalizeKey(key)]
	return value, ok
}

// Values returns all canonical tag ids for a facet, sorted and
// deduplicated.
func (a *Arguments) Values(facet string) []string {
	entries, ok := a.facets[facet]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{}, len(entries))
	values := make([]string, 0, len(entries))
	for _, value := range entries {
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}

// NormalizeKey maps an entry name to its lookup form: lower-cased with
// every run of non-alphanumeric characters replaced by a single
// underscore.
func NormalizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	pendingSep := false
	for _, r := range strings.ToLower(key) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
