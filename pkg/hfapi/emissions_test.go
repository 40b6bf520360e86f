package hfapi

import (
	"testing"

	"github.com/wzshiming/hfapi/pkg/filters"
)

func TestFilterByEmissions(t *testing.T) {
	models := []*ModelInfo{
		{ID: "a", CardData: map[string]any{"co2_eq_emissions": 5.0}},
		{ID: "b", CardData: map[string]any{"co2_eq_emissions": "17g"}},
		{ID: "c", CardData: map[string]any{"co2_eq_emissions": 100.0}},
		{ID: "d"},
		{ID: "e", CardData: map[string]any{"co2_eq_emissions": "not a number"}},
	}

	min, max := 10.0, 50.0
	kept := FilterByEmissions(models, filters.EmissionsThreshold{Min: &min, Max: &max})

	// a is below the minimum and c above the maximum; d and e have no
	// readable value and are kept. Input order is preserved.
	want := []string{"b", "d", "e"}
	if len(kept) != len(want) {
		t.Fatalf("kept %d models, want %d", len(kept), len(want))
	}
	for i, id := range want {
		if kept[i].ID != id {
			t.Errorf("kept[%d] = %q, want %q", i, kept[i].ID, id)
		}
	}
}

func TestFilterByEmissionsNoBounds(t *testing.T) {
	models := []*ModelInfo{
		{ID: "a", CardData: map[string]any{"co2_eq_emissions": 5.0}},
		{ID: "b"},
	}
	kept := FilterByEmissions(models, filters.EmissionsThreshold{})
	if len(kept) != 2 {
		t.Errorf("kept %d models with no bounds, want 2", len(kept))
	}
}
