package hfapi

import (
	"github.com/wzshiming/hfapi/pkg/filters"
)

// FilterByEmissions returns the models whose card data reports CO2
// emissions within the threshold. Models without card data or without
// a readable emissions value are kept, so the threshold never hides a
// model for lack of reporting. Order is preserved.
func FilterByEmissions(models []*ModelInfo, threshold filters.EmissionsThreshold) []*ModelInfo {
	kept := make([]*ModelInfo, 0, len(models))
	for _, model := range models {
		if threshold.Allows(model.CardData) {
			kept = append(kept, model)
		}
	}
	return kept
}
