package filters

import (
	"strconv"
	"strings"
)

// EmissionsThreshold is an inclusive numeric bound on the CO2
// emissions recorded in a repository's card data. At least one bound
// must be set for the threshold to have any effect.
type EmissionsThreshold struct {
	Min *float64
	Max *float64
}

// Allows reports whether a record with the given card data passes the
// threshold. Records whose emissions value is absent or unparseable
// are always allowed: a missing value cannot be excluded by a numeric
// bound.
func (t EmissionsThreshold) Allows(card map[string]any) bool {
	value, ok := ExtractEmissions(card)
	if !ok {
		return true
	}
	if t.Min != nil && value < *t.Min {
		return false
	}
	if t.Max != nil && value > *t.Max {
		return false
	}
	return true
}

// ExtractEmissions pulls a numeric CO2 emissions value out of card
// data. The value may be a bare number, a string with a trailing unit
// suffix ("17g"), or a map carrying either under the "emissions" key.
// This is the only place that knows about the unit-suffix format.
func ExtractEmissions(card map[string]any) (float64, bool) {
	if card == nil {
		return 0, false
	}
	raw, ok := card["co2_eq_emissions"]
	if !ok {
		return 0, false
	}
	if nested, isMap := raw.(map[string]any); isMap {
		raw, ok = nested["emissions"]
		if !ok {
			return 0, false
		}
	}

	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		return parseNumericPrefix(v)
	default:
		return 0, false
	}
}

// parseNumericPrefix strips trailing non-numeric characters and parses
// the remaining prefix as a float. "17g" parses as 17.
func parseNumericPrefix(s string) (float64, bool) {
	s = strings.TrimSpace(s)

	end := 0
	seenDot := false
	for i, r := range s {
		if r == '-' || r == '+' {
			if i != 0 {
				break
			}
		} else if r == '.' {
			if seenDot {
				break
			}
			seenDot = true
		} else if r < '0' || r > '9' {
			break
		}
		end = i + 1
	}

	value, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
