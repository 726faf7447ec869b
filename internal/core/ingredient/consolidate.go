package ingredient

import (
	"context"
	"strings"
	"time"

	"auto-cart/internal/pkg/common"

	"go.uber.org/zap"
)

// Normalizer is the capability boundary for the external semantic service
// that judges which manifest lines describe the same grocery item. Input and
// output are both free text, one "qty unit name" line per item.
type Normalizer interface {
	Normalize(ctx context.Context, manifest string) (string, error)
}

// Unit spellings collapse to one canonical token before items are compared
// or displayed.
var unitAliases = map[string]string{
	"cups":        "cup",
	"cup":         "cup",
	"c":           "cup",
	"tablespoon":  "tbsp",
	"tablespoons": "tbsp",
	"tbsp":        "tbsp",
	"tbs":         "tbsp",
	"teaspoon":    "tsp",
	"teaspoons":   "tsp",
	"tsp":         "tsp",
	"pound":       "lb",
	"pounds":      "lb",
	"lbs":         "lb",
	"lb":          "lb",
	"ounce":       "oz",
	"ounces":      "oz",
	"oz":          "oz",
	"gallon":      "gal",
	"gallons":     "gal",
	"gal":         "gal",
	"quart":       "qt",
	"quarts":      "qt",
	"qt":          "qt",
	"pint":        "pt",
	"pints":       "pt",
	"pt":          "pt",
	"liter":       "l",
	"liters":      "l",
	"litre":       "l",
	"litres":      "l",
	"l":           "l",
	"milliliter":  "ml",
	"milliliters": "ml",
	"ml":          "ml",
	"kilogram":    "kg",
	"kilograms":   "kg",
	"kg":          "kg",
	"gram":        "g",
	"grams":       "g",
	"g":           "g",
	"units":       UnitlessMeasurement,
	"unit":        UnitlessMeasurement,
	"each":        UnitlessMeasurement,
}

// Preference rank inside a compatible unit family; when the normalizer merges
// two compatible units the higher-ranked spelling wins the display slot.
// Rank order: cup>tbsp>tsp, lb>oz, gal>qt>pt, l>ml, kg>g.
var unitRank = map[string]int{
	"cup": 3, "tbsp": 2, "tsp": 1,
	"lb": 2, "oz": 1,
	"gal": 4, "qt": 3, "pt": 2,
	"l": 2, "ml": 1,
	"kg": 2, "g": 1,
}

var unitFamilies = map[string]string{
	"cup": "volume-kitchen", "tbsp": "volume-kitchen", "tsp": "volume-kitchen",
	"lb": "weight-us", "oz": "weight-us",
	"gal": "volume-us", "qt": "volume-us", "pt": "volume-us",
	"l": "volume-metric", "ml": "volume-metric",
	"kg": "weight-metric", "g": "weight-metric",
}

// CanonicalUnit collapses a measurement spelling to its canonical token.
// Unknown measurements pass through lowercased.
func CanonicalUnit(measurement string) string {
	m := strings.ToLower(strings.TrimSpace(measurement))
	if canonical, ok := unitAliases[m]; ok {
		return canonical
	}
	return m
}

// PreferredUnit picks the display unit when two compatible units meet.
// Incompatible units keep the first spelling; conversion arithmetic across
// measurement systems is out of scope.
func PreferredUnit(a, b string) string {
	a, b = CanonicalUnit(a), CanonicalUnit(b)
	if a == b {
		return a
	}
	if unitFamilies[a] != "" && unitFamilies[a] == unitFamilies[b] {
		if unitRank[b] > unitRank[a] {
			return b
		}
	}
	return a
}

// Engine merges a set of parsed ingredients into a deduplicated,
// quantity-summed set. Equivalence judgment is delegated to the external
// normalizer; every failure path degrades to returning the input unmodified.
type Engine struct {
	normalizer Normalizer
	timeout    time.Duration
}

// NewEngine creates a consolidation engine over the given normalizer.
func NewEngine(normalizer Normalizer, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Engine{
		normalizer: normalizer,
		timeout:    timeout,
	}
}

// Consolidate merges items judged equivalent, summing quantities. The output
// never has more items than the input, and on any normalizer failure the
// input comes back unmodified, in original order. Consolidate never returns
// an error to its caller.
func (e *Engine) Consolidate(ctx context.Context, items []Line) []Line {
	if len(items) <= 1 || e.normalizer == nil {
		return items
	}

	manifest := make([]string, 0, len(items))
	for _, item := range items {
		manifest = append(manifest, item.ManifestLine())
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	response, err := e.normalizer.Normalize(ctx, strings.Join(manifest, "\n"))
	common.LogNormalizerCall(len(items), time.Since(start), err)
	if err != nil {
		return items
	}

	merged := ParseBlock(response)
	if len(merged) == 0 || len(merged) > len(items) {
		common.LogWarn("normalizer response unusable, keeping original items",
			zap.Int("input_items", len(items)),
			zap.Int("parsed_items", len(merged)),
		)
		return items
	}

	for i := range merged {
		merged[i].Measurement = CanonicalUnit(merged[i].Measurement)
		// When inputs for the same name span compatible units, the merged
		// line takes the highest-preference unit of the family.
		for _, in := range items {
			if strings.EqualFold(strings.TrimSpace(in.Name), strings.TrimSpace(merged[i].Name)) {
				merged[i].Measurement = PreferredUnit(merged[i].Measurement, in.Measurement)
			}
		}
	}
	return merged
}
