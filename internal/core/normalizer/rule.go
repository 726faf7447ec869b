package normalizer

import (
	"context"
	"strings"

	"auto-cart/internal/core/ingredient"
)

// Rule is a deterministic, in-process normalizer. It merges lines whose
// lowercased name and canonical unit family agree, summing quantities and
// keeping first-seen order. It performs no semantic judgment beyond exact
// name equality and unit aliasing, which makes the consolidation engine's
// structural behavior verifiable without the live service. It also serves as
// the engine's normalizer when no API key is configured.
type Rule struct{}

// NewRule creates a rule-based normalizer.
func NewRule() *Rule {
	return &Rule{}
}

// Normalize merges the manifest locally and returns it in the same
// "qty unit name" format.
func (r *Rule) Normalize(_ context.Context, manifest string) (string, error) {
	parsed := ingredient.ParseBlock(manifest)

	var order []string
	merged := make(map[string]*ingredient.Line)

	for _, line := range parsed {
		line := line
		unit := ingredient.CanonicalUnit(line.Measurement)
		key := strings.ToLower(strings.TrimSpace(line.Name)) + "\x00" + unit

		if existing, ok := merged[key]; ok {
			existing.Quantity += line.Quantity
			continue
		}

		line.Measurement = unit
		merged[key] = &line
		order = append(order, key)
	}

	out := make([]string, 0, len(order))
	for _, key := range order {
		out = append(out, merged[key].ManifestLine())
	}
	return strings.Join(out, "\n"), nil
}
