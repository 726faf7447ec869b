package ingredient

import (
	"regexp"
	"sort"
	"strings"

	"auto-cart/internal/pkg/common"

	"go.uber.org/zap"
)

// Decorative glyphs seen in pasted or scraped ingredient blocks: recipe-site
// checkboxes, bullets, dashes.
var glyphPattern = regexp.MustCompile(`^[\s▢☐□•·*-]+`)

// Anchor patterns tried in order; first match wins.
//
//	spaced:     "2 cups flour"
//	gluedUnit:  "2cups flour" (quantity stuck to the unit)
//	fullyGlued: "1/4cuphoney" (scraped text with no spaces at all)
var (
	spacedPattern     = regexp.MustCompile(`^([\d][\d\s./]*?)\s+([a-zA-Z]+)\s+(.+)$`)
	gluedUnitPattern  = regexp.MustCompile(`^([\d][\d./]*)([a-zA-Z]+)\s+(.+)$`)
	fullyGluedPattern = compileFullyGluedPattern()
)

// compileFullyGluedPattern builds the fully-glued anchor from the known unit
// spellings. Without spaces there is no boundary between the unit and the
// name, so the measurement group must be one of the recognized spellings,
// alternated longest-first so "cups" wins over "cup" in "2cupssugar".
// Single-letter spellings are left out: a one-letter unit glued to a name is
// indistinguishable from a word ("2corn" is not 2 c of "orn").
func compileFullyGluedPattern() *regexp.Regexp {
	spellings := make([]string, 0, len(unitAliases))
	for spelling := range unitAliases {
		if len(spelling) > 1 {
			spellings = append(spellings, spelling)
		}
	}
	sort.Slice(spellings, func(i, j int) bool {
		if len(spellings[i]) != len(spellings[j]) {
			return len(spellings[i]) > len(spellings[j])
		}
		return spellings[i] < spellings[j]
	})
	return regexp.MustCompile(`(?i)^([\d][\d./]*)(` + strings.Join(spellings, "|") + `)([a-zA-Z].*)$`)
}

// ParseLine parses one free-text ingredient line into a structured Line.
// Lines whose quantity token is neither numeric nor fractional are rejected.
func ParseLine(line string) (Line, bool) {
	line = glyphPattern.ReplaceAllString(strings.TrimSpace(line), "")
	if line == "" {
		return Line{}, false
	}

	for _, pattern := range []*regexp.Regexp{spacedPattern, gluedUnitPattern, fullyGluedPattern} {
		match := pattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}

		quantity, ok := ParseQuantity(strings.TrimSpace(match[1]))
		if !ok {
			return Line{}, false
		}

		return Line{
			Quantity:    quantity,
			Measurement: strings.ToLower(strings.TrimSpace(match[2])),
			Name:        truncateName(strings.TrimSpace(match[3])),
		}, true
	}

	return Line{}, false
}

// ParseBlock splits text on newlines and parses each line independently.
// Unparsable lines are dropped; the drop is logged, never fatal.
func ParseBlock(text string) []Line {
	var parsed []Line
	for _, raw := range strings.Split(text, "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		line, ok := ParseLine(raw)
		if !ok {
			common.LogDebug("dropping unparsable ingredient line",
				zap.String("line", strings.TrimSpace(raw)),
			)
			continue
		}
		parsed = append(parsed, line)
	}
	return parsed
}

// ParseBlockLenient parses a block with the tiered parser, and only when that
// yields nothing at all falls back to treating each non-empty line as a
// single unmeasured item. Returns nil for blank input.
func ParseBlockLenient(text string) []Line {
	if parsed := ParseBlock(text); len(parsed) > 0 {
		return parsed
	}

	var fallback []Line
	for _, raw := range strings.Split(text, "\n") {
		name := glyphPattern.ReplaceAllString(strings.TrimSpace(raw), "")
		if name == "" {
			continue
		}
		fallback = append(fallback, Line{
			Quantity:    1,
			Measurement: UnitlessMeasurement,
			Name:        truncateName(name),
		})
	}
	return fallback
}

func truncateName(name string) string {
	if len(name) > MaxNameLength {
		return name[:MaxNameLength]
	}
	return name
}
