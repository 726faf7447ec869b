package ingredient

import (
	"strconv"
	"strings"
)

// ParseQuantity converts a free-text quantity token into a numeric value.
// An empty string counts as zero. Fractions of the form "a/b" are evaluated
// exactly; a zero denominator is not a quantity. Anything that is neither a
// fraction nor a plain numeral is reported as not-a-quantity rather than an
// error, so the caller decides the fallback.
func ParseQuantity(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, true
	}

	if num, den, ok := splitFraction(text); ok {
		if den == 0 {
			return 0, false
		}
		return num / den, true
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func splitFraction(text string) (num, den float64, ok bool) {
	idx := strings.Index(text, "/")
	if idx <= 0 || idx == len(text)-1 {
		return 0, 0, false
	}

	num, err := strconv.ParseFloat(strings.TrimSpace(text[:idx]), 64)
	if err != nil {
		return 0, 0, false
	}
	den, err = strconv.ParseFloat(strings.TrimSpace(text[idx+1:]), 64)
	if err != nil {
		return 0, 0, false
	}
	return num, den, true
}
