package ingredient

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxNameLength caps ingredient names, matching the storage column limit.
const MaxNameLength = 40

// UnitlessMeasurement marks items counted by piece rather than measured.
const UnitlessMeasurement = "unit"

// Line is one structured ingredient: a quantity, an optional measurement
// and a name.
type Line struct {
	Quantity    float64 `json:"quantity"`
	Measurement string  `json:"measurement"`
	Name        string  `json:"name"`
}

// Label renders the line the way it is spoken or shown, e.g. "2 cup flour".
func (l Line) Label() string {
	qty := strconv.FormatFloat(l.Quantity, 'f', -1, 64)
	if l.Measurement == "" || l.Measurement == UnitlessMeasurement {
		return strings.TrimSpace(fmt.Sprintf("%s %s", qty, l.Name))
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", qty, l.Measurement, l.Name))
}

// ManifestLine renders the "qty unit name" form sent to the normalizer.
func (l Line) ManifestLine() string {
	measurement := l.Measurement
	if measurement == "" {
		measurement = UnitlessMeasurement
	}
	qty := strconv.FormatFloat(l.Quantity, 'f', -1, 64)
	return fmt.Sprintf("%s %s %s", qty, measurement, l.Name)
}
