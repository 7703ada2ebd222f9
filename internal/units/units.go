// Package units formats stored imperial measurements for display.
package units

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/foxxcyber/trail-guide/internal/models"
)

const (
	kmPerMile   = 1.609344
	metersPerFt = 0.3048
)

// DisplayPreferences carries the viewer's display choices. It is passed to
// every formatting call; there is no package-level preference.
type DisplayPreferences struct {
	System models.UnitSystem
	Lang   language.Tag
}

// Imperial returns the default preferences
func Imperial() DisplayPreferences {
	return DisplayPreferences{System: models.UnitsImperial, Lang: language.AmericanEnglish}
}

// Metric returns metric preferences
func Metric() DisplayPreferences {
	return DisplayPreferences{System: models.UnitsMetric, Lang: language.AmericanEnglish}
}

// Parse maps a stored or requested unit string onto preferences, defaulting to imperial
func Parse(system string) DisplayPreferences {
	if models.UnitSystem(system) == models.UnitsMetric {
		return Metric()
	}
	return Imperial()
}

// IsMetric reports whether metric output was selected
func (p DisplayPreferences) IsMetric() bool {
	return p.System == models.UnitsMetric
}

func (p DisplayPreferences) printer() *message.Printer {
	tag := p.Lang
	if tag == language.Und {
		tag = language.AmericanEnglish
	}
	return message.NewPrinter(tag)
}

// Distance formats a distance stored in miles
func (p DisplayPreferences) Distance(miles float64) string {
	if p.IsMetric() {
		return p.printer().Sprintf("%.1f km", miles*kmPerMile)
	}
	return p.printer().Sprintf("%.1f mi", miles)
}

// Elevation formats an elevation stored in feet
func (p DisplayPreferences) Elevation(feet int) string {
	if p.IsMetric() {
		return p.printer().Sprintf("%d m", int(math.Round(float64(feet)*metersPerFt)))
	}
	return p.printer().Sprintf("%d ft", feet)
}

// Temperature formats a temperature reported in Fahrenheit
func (p DisplayPreferences) Temperature(f float64) string {
	if p.IsMetric() {
		return p.printer().Sprintf("%d°C", int(math.Round((f-32)*5/9)))
	}
	return p.printer().Sprintf("%d°F", int(math.Round(f)))
}

// Label fills the trail's display fields for these preferences
func (p DisplayPreferences) Label(t *models.Trail) {
	if t.DistanceMiles != nil {
		t.DistanceLabel = p.Distance(*t.DistanceMiles)
	}
	if t.ElevationGainFt != nil {
		t.ElevationLabel = p.Elevation(*t.ElevationGainFt)
	}
}
