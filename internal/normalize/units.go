// Package normalize converts extracted quantities and units into the canonical unit system.
package normalize

import (
	"math"
	"strconv"
	"strings"

	"pointake/internal/domain"
)

const (
	// PoundsToKilograms is the exact avoirdupois pound in kilograms.
	PoundsToKilograms = 0.45359237

	UnitKilogram = "KG"
	UnitTon      = "TO"
)

var poundUnits = map[string]bool{
	"lbs":      true,
	"lb":       true,
	"pound":    true,
	"pounds":   true,
	"lbs.":     true,
	"pound(s)": true,
}

var tonUnits = map[string]bool{
	"ton":         true,
	"tons":        true,
	"metric ton":  true,
	"metric tons": true,
	// canonical code, so already normalized lines are fixed points
	"to": true,
}

// Units returns line with its quantity and unit in canonical form.
// Pound quantities are converted to kilograms and rounded to two decimals, ton
// quantities are kept and tagged TO, and every other unit is tagged KG with the
// quantity untouched. A quantity that does not parse leaves the line unchanged.
func Units(line domain.ExtractedLine) domain.ExtractedLine {
	qty, ok := parseQuantity(line.OrderQuantity)
	if !ok {
		return line
	}

	unit := strings.ToLower(strings.TrimSpace(line.UnitOfMeasure))
	switch {
	case poundUnits[unit]:
		return line.WithQuantity(domain.NumberQuantity(round2(qty*PoundsToKilograms)), UnitKilogram)
	case tonUnits[unit]:
		return line.WithQuantity(line.OrderQuantity, UnitTon)
	default:
		return line.WithQuantity(line.OrderQuantity, UnitKilogram)
	}
}

func parseQuantity(q domain.Quantity) (float64, bool) {
	if n, ok := q.Number(); ok {
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	}
	s, _ := q.Text()
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
