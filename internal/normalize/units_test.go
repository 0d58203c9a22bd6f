package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pointake/internal/domain"
	"pointake/internal/normalize"
)

func line(q domain.Quantity, unit string) domain.ExtractedLine {
	return domain.ExtractedLine{CustomerName: "Acme", OrderQuantity: q, UnitOfMeasure: unit}
}

func number(t *testing.T, q domain.Quantity) float64 {
	t.Helper()
	n, ok := q.Number()
	assert.True(t, ok, "quantity should be numeric")
	return n
}

func TestUnits_PoundFamilyConvertsToKilograms(t *testing.T) {
	for _, unit := range []string{"lbs", "LB", " pound ", "Pounds", "lbs.", "pound(s)"} {
		t.Run(unit, func(t *testing.T) {
			out := normalize.Units(line(domain.NumberQuantity(100), unit))
			assert.Equal(t, normalize.UnitKilogram, out.UnitOfMeasure)
			assert.Equal(t, 45.36, number(t, out.OrderQuantity))
		})
	}
}

func TestUnits_PoundsWithThousandsSeparator(t *testing.T) {
	out := normalize.Units(line(domain.TextQuantity("1,000"), "lbs"))

	assert.Equal(t, "KG", out.UnitOfMeasure)
	assert.Equal(t, 453.59, number(t, out.OrderQuantity))
}

func TestUnits_TonFamilyKeepsQuantity(t *testing.T) {
	for _, unit := range []string{"ton", "tons", "Metric Ton", "metric tons"} {
		t.Run(unit, func(t *testing.T) {
			out := normalize.Units(line(domain.NumberQuantity(5), unit))
			assert.Equal(t, normalize.UnitTon, out.UnitOfMeasure)
			assert.Equal(t, float64(5), number(t, out.OrderQuantity))
		})
	}
}

func TestUnits_TonKeepsTextualQuantity(t *testing.T) {
	out := normalize.Units(line(domain.TextQuantity("2,500"), "tons"))

	assert.Equal(t, "TO", out.UnitOfMeasure)
	s, ok := out.OrderQuantity.Text()
	assert.True(t, ok)
	assert.Equal(t, "2,500", s)
}

// Every unit outside the pound and ton families becomes KG, including count units
// such as EA or PCS. This mirrors the behaviour the pipeline has always had; change
// this test deliberately if count units should be preserved.
func TestUnits_OtherUnitsBecomeKilograms(t *testing.T) {
	for _, unit := range []string{"kg", "EA", "PCS", "boxes", ""} {
		t.Run(unit, func(t *testing.T) {
			out := normalize.Units(line(domain.NumberQuantity(12), unit))
			assert.Equal(t, "KG", out.UnitOfMeasure)
			assert.Equal(t, float64(12), number(t, out.OrderQuantity))
		})
	}
}

func TestUnits_UnparseableQuantityLeavesLineUnchanged(t *testing.T) {
	for _, q := range []domain.Quantity{domain.TextQuantity("approx. ten"), domain.TextQuantity(""), domain.TextQuantity("12abc")} {
		in := line(q, "lbs")
		assert.Equal(t, in, normalize.Units(in))
	}
}

// A quantity with trailing text is not a number; the line keeps both its
// quantity and its unit rather than converting a numeric prefix.
func TestUnits_QuantityWithUnitSuffixLeavesLineUnchanged(t *testing.T) {
	for _, unit := range []string{"lbs", "tons", "EA"} {
		t.Run(unit, func(t *testing.T) {
			in := line(domain.TextQuantity("12 lbs"), unit)
			assert.Equal(t, in, normalize.Units(in))
		})
	}
}

func TestUnits_Idempotent(t *testing.T) {
	inputs := []domain.ExtractedLine{
		line(domain.NumberQuantity(100), "lbs"),
		line(domain.NumberQuantity(5), "tons"),
		line(domain.TextQuantity("3,000"), "EA"),
		line(domain.TextQuantity("n/a"), "pcs"),
	}
	for _, in := range inputs {
		once := normalize.Units(in)
		assert.Equal(t, once, normalize.Units(once))
	}
}

func TestUnits_AlreadyTonStaysTon(t *testing.T) {
	out := normalize.Units(line(domain.NumberQuantity(7), "TO"))

	assert.Equal(t, "TO", out.UnitOfMeasure)
	assert.Equal(t, float64(7), number(t, out.OrderQuantity))
}

func TestUnits_AlreadyKilogramStaysKilogram(t *testing.T) {
	out := normalize.Units(line(domain.NumberQuantity(45.36), "KG"))

	assert.Equal(t, "KG", out.UnitOfMeasure)
	assert.Equal(t, 45.36, number(t, out.OrderQuantity))
}
