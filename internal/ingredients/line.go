// Package ingredients turns free-text ingredient specifications into
// structured (name, quantity, unit) lines.
package ingredients

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// DefaultUnit is assigned when a line carries no usable unit.
const DefaultUnit = "piece"

// QuantityPlaces is the number of decimal places stored for a quantity.
const QuantityPlaces = 3

// MaxQuantity is the largest quantity a numeric(14,3) column holds.
var MaxQuantity = decimal.RequireFromString("99999999999.999")

// NormalizeQuantity rounds q to the stored precision. It reports false for
// negative values, values above MaxQuantity and positive values that would
// round away to zero.
func NormalizeQuantity(q decimal.Decimal) (decimal.Decimal, bool) {
	if q.IsNegative() {
		return decimal.Zero, false
	}
	rounded := q.Round(QuantityPlaces)
	if rounded.GreaterThan(MaxQuantity) || (q.IsPositive() && rounded.IsZero()) {
		return decimal.Zero, false
	}
	return rounded, true
}

// ClampQuantity rounds q to the stored precision and caps it at MaxQuantity.
// Totals built from many storable lines use it.
func ClampQuantity(q decimal.Decimal) decimal.Decimal {
	if q.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(q.Round(QuantityPlaces), MaxQuantity)
}

// Line is one structured ingredient specification.
type Line struct {
	Name     string
	Quantity decimal.Decimal
	Unit     string
	// Estimated is set when the quantity could not be read from the input and
	// was defaulted to one.
	Estimated bool
}

// Format renders a line in the "name - quantity unit" shape Parse accepts.
func Format(l Line) string {
	return strings.TrimSpace(l.Name) + " - " + l.Quantity.String() + " " + strings.TrimSpace(l.Unit)
}

func fallback(name string) Line {
	return Line{
		Name:      NormalizeName(name),
		Quantity:  decimal.NewFromInt(1),
		Unit:      DefaultUnit,
		Estimated: true,
	}
}

// Lower lower-cases s with Turkish casing: "İ" becomes "i" and "I" becomes "ı".
func Lower(s string) string {
	return strings.ToLowerSpecial(unicode.TurkishCase, s)
}

// NormalizeName collapses whitespace and lower-cases a name for grouping.
func NormalizeName(name string) string {
	return Lower(strings.Join(strings.Fields(name), " "))
}

func normalizeUnit(unit string) string {
	unit = strings.Join(strings.Fields(unit), " ")
	if unit == "" {
		return DefaultUnit
	}
	return unit
}
