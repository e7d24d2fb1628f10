package consolidation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/larder-backend/internal/ingredients"
)

// UnitConverter converts a quantity between two units. Implementations report
// false when they do not know how to convert, in which case netting is skipped.
type UnitConverter interface {
	Convert(qty decimal.Decimal, from, to string) (decimal.Decimal, bool)
}

// SameUnit only "converts" between spellings of the same unit. It is the
// default: no conversion tables are assumed.
type SameUnit struct{}

func (SameUnit) Convert(qty decimal.Decimal, from, to string) (decimal.Decimal, bool) {
	if normalizeUnit(from) != normalizeUnit(to) {
		return decimal.Zero, false
	}
	return qty, true
}

// FactorTable converts using explicit factors to a shared base unit, e.g.
// {"g": 1, "kg": 1000}. Units missing from the table never convert.
type FactorTable map[string]decimal.Decimal

func (t FactorTable) Convert(qty decimal.Decimal, from, to string) (decimal.Decimal, bool) {
	if normalizeUnit(from) == normalizeUnit(to) {
		return qty, true
	}
	fromFactor, okFrom := t.factor(from)
	toFactor, okTo := t.factor(to)
	if !okFrom || !okTo {
		return decimal.Zero, false
	}
	return qty.Mul(fromFactor).Div(toFactor), true
}

func (t FactorTable) factor(unit string) (decimal.Decimal, bool) {
	unit = normalizeUnit(unit)
	for name, f := range t {
		if normalizeUnit(name) == unit && f.IsPositive() {
			return f, true
		}
	}
	return decimal.Zero, false
}

func normalizeUnit(unit string) string {
	return ingredients.Lower(strings.Join(strings.Fields(unit), " "))
}

func normalizeName(name string) string {
	return ingredients.NormalizeName(name)
}

// Key returns the normalized (name, unit) pair rows are consolidated under.
// An empty unit becomes the default unit.
func Key(name, unit string) (string, string) {
	unit = normalizeUnit(unit)
	if unit == "" {
		unit = ingredients.DefaultUnit
	}
	return normalizeName(name), unit
}
