// Package consolidation merges ingredient lines from one or many sources into
// a shopping list with one row per (name, unit), netted against the pantry.
package consolidation

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/larder-backend/internal/ingredients"
	"github.com/angelmondragon/larder-backend/pkg/enums"
)

// Classifier files a name under a category.
type Classifier interface {
	Classify(name string) enums.Category
}

// Source is one batch of lines, e.g. a recipe, scaled by a portion multiplier.
type Source struct {
	Lines []ingredients.Line
	Scale decimal.Decimal
}

// NewSource builds a source with the given integer scale.
func NewSource(lines []ingredients.Line, scale int64) Source {
	return Source{Lines: lines, Scale: decimal.NewFromInt(scale)}
}

// SourceFromItems feeds a previous result back in, unscaled.
func SourceFromItems(items []Item) Source {
	lines := make([]ingredients.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, it.Line())
	}
	return Source{Lines: lines, Scale: decimal.NewFromInt(1)}
}

// Item is one consolidated shopping list row.
type Item struct {
	Name     string
	Quantity decimal.Decimal
	Unit     string
	Category enums.Category
	// Estimated marks an "at least one" row built only from lines whose
	// quantity could not be read.
	Estimated bool
}

// Line converts the item back into an ingredient line.
func (i Item) Line() ingredients.Line {
	return ingredients.Line{Name: i.Name, Quantity: i.Quantity, Unit: i.Unit, Estimated: i.Estimated}
}

// Result carries the consolidated rows plus netting counters.
type Result struct {
	Items []Item
	// Covered counts rows dropped because the pantry fully covers them.
	Covered int
	// Reduced counts rows whose quantity the pantry partially covers.
	Reduced int
}

// Aggregator is safe for concurrent use; it holds no mutable state.
type Aggregator struct {
	classifier Classifier
	converter  UnitConverter
}

// New builds an aggregator. A nil converter only nets identical units.
func New(classifier Classifier, converter UnitConverter) *Aggregator {
	if converter == nil {
		converter = SameUnit{}
	}
	return &Aggregator{classifier: classifier, converter: converter}
}

type groupKey struct {
	name string
	unit string
}

type group struct {
	key      groupKey
	quantity decimal.Decimal
	marker   bool
}

// Consolidate scales, groups, sums and nets the sources. The output never
// holds two items with the same (name, unit). Totals are capped at
// ingredients.MaxQuantity.
func (a *Aggregator) Consolidate(sources []Source, pantry Pantry) Result {
	groups, order := a.group(sources)
	stock := newLedger(pantry)

	var res Result
	for _, key := range order {
		g := groups[key]
		g.quantity = ingredients.ClampQuantity(g.quantity)
		if g.marker {
			if stock.has(g.key.name) {
				res.Covered++
				continue
			}
		} else if stock.has(g.key.name) {
			missing := stock.net(g.key.name, g.key.unit, g.quantity, a.converter)
			switch {
			case !missing.IsPositive() && (g.quantity.IsPositive() || stock.covers(g.key.name, g.key.unit, a.converter)):
				res.Covered++
				continue
			case missing.LessThan(g.quantity):
				res.Reduced++
			}
			g.quantity = missing
		}

		res.Items = append(res.Items, Item{
			Name:      g.key.name,
			Quantity:  g.quantity,
			Unit:      g.key.unit,
			Category:  a.classify(g.key.name),
			Estimated: g.marker,
		})
	}
	return res
}

// group sums numeric lines per (name, unit). Lines without a readable quantity
// are kept per name as an "at least one" marker, dropped when the same name
// also has a numeric line.
func (a *Aggregator) group(sources []Source) (map[groupKey]*group, []groupKey) {
	groups := map[groupKey]*group{}
	order := []groupKey{}
	numericNames := map[string]bool{}

	for _, src := range sources {
		scale := src.Scale
		if !scale.IsPositive() {
			scale = decimal.NewFromInt(1)
		}
		for _, line := range src.Lines {
			name := normalizeName(line.Name)
			if name == "" {
				continue
			}

			if line.Estimated {
				key := groupKey{name: name}
				if _, ok := groups[key]; !ok {
					groups[key] = &group{key: groupKey{name: name, unit: ingredients.DefaultUnit}, quantity: decimal.NewFromInt(1), marker: true}
					order = append(order, key)
				}
				continue
			}

			unit := normalizeUnit(line.Unit)
			if unit == "" {
				unit = ingredients.DefaultUnit
			}
			key := groupKey{name: name, unit: unit}
			g, ok := groups[key]
			if !ok {
				g = &group{key: key, quantity: decimal.Zero}
				groups[key] = g
				order = append(order, key)
			}
			g.quantity = g.quantity.Add(line.Quantity.Mul(scale))
			numericNames[name] = true
		}
	}

	kept := order[:0]
	for _, key := range order {
		if groups[key].marker && numericNames[key.name] {
			delete(groups, key)
			continue
		}
		kept = append(kept, key)
	}
	return groups, kept
}

func (a *Aggregator) classify(name string) enums.Category {
	if a.classifier == nil {
		return enums.CategoryOther
	}
	return a.classifier.Classify(name)
}
