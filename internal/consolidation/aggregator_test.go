package consolidation

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/larder-backend/internal/categories"
	"github.com/angelmondragon/larder-backend/internal/ingredients"
	"github.com/angelmondragon/larder-backend/pkg/enums"
)

func parse(raws ...string) []ingredients.Line {
	return ingredients.ParseAll(raws)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newAggregator() *Aggregator {
	return New(categories.Default(), nil)
}

func findItem(t *testing.T, items []Item, name, unit string) Item {
	t.Helper()
	for _, it := range items {
		if it.Name == name && it.Unit == unit {
			return it
		}
	}
	t.Fatalf("item %s/%s not found in %+v", name, unit, items)
	return Item{}
}

func TestConsolidateTwoRecipesSumsQuantities(t *testing.T) {
	res := newAggregator().Consolidate([]Source{
		NewSource(parse("2 adet domates"), 1),
		NewSource(parse("1 adet domates"), 1),
	}, nil)

	require.Len(t, res.Items, 1)
	item := res.Items[0]
	assert.Equal(t, "domates", item.Name)
	assert.Equal(t, "adet", item.Unit)
	assert.True(t, dec("3").Equal(item.Quantity), "got %s", item.Quantity)
	assert.Equal(t, enums.CategoryVegetablesFruits, item.Category)
}

func TestConsolidateMergesTurkishCaseVariants(t *testing.T) {
	pantry := Pantry{}
	pantry.Add("KIYMA", dec("0.5"), "KG")
	res := newAggregator().Consolidate([]Source{
		NewSource(parse("1 kg KIYMA", "1 kg kıyma"), 1),
	}, pantry)

	require.Len(t, res.Items, 1)
	item := res.Items[0]
	assert.Equal(t, "kıyma", item.Name)
	assert.True(t, dec("1.5").Equal(item.Quantity), "got %s", item.Quantity)
	assert.Equal(t, enums.CategoryMeatPoultryFish, item.Category)
}

func TestConsolidateNetsAgainstPantry(t *testing.T) {
	sources := []Source{
		NewSource(parse("2 adet domates"), 1),
		NewSource(parse("1 adet domates"), 1),
	}

	partial := Pantry{}
	partial.Add("domates", dec("2"), "")
	res := newAggregator().Consolidate(sources, partial)
	require.Len(t, res.Items, 1)
	assert.True(t, dec("1").Equal(res.Items[0].Quantity))
	assert.Equal(t, 1, res.Reduced)

	full := Pantry{}
	full.Add("domates", dec("5"), "")
	res = newAggregator().Consolidate(sources, full)
	assert.Empty(t, res.Items)
	assert.Equal(t, 1, res.Covered)
}

func TestConsolidateKeepsMalformedLines(t *testing.T) {
	res := newAggregator().Consolidate([]Source{NewSource(parse("???"), 1)}, nil)

	require.Len(t, res.Items, 1)
	item := res.Items[0]
	assert.Equal(t, "???", item.Name)
	assert.Equal(t, ingredients.DefaultUnit, item.Unit)
	assert.True(t, dec("1").Equal(item.Quantity))
	assert.Equal(t, enums.CategoryOther, item.Category)
	assert.True(t, item.Estimated)
}

func TestConsolidateScalesBySource(t *testing.T) {
	res := newAggregator().Consolidate([]Source{
		NewSource(parse("200 gram un", "tuz - bir tutam"), 3),
		NewSource(parse("un - 50 gram"), 2),
	}, nil)

	un := findItem(t, res.Items, "un", "gram")
	assert.True(t, dec("700").Equal(un.Quantity), "got %s", un.Quantity)

	tuz := findItem(t, res.Items, "tuz", ingredients.DefaultUnit)
	assert.True(t, dec("1").Equal(tuz.Quantity), "markers are not scaled")
}

func TestConsolidateNonPositiveScaleDefaultsToOne(t *testing.T) {
	res := newAggregator().Consolidate([]Source{
		{Lines: parse("2 adet yumurta"), Scale: decimal.Zero},
		{Lines: parse("1 adet yumurta"), Scale: dec("-4")},
	}, nil)
	require.Len(t, res.Items, 1)
	assert.True(t, dec("3").Equal(res.Items[0].Quantity))
}

func TestConsolidateMarkerAbsorbedByNumericLines(t *testing.T) {
	res := newAggregator().Consolidate([]Source{
		NewSource(parse("domates - biraz"), 1),
		NewSource(parse("2 adet domates"), 1),
		NewSource(parse("domates - bolca"), 1),
	}, nil)

	require.Len(t, res.Items, 1)
	assert.Equal(t, "adet", res.Items[0].Unit)
	assert.True(t, dec("2").Equal(res.Items[0].Quantity))
	assert.False(t, res.Items[0].Estimated)
}

func TestConsolidateSeparatesUnits(t *testing.T) {
	res := newAggregator().Consolidate([]Source{
		NewSource(parse("2 adet domates", "200 gram domates", "1 Adet domates"), 1),
	}, nil)

	require.Len(t, res.Items, 2)
	assert.True(t, dec("3").Equal(findItem(t, res.Items, "domates", "adet").Quantity))
	assert.True(t, dec("200").Equal(findItem(t, res.Items, "domates", "gram").Quantity))
}

func TestConsolidateSkipsNettingOnUnitMismatch(t *testing.T) {
	pantry := Pantry{}
	pantry.Add("un", dec("1"), "kg")

	res := newAggregator().Consolidate([]Source{NewSource(parse("500 gram un"), 1)}, pantry)
	require.Len(t, res.Items, 1)
	assert.True(t, dec("500").Equal(res.Items[0].Quantity))
	assert.Zero(t, res.Reduced)
	assert.Zero(t, res.Covered)
}

func TestConsolidateUsesPluggableConverter(t *testing.T) {
	pantry := Pantry{}
	pantry.Add("un", dec("0.3"), "kg")

	agg := New(categories.Default(), FactorTable{"gram": dec("1"), "kg": dec("1000")})
	res := agg.Consolidate([]Source{
		NewSource(parse("200 gram un"), 1),
		NewSource(parse("un - 0.5 kg"), 1),
	}, pantry)

	// 300 g on hand covers the 200 g row and leaves 100 g for the kg row.
	assert.Equal(t, 1, res.Covered)
	require.Len(t, res.Items, 1)
	kg := findItem(t, res.Items, "un", "kg")
	assert.True(t, dec("0.4").Equal(kg.Quantity), "got %s", kg.Quantity)
}

func TestConsolidateDoesNotDoubleCountPantry(t *testing.T) {
	pantry := Pantry{}
	pantry.Add("domates", dec("3"), "")

	res := newAggregator().Consolidate([]Source{
		NewSource(parse("2 adet domates", "250 gram domates"), 1),
	}, pantry)

	assert.Equal(t, 1, res.Covered)
	require.Len(t, res.Items, 1)
	assert.True(t, dec("249").Equal(findItem(t, res.Items, "domates", "gram").Quantity))
}

func TestConsolidateMarkerCoveredByAnyStock(t *testing.T) {
	pantry := Pantry{}
	pantry.Add("tuz", dec("1"), "paket")

	res := newAggregator().Consolidate([]Source{NewSource(parse("tuz"), 1)}, pantry)
	assert.Empty(t, res.Items)
	assert.Equal(t, 1, res.Covered)
}

func TestConsolidateZeroPantryKeepsFullAmount(t *testing.T) {
	pantry := Pantry{"domates": {{Quantity: decimal.Zero}}}
	res := newAggregator().Consolidate([]Source{NewSource(parse("2 adet domates"), 1)}, pantry)
	require.Len(t, res.Items, 1)
	assert.True(t, dec("2").Equal(res.Items[0].Quantity))
}

func TestConsolidateOutputIsUniquePerNameAndUnit(t *testing.T) {
	raws := []string{}
	names := []string{"domates", "Domates", " domates ", "süt", "un", "???", "tuz - ?"}
	units := []string{"adet", "ADET", "gram", "kg", ""}
	for i := 0; i < 200; i++ {
		name := names[i%len(names)]
		unit := units[(i/len(names))%len(units)]
		raws = append(raws, fmt.Sprintf("%s - %d %s", name, i%7, unit))
		raws = append(raws, name)
	}

	res := newAggregator().Consolidate([]Source{
		NewSource(parse(raws...), 1),
		NewSource(parse(raws[:50]...), 2),
	}, nil)

	seen := map[string]bool{}
	for _, it := range res.Items {
		key := it.Name + "|" + it.Unit
		assert.False(t, seen[key], "duplicate %s", key)
		seen[key] = true
	}
}

func TestConsolidateIsAdditive(t *testing.T) {
	a := NewSource(parse("2 adet domates", "tuz", "200 gram un"), 2)
	b := NewSource(parse("domates - 1 adet", "1 litre süt"), 1)
	c := NewSource(parse("3 adet domates", "tuz - 5 gram", "un - 100 gram"), 1)

	agg := newAggregator()
	oneShot := agg.Consolidate([]Source{a, b, c}, nil)

	first := agg.Consolidate([]Source{a, b}, nil)
	twoStep := agg.Consolidate([]Source{SourceFromItems(first.Items), c}, nil)

	require.Len(t, twoStep.Items, len(oneShot.Items))
	for _, want := range oneShot.Items {
		got := findItem(t, twoStep.Items, want.Name, want.Unit)
		assert.True(t, want.Quantity.Equal(got.Quantity), "%s/%s: %s vs %s", want.Name, want.Unit, want.Quantity, got.Quantity)
		assert.Equal(t, want.Estimated, got.Estimated)
	}
}

func TestPantryNettingIsMonotonic(t *testing.T) {
	sources := []Source{NewSource(parse("7 adet domates", "300 gram domates"), 1)}
	agg := newAggregator()

	previous := map[string]decimal.Decimal{}
	for stock := 0; stock <= 400; stock += 25 {
		pantry := Pantry{}
		pantry.Add("domates", decimal.NewFromInt(int64(stock)), "")
		res := agg.Consolidate(sources, pantry)

		current := map[string]decimal.Decimal{"adet": decimal.Zero, "gram": decimal.Zero}
		for _, it := range res.Items {
			current[it.Unit] = it.Quantity
		}
		for unit, qty := range previous {
			assert.True(t, current[unit].LessThanOrEqual(qty), "stock %d unit %s grew from %s to %s", stock, unit, qty, current[unit])
		}
		previous = current
	}
	assert.True(t, previous["adet"].IsZero())
	assert.True(t, previous["gram"].IsZero())
}

func TestConsolidateWithoutClassifierFallsBackToOther(t *testing.T) {
	res := New(nil, nil).Consolidate([]Source{NewSource(parse("2 adet domates"), 1)}, nil)
	require.Len(t, res.Items, 1)
	assert.Equal(t, enums.CategoryOther, res.Items[0].Category)
}

func TestKeyNormalizesNameAndUnit(t *testing.T) {
	name, unit := Key("  Kırmızı   Biber ", " KG ")
	assert.Equal(t, "kırmızı biber", name)
	assert.Equal(t, "kg", unit)

	_, unit = Key("tuz", "")
	assert.Equal(t, ingredients.DefaultUnit, unit)
}

func TestConsolidateZeroRequirementCoveredByPantry(t *testing.T) {
	pantry := Pantry{}
	pantry.Add("tuz", dec("5"), "")
	res := newAggregator().Consolidate([]Source{NewSource(parse("tuz - 0 gram"), 1)}, pantry)
	assert.Empty(t, res.Items)
	assert.Equal(t, 1, res.Covered)

	// stock in another unit cannot net, so the row stays
	other := Pantry{}
	other.Add("tuz", dec("5"), "paket")
	res = newAggregator().Consolidate([]Source{NewSource(parse("tuz - 0 gram"), 1)}, other)
	require.Len(t, res.Items, 1)
	assert.Equal(t, 0, res.Covered)
}

func TestConsolidateCapsTotalsAtStorableQuantity(t *testing.T) {
	res := newAggregator().Consolidate([]Source{
		NewSource(parse("99999999999 gram un"), 7),
	}, nil)
	require.Len(t, res.Items, 1)
	assert.True(t, ingredients.MaxQuantity.Equal(res.Items[0].Quantity), "got %s", res.Items[0].Quantity)
}
