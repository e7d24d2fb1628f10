package categories

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/larder-backend/pkg/enums"
)

func TestClassifyDefaultTable(t *testing.T) {
	tests := []struct {
		name string
		want enums.Category
	}{
		{"domates", enums.CategoryVegetablesFruits},
		{"taze soğan", enums.CategoryVegetablesFruits},
		{"Limon", enums.CategoryVegetablesFruits},
		{"tavuk göğsü", enums.CategoryMeatPoultryFish},
		{"dana eti", enums.CategoryMeatPoultryFish},
		{"süt", enums.CategoryDairy},
		{"yoğurt", enums.CategoryDairy},
		{"un", enums.CategoryGrainsLegumes},
		{"kırmızı mercimek", enums.CategoryGrainsLegumes},
		{"su böreği", enums.CategoryGrainsLegumes},
		{"pastırma", enums.CategoryDelicatessen},
		{"dondurulmuş bezelye", enums.CategoryFrozen},
		{"bitter çikolata", enums.CategorySnacks},
		{"su", enums.CategoryBeverages},
		{"meyve suyu", enums.CategoryBeverages},
		{"limonata", enums.CategoryBeverages},
		{"bulaşık deterjanı", enums.CategoryHouseholdCleaning},
		{"şampuan", enums.CategoryPersonalCare},
		{"???", enums.CategoryOther},
		{"", enums.CategoryOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.name), "name %q", tt.name)
	}
}

func TestClassifyWordRulesDoNotMatchInsideWords(t *testing.T) {
	assert.Equal(t, enums.CategoryHouseholdCleaning, Classify("deterjan"))
	assert.Equal(t, enums.CategoryOther, Classify("susam"))
	assert.Equal(t, enums.CategoryOther, Classify("steak sauce"))
}

func TestClassifyIsTotal(t *testing.T) {
	inputs := []string{"🍅", strings.Repeat("x", 10000), "   ", "\x00"}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			assert.True(t, Classify(in).IsValid())
		})
	}
	var nilClassifier *Classifier
	assert.Equal(t, enums.CategoryOther, nilClassifier.Classify("domates"))
}

func TestDeclarationOrderBreaksTies(t *testing.T) {
	c, err := New([]Rule{
		{Category: enums.CategoryGrainsLegumes, Keywords: []string{"börek"}},
		{Category: enums.CategoryBeverages, Words: []string{"su"}},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.CategoryGrainsLegumes, c.Classify("su böreği"))

	reversed, err := New([]Rule{
		{Category: enums.CategoryBeverages, Words: []string{"su"}},
		{Category: enums.CategoryGrainsLegumes, Keywords: []string{"börek"}},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.CategoryBeverages, reversed.Classify("su böreği"))
}

func TestDefaultTableFollowsCategoryOrder(t *testing.T) {
	got := Default().Categories()
	want := enums.Categories[:len(enums.Categories)-1]
	assert.Equal(t, want, got)
}

func TestNewRejectsInvalidRules(t *testing.T) {
	_, err := New([]Rule{{Category: "bogus", Keywords: []string{"x"}}})
	require.Error(t, err)

	_, err = New([]Rule{{Category: enums.CategoryOther, Keywords: []string{"x"}}})
	require.Error(t, err)

	_, err = New([]Rule{{Category: enums.CategoryDairy, Keywords: []string{"  "}}})
	require.Error(t, err)
}

func TestLoadFileOverridesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "rules:\n  - category: snacks\n    keywords: [Domates]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, enums.CategorySnacks, c.Classify("domates"))
	assert.Equal(t, enums.CategoryOther, c.Classify("süt"))

	def, err := LoadFile("")
	require.NoError(t, err)
	assert.Same(t, Default(), def)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := Load(strings.NewReader("rules:\n  - category: dairy\n    keyword: [süt]\n"))
	require.Error(t, err)
}

func TestClassifyFoldsTurkishI(t *testing.T) {
	for _, name := range []string{"ISPANAK", "Ispanak", "ıspanak", "İSPANAK"} {
		assert.Equal(t, enums.CategoryVegetablesFruits, Classify(name), "name %q", name)
	}
	assert.Equal(t, enums.CategoryMeatPoultryFish, Classify("BALIK"))
	assert.Equal(t, enums.CategoryMeatPoultryFish, Classify("KIYMA"))
	assert.Equal(t, enums.CategoryGrainsLegumes, Classify("PİRİNÇ"))
	assert.Equal(t, enums.CategoryFrozen, Classify("ICE"))
}
