package enums

import "fmt"

// Category is the shopping aisle an item is filed under.
type Category string

const (
	CategoryVegetablesFruits  Category = "vegetables_fruits"
	CategoryMeatPoultryFish   Category = "meat_poultry_fish"
	CategoryDairy             Category = "dairy"
	CategoryGrainsLegumes     Category = "grains_legumes"
	CategoryDelicatessen      Category = "delicatessen"
	CategoryFrozen            Category = "frozen"
	CategorySnacks            Category = "snacks"
	CategoryBeverages         Category = "beverages"
	CategoryHouseholdCleaning Category = "household_cleaning"
	CategoryPersonalCare      Category = "personal_care"
	CategoryOther             Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryVegetablesFruits,
	CategoryMeatPoultryFish,
	CategoryDairy,
	CategoryGrainsLegumes,
	CategoryDelicatessen,
	CategoryFrozen,
	CategorySnacks,
	CategoryBeverages,
	CategoryHouseholdCleaning,
	CategoryPersonalCare,
	CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryVegetablesFruits:  "Vegetables & Fruits",
	CategoryMeatPoultryFish:   "Meat, Poultry & Fish",
	CategoryDairy:             "Dairy",
	CategoryGrainsLegumes:     "Grains & Legumes",
	CategoryDelicatessen:      "Delicatessen",
	CategoryFrozen:            "Frozen",
	CategorySnacks:            "Snacks",
	CategoryBeverages:         "Beverages",
	CategoryHouseholdCleaning: "Household & Cleaning",
	CategoryPersonalCare:      "Personal Care",
	CategoryOther:             "Other",
}

// String implements fmt.Stringer.
func (c Category) String() string {
	return string(c)
}

// Label is the human readable name of the category.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return categoryLabels[CategoryOther]
}

// Rank is the position of the category in display order; unknown values sort last.
func (c Category) Rank() int {
	for i, candidate := range Categories {
		if candidate == c {
			return i
		}
	}
	return len(Categories)
}

// IsValid reports whether the value is a known Category.
func (c Category) IsValid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory converts raw input into a Category.
func ParseCategory(value string) (Category, error) {
	candidate := Category(value)
	if candidate.IsValid() {
		return candidate, nil
	}
	return "", fmt.Errorf("invalid category %q", value)
}
