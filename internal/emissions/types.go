// Package emissions computes lifecycle greenhouse-gas emissions for a meal
// delivered through either a meal-kit service or a grocery-store trip.
//
// The package is pure: models read ingredient records, one snapshot of sampled
// Parameters and the read-only factor and loss-rate Tables, and return stage
// values in kg CO2e. Nothing here logs, performs I/O or mutates its inputs.
package emissions

import (
	"fmt"
	"math"
	"strings"
)

// Category is the food group of an ingredient. It selects the loss and waste
// rates applied to the ingredient's mass.
type Category int

const (
	// CategoryGrain covers breads, rice, pasta and other cereal products.
	CategoryGrain Category = iota
	// CategoryFruit covers fresh and processed fruit.
	CategoryFruit
	// CategoryVegetable covers fresh and processed vegetables.
	CategoryVegetable
	// CategoryDairy covers milk, cheese, butter and cream.
	CategoryDairy
	// CategoryMeat covers red meat.
	CategoryMeat
	// CategoryPoultry covers chicken, turkey and other birds.
	CategoryPoultry
	// CategoryFish covers fish and seafood.
	CategoryFish
	// CategoryEggs covers shell eggs.
	CategoryEggs
	// CategorySpice covers seasonings; spices carry no loss or waste.
	CategorySpice

	numCategories
)

//nolint:gochecknoglobals // Read-only lookup table.
var categoryNames = [numCategories]string{
	"Grain", "Fruit", "Vegetable", "Dairy", "Meat", "Poultry", "Fish", "Eggs", "Spice",
}

// Categories returns every category in declaration order.
func Categories() []Category {
	out := make([]Category, 0, numCategories)
	for c := range numCategories {
		out = append(out, c)
	}
	return out
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	return c >= 0 && c < numCategories
}

// String returns the display name of the category.
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Key returns the lower-case identifier used in parameter names.
func (c Category) Key() string {
	return strings.ToLower(c.String())
}

// ParseCategory parses a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown food category %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// PackagingKind is a packaging material. Its String value is also the key of
// the material's emission factor.
type PackagingKind int

const (
	// PackagingPlastic is film, trays and clamshells.
	PackagingPlastic PackagingKind = iota
	// PackagingCardboard is corrugated boxes and paperboard.
	PackagingCardboard
	// PackagingStyrofoam is expanded polystyrene trays and liners.
	PackagingStyrofoam
	// PackagingPaper is bags and wraps.
	PackagingPaper
	// PackagingGlass is jars and bottles.
	PackagingGlass
	// PackagingMetal is cans and foil.
	PackagingMetal

	numPackagingKinds
)

//nolint:gochecknoglobals // Read-only lookup table.
var packagingNames = [numPackagingKinds]string{
	"Plastic", "Cardboard", "Styrofoam", "Paper", "Glass", "Metal",
}

// PackagingKinds returns every packaging kind in declaration order.
func PackagingKinds() []PackagingKind {
	out := make([]PackagingKind, 0, numPackagingKinds)
	for k := range numPackagingKinds {
		out = append(out, k)
	}
	return out
}

// Valid reports whether k is one of the declared packaging kinds.
func (k PackagingKind) Valid() bool {
	return k >= 0 && k < numPackagingKinds
}

// String returns the material name.
func (k PackagingKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("PackagingKind(%d)", int(k))
	}
	return packagingNames[k]
}

// ParsePackagingKind parses a packaging material name case-insensitively.
func ParsePackagingKind(s string) (PackagingKind, error) {
	for i, name := range packagingNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return PackagingKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown packaging kind %q", s)
}

// PackagingMasses holds grams of each packaging kind attributed to one
// ingredient. It is an array so sums always run in the same order.
type PackagingMasses [numPackagingKinds]float64

// Set returns a copy of m with kind set to grams.
func (m PackagingMasses) Set(kind PackagingKind, grams float64) PackagingMasses {
	m[kind] = grams
	return m
}

// Get returns the grams of kind.
func (m PackagingMasses) Get(kind PackagingKind) float64 {
	return m[kind]
}

// IngredientRecord is one ingredient row of a meal.
type IngredientRecord struct {
	// Name is the factor-table key for the ingredient. When empty the
	// category name is used.
	Name string `json:"name,omitempty"`

	// Category selects the loss and waste rates.
	Category Category `json:"category"`

	// EatenGrams is the mass of the ingredient that is eaten.
	EatenGrams float64 `json:"eaten_g"`

	// UnusedGrams is the mass purchased but not used in the meal.
	UnusedGrams float64 `json:"unused_g"`

	// Packaging is the packaging mass attributed to the ingredient by kind.
	Packaging PackagingMasses `json:"packaging_g"`
}

// Item returns the key used to look up the ingredient's emission factor.
func (r IngredientRecord) Item() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Category.String()
}

// TotalMass returns eaten plus unused grams.
func (r IngredientRecord) TotalMass() float64 {
	return r.EatenGrams + r.UnusedGrams
}

// Validate checks that the record is complete enough to evaluate. row is the
// record's position in its meal and is reported on failure.
func (r IngredientRecord) Validate(meal string, row int) error {
	if !r.Category.Valid() {
		return &IncompleteDataError{Meal: meal, Row: row, Field: "category"}
	}
	if invalidMass(r.EatenGrams) {
		return &IncompleteDataError{Meal: meal, Row: row, Field: "eaten_g"}
	}
	if invalidMass(r.UnusedGrams) {
		return &IncompleteDataError{Meal: meal, Row: row, Field: "unused_g"}
	}
	for k, grams := range r.Packaging {
		if invalidMass(grams) {
			return &IncompleteDataError{
				Meal:  meal,
				Row:   row,
				Field: "packaging_g." + PackagingKind(k).String(),
			}
		}
	}
	return nil
}

func invalidMass(g float64) bool {
	return g < 0 || math.IsNaN(g) || math.IsInf(g, 0)
}

// Meal is a named meal with the ingredient lists of both pathways.
type Meal struct {
	Name string `json:"name"`

	// MealKit lists the ingredients as shipped in the kit.
	MealKit []IngredientRecord `json:"meal_kit"`

	// Grocery lists the ingredients as bought at the store. When empty the
	// meal-kit list is used.
	Grocery []IngredientRecord `json:"grocery,omitempty"`
}

// Ingredients returns the ingredient list used for pathway p.
func (m Meal) Ingredients(p Pathway) []IngredientRecord {
	if p == PathwayGrocery && len(m.Grocery) > 0 {
		return m.Grocery
	}
	return m.MealKit
}
