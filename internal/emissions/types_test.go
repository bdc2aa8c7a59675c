package emissions

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{in: "Grain", want: CategoryGrain},
		{in: "fish", want: CategoryFish},
		{in: " EGGS ", want: CategoryEggs},
		{in: "Spice", want: CategorySpice},
		{in: "Tofu", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategory_TextRoundTrip(t *testing.T) {
	for _, c := range Categories() {
		text, err := c.MarshalText()
		require.NoError(t, err)
		var back Category
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, c, back)
	}
	assert.Len(t, Categories(), 9)
	assert.Equal(t, "Category(42)", Category(42).String())
	assert.False(t, Category(-1).Valid())
}

func TestParsePackagingKind(t *testing.T) {
	for _, k := range PackagingKinds() {
		got, err := ParsePackagingKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParsePackagingKind("Bamboo")
	assert.Error(t, err)
}

func TestParsePathway(t *testing.T) {
	p, err := ParsePathway("meal-kit")
	require.NoError(t, err)
	assert.Equal(t, PathwayMealKit, p)

	p, err = ParsePathway("GROCERY")
	require.NoError(t, err)
	assert.Equal(t, PathwayGrocery, p)

	_, err = ParsePathway("drone")
	assert.Error(t, err)
}

func TestIngredientRecord(t *testing.T) {
	r := IngredientRecord{Category: CategoryDairy, EatenGrams: 28, UnusedGrams: 4}
	assert.Equal(t, "Dairy", r.Item())
	assert.Equal(t, 32.0, r.TotalMass())

	r.Name = "Cheddar"
	assert.Equal(t, "Cheddar", r.Item())

	t.Run("negative packaging", func(t *testing.T) {
		bad := r
		bad.Packaging = bad.Packaging.Set(PackagingGlass, -1)
		err := bad.Validate("Cheeseburger", 3)
		var ide *IncompleteDataError
		require.ErrorAs(t, err, &ide)
		assert.Equal(t, "packaging_g.Glass", ide.Field)
		assert.Equal(t, 3, ide.Row)
	})

	t.Run("invalid category", func(t *testing.T) {
		bad := r
		bad.Category = Category(99)
		assert.ErrorIs(t, bad.Validate("", 0), ErrIncompleteData)
	})
}

func TestMeal_Ingredients(t *testing.T) {
	kit := []IngredientRecord{{Name: "Bun", Category: CategoryGrain, EatenGrams: 60}}
	m := Meal{Name: "Cheeseburger", MealKit: kit}
	assert.Equal(t, kit, m.Ingredients(PathwayGrocery), "grocery falls back to meal-kit list")

	store := []IngredientRecord{{Name: "Bun", Category: CategoryGrain, EatenGrams: 60, UnusedGrams: 180}}
	m.Grocery = store
	assert.Equal(t, store, m.Ingredients(PathwayGrocery))
	assert.Equal(t, kit, m.Ingredients(PathwayMealKit))
}

func TestStageEmissions_JSON(t *testing.T) {
	s := newStageEmissions(PathwayGrocery, [NumStages]float64{1, 2, 3, 4, 5})
	assert.Equal(t, 15.0, s.Total())

	v, ok := s.Get(StageRetailOperation)
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)
	_, ok = s.Get(StageDelivery)
	assert.False(t, ok)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"pathway":"grocery"`)
	assert.Contains(t, string(data), `"name":"retail_operation"`)
}

func TestTables(t *testing.T) {
	for name, entries := range map[string]map[string]float64{
		"negative":                {"Beef": -1},
		"not a number":            {"Beef": math.NaN()},
		"infinite":                {"Beef": math.Inf(1)},
		"blank name":              {"  ": 0.01},
		"names colliding on trim": {"Beef": 1, " Beef": 2},
	} {
		t.Run("factor table rejects "+name, func(t *testing.T) {
			_, err := NewFactorTable(entries)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFactor)
		})
	}

	t.Run("nil factor table misses", func(t *testing.T) {
		var ft *FactorTable
		_, err := ft.Lookup("Beef")
		assert.ErrorIs(t, err, ErrMissingFactor)
	})

	t.Run("loss table percent bounds", func(t *testing.T) {
		_, err := NewLossRateTable(map[Category]LossRate{CategoryFish: {RetailPercent: 100}})
		assert.ErrorIs(t, err, ErrInvalidDistribution)

		lt, err := NewLossRateTable(map[Category]LossRate{CategoryFish: {RetailPercent: 8, HomePercent: 31}})
		require.NoError(t, err)
		got, err := lt.Rate(CategoryFish, false)
		require.NoError(t, err)
		assert.InDelta(t, 0.31, got, 1e-12)

		_, err = lt.Rate(CategoryEggs, true)
		var mf *MissingFactorError
		require.ErrorAs(t, err, &mf)
		assert.Equal(t, TableLossRates, mf.Table)

		_, err = lt.Rates()
		assert.Error(t, err, "incomplete table cannot produce all rates")
	})
}

func TestParameters_LossRate(t *testing.T) {
	var p Parameters
	p.Rates[CategoryFish] = RatePair{Retail: 0.08, Home: 0.31}
	assert.Equal(t, 0.08, p.LossRate(CategoryFish, true))
	assert.Equal(t, 0.31, p.LossRate(CategoryFish, false))
	assert.Equal(t, 0.0, p.LossRate(Category(77), true))

	var override CategoryRates
	override[CategoryFish] = RatePair{Retail: 0.5}
	q := p.WithRates(override)
	assert.Equal(t, 0.5, q.LossRate(CategoryFish, true))
	assert.Equal(t, 0.08, p.LossRate(CategoryFish, true), "original snapshot unchanged")
}
