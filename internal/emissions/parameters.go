package emissions

// RatePair holds the retail-loss and home-waste fractions of one category.
type RatePair struct {
	Retail float64 `json:"retail"`
	Home   float64 `json:"home"`
}

// CategoryRates holds a RatePair per category, indexed by Category.
type CategoryRates [numCategories]RatePair

// Parameters is one realization of every uncertain coefficient used by the
// models. A Parameters value is created once per trial and never modified;
// the With methods return copies.
type Parameters struct {
	// MealKitTransportKm is the distribution-center to customer-region
	// distance for meal kits.
	MealKitTransportKm float64 `json:"meal_kit_transport_km"`

	// GroceryTransportKm is the distribution-center to store distance.
	GroceryTransportKm float64 `json:"grocery_transport_km"`

	// FuelFactor is kg CO2e per gram-kilometer, shared by both transport stages.
	FuelFactor float64 `json:"fuel_factor"`

	// PackagingEnergyMJ is the energy to assemble one meal-kit package.
	PackagingEnergyMJ float64 `json:"packaging_energy_mj"`

	// PackagingFuelFactor is kg CO2e per MJ of packaging energy.
	PackagingFuelFactor float64 `json:"packaging_fuel_factor"`

	// MealsPerKit is the number of meals shipped in one kit.
	MealsPerKit int `json:"meals_per_kit"`

	// DisplayHours and DisplayFactor describe time and per-gram-hour emissions
	// on the retail display.
	DisplayHours  float64 `json:"display_hours"`
	DisplayFactor float64 `json:"display_factor"`

	// CoolerHours and CoolerFactor describe walk-in cooler storage.
	CoolerHours  float64 `json:"cooler_hours"`
	CoolerFactor float64 `json:"cooler_factor"`

	// LastMileKm, FuelEfficiency and FuelCostFactor describe the customer's
	// trip to and from the store.
	LastMileKm     float64 `json:"last_mile_km"`
	FuelEfficiency float64 `json:"fuel_efficiency"`
	FuelCostFactor float64 `json:"fuel_cost_factor"`

	// MealsPerTrip is the number of meals bought per grocery trip.
	MealsPerTrip int `json:"meals_per_trip"`

	// Rates are the loss and waste fractions drawn for each category.
	Rates CategoryRates `json:"loss_rates"`
}

// LossRate returns the retail-loss (retail=true) or home-waste fraction of c.
// Unknown categories return 0.
func (p Parameters) LossRate(c Category, retail bool) float64 {
	if !c.Valid() {
		return 0
	}
	if retail {
		return p.Rates[c].Retail
	}
	return p.Rates[c].Home
}

// WithRates returns a copy of p using rates in place of the sampled ones.
func (p Parameters) WithRates(rates CategoryRates) Parameters {
	p.Rates = rates
	return p
}
