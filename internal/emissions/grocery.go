package emissions

import "github.com/shopspring/decimal"

// productionPlaces is the rounding precision of grocery production emissions.
const productionPlaces = 2

// Grocery evaluates a meal bought on a grocery-store trip.
type Grocery struct {
	in Input
}

// NewGrocery returns the grocery model for in.
func NewGrocery(in Input) *Grocery {
	return &Grocery{in: in}
}

// Pathway returns PathwayGrocery.
func (g *Grocery) Pathway() Pathway { return PathwayGrocery }

// consumedMass returns Σ Q_CF[i] with Q_CF inflated by the retail loss rate,
// plus Σ Q_CF[i]·factor(item[i]) when withFactors is set.
func (g *Grocery) consumedMass(withFactors bool) (mass, weighted float64, err error) {
	if err := validateIngredients(g.in); err != nil {
		return 0, 0, err
	}
	for _, r := range g.in.Ingredients {
		qcf, err := lossAdjusted(r.TotalMass(), g.in.Params.LossRate(r.Category, true), r.Category, "retail")
		if err != nil {
			return 0, 0, err
		}
		mass += qcf
		if withFactors {
			f, err := g.in.Tables.Factors.Lookup(r.Item())
			if err != nil {
				return 0, 0, err
			}
			weighted += qcf * f
		}
	}
	return mass, weighted, nil
}

// Production returns Σ Q_CF[i]·factor(item[i]) rounded to two decimals. No
// other grocery stage is rounded.
func (g *Grocery) Production() (float64, error) {
	_, weighted, err := g.consumedMass(true)
	if err != nil {
		return 0, err
	}
	if _, err := checkStage(StageProduction, weighted); err != nil {
		return 0, err
	}
	return RoundHalfAway(weighted, productionPlaces), nil
}

// Packaging returns Σ_k Q_B[k]·factor(k) for the whole purchase.
func (g *Grocery) Packaging() (float64, error) {
	if err := validateIngredients(g.in); err != nil {
		return 0, err
	}
	total, err := packagingEmissions(g.in.Ingredients, g.in.Tables.Factors)
	if err != nil {
		return 0, err
	}
	return checkStage(StagePackaging, total)
}

// Transportation returns Σ Q_CF[i] · distance · fuel factor for the
// distribution-center to store leg.
func (g *Grocery) Transportation() (float64, error) {
	mass, _, err := g.consumedMass(false)
	if err != nil {
		return 0, err
	}
	p := g.in.Params
	return checkStage(StageTransportation, mass*p.GroceryTransportKm*p.FuelFactor)
}

// RetailOperation returns the display and walk-in cooler emissions of the
// waste-adjusted mass.
func (g *Grocery) RetailOperation() (float64, error) {
	mass, _, err := g.consumedMass(false)
	if err != nil {
		return 0, err
	}
	p := g.in.Params
	perGram := p.DisplayHours*p.DisplayFactor + p.CoolerHours*p.CoolerFactor
	return checkStage(StageRetailOperation, mass*perGram)
}

// LastMile returns the per-meal share of the customer's store trip.
func (g *Grocery) LastMile() (float64, error) {
	p := g.in.Params
	if err := positiveCount("grocery.meals_per_trip", p.MealsPerTrip); err != nil {
		return 0, err
	}
	if p.FuelEfficiency <= 0 {
		return 0, &InvalidDistributionError{
			Name:   "last_mile.fuel_efficiency",
			Reason: "fuel efficiency must be > 0",
		}
	}
	return checkStage(StageLastMile, p.LastMileKm/p.FuelEfficiency*p.FuelCostFactor/float64(p.MealsPerTrip))
}

// Stages returns the five grocery stages.
func (g *Grocery) Stages() (StageEmissions, error) {
	return collectStages(PathwayGrocery, [NumStages]func() (float64, error){
		g.Production, g.Packaging, g.Transportation, g.RetailOperation, g.LastMile,
	})
}

// Total returns the sum of the five stages.
func (g *Grocery) Total() (float64, error) {
	s, err := g.Stages()
	if err != nil {
		return 0, err
	}
	return s.Total(), nil
}

// RoundHalfAway rounds v to places decimals, halves away from zero, using
// decimal arithmetic on the shortest representation of v.
func RoundHalfAway(v float64, places int32) float64 {
	rounded, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return rounded
}
