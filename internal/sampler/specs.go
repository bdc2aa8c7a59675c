package sampler

import (
	"math"
	"strings"

	"github.com/rshade/mealcarbon/internal/emissions"
)

// Parameter names. Loss-rate names are built by LossRateName.
const (
	ParamMealKitTransportKm  = "meal_kit.transport_distance_km"
	ParamGroceryTransportKm  = "grocery.transport_distance_km"
	ParamFuelFactor          = "transport.fuel_factor"
	ParamPackagingEnergyMJ   = "meal_kit.packaging_energy_mj"
	ParamPackagingFuelFactor = "meal_kit.packaging_fuel_factor"
	ParamMealsPerKit         = "meal_kit.meals_per_kit"
	ParamDisplayHours        = "grocery.display_hours"
	ParamDisplayFactor       = "grocery.display_factor"
	ParamCoolerHours         = "grocery.cooler_hours"
	ParamCoolerFactor        = "grocery.cooler_factor"
	ParamLastMileKm          = "last_mile.distance_km"
	ParamFuelEfficiency      = "last_mile.fuel_efficiency"
	ParamFuelCostFactor      = "last_mile.fuel_cost_factor"
	ParamMealsPerTrip        = "grocery.meals_per_trip"
)

// LossRateName returns the parameter name of a category's retail-loss or
// home-waste rate, e.g. "loss_rate.fish.home".
func LossRateName(c emissions.Category, retail bool) string {
	context := "home"
	if retail {
		context = "retail"
	}
	return "loss_rate." + c.Key() + "." + context
}

// Spec declares one named stochastic parameter.
type Spec struct {
	Name         string
	Unit         string
	Distribution Distribution
}

// lossModes are the retail and home modes of each category's triangular
// (0, mode, 1) loss distribution.
//
//nolint:gochecknoglobals // Read-only lookup table.
var lossModes = map[emissions.Category][2]float64{
	emissions.CategoryGrain:     {0.12, 0.19},
	emissions.CategoryFruit:     {0.09, 0.19},
	emissions.CategoryVegetable: {0.08, 0.22},
	emissions.CategoryDairy:     {0.11, 0.20},
	emissions.CategoryMeat:      {0.05, 0.22},
	emissions.CategoryPoultry:   {0.04, 0.18},
	emissions.CategoryFish:      {0.08, 0.31},
	emissions.CategoryEggs:      {0.07, 0.21},
}

// DefaultSpecs returns the full parameter table. The returned slice is a
// fresh copy and may be modified by the caller.
func DefaultSpecs() []Spec {
	specs := []Spec{
		{ParamMealKitTransportKm, "km", Triangular{50, 796.87, 1221}},
		{ParamGroceryTransportKm, "km", Triangular{35, 47.15, 59}},
		{ParamFuelFactor, "kgCO2e/(g*km)", Triangular{0.18e-6, 0.28e-6, 0.38e-6}},
		{ParamPackagingEnergyMJ, "MJ/package", Triangular{5, 10, 15}},
		{ParamPackagingFuelFactor, "kgCO2e/MJ", Triangular{0.18e-6, 0.28e-6, 0.38e-6}},
		{ParamMealsPerKit, "meals", ShiftedBernoulli{Offset: 2, P: 0.85}},
		{ParamDisplayHours, "h", Triangular{10, 48.5, 60}},
		{ParamDisplayFactor, "kgCO2e/(g*h)", Triangular{3.31e-6, 6.62e-6, 9.93e-6}},
		{ParamCoolerHours, "h", Triangular{10, 18.23, 30}},
		{ParamCoolerFactor, "kgCO2e/(g*h)", Triangular{3.22e-6, 6.44e-6, 9.66e-6}},
		{ParamLastMileKm, "km", ClampedNormal{Mu: 4.43, Sigma: 2}},
		{ParamFuelEfficiency, "km/l", ClampedNormal{Mu: 23.36, Sigma: 5}},
		{ParamFuelCostFactor, "kgCO2e/l", Triangular{0.18, 0.28, 0.38}},
		{ParamMealsPerTrip, "meals", UniformInt{Lo: 1, Hi: 5}},
	}

	for _, c := range emissions.Categories() {
		modes, ok := lossModes[c]
		if !ok {
			specs = append(specs,
				Spec{LossRateName(c, true), "fraction", Constant{0}},
				Spec{LossRateName(c, false), "fraction", Constant{0}},
			)
			continue
		}
		specs = append(specs,
			Spec{LossRateName(c, true), "fraction", Triangular{0, modes[0], 1}},
			Spec{LossRateName(c, false), "fraction", Triangular{0, modes[1], 1}},
		)
	}
	return specs
}

// setter stores one drawn value into a Parameters snapshot.
type setter func(p *emissions.Parameters, v float64)

// setters maps every parameter name to the field it fills.
func setters() map[string]setter {
	m := map[string]setter{
		ParamMealKitTransportKm:  func(p *emissions.Parameters, v float64) { p.MealKitTransportKm = v },
		ParamGroceryTransportKm:  func(p *emissions.Parameters, v float64) { p.GroceryTransportKm = v },
		ParamFuelFactor:          func(p *emissions.Parameters, v float64) { p.FuelFactor = v },
		ParamPackagingEnergyMJ:   func(p *emissions.Parameters, v float64) { p.PackagingEnergyMJ = v },
		ParamPackagingFuelFactor: func(p *emissions.Parameters, v float64) { p.PackagingFuelFactor = v },
		ParamMealsPerKit:         func(p *emissions.Parameters, v float64) { p.MealsPerKit = int(math.Round(v)) },
		ParamDisplayHours:        func(p *emissions.Parameters, v float64) { p.DisplayHours = v },
		ParamDisplayFactor:       func(p *emissions.Parameters, v float64) { p.DisplayFactor = v },
		ParamCoolerHours:         func(p *emissions.Parameters, v float64) { p.CoolerHours = v },
		ParamCoolerFactor:        func(p *emissions.Parameters, v float64) { p.CoolerFactor = v },
		ParamLastMileKm:          func(p *emissions.Parameters, v float64) { p.LastMileKm = v },
		ParamFuelEfficiency:      func(p *emissions.Parameters, v float64) { p.FuelEfficiency = v },
		ParamFuelCostFactor:      func(p *emissions.Parameters, v float64) { p.FuelCostFactor = v },
		ParamMealsPerTrip:        func(p *emissions.Parameters, v float64) { p.MealsPerTrip = int(math.Round(v)) },
	}
	for _, c := range emissions.Categories() {
		m[LossRateName(c, true)] = func(p *emissions.Parameters, v float64) { p.Rates[c].Retail = v }
		m[LossRateName(c, false)] = func(p *emissions.Parameters, v float64) { p.Rates[c].Home = v }
	}
	return m
}

// Distribution kinds accepted by DistSpec.
const (
	KindTriangular = "triangular"
	KindNormal     = "normal"
	KindBernoulli  = "bernoulli"
	KindUniformInt = "uniform_int"
	KindConstant   = "constant"
)

// DistSpec is the serializable form of a Distribution, used for overrides
// in configuration files.
type DistSpec struct {
	Type   string  `yaml:"type"             json:"type"`
	Min    float64 `yaml:"min,omitempty"    json:"min,omitempty"`
	Mode   float64 `yaml:"mode,omitempty"   json:"mode,omitempty"`
	Max    float64 `yaml:"max,omitempty"    json:"max,omitempty"`
	Mean   float64 `yaml:"mean,omitempty"   json:"mean,omitempty"`
	StdDev float64 `yaml:"stddev,omitempty" json:"stddev,omitempty"`
	P      float64 `yaml:"p,omitempty"      json:"p,omitempty"`
	Offset float64 `yaml:"offset,omitempty" json:"offset,omitempty"`
	Lo     int     `yaml:"lo,omitempty"     json:"lo,omitempty"`
	Hi     int     `yaml:"hi,omitempty"     json:"hi,omitempty"`
	Value  float64 `yaml:"value,omitempty"  json:"value,omitempty"`
}

// Build converts s into a validated Distribution. name is reported
// in validation errors.
func (s DistSpec) Build(name string) (Distribution, error) {
	var d Distribution
	switch strings.ToLower(strings.TrimSpace(s.Type)) {
	case KindTriangular:
		d = Triangular{Min: s.Min, Mode: s.Mode, Max: s.Max}
	case KindNormal:
		d = ClampedNormal{Mu: s.Mean, Sigma: s.StdDev}
	case KindBernoulli:
		d = ShiftedBernoulli{Offset: s.Offset, P: s.P}
	case KindUniformInt:
		d = UniformInt{Lo: s.Lo, Hi: s.Hi}
	case KindConstant:
		d = Constant{Value: s.Value}
	default:
		return nil, invalid(name, "unknown distribution type %q", s.Type)
	}
	if err := d.Validate(name); err != nil {
		return nil, err
	}
	return d, nil
}
