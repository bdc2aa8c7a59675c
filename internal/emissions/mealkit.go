package emissions

// MealKit evaluates a meal delivered as a meal kit.
type MealKit struct {
	in Input
}

// NewMealKit returns the meal-kit model for in.
func NewMealKit(in Input) *MealKit {
	return &MealKit{in: in}
}

// Pathway returns PathwayMealKit.
func (m *MealKit) Pathway() Pathway { return PathwayMealKit }

// consumedMass returns Σ Q_CF[i], each ingredient's total mass inflated by
// its home-waste rate, and Σ Q_CF[i]·factor(item[i]) when withFactors is set.
func (m *MealKit) consumedMass(withFactors bool) (mass, weighted float64, err error) {
	if err := validateIngredients(m.in); err != nil {
		return 0, 0, err
	}
	for _, r := range m.in.Ingredients {
		qcf, err := lossAdjusted(r.TotalMass(), m.in.Params.LossRate(r.Category, false), r.Category, "home")
		if err != nil {
			return 0, 0, err
		}
		mass += qcf
		if withFactors {
			f, err := m.in.Tables.Factors.Lookup(r.Item())
			if err != nil {
				return 0, 0, err
			}
			weighted += qcf * f
		}
	}
	return mass, weighted, nil
}

// Production returns Σ Q_CF[i]·factor(item[i]) where Q_CF applies the home
// waste rate.
func (m *MealKit) Production() (float64, error) {
	_, weighted, err := m.consumedMass(true)
	if err != nil {
		return 0, err
	}
	return checkStage(StageProduction, weighted)
}

// Packaging returns the kit's packaging emissions shared across the meals in
// the kit.
func (m *MealKit) Packaging() (float64, error) {
	if err := validateIngredients(m.in); err != nil {
		return 0, err
	}
	if err := positiveCount("meal_kit.meals_per_kit", m.in.Params.MealsPerKit); err != nil {
		return 0, err
	}
	total, err := packagingEmissions(m.in.Ingredients, m.in.Tables.Factors)
	if err != nil {
		return 0, err
	}
	return checkStage(StagePackaging, total/float64(m.in.Params.MealsPerKit))
}

// Processing returns the transport-linked load of the waste-adjusted mass,
// Σ Q_CF[i] · distance · fuel factor.
func (m *MealKit) Processing() (float64, error) {
	mass, _, err := m.consumedMass(false)
	if err != nil {
		return 0, err
	}
	p := m.in.Params
	return checkStage(StageProcessing, mass*p.MealKitTransportKm*p.FuelFactor)
}

// Delivery returns Σ Q_MF[i] · distance · fuel factor on the raw shipped mass.
func (m *MealKit) Delivery() (float64, error) {
	if err := validateIngredients(m.in); err != nil {
		return 0, err
	}
	var mass float64
	for _, r := range m.in.Ingredients {
		mass += r.TotalMass()
	}
	p := m.in.Params
	return checkStage(StageDelivery, mass*p.MealKitTransportKm*p.FuelFactor)
}

// LastMile returns the per-meal share of the package energy emissions.
func (m *MealKit) LastMile() (float64, error) {
	p := m.in.Params
	if err := positiveCount("meal_kit.meals_per_kit", p.MealsPerKit); err != nil {
		return 0, err
	}
	return checkStage(StageLastMile, p.PackagingEnergyMJ*p.PackagingFuelFactor/float64(p.MealsPerKit))
}

// Stages returns the five meal-kit stages.
func (m *MealKit) Stages() (StageEmissions, error) {
	return collectStages(PathwayMealKit, [NumStages]func() (float64, error){
		m.Production, m.Packaging, m.Processing, m.Delivery, m.LastMile,
	})
}

// Total returns the sum of the five stages.
func (m *MealKit) Total() (float64, error) {
	s, err := m.Stages()
	if err != nil {
		return 0, err
	}
	return s.Total(), nil
}
