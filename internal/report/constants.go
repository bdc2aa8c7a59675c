package report

// EPA equivalency factors, kg CO2e per unit of activity.
// Source: https://www.epa.gov/energy/greenhouse-gas-equivalencies-calculator
//
//	equivalency = kg_CO2e / factor
const (
	// EPAMilesDrivenFactor is kg CO2e per mile of an average passenger vehicle.
	EPAMilesDrivenFactor = 0.192

	// EPASmartphoneChargeFactor is kg CO2e per full smartphone charge.
	EPASmartphoneChargeFactor = 0.00822
)

// Conversions from kilograms to the supported display units.
const (
	KgToGrams  = 1000.0
	KgToKg     = 1.0
	KgToPounds = 2.20462262185
)

// Display thresholds.
const (
	// MinEquivalencyThresholdKg is the smallest total that gets an
	// equivalency line. A single meal rarely exceeds a few kilograms, so the
	// bound is far below a whole kilogram.
	MinEquivalencyThresholdKg = 0.01

	// SmallEquivalencyThreshold is the value below which equivalencies keep
	// one decimal place.
	SmallEquivalencyThreshold = 10

	// LargeNumberThreshold switches to "~X.X million" notation.
	LargeNumberThreshold = 1_000_000

	// BillionThreshold switches to "~X.X billion" notation.
	BillionThreshold = 1_000_000_000
)

// DefaultPrecision is the number of decimals shown for emission values.
const DefaultPrecision = 4

// MaxPrecision bounds the configured precision.
const MaxPrecision = 10
