package report

import (
	"fmt"
	"math"
)

// EquivalencyType is a category of real-world comparison.
type EquivalencyType int

const (
	// EquivalencyMilesDriven converts CO2e to miles of an average passenger vehicle.
	EquivalencyMilesDriven EquivalencyType = iota

	// EquivalencySmartphonesCharged converts CO2e to full smartphone charges.
	EquivalencySmartphonesCharged
)

// String returns the type name.
func (e EquivalencyType) String() string {
	switch e {
	case EquivalencyMilesDriven:
		return "MilesDriven"
	case EquivalencySmartphonesCharged:
		return "SmartphonesCharged"
	default:
		return fmt.Sprintf("EquivalencyType(%d)", e)
	}
}

// EquivalencyResult is one calculated comparison.
type EquivalencyResult struct {
	Type           EquivalencyType `json:"-"`
	Value          float64         `json:"value"`
	FormattedValue string          `json:"formatted_value"`
	Label          string          `json:"label"`
}

// Equivalency holds the comparisons for one kg CO2e amount.
type Equivalency struct {
	InputKg     float64             `json:"input_kg"`
	Results     []EquivalencyResult `json:"results"`
	DisplayText string              `json:"display_text"`
	CompactText string              `json:"compact_text"`
	IsEmpty     bool                `json:"is_empty"`
}

// CalculateEquivalency converts kg CO2e to miles driven and smartphones
// charged. Amounts below MinEquivalencyThresholdKg yield an empty result.
func CalculateEquivalency(kg float64) (Equivalency, error) {
	if math.IsInf(kg, 0) || math.IsNaN(kg) {
		return Equivalency{IsEmpty: true}, ErrCalculationOverflow
	}
	if kg < 0 {
		return Equivalency{IsEmpty: true}, ErrNegativeValue
	}
	if kg < MinEquivalencyThresholdKg {
		return Equivalency{InputKg: kg, IsEmpty: true}, nil
	}

	miles := kg / EPAMilesDrivenFactor
	phones := kg / EPASmartphoneChargeFactor
	milesFormatted := formatEquivalencyValue(miles)
	phonesFormatted := formatEquivalencyValue(phones)

	return Equivalency{
		InputKg: kg,
		Results: []EquivalencyResult{
			{Type: EquivalencyMilesDriven, Value: miles, FormattedValue: milesFormatted, Label: "miles driven"},
			{Type: EquivalencySmartphonesCharged, Value: phones, FormattedValue: phonesFormatted, Label: "smartphones charged"},
		},
		DisplayText: fmt.Sprintf("Equivalent to driving ~%s miles or charging ~%s smartphones",
			milesFormatted, phonesFormatted),
		CompactText: fmt.Sprintf("(≈ %s mi, %s phones)", milesFormatted, phonesFormatted),
	}, nil
}

// formatEquivalencyValue keeps one decimal for small values, rounds to an
// integer otherwise and abbreviates millions.
func formatEquivalencyValue(v float64) string {
	switch {
	case v >= LargeNumberThreshold:
		return FormatLarge(v)
	case v < SmallEquivalencyThreshold:
		return FormatFloat(v, 1)
	default:
		return FormatNumber(int64(math.Round(v)))
	}
}
