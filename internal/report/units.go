package report

import (
	"math"
	"strings"
)

// Unit is the mass unit emissions are displayed in.
type Unit string

// Supported display units.
const (
	UnitKg    Unit = "kg"
	UnitGrams Unit = "g"
	UnitLb    Unit = "lb"
)

// ParseUnit parses a unit name case-insensitively, accepting the CO2e
// suffixed forms. Empty means kg.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "kg", "kgco2e":
		return UnitKg, nil
	case "g", "gco2e":
		return UnitGrams, nil
	case "lb", "lbco2e":
		return UnitLb, nil
	default:
		return "", ErrInvalidUnit
	}
}

// Factor returns the multiplier from kilograms to u.
func (u Unit) Factor() float64 {
	switch u {
	case UnitGrams:
		return KgToGrams
	case UnitLb:
		return KgToPounds
	default:
		return KgToKg
	}
}

// Label returns the unit as printed next to values.
func (u Unit) Label() string {
	if u == "" {
		u = UnitKg
	}
	return string(u) + " CO2e"
}

// FromKg converts a kilogram value to u.
func (u Unit) FromKg(kg float64) (float64, error) {
	if math.IsInf(kg, 0) || math.IsNaN(kg) {
		return 0, ErrCalculationOverflow
	}
	if kg < 0 {
		return 0, ErrNegativeValue
	}
	v := kg * u.Factor()
	if math.IsInf(v, 0) {
		return 0, ErrCalculationOverflow
	}
	return v, nil
}
