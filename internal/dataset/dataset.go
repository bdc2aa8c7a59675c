// Package dataset loads meals, emission factors and loss rates from YAML.
package dataset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/rshade/mealcarbon/internal/emissions"
)

// SchemaConstraint is the range of schema versions this build reads.
const SchemaConstraint = "^1"

// DefaultSource names the embedded dataset in messages.
const DefaultSource = "embedded:default"

//go:embed data/default.yaml
var defaultYAML []byte

// ErrUnsupportedSchema is returned for a schema_version outside SchemaConstraint.
var ErrUnsupportedSchema = errors.New("unsupported dataset schema version")

// Dataset is a loaded, structurally valid dataset.
type Dataset struct {
	SchemaVersion string
	Source        string
	Meals         []emissions.Meal
	Factors       map[string]float64
	LossRates     map[emissions.Category]emissions.LossRate
}

// file mirrors the YAML document. Required numeric fields are pointers so a
// missing value can be told apart from zero.
type file struct {
	SchemaVersion   string                        `yaml:"schema_version"`
	Meals           []mealFile                    `yaml:"meals"`
	EmissionFactors map[string]float64            `yaml:"emission_factors"`
	LossRates       map[string]emissions.LossRate `yaml:"loss_rates"`
}

type mealFile struct {
	Name    string       `yaml:"name"`
	MealKit []recordFile `yaml:"meal_kit"`
	Grocery []recordFile `yaml:"grocery"`
}

type recordFile struct {
	Name       string             `yaml:"name"`
	Category   string             `yaml:"category"`
	EatenG     *float64           `yaml:"eaten_g"`
	UnusedG    *float64           `yaml:"unused_g"`
	PackagingG map[string]float64 `yaml:"packaging_g"`
}

// Load reads the dataset at path.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	return Parse(data, path)
}

// Default returns the embedded dataset.
func Default() (*Dataset, error) {
	return Parse(defaultYAML, DefaultSource)
}

// DefaultYAML returns a copy of the embedded dataset document, a starting
// point for custom datasets.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultYAML...)
}

// LoadOrDefault loads path, or the embedded dataset when path is empty.
func LoadOrDefault(path string) (*Dataset, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// Parse decodes a dataset document. source names it in errors.
func Parse(data []byte, source string) (*Dataset, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", source, err)
	}
	if err := checkSchema(f.SchemaVersion); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", source, err)
	}

	d := &Dataset{
		SchemaVersion: f.SchemaVersion,
		Source:        source,
		Factors:       f.EmissionFactors,
		LossRates:     make(map[emissions.Category]emissions.LossRate, len(f.LossRates)),
	}
	if d.Factors == nil {
		d.Factors = map[string]float64{}
	}
	for name, rate := range f.LossRates {
		c, err := emissions.ParseCategory(name)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: loss_rates: %w", source, err)
		}
		d.LossRates[c] = rate
	}

	seen := make(map[string]bool, len(f.Meals))
	for i, m := range f.Meals {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return nil, fmt.Errorf("dataset %s: %w", source, &emissions.IncompleteDataError{Row: i, Field: "name"})
		}
		if seen[strings.ToLower(name)] {
			return nil, fmt.Errorf("dataset %s: duplicate meal %q", source, name)
		}
		seen[strings.ToLower(name)] = true
		meal := emissions.Meal{Name: name}
		var err error
		if meal.MealKit, err = convertRecords(name, "meal_kit", m.MealKit); err != nil {
			return nil, fmt.Errorf("dataset %s: %w", source, err)
		}
		if meal.Grocery, err = convertRecords(name, "grocery", m.Grocery); err != nil {
			return nil, fmt.Errorf("dataset %s: %w", source, err)
		}
		if len(meal.MealKit) == 0 {
			return nil, fmt.Errorf("dataset %s: %w", source,
				&emissions.IncompleteDataError{Meal: name, Row: 0, Field: "meal_kit"})
		}
		d.Meals = append(d.Meals, meal)
	}
	if len(d.Meals) == 0 {
		return nil, fmt.Errorf("dataset %s: no meals", source)
	}
	return d, nil
}

func checkSchema(v string) error {
	if v == "" {
		return fmt.Errorf("%w: schema_version is required", ErrUnsupportedSchema)
	}
	version, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsupportedSchema, v, err)
	}
	constraint, err := semver.NewConstraint(SchemaConstraint)
	if err != nil {
		return err
	}
	if !constraint.Check(version) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrUnsupportedSchema, v, SchemaConstraint)
	}
	return nil
}

// convertRecords turns YAML rows into records. Field names in errors are
// prefixed with the list they came from.
func convertRecords(meal, list string, rows []recordFile) ([]emissions.IngredientRecord, error) {
	out := make([]emissions.IngredientRecord, 0, len(rows))
	for i, row := range rows {
		incomplete := func(field string) error {
			return &emissions.IncompleteDataError{Meal: meal, Row: i, Field: list + "." + field}
		}

		c, err := emissions.ParseCategory(row.Category)
		if err != nil {
			return nil, incomplete("category")
		}
		if row.EatenG == nil {
			return nil, incomplete("eaten_g")
		}
		if row.UnusedG == nil {
			return nil, incomplete("unused_g")
		}

		rec := emissions.IngredientRecord{
			Name:        strings.TrimSpace(row.Name),
			Category:    c,
			EatenGrams:  *row.EatenG,
			UnusedGrams: *row.UnusedG,
		}
		for kind, grams := range row.PackagingG {
			k, err := emissions.ParsePackagingKind(kind)
			if err != nil {
				return nil, incomplete("packaging_g." + kind)
			}
			rec.Packaging = rec.Packaging.Set(k, grams)
		}
		if err := rec.Validate(meal, i); err != nil {
			var ide *emissions.IncompleteDataError
			if errors.As(err, &ide) {
				return nil, incomplete(ide.Field)
			}
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Tables builds the read-only lookup tables. The loss-rate table is nil when
// the dataset has no loss_rates section.
func (d *Dataset) Tables() (emissions.Tables, error) {
	factors, err := emissions.NewFactorTable(d.Factors)
	if err != nil {
		return emissions.Tables{}, fmt.Errorf("dataset %s: %w", d.Source, err)
	}
	t := emissions.Tables{Factors: factors}
	if len(d.LossRates) > 0 {
		if t.LossRates, err = emissions.NewLossRateTable(d.LossRates); err != nil {
			return emissions.Tables{}, fmt.Errorf("dataset %s: %w", d.Source, err)
		}
	}
	return t, nil
}

// Validate checks that every item the models will look up resolves, and that
// a present loss_rates section covers every category. All problems are
// returned joined.
func (d *Dataset) Validate() error {
	tables, err := d.Tables()
	if err != nil {
		return err
	}

	var errs []error
	missing := map[string]bool{}
	for _, m := range d.Meals {
		for _, p := range emissions.Pathways() {
			for _, r := range m.Ingredients(p) {
				if _, err := tables.Factors.Lookup(r.Item()); err != nil && !missing[r.Item()] {
					missing[r.Item()] = true
					errs = append(errs, fmt.Errorf("meal %q %s: %w", m.Name, p, err))
				}
				for _, k := range emissions.PackagingKinds() {
					if r.Packaging.Get(k) == 0 {
						continue
					}
					if _, err := tables.Factors.Lookup(k.String()); err != nil && !missing[k.String()] {
						missing[k.String()] = true
						errs = append(errs, fmt.Errorf("meal %q %s: %w", m.Name, p, err))
					}
				}
			}
		}
	}
	if tables.LossRates != nil {
		if _, err := tables.LossRates.Rates(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MealNames returns the meal names in file order.
func (d *Dataset) MealNames() []string {
	names := make([]string, len(d.Meals))
	for i, m := range d.Meals {
		names[i] = m.Name
	}
	return names
}

// Select returns the named meals in the order given. An empty list selects
// every meal.
func (d *Dataset) Select(names []string) ([]emissions.Meal, error) {
	if len(names) == 0 {
		return d.Meals, nil
	}
	byName := make(map[string]emissions.Meal, len(d.Meals))
	for _, m := range d.Meals {
		byName[strings.ToLower(m.Name)] = m
	}
	out := make([]emissions.Meal, 0, len(names))
	for _, n := range names {
		m, ok := byName[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			known := d.MealNames()
			sort.Strings(known)
			return nil, fmt.Errorf("unknown meal %q (available: %s)", n, strings.Join(known, ", "))
		}
		out = append(out, m)
	}
	return out, nil
}
