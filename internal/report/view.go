package report

import (
	"encoding/json"

	"github.com/rshade/mealcarbon/internal/emissions"
	"github.com/rshade/mealcarbon/internal/simulation"
)

// StageView is one stage, or the total, of a pathway in the display unit.
type StageView struct {
	Name string `json:"name"`
	simulation.Stats
}

// MarshalJSON leaves out the statistics of a stage without successful
// samples, so a consumer cannot mistake them for zero emissions.
func (s StageView) MarshalJSON() ([]byte, error) {
	if s.N > 0 {
		type stageView StageView
		return json.Marshal(stageView(s))
	}
	return json.Marshal(struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}{Name: s.Name})
}

// PathwayView is one pathway of one meal.
type PathwayView struct {
	Pathway     emissions.Pathway `json:"pathway"`
	Stages      []StageView       `json:"stages"`
	Total       StageView         `json:"total"`
	Failed      int               `json:"failed,omitempty"`
	Equivalency *Equivalency      `json:"equivalency,omitempty"`
}

// Comparison contrasts the mean totals of the two pathways.
type Comparison struct {
	// Difference is meal-kit minus grocery in the display unit.
	Difference float64 `json:"difference"`
	// ReductionPercent is the share of the grocery total the meal kit
	// avoids; negative when the meal kit emits more.
	ReductionPercent float64 `json:"reduction_percent"`
}

// MealView is the display form of one meal.
type MealView struct {
	Meal       string        `json:"meal"`
	Pathways   []PathwayView `json:"pathways"`
	Comparison *Comparison   `json:"comparison,omitempty"`
}

// View is the unit-converted, display-ready form of a result.
type View struct {
	RunID     string                    `json:"run_id"`
	Seed      uint64                    `json:"seed"`
	Trials    int                       `json:"trials"`
	LossRates simulation.LossRateSource `json:"loss_rates"`
	Unit      Unit                      `json:"unit"`
	Meals     []MealView                `json:"meals"`
	Failures  []simulation.Failure      `json:"failures,omitempty"`
	Records   []simulation.Trial        `json:"records,omitempty"`
}

// BuildView converts res into display form. A point estimate becomes a
// sample of one.
func BuildView(res *simulation.Result, opts Options) (*View, error) {
	unit := opts.Unit
	if unit == "" {
		unit = UnitKg
	}
	v := &View{
		RunID:     res.RunID,
		Seed:      res.Seed,
		Trials:    res.Trials,
		LossRates: res.LossRates,
		Unit:      unit,
		Failures:  res.Failures,
	}
	if opts.PerTrial {
		v.Records = res.Records
	}

	summaries := res.Summaries
	if res.PointEstimate() && len(res.Records) == 1 {
		summaries = pointSummaries(res.Meals, res.Records[0])
	}

	for _, meal := range res.Meals {
		mv := MealView{Meal: meal}
		for _, p := range emissions.Pathways() {
			s, ok := findSummary(summaries, meal, p)
			if !ok {
				continue
			}
			pv, err := buildPathway(s, unit, opts.Equivalencies)
			if err != nil {
				return nil, err
			}
			mv.Pathways = append(mv.Pathways, pv)
		}
		mv.Comparison = compare(mv.Pathways)
		v.Meals = append(v.Meals, mv)
	}
	return v, nil
}

func buildPathway(s simulation.Summary, unit Unit, equivalencies bool) (PathwayView, error) {
	pv := PathwayView{Pathway: s.Pathway, Failed: s.Failed}
	for _, st := range s.Stages {
		stats, err := scaleStats(st.Stats, unit)
		if err != nil {
			return PathwayView{}, err
		}
		pv.Stages = append(pv.Stages, StageView{Name: st.Name, Stats: stats})
	}
	total, err := scaleStats(s.Total, unit)
	if err != nil {
		return PathwayView{}, err
	}
	pv.Total = StageView{Name: "total", Stats: total}

	if equivalencies && s.Total.N > 0 {
		eq, err := CalculateEquivalency(s.Total.Mean)
		if err != nil {
			return PathwayView{}, err
		}
		if !eq.IsEmpty {
			pv.Equivalency = &eq
		}
	}
	return pv, nil
}

// compare returns nil unless both pathways have successful samples.
func compare(pathways []PathwayView) *Comparison {
	var kit, grocery *PathwayView
	for i := range pathways {
		switch pathways[i].Pathway {
		case emissions.PathwayMealKit:
			kit = &pathways[i]
		case emissions.PathwayGrocery:
			grocery = &pathways[i]
		}
	}
	if kit == nil || grocery == nil || kit.Total.N == 0 || grocery.Total.N == 0 {
		return nil
	}
	c := &Comparison{Difference: kit.Total.Mean - grocery.Total.Mean}
	if grocery.Total.Mean > 0 {
		c.ReductionPercent = (grocery.Total.Mean - kit.Total.Mean) / grocery.Total.Mean * 100
	}
	return c
}

// scaleStats converts every value of s from kg to unit. N is unchanged.
func scaleStats(s simulation.Stats, unit Unit) (simulation.Stats, error) {
	if s.N == 0 {
		return s, nil
	}
	out := simulation.Stats{N: s.N}
	fields := []struct {
		dst *float64
		src float64
	}{
		{&out.Mean, s.Mean}, {&out.StdDev, s.StdDev}, {&out.Min, s.Min}, {&out.Max, s.Max},
		{&out.P5, s.P5}, {&out.P25, s.P25}, {&out.P50, s.P50}, {&out.P75, s.P75}, {&out.P95, s.P95},
	}
	for _, f := range fields {
		v, err := unit.FromKg(f.src)
		if err != nil {
			return simulation.Stats{}, err
		}
		*f.dst = v
	}
	return out, nil
}

// pointSummaries turns the single trial of a point estimate into summaries
// of one sample each.
func pointSummaries(meals []string, trial simulation.Trial) []simulation.Summary {
	var out []simulation.Summary
	for _, meal := range meals {
		for _, p := range emissions.Pathways() {
			s := simulation.Summary{Meal: meal, Pathway: p}
			names := emissions.StageNames(p)
			for j := range s.Stages {
				s.Stages[j].Name = names[j]
			}
			for _, o := range trial.Outcomes {
				if o.Meal != meal || o.Pathway != p {
					continue
				}
				if o.Failed() {
					s.Failed++
					continue
				}
				for j, v := range o.Emissions.Values() {
					s.Stages[j].Stats = simulation.Describe([]float64{v})
				}
				s.Total = simulation.Describe([]float64{o.Emissions.Total()})
			}
			out = append(out, s)
		}
	}
	return out
}

func findSummary(summaries []simulation.Summary, meal string, p emissions.Pathway) (simulation.Summary, bool) {
	for _, s := range summaries {
		if s.Meal == meal && s.Pathway == p {
			return s, true
		}
	}
	return simulation.Summary{}, false
}
