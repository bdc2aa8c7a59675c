package report

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/mealcarbon/internal/dataset"
	"github.com/rshade/mealcarbon/internal/emissions"
	"github.com/rshade/mealcarbon/internal/simulation"
)

func stageEmissions(p emissions.Pathway, values [emissions.NumStages]float64) *emissions.StageEmissions {
	se := &emissions.StageEmissions{Pathway: p}
	names := emissions.StageNames(p)
	for i, v := range values {
		se.Stages[i] = emissions.Stage{Name: names[i], KgCO2e: v}
	}
	return se
}

// pointResult is a one-trial result with known values. Meal kit totals
// 0.377133 kg and grocery 0.575 kg.
func pointResult() *simulation.Result {
	return &simulation.Result{
		RunID:     "01TESTRUN",
		Seed:      42,
		Trials:    1,
		LossRates: simulation.LossRatesSampled,
		Meals:     []string{"Salmon"},
		Records: []simulation.Trial{{
			Index: 0,
			Outcomes: []simulation.Outcome{
				{
					Meal:      "Salmon",
					Pathway:   emissions.PathwayMealKit,
					Emissions: stageEmissions(emissions.PathwayMealKit, [5]float64{0.2963, 0.000833, 0.01, 0.02, 0.05}),
				},
				{
					Meal:      "Salmon",
					Pathway:   emissions.PathwayGrocery,
					Emissions: stageEmissions(emissions.PathwayGrocery, [5]float64{0.27, 0.002, 0.003, 0.1, 0.2}),
				},
			},
		}},
	}
}

func monteCarloResult(t *testing.T, opts simulation.Options) *simulation.Result {
	t.Helper()
	d, err := dataset.Default()
	require.NoError(t, err)
	tables, err := d.Tables()
	require.NoError(t, err)
	r, err := simulation.NewRunner(tables, nil, opts)
	require.NoError(t, err)
	res, err := r.Run(context.Background(), d.Meals)
	require.NoError(t, err)
	return res
}

func TestParseFormat(t *testing.T) {
	for _, f := range SupportedFormats() {
		got, err := ParseFormat(strings.ToUpper(string(f)))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	got, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, got)

	_, err = ParseFormat("csv")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestBuildView_PointEstimate(t *testing.T) {
	v, err := BuildView(pointResult(), DefaultOptions())
	require.NoError(t, err)

	require.Len(t, v.Meals, 1)
	m := v.Meals[0]
	require.Len(t, m.Pathways, 2)

	kit := m.Pathways[0]
	assert.Equal(t, emissions.PathwayMealKit, kit.Pathway)
	assert.Equal(t, 1, kit.Total.N)
	assert.InDelta(t, 0.377133, kit.Total.Mean, 1e-12)
	assert.Equal(t, kit.Total.Mean, kit.Total.P95)
	assert.Equal(t, emissions.StageDelivery, kit.Stages[3].Name)
	require.NotNil(t, kit.Equivalency)

	require.NotNil(t, m.Comparison)
	assert.InDelta(t, 0.377133-0.575, m.Comparison.Difference, 1e-12)
	assert.InDelta(t, (0.575-0.377133)/0.575*100, m.Comparison.ReductionPercent, 1e-9)
}

func TestBuildView_Units(t *testing.T) {
	opts := DefaultOptions()
	opts.Unit = UnitGrams
	opts.Equivalencies = false
	v, err := BuildView(pointResult(), opts)
	require.NoError(t, err)

	kit := v.Meals[0].Pathways[0]
	assert.InDelta(t, 377.133, kit.Total.Mean, 1e-9)
	assert.InDelta(t, 296.3, kit.Stages[0].Mean, 1e-9)
	assert.Nil(t, kit.Equivalency)
	assert.InDelta(t, 377.133-575, v.Meals[0].Comparison.Difference, 1e-9)
}

func TestRenderTable_PointEstimate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, pointResult(), DefaultOptions()))
	out := buf.String()

	assert.Contains(t, out, "Run 01TESTRUN | 1 trials | seed 42 | loss rates: sampled | unit: kg CO2e")
	assert.Contains(t, out, "Salmon")
	assert.Contains(t, out, "Meal kit stage")
	assert.Contains(t, out, "Grocery stage")
	assert.Contains(t, out, "Value")
	assert.NotContains(t, out, "90% interval")
	for _, s := range []string{"production", "processing", "delivery", "transportation", "retail_operation", "last_mile", "total"} {
		assert.Contains(t, out, s)
	}
	assert.Contains(t, out, "0.2963")
	assert.Contains(t, out, "0.3771")
	assert.Contains(t, out, "0.5750")
	assert.Contains(t, out, "Meal kit: Equivalent to driving ~2.0 miles or charging ~46 smartphones")
	assert.Contains(t, out, "Meal kit emits 0.1979 kg CO2e less than grocery (34.4%)")
}

func TestRenderTable_MonteCarlo(t *testing.T) {
	res := monteCarloResult(t, simulation.Options{Trials: 40, Seed: 1, Workers: 2, KeepRecords: true})
	opts := DefaultOptions()
	opts.PerTrial = true
	opts.Styled = true

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, res, opts))
	out := buf.String()

	assert.Contains(t, out, "40 trials")
	assert.Contains(t, out, "Mean")
	assert.Contains(t, out, "90% interval")
	assert.Contains(t, out, "Cheeseburger")
	assert.Contains(t, out, "Per-trial totals")
	assert.Contains(t, out, "Pathway")
}

func TestRenderTable_Failures(t *testing.T) {
	res := pointResult()
	res.Records[0].Outcomes[1] = simulation.Outcome{
		Meal: "Salmon", Pathway: emissions.PathwayGrocery, Error: "missing emission factor",
	}
	res.Failures = []simulation.Failure{{Trial: 0, Meal: "Salmon", Pathway: emissions.PathwayGrocery, Error: "missing emission factor"}}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, res, DefaultOptions()))
	out := buf.String()
	assert.Contains(t, out, "Grocery: 1 of 1 trials failed and are excluded")
	assert.Contains(t, out, "1 outcome(s) skipped after errors")
	assert.Contains(t, out, "n/a")
	assert.NotContains(t, out, "Meal kit emits")
}

func TestRenderJSON(t *testing.T) {
	opts := DefaultOptions()
	opts.Format = FormatJSON
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, pointResult(), opts))

	var doc struct {
		RunID string `json:"run_id"`
		Unit  string `json:"unit"`
		Meals []struct {
			Meal     string `json:"meal"`
			Pathways []struct {
				Pathway string `json:"pathway"`
				Total   struct {
					Name string  `json:"name"`
					N    int     `json:"n"`
					Mean float64 `json:"mean"`
				} `json:"total"`
				Equivalency *struct {
					DisplayText string `json:"display_text"`
				} `json:"equivalency"`
			} `json:"pathways"`
			Comparison *struct {
				ReductionPercent float64 `json:"reduction_percent"`
			} `json:"comparison"`
		} `json:"meals"`
		Records []json.RawMessage `json:"records"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "01TESTRUN", doc.RunID)
	assert.Equal(t, "kg", doc.Unit)
	require.Len(t, doc.Meals, 1)
	require.Len(t, doc.Meals[0].Pathways, 2)
	kit := doc.Meals[0].Pathways[0]
	assert.Equal(t, "meal_kit", kit.Pathway)
	assert.Equal(t, "total", kit.Total.Name)
	assert.Equal(t, 1, kit.Total.N)
	assert.InDelta(t, 0.377133, kit.Total.Mean, 1e-12)
	require.NotNil(t, kit.Equivalency)
	assert.Contains(t, kit.Equivalency.DisplayText, "smartphones")
	require.NotNil(t, doc.Meals[0].Comparison)
	assert.Empty(t, doc.Records, "records only with per-trial output")
	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \""))
}

func TestRenderNDJSON(t *testing.T) {
	opts := DefaultOptions()
	opts.Format = FormatNDJSON
	opts.PerTrial = true

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, pointResult(), opts))

	var lines []map[string]any
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, sc.Err())

	// Two pathways of five stages plus a total, then two trial outcomes.
	require.Len(t, lines, 14)
	first := lines[0]
	assert.Equal(t, "stage", first["record"])
	assert.Equal(t, "01TESTRUN", first["run_id"])
	assert.Equal(t, "meal_kit", first["pathway"])
	assert.Equal(t, "production", first["stage"])
	assert.InDelta(t, 0.2963, first["mean"], 1e-12)

	assert.Equal(t, "total", lines[5]["stage"])
	assert.Equal(t, "grocery", lines[6]["pathway"])

	trial := lines[12]
	assert.Equal(t, "trial", trial["record"])
	assert.InDelta(t, 0, trial["trial"], 0)
	assert.InDelta(t, 0.377133, trial["total"], 1e-12)
}

func TestRender_FailedPathwayOmitsStats(t *testing.T) {
	res := pointResult()
	res.Records[0].Outcomes[1] = simulation.Outcome{
		Meal: "Salmon", Pathway: emissions.PathwayGrocery, Error: "missing emission factor",
	}
	res.Failures = []simulation.Failure{{Trial: 0, Meal: "Salmon", Pathway: emissions.PathwayGrocery, Error: "missing emission factor"}}

	t.Run("json", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Format = FormatJSON
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, res, opts))

		var doc struct {
			Meals []struct {
				Pathways []struct {
					Pathway string         `json:"pathway"`
					Total   map[string]any `json:"total"`
				} `json:"pathways"`
			} `json:"meals"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		require.Len(t, doc.Meals[0].Pathways, 2)

		kit, grocery := doc.Meals[0].Pathways[0].Total, doc.Meals[0].Pathways[1].Total
		assert.Contains(t, kit, "mean")
		assert.Equal(t, map[string]any{"name": "total", "n": float64(0)}, grocery)
	})

	t.Run("ndjson", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Format = FormatNDJSON
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, res, opts))

		sc := bufio.NewScanner(&buf)
		var groceryStages int
		for sc.Scan() {
			var line map[string]any
			require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
			if line["record"] != "stage" || line["pathway"] != "grocery" {
				continue
			}
			groceryStages++
			assert.NotContains(t, line, "mean")
			assert.NotContains(t, line, "p95")
		}
		require.NoError(t, sc.Err())
		assert.Equal(t, emissions.NumStages+1, groceryStages)
	})
}

func TestRender_NilAndInvalid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, DefaultOptions()))
	assert.Empty(t, buf.String())

	err := Render(&buf, pointResult(), Options{Format: "xml"})
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
