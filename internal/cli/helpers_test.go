package cli

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/mealcarbon/internal/batch"
	"github.com/rshade/mealcarbon/internal/config"
	"github.com/rshade/mealcarbon/internal/dataset"
	"github.com/rshade/mealcarbon/internal/emissions"
	"github.com/rshade/mealcarbon/internal/report"
	"github.com/rshade/mealcarbon/internal/sampler"
)

func TestFormatDraw(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		want string
	}{
		{"zero", 0, "0.0000"},
		{"tiny factor", 2.8e-7, "2.800e-07"},
		{"negative tiny", -0.0005, "-5.000e-04"},
		{"ordinary", 796.87, "796.8700"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDraw(tt.v, 4))
		})
	}
}

func TestProgressReporter(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressReporter(&buf, 10)

	p.update(batch.Snapshot{TotalUnits: 10, CompletedUnits: 4})
	assert.Equal(t, int64(4), p.bar.State().CurrentNum)

	p.update(batch.Snapshot{TotalUnits: 10, CompletedUnits: 10})
	p.finish(true)
	assert.True(t, p.bar.IsFinished())
}

func TestDrawSamples_MatchesTrialStreams(t *testing.T) {
	s, err := sampler.New()
	require.NoError(t, err)
	draws, err := drawSamples(s, 7, 3)
	require.NoError(t, err)
	require.Len(t, draws, 3)

	for i, d := range draws {
		assert.Equal(t, i, d.Draw)
		params, err := s.Sample(sampler.Stream(7, uint64(i)))
		require.NoError(t, err)
		assert.InDelta(t, params.MealKitTransportKm, d.Values[0].Value, 0)
	}
}

func TestParamRows_MarksOverrides(t *testing.T) {
	overrides := map[string]sampler.DistSpec{
		sampler.ParamLastMileKm: {Type: sampler.KindConstant, Value: 2},
	}
	cfg := config.Default()
	cfg.Simulation.Overrides = overrides
	s, err := cfg.Sampler()
	require.NoError(t, err)

	rows := paramRows(s, overrides)
	var marked []string
	for _, r := range rows {
		if r.Overridden {
			marked = append(marked, r.Name)
			assert.InDelta(t, 2.0, r.Mean, 1e-12)
		}
	}
	assert.Equal(t, []string{sampler.ParamLastMileKm}, marked)

	var buf bytes.Buffer
	require.NoError(t, renderParams(&buf, rows, report.FormatTable))
	assert.Contains(t, buf.String(), sampler.ParamLastMileKm+" *")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"generic", assert.AnError, ExitError},
		{"missing factor", &emissions.MissingFactorError{Item: "Bread"}, ExitDataError},
		{"invalid factor", fmt.Errorf("dataset x: %w", emissions.ErrInvalidFactor), ExitDataError},
		{"incomplete data", &emissions.IncompleteDataError{Row: 1, Field: "eaten_g"}, ExitDataError},
		{"invalid distribution", &emissions.InvalidDistributionError{Name: "x", Reason: "y"}, ExitDataError},
		{"schema", dataset.ErrUnsupportedSchema, ExitDataError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
