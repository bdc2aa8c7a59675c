package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rshade/mealcarbon/internal/emissions"
)

func TestTriangular_Validate(t *testing.T) {
	tests := []struct {
		name    string
		d       Triangular
		wantErr bool
	}{
		{name: "valid", d: Triangular{5, 10, 15}},
		{name: "mode at min", d: Triangular{0, 0, 1}},
		{name: "mode at max", d: Triangular{0, 1, 1}},
		{name: "mode below min", d: Triangular{5, 4, 15}, wantErr: true},
		{name: "mode above max", d: Triangular{5, 16, 15}, wantErr: true},
		{name: "min above max", d: Triangular{15, 10, 5}, wantErr: true},
		{name: "degenerate", d: Triangular{3, 3, 3}, wantErr: true},
		{name: "nan", d: Triangular{0, math.NaN(), 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.d.Validate("x")
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, emissions.ErrInvalidDistribution)
			var de *emissions.InvalidDistributionError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "x", de.Name)
		})
	}
}

func TestDistributions_DrawWithinSupport(t *testing.T) {
	r := Stream(1, 1)
	tri := Triangular{35, 47.15, 59}
	norm := ClampedNormal{Mu: 4.43, Sigma: 2}
	uni := UniformInt{Lo: 1, Hi: 5}
	bern := ShiftedBernoulli{Offset: 2, P: 0.85}

	seenInts := map[float64]bool{}
	for range 20000 {
		v := tri.Draw(r)
		assert.True(t, v >= 35 && v <= 59, "triangular draw %v", v)
		assert.GreaterOrEqual(t, norm.Draw(r), 0.0)

		u := uni.Draw(r)
		assert.Equal(t, math.Trunc(u), u)
		assert.True(t, u >= 1 && u <= 5)
		seenInts[u] = true

		b := bern.Draw(r)
		assert.True(t, b == 2 || b == 3)
	}
	assert.Len(t, seenInts, 5, "every integer in [1,5] should appear")
}

func TestDistributions_DrawFromTrialStream(t *testing.T) {
	tri := Triangular{50, 796.87, 1221}
	for i := range uint64(50) {
		u := Stream(42, i).Float64()
		want := distuv.NewTriangle(50, 1221, 796.87, nil).Quantile(u)
		assert.InDelta(t, want, tri.Draw(Stream(42, i)), 1e-9, "trial %d", i)

		bern := ShiftedBernoulli{Offset: 2, P: 0.85}
		wantKit := 2.0
		if u < 0.85 {
			wantKit = 3
		}
		assert.Equal(t, wantKit, bern.Draw(Stream(42, i)), "trial %d", i)
	}

	norm := ClampedNormal{Mu: -10, Sigma: 1}
	assert.Zero(t, norm.Draw(Stream(1, 0)), "negative draws clamp to zero")
	assert.Equal(t, ClampedNormal{Mu: 3, Sigma: 0}.Draw(Stream(1, 0)), 3.0)
}

func TestDistributions_MeanConvergence(t *testing.T) {
	tests := []struct {
		name string
		d    Distribution
		tol  float64
	}{
		{name: "meals per kit", d: ShiftedBernoulli{Offset: 2, P: 0.85}, tol: 0.01},
		{name: "meal kit distance", d: Triangular{50, 796.87, 1221}, tol: 5},
		{name: "display hours", d: Triangular{10, 48.5, 60}, tol: 0.2},
		{name: "meals per trip", d: UniformInt{Lo: 1, Hi: 5}, tol: 0.02},
		{name: "last mile distance clamped", d: ClampedNormal{Mu: 4.43, Sigma: 2}, tol: 0.03},
		{name: "fuel efficiency", d: ClampedNormal{Mu: 23.36, Sigma: 5}, tol: 0.08},
	}
	const n = 200000
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Stream(42, uint64(i))
			var sum float64
			for range n {
				sum += tt.d.Draw(r)
			}
			assert.InDelta(t, tt.d.Mean(), sum/n, tt.tol)
		})
	}

	assert.InDelta(t, 2.85, ShiftedBernoulli{Offset: 2, P: 0.85}.Mean(), 1e-12)
}

func TestClampedNormal_Mean(t *testing.T) {
	assert.InDelta(t, 4.43, ClampedNormal{Mu: 4.43, Sigma: 0}.Mean(), 1e-12)
	assert.Equal(t, 0.0, ClampedNormal{Mu: -1, Sigma: 0}.Mean())
	// Clamping lifts the mean above mu when mass sits below zero.
	assert.Greater(t, ClampedNormal{Mu: 4.43, Sigma: 2}.Mean(), 4.43)
	assert.InDelta(t, 2/math.Sqrt(2*math.Pi), ClampedNormal{Mu: 0, Sigma: 2}.Mean(), 1e-12)
}

func TestDefaultSpecs(t *testing.T) {
	specs := DefaultSpecs()
	names := map[string]Spec{}
	for _, s := range specs {
		require.NoError(t, s.Distribution.Validate(s.Name))
		names[s.Name] = s
	}
	assert.Len(t, specs, 14+2*len(emissions.Categories()))

	assert.Equal(t, Triangular{50, 796.87, 1221}, names[ParamMealKitTransportKm].Distribution)
	assert.Equal(t, UniformInt{Lo: 1, Hi: 5}, names[ParamMealsPerTrip].Distribution)
	assert.Equal(t, Triangular{0, 0.31, 1}, names["loss_rate.fish.home"].Distribution)
	assert.Equal(t, Constant{0}, names["loss_rate.spice.retail"].Distribution)
}

func TestSampler_Sample(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	t.Run("fills every field within bounds", func(t *testing.T) {
		for i := range 500 {
			p, err := s.Sample(Stream(9, uint64(i)))
			require.NoError(t, err)
			assert.True(t, p.MealsPerKit == 2 || p.MealsPerKit == 3)
			assert.True(t, p.MealsPerTrip >= 1 && p.MealsPerTrip <= 5)
			assert.True(t, p.MealKitTransportKm >= 50 && p.MealKitTransportKm <= 1221)
			assert.True(t, p.GroceryTransportKm >= 35 && p.GroceryTransportKm <= 59)
			assert.True(t, p.FuelFactor >= 0.18e-6 && p.FuelFactor <= 0.38e-6)
			assert.GreaterOrEqual(t, p.LastMileKm, 0.0)
			assert.GreaterOrEqual(t, p.FuelEfficiency, 0.0)
			assert.Equal(t, 0.0, p.LossRate(emissions.CategorySpice, true))
			assert.Equal(t, 0.0, p.LossRate(emissions.CategorySpice, false))
			for _, c := range emissions.Categories() {
				assert.True(t, p.LossRate(c, true) >= 0 && p.LossRate(c, true) <= 1)
			}
		}
	})

	t.Run("same stream same snapshot", func(t *testing.T) {
		a, err := s.Sample(Stream(123, 4))
		require.NoError(t, err)
		b, err := s.Sample(Stream(123, 4))
		require.NoError(t, err)
		assert.Equal(t, a, b)

		c, err := s.Sample(Stream(123, 5))
		require.NoError(t, err)
		assert.NotEqual(t, a, c)
	})

	t.Run("successive draws differ", func(t *testing.T) {
		r := Stream(5, 0)
		a, _ := s.Sample(r)
		b, _ := s.Sample(r)
		assert.NotEqual(t, a.MealKitTransportKm, b.MealKitTransportKm)
	})

	t.Run("meals per kit mean converges", func(t *testing.T) {
		const n = 50000
		r := Stream(77, 0)
		var sum int
		for range n {
			p, err := s.Sample(r)
			require.NoError(t, err)
			sum += p.MealsPerKit
		}
		assert.InDelta(t, 2.85, float64(sum)/n, 0.01)
	})
}

func TestSampler_SampleValues(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	want, err := s.Sample(Stream(42, 3))
	require.NoError(t, err)
	got, values, err := s.SampleValues(Stream(42, 3))
	require.NoError(t, err)

	assert.Equal(t, want, got, "recording draws does not change them")
	require.Len(t, values, len(s.Specs()))
	for i, spec := range s.Specs() {
		assert.Equal(t, spec.Name, values[i].Name)
		assert.Equal(t, spec.Unit, values[i].Unit)
	}
	assert.Equal(t, ParamMealKitTransportKm, values[0].Name)
	assert.Equal(t, got.MealKitTransportKm, values[0].Value)
}

func TestSampler_Overrides(t *testing.T) {
	t.Run("constant override", func(t *testing.T) {
		s, err := New(WithOverride(ParamMealsPerKit, Constant{4}))
		require.NoError(t, err)
		p, err := s.Sample(Stream(1, 0))
		require.NoError(t, err)
		assert.Equal(t, 4, p.MealsPerKit)
	})

	t.Run("retail loss pinned at one", func(t *testing.T) {
		s, err := New(WithOverrides(map[string]Distribution{
			LossRateName(emissions.CategoryGrain, true): Constant{1},
		}))
		require.NoError(t, err)
		p, err := s.Sample(Stream(1, 0))
		require.NoError(t, err)
		assert.Equal(t, 1.0, p.LossRate(emissions.CategoryGrain, true))
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := New(WithOverride("grocery.parking_km", Constant{1}))
		assert.Error(t, err)
	})

	t.Run("invalid triangular", func(t *testing.T) {
		_, err := New(WithOverride(ParamDisplayHours, Triangular{60, 48.5, 10}))
		assert.ErrorIs(t, err, emissions.ErrInvalidDistribution)
	})

	t.Run("nil distribution", func(t *testing.T) {
		_, err := New(WithOverride(ParamDisplayHours, nil))
		assert.ErrorIs(t, err, emissions.ErrInvalidDistribution)
	})

	t.Run("override does not leak into defaults", func(t *testing.T) {
		_, err := New(WithOverride(ParamMealsPerKit, Constant{4}))
		require.NoError(t, err)
		for _, s := range DefaultSpecs() {
			if s.Name == ParamMealsPerKit {
				assert.Equal(t, ShiftedBernoulli{Offset: 2, P: 0.85}, s.Distribution)
			}
		}
	})
}

func TestSampler_RejectsIncompleteTable(t *testing.T) {
	specs := DefaultSpecs()
	_, err := newFromSpecs(specs[1:])
	assert.ErrorContains(t, err, "has no distribution")

	_, err = newFromSpecs(append(DefaultSpecs(), specs[0]))
	assert.ErrorContains(t, err, "declared twice")

	_, err = newFromSpecs(append(DefaultSpecs(), Spec{Name: "x", Distribution: Constant{1}}))
	assert.ErrorContains(t, err, "no destination")
}

func TestDistSpec_Build(t *testing.T) {
	tests := []struct {
		name    string
		spec    DistSpec
		want    Distribution
		wantErr bool
	}{
		{name: "triangular", spec: DistSpec{Type: "triangular", Min: 1, Mode: 2, Max: 3}, want: Triangular{1, 2, 3}},
		{name: "normal", spec: DistSpec{Type: "Normal", Mean: 4, StdDev: 1}, want: ClampedNormal{Mu: 4, Sigma: 1}},
		{name: "bernoulli", spec: DistSpec{Type: "bernoulli", Offset: 2, P: 0.5}, want: ShiftedBernoulli{Offset: 2, P: 0.5}},
		{name: "uniform int", spec: DistSpec{Type: "uniform_int", Lo: 1, Hi: 3}, want: UniformInt{Lo: 1, Hi: 3}},
		{name: "constant", spec: DistSpec{Type: "constant", Value: 3}, want: Constant{3}},
		{name: "bad triangular", spec: DistSpec{Type: "triangular", Min: 3, Mode: 2, Max: 1}, wantErr: true},
		{name: "bad probability", spec: DistSpec{Type: "bernoulli", P: 1.5}, wantErr: true},
		{name: "empty range", spec: DistSpec{Type: "uniform_int", Lo: 5, Hi: 1}, wantErr: true},
		{name: "unknown", spec: DistSpec{Type: "beta"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.spec.Build("p")
			if tt.wantErr {
				assert.ErrorIs(t, err, emissions.ErrInvalidDistribution)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func BenchmarkSampler_Sample(b *testing.B) {
	s, _ := New()
	r := Stream(1, 1)
	for b.Loop() {
		_, _ = s.Sample(r)
	}
}
