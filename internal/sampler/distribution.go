// Package sampler draws realizations of the uncertain emissions parameters.
//
// Every stochastic coefficient is declared once in a table mapping a
// parameter name to a Distribution. A Sampler validates the table and then
// fills an emissions.Parameters snapshot from any injected random source, so
// a trial's draws depend only on its stream.
package sampler

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rshade/mealcarbon/internal/emissions"
)

// Distribution is a univariate distribution that can be validated and drawn
// from.
type Distribution interface {
	// Validate reports bad parameters as *emissions.InvalidDistributionError.
	Validate(name string) error

	// Draw returns one value using r.
	Draw(r *rand.Rand) float64

	// Mean returns the theoretical mean of the values Draw produces.
	Mean() float64

	// String describes the distribution, e.g. "triangular(5, 10, 15)".
	String() string
}

func invalid(name, format string, args ...any) error {
	return &emissions.InvalidDistributionError{Name: name, Reason: fmt.Sprintf(format, args...)}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Triangular is the three-point distribution with lower limit Min, peak Mode
// and upper limit Max.
type Triangular struct {
	Min, Mode, Max float64
}

// Validate requires Min <= Mode <= Max and Min < Max.
func (d Triangular) Validate(name string) error {
	if !finite(d.Min, d.Mode, d.Max) {
		return invalid(name, "triangular bounds must be finite")
	}
	if d.Min > d.Mode || d.Mode > d.Max {
		return invalid(name, "triangular bounds must satisfy min <= mode <= max, got (%v, %v, %v)", d.Min, d.Mode, d.Max)
	}
	if d.Min == d.Max {
		return invalid(name, "triangular min and max must differ, got %v", d.Min)
	}
	return nil
}

// Draw samples by inverting the triangular CDF with one uniform from r.
// NewTriangle panics on bounds Validate rejects, so d must have passed it.
func (d Triangular) Draw(r *rand.Rand) float64 {
	return distuv.NewTriangle(d.Min, d.Max, d.Mode, r).Rand()
}

// Mean returns (min + mode + max) / 3.
func (d Triangular) Mean() float64 {
	return (d.Min + d.Mode + d.Max) / 3
}

func (d Triangular) String() string {
	return fmt.Sprintf("triangular(%g, %g, %g)", d.Min, d.Mode, d.Max)
}

// ClampedNormal is a normal distribution whose negative draws are mapped to
// zero rather than redrawn.
type ClampedNormal struct {
	Mu, Sigma float64
}

// Validate requires a finite mean and a non-negative standard deviation.
func (d ClampedNormal) Validate(name string) error {
	if !finite(d.Mu, d.Sigma) {
		return invalid(name, "normal parameters must be finite")
	}
	if d.Sigma < 0 {
		return invalid(name, "normal standard deviation must be >= 0, got %v", d.Sigma)
	}
	return nil
}

// Draw returns max(0, N(mu, sigma)).
func (d ClampedNormal) Draw(r *rand.Rand) float64 {
	return math.Max(0, distuv.Normal{Mu: d.Mu, Sigma: d.Sigma, Src: r}.Rand())
}

// Mean returns E[max(0, X)] for X ~ N(mu, sigma).
func (d ClampedNormal) Mean() float64 {
	if d.Sigma == 0 {
		return math.Max(0, d.Mu)
	}
	z := d.Mu / d.Sigma
	return d.Mu*distuv.UnitNormal.CDF(z) + d.Sigma*distuv.UnitNormal.Prob(z)
}

func (d ClampedNormal) String() string {
	return fmt.Sprintf("normal(%g, %g) clamped at 0", d.Mu, d.Sigma)
}

// ShiftedBernoulli returns Offset plus one Bernoulli(P) trial.
type ShiftedBernoulli struct {
	Offset float64
	P      float64
}

// Validate requires P in [0,1].
func (d ShiftedBernoulli) Validate(name string) error {
	if !finite(d.Offset, d.P) || d.P < 0 || d.P > 1 {
		return invalid(name, "bernoulli probability must lie in [0,1], got %v", d.P)
	}
	return nil
}

// Draw returns Offset+1 with probability P, else Offset.
func (d ShiftedBernoulli) Draw(r *rand.Rand) float64 {
	return d.Offset + distuv.Bernoulli{P: d.P, Src: r}.Rand()
}

// Mean returns Offset + P.
func (d ShiftedBernoulli) Mean() float64 {
	return d.Offset + distuv.Bernoulli{P: d.P}.Mean()
}

func (d ShiftedBernoulli) String() string {
	return fmt.Sprintf("%g + bernoulli(%g)", d.Offset, d.P)
}

// UniformInt draws an integer uniformly from [Lo, Hi] inclusive.
type UniformInt struct {
	Lo, Hi int
}

// Validate requires Lo <= Hi.
func (d UniformInt) Validate(name string) error {
	if d.Lo > d.Hi {
		return invalid(name, "uniform integer range [%d, %d] is empty", d.Lo, d.Hi)
	}
	return nil
}

// Draw returns an integer in [Lo, Hi].
func (d UniformInt) Draw(r *rand.Rand) float64 {
	return float64(d.Lo + r.IntN(d.Hi-d.Lo+1))
}

// Mean returns (Lo + Hi) / 2.
func (d UniformInt) Mean() float64 {
	return float64(d.Lo+d.Hi) / 2
}

func (d UniformInt) String() string {
	return fmt.Sprintf("uniform_int[%d, %d]", d.Lo, d.Hi)
}

// Constant always returns Value and consumes no randomness.
type Constant struct {
	Value float64
}

// Validate requires a finite value.
func (d Constant) Validate(name string) error {
	if !finite(d.Value) {
		return invalid(name, "constant must be finite")
	}
	return nil
}

// Draw returns Value.
func (d Constant) Draw(*rand.Rand) float64 { return d.Value }

// Mean returns Value.
func (d Constant) Mean() float64 { return d.Value }

func (d Constant) String() string {
	return fmt.Sprintf("constant(%g)", d.Value)
}
