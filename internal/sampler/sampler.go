package sampler

import (
	"fmt"
	"math/rand/v2"

	"github.com/rshade/mealcarbon/internal/emissions"
)

// Sampler draws Parameters from a validated parameter table. It holds no
// random state and is safe for concurrent use; randomness is injected per call.
type Sampler struct {
	specs   []Spec
	setters map[string]setter
}

// Option customizes a Sampler.
type Option func(*options)

type options struct {
	overrides map[string]Distribution
	order     []string
}

// WithOverride replaces the distribution of the named parameter.
func WithOverride(name string, d Distribution) Option {
	return func(o *options) {
		if o.overrides == nil {
			o.overrides = make(map[string]Distribution)
		}
		if _, seen := o.overrides[name]; !seen {
			o.order = append(o.order, name)
		}
		o.overrides[name] = d
	}
}

// WithOverrides applies WithOverride for each entry of m.
func WithOverrides(m map[string]Distribution) Option {
	return func(o *options) {
		for name, d := range m {
			WithOverride(name, d)(o)
		}
	}
}

// New builds a Sampler from DefaultSpecs with the given overrides applied.
// It fails if an override names an unknown parameter or any distribution is
// invalid.
func New(opts ...Option) (*Sampler, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	specs := DefaultSpecs()
	index := make(map[string]int, len(specs))
	for i, s := range specs {
		index[s.Name] = i
	}
	for _, name := range o.order {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("override for unknown parameter %q", name)
		}
		specs[i].Distribution = o.overrides[name]
	}

	return newFromSpecs(specs)
}

// newFromSpecs validates specs against the parameter setters. Every setter
// must have exactly one spec and every spec a setter.
func newFromSpecs(specs []Spec) (*Sampler, error) {
	set := setters()
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if _, ok := set[s.Name]; !ok {
			return nil, fmt.Errorf("parameter %q has no destination field", s.Name)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("parameter %q declared twice", s.Name)
		}
		seen[s.Name] = true
		if s.Distribution == nil {
			return nil, &emissions.InvalidDistributionError{Name: s.Name, Reason: "no distribution"}
		}
		if err := s.Distribution.Validate(s.Name); err != nil {
			return nil, err
		}
	}
	for name := range set {
		if !seen[name] {
			return nil, fmt.Errorf("parameter %q has no distribution", name)
		}
	}
	return &Sampler{specs: specs, setters: set}, nil
}

// Specs returns a copy of the sampler's parameter table.
func (s *Sampler) Specs() []Spec {
	out := make([]Spec, len(s.specs))
	copy(out, s.specs)
	return out
}

// Sample draws one Parameters snapshot from r. Parameters are drawn in table
// order so a given stream always yields the same snapshot.
func (s *Sampler) Sample(r *rand.Rand) (emissions.Parameters, error) {
	return s.sample(r, nil)
}

// Value is one raw draw of a named parameter.
type Value struct {
	Name  string  `json:"name"`
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}

// SampleValues draws exactly like Sample and also returns every raw draw in
// table order. Integer parameters are reported before rounding.
func (s *Sampler) SampleValues(r *rand.Rand) (emissions.Parameters, []Value, error) {
	values := make([]Value, 0, len(s.specs))
	p, err := s.sample(r, func(spec Spec, v float64) {
		values = append(values, Value{Name: spec.Name, Unit: spec.Unit, Value: v})
	})
	if err != nil {
		return emissions.Parameters{}, nil, err
	}
	return p, values, nil
}

func (s *Sampler) sample(r *rand.Rand, record func(Spec, float64)) (emissions.Parameters, error) {
	var p emissions.Parameters
	for _, spec := range s.specs {
		if err := spec.Distribution.Validate(spec.Name); err != nil {
			return emissions.Parameters{}, err
		}
		v := spec.Distribution.Draw(r)
		if record != nil {
			record(spec, v)
		}
		s.setters[spec.Name](&p, v)
	}
	return p, nil
}

// Stream returns the random stream of one trial. Streams with the same seed
// and different index are independent PCG sequences.
func Stream(seed, index uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, index))
}
