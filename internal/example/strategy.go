package example

import "math/rand"

// DefaultProbability is the chance an optional field appears in a randomized example.
const DefaultProbability = 0.7

// InclusionStrategy decides whether an optional object property is part of
// an example. Required properties are always included.
type InclusionStrategy interface {
	IncludeOptional(rng *rand.Rand) bool
}

// AlwaysInclude puts every optional property in the example.
type AlwaysInclude struct{}

func (AlwaysInclude) IncludeOptional(*rand.Rand) bool { return true }

// Randomized includes optional properties with the given probability, drawn
// from the factory's seeded source. A zero Probability means DefaultProbability.
type Randomized struct {
	Probability float64
}

func (r Randomized) IncludeOptional(rng *rand.Rand) bool {
	p := r.Probability
	if p <= 0 {
		p = DefaultProbability
	}
	if p >= 1 {
		return true
	}
	return rng.Float64() < p
}

// ParseInclusion maps the configuration names "always" and "random".
func ParseInclusion(mode string, probability float64) InclusionStrategy {
	if mode == "always" {
		return AlwaysInclude{}
	}
	return Randomized{Probability: probability}
}
