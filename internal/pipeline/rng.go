// internal/pipeline/rng.go
package pipeline

import "math/rand"

// NewRNG returns the single generator a run draws from. Every stage takes it
// explicitly; nothing in this package touches the global math/rand source.
func NewRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func bernoulli(rng *rand.Rand, p float64) bool {
	return rng.Float64() < p
}

// intRange draws an integer in [lo, hi).
func intRange(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo)
}

func normal(rng *rand.Rand, mean, stddev float64) float64 {
	return mean + stddev*rng.NormFloat64()
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
