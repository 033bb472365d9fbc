// internal/pipeline/sampling.go
package pipeline

import (
	"fmt"
	"math"
	"math/rand"

	"rsd-dataset/internal/common/errors"
)

const weightTolerance = 1e-9

// Categorical draws one value per call using a single uniform against the
// cumulative weights.
type Categorical[T any] struct {
	name       string
	values     []T
	weights    []float64
	cumulative []float64
}

// NewCategorical validates the weight vector: same length as values, no
// negative entries, summing to 1.
func NewCategorical[T any](name string, values []T, weights []float64) (*Categorical[T], error) {
	if len(values) == 0 || len(values) != len(weights) {
		return nil, errors.NewConfigInvalidError(
			fmt.Sprintf("table %s: %d values for %d weights", name, len(values), len(weights)))
	}

	cumulative := make([]float64, len(weights))
	sum := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return nil, errors.NewWeightsInvalidError(name, w)
		}
		sum += w
		cumulative[i] = sum
	}
	if math.Abs(sum-1) > weightTolerance {
		return nil, errors.NewWeightsInvalidError(name, sum)
	}
	cumulative[len(cumulative)-1] = 1

	return &Categorical[T]{
		name:       name,
		values:     append([]T(nil), values...),
		weights:    append([]float64(nil), weights...),
		cumulative: cumulative,
	}, nil
}

// NewUniformCategorical weights every value equally.
func NewUniformCategorical[T any](name string, values []T) (*Categorical[T], error) {
	weights := make([]float64, len(values))
	for i := range weights {
		weights[i] = 1 / float64(len(values))
	}
	return NewCategorical(name, values, weights)
}

func mustCategorical[T any](c *Categorical[T], err error) *Categorical[T] {
	if err != nil {
		panic(err)
	}
	return c
}

// Draw consumes exactly one uniform from rng.
func (c *Categorical[T]) Draw(rng *rand.Rand) T {
	return c.pick(rng.Float64())
}

func (c *Categorical[T]) pick(u float64) T {
	for i, edge := range c.cumulative {
		if u < edge {
			return c.values[i]
		}
	}
	return c.values[len(c.values)-1]
}

func (c *Categorical[T]) Name() string { return c.name }

// Weights returns a copy of the weight vector.
func (c *Categorical[T]) Weights() []float64 {
	return append([]float64(nil), c.weights...)
}
