package flame

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Transform is an affine pre-transform followed by a weighted blend of
// variations. Color is the transform's color seed in [0, 1).
//
// The pre-transform maps (x, y) to (A·x + B·y + C, D·x + E·y + F).
type Transform struct {
	A, B, C, D, E, F float64
	Color            float64

	names   []string
	vars    []Variation
	weights []float64
}

// NewTransform creates a transform over the default variation catalog with
// random coefficients, random weights and a random color seed.
func NewTransform(rng *rand.Rand) *Transform {
	t := &Transform{
		Color:   rng.Float64(),
		names:   append([]string(nil), DefaultVariationNames...),
		vars:    DefaultVariations(),
		weights: make([]float64, len(DefaultVariationNames)),
	}
	t.RandomCoefficients(rng)
	t.RandomWeights(rng)
	return t
}

// SetVariations replaces the variation blend. Each name must be in the
// catalog and weights must match names one to one.
func (t *Transform) SetVariations(names []string, weights []float64) error {
	if len(names) != len(weights) {
		return fmt.Errorf("variations: %d names but %d weights", len(names), len(weights))
	}
	vars := make([]Variation, len(names))
	for i, name := range names {
		v, ok := LookupVariation(name)
		if !ok {
			return fmt.Errorf("unknown variation %q", name)
		}
		vars[i] = v
	}
	t.names = append([]string(nil), names...)
	t.vars = vars
	t.weights = append([]float64(nil), weights...)
	return nil
}

// VariationNames returns the names of the blended variations in order.
func (t *Transform) VariationNames() []string {
	return append([]string(nil), t.names...)
}

// Weights returns a copy of the per-variation weights.
func (t *Transform) Weights() []float64 {
	return append([]float64(nil), t.weights...)
}

// Apply maps the walker state (x, y, c) through the transform.
// With every weight at zero the position collapses to (0, 0).
func (t *Transform) Apply(x, y, c float64) (float64, float64, float64) {
	m := t.A*x + t.B*y + t.C
	n := t.D*x + t.E*y + t.F

	var ox, oy float64
	for i, v := range t.vars {
		vx, vy := v(m, n)
		ox += t.weights[i] * vx
		oy += t.weights[i] * vy
	}
	return ox, oy, (c + t.Color) / 2
}

// RandomCoefficients draws each of A..F uniformly from [-2, 2).
func (t *Transform) RandomCoefficients(rng *rand.Rand) {
	t.A = rng.Float64()*4 - 2
	t.B = rng.Float64()*4 - 2
	t.C = rng.Float64()*4 - 2
	t.D = rng.Float64()*4 - 2
	t.E = rng.Float64()*4 - 2
	t.F = rng.Float64()*4 - 2
}

// DirectedCoefficients derives A..F from a control point and the transform's
// index among its siblings. Nearby control points give nearby shapes.
func (t *Transform) DirectedCoefficients(mx, my float64, index int) {
	i := float64(index)
	t.A = math.Sin(my / (5.6 + i/4.4))
	t.B = math.Cos(mx / (52.0 - i) * i / 1.1)
	t.C = math.Sin(math.Pi + mx/(90+i))
	t.D = math.Sin(mx / (7.6 + i/2.7))
	t.E = math.Cos(mx / (90.0 - i) * i / 1.1)
	t.F = math.Sin(math.Pi + mx/(20+i))
}

// RandomWeights draws each weight uniformly from [0, 1).
// Weights are deliberately left unnormalized.
func (t *Transform) RandomWeights(rng *rand.Rand) {
	for i := range t.weights {
		t.weights[i] = rng.Float64()
	}
}
