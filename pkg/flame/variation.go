package flame

import "math"

// Variation is a pure nonlinear 2D mapping blended into a [Transform].
type Variation func(m, n float64) (float64, float64)

// Linear returns its input unchanged.
func Linear(m, n float64) (float64, float64) {
	return m, n
}

// Sine maps each coordinate through sin.
func Sine(m, n float64) (float64, float64) {
	return math.Sin(m), math.Sin(n)
}

// Spherical divides each coordinate by the squared radius m²+n².
// At the origin the result is ±Inf or NaN; callers must tolerate that.
func Spherical(m, n float64) (float64, float64) {
	r2 := m*m + n*n
	return m / r2, n / r2
}

// Variation names used in serialized parameters.
const (
	VariationSine      = "sine"
	VariationLinear    = "linear"
	VariationSpherical = "spherical"
)

var variationsByName = map[string]Variation{
	VariationSine:      Sine,
	VariationLinear:    Linear,
	VariationSpherical: Spherical,
}

// DefaultVariationNames is the fixed variation catalog, in blend order.
var DefaultVariationNames = []string{VariationSine, VariationLinear, VariationSpherical}

// DefaultVariations returns the fixed catalog shared by every transform.
func DefaultVariations() []Variation {
	return []Variation{Sine, Linear, Spherical}
}

// LookupVariation returns the catalog variation with the given name.
func LookupVariation(name string) (Variation, bool) {
	v, ok := variationsByName[name]
	return v, ok
}
