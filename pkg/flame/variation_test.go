package flame

import (
	"math"
	"testing"
)

func TestVariations(t *testing.T) {
	tests := []struct {
		name   string
		fn     Variation
		m, n   float64
		wx, wy float64
	}{
		{"linear", Linear, 1.5, -2, 1.5, -2},
		{"sine zero", Sine, 0, 0, 0, 0},
		{"sine half pi", Sine, math.Pi / 2, -math.Pi / 2, 1, -1},
		{"spherical unit", Spherical, 1, 0, 1, 0},
		{"spherical scaled", Spherical, 2, 2, 0.25, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := tt.fn(tt.m, tt.n)
			if math.Abs(x-tt.wx) > 1e-12 || math.Abs(y-tt.wy) > 1e-12 {
				t.Errorf("%s(%v, %v) = (%v, %v), want (%v, %v)", tt.name, tt.m, tt.n, x, y, tt.wx, tt.wy)
			}
		})
	}
}

func TestVariationsArePure(t *testing.T) {
	inputs := [][2]float64{{0.3, -1.7}, {5, 5}, {-0.001, 0.002}, {1e6, -1e-6}}
	for _, name := range DefaultVariationNames {
		fn, ok := LookupVariation(name)
		if !ok {
			t.Fatalf("LookupVariation(%q) not found", name)
		}
		for _, in := range inputs {
			x1, y1 := fn(in[0], in[1])
			x2, y2 := fn(in[0], in[1])
			if x1 != x2 || y1 != y2 {
				t.Errorf("%s(%v) not referentially transparent", name, in)
			}
		}
	}
}

func TestSphericalAtOrigin(t *testing.T) {
	x, y := Spherical(0, 0)
	if !math.IsNaN(x) || !math.IsNaN(y) {
		t.Errorf("Spherical(0, 0) = (%v, %v), want NaN", x, y)
	}
}

func TestLookupVariationUnknown(t *testing.T) {
	if _, ok := LookupVariation("swirl"); ok {
		t.Error("swirl is not in the catalog")
	}
}
