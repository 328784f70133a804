package flame

import (
	"math"
	"testing"
)

// A single identity transform never moves the walker, so bounds collapse to
// the seeded point and every post-burn-in hit lands in one cell.
func TestFixedPointScenario(t *testing.T) {
	rng := testRand()
	transforms := []*Transform{identityTransform(t)}

	var p Walker
	p.Reseed(rng, 4, 4)
	start := p

	b := EmptyBounds()
	EstimateBounds(rng, transforms, &p, 50, DefaultBurnIn, &b)
	if b.LX != start.X || b.HX != start.X || b.LY != start.Y || b.HY != start.Y {
		t.Fatalf("bounds = %+v, want collapsed onto (%v, %v)", b, start.X, start.Y)
	}

	g := NewGrid(4, 4)
	hits := Accumulate(rng, transforms, &p, g, b, 50, DefaultBurnIn)
	if hits != 10 {
		t.Errorf("hits = %d, want 10", hits)
	}

	nonEmpty := 0
	for i, c := range g.Cells {
		if c.Hits == 0 {
			if c.Color != 0 {
				t.Errorf("cell %d has color %v without hits", i, c.Color)
			}
			continue
		}
		nonEmpty++
		if c.Hits != 10 {
			t.Errorf("cell %d hits = %d, want 10", i, c.Hits)
		}
	}
	if nonEmpty != 1 {
		t.Errorf("%d cells hit, want exactly 1", nonEmpty)
	}
}

func TestAccumulateColorAverage(t *testing.T) {
	tr := identityTransform(t)
	tr.Color = 1
	p := Walker{X: 0.5, Y: 0.5, C: 1}
	g := NewGrid(2, 2)
	b := Bounds{LX: 0, HX: 1, LY: 0, HY: 1}

	Accumulate(testRand(), []*Transform{tr}, &p, g, b, 3, 0)

	// walker color stays 1; cell color goes 0 -> 0.5 -> 0.75 -> 0.875
	c := g.At(1, 1)
	if c.Hits != 3 {
		t.Fatalf("hits = %d, want 3", c.Hits)
	}
	if math.Abs(c.Color-0.875) > 1e-12 {
		t.Errorf("color = %v, want 0.875", c.Color)
	}
}

func TestAccumulateWalkerPersists(t *testing.T) {
	rng := testRand()
	transforms := []*Transform{NewTransform(rng), NewTransform(rng)}
	p := Walker{X: 0.1, Y: 0.2, C: 0.3}
	g := NewGrid(8, 8)
	b := Bounds{LX: -2, HX: 2, LY: -2, HY: 2}

	Accumulate(rng, transforms, &p, g, b, 5, 0)
	if p == (Walker{X: 0.1, Y: 0.2, C: 0.3}) {
		t.Error("walker should have moved")
	}
}

func TestAccumulateNonFiniteStaysInGrid(t *testing.T) {
	tr := &Transform{}
	if err := tr.SetVariations([]string{VariationSpherical}, []float64{1}); err != nil {
		t.Fatal(err)
	}
	p := Walker{X: 1, Y: 1}
	g := NewGrid(4, 4)

	hits := Accumulate(testRand(), []*Transform{tr}, &p, g, Bounds{LX: -1, HX: 1, LY: -1, HY: 1}, 20, 0)
	if hits != 20 || g.At(0, 0).Hits != 20 {
		t.Errorf("NaN samples should snap to cell (0, 0): hits=%d cell=%d", hits, g.At(0, 0).Hits)
	}
}

func TestGridStats(t *testing.T) {
	g := NewGrid(4, 2)
	g.At(3, 1).Hits = 5
	g.At(0, 0).Hits = 2

	if g.PeakHits() != 5 {
		t.Errorf("PeakHits() = %d, want 5", g.PeakHits())
	}
	if g.TotalHits() != 7 {
		t.Errorf("TotalHits() = %d, want 7", g.TotalHits())
	}
	if g.Coverage() != 0.25 {
		t.Errorf("Coverage() = %v, want 0.25", g.Coverage())
	}

	g.Reset()
	if g.PeakHits() != 0 || g.Coverage() != 0 {
		t.Error("Reset() should zero every cell")
	}
}
