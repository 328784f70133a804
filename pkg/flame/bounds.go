package flame

import (
	"math"
	"math/rand/v2"
)

// DefaultBurnIn is the number of leading iterations discarded while the
// walker converges onto the attractor.
const DefaultBurnIn = 40

// Walker is the chaos-game point: a position and a color coordinate.
type Walker struct {
	X, Y, C float64
}

// Reseed moves the walker to a uniformly random position in [0,w)×[0,h)
// with a random color in [0, 1).
func (p *Walker) Reseed(rng *rand.Rand, w, h int) {
	p.X = rng.Float64() * float64(w)
	p.Y = rng.Float64() * float64(h)
	p.C = rng.Float64()
}

// step applies one uniformly chosen transform to the walker.
func (p *Walker) step(rng *rand.Rand, transforms []*Transform) {
	t := transforms[rng.IntN(len(transforms))]
	p.X, p.Y, p.C = t.Apply(p.X, p.Y, p.C)
}

// Bounds is the rectangle of walker coordinates projected onto the grid.
type Bounds struct {
	LX float64 `json:"lx"`
	HX float64 `json:"hx"`
	LY float64 `json:"ly"`
	HY float64 `json:"hy"`
}

// EmptyBounds returns an inverted range that any sample will widen.
func EmptyBounds() Bounds {
	return Bounds{
		LX: math.Inf(1),
		HX: math.Inf(-1),
		LY: math.Inf(1),
		HY: math.Inf(-1),
	}
}

// Empty reports whether no sample has been included yet.
func (b Bounds) Empty() bool {
	return b.HX < b.LX || b.HY < b.LY
}

// Include widens the bounds to contain (x, y).
func (b *Bounds) Include(x, y float64) {
	b.LX = math.Min(b.LX, x)
	b.HX = math.Max(b.HX, x)
	b.LY = math.Min(b.LY, y)
	b.HY = math.Max(b.HY, y)
}

// Project maps (x, y) linearly from the bounds onto a w×h grid and clamps
// the result into [0,w-1]×[0,h-1] with [ClampIndex].
func (b Bounds) Project(x, y float64, w, h int) (int, int) {
	fx := (x - b.LX) / (b.HX - b.LX) * float64(w-1)
	fy := (y - b.LY) / (b.HY - b.LY) * float64(h-1)
	return ClampIndex(fx, w), ClampIndex(fy, h)
}

// ClampIndex rounds v to an index in [0, n-1]. NaN and -Inf snap to 0,
// +Inf snaps to n-1.
func ClampIndex(v float64, n int) int {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= float64(n-1):
		return n - 1
	}
	return int(math.Round(v))
}

// EstimateBounds runs one warm-up pass of games iterations on the walker and
// widens b with every finite position after the first burnIn iterations.
// It returns the number of samples included.
func EstimateBounds(rng *rand.Rand, transforms []*Transform, p *Walker, games, burnIn int, b *Bounds) int {
	samples := 0
	for k := 0; k < games; k++ {
		p.step(rng, transforms)
		if k < burnIn {
			continue
		}
		if !finite(p.X) || !finite(p.Y) {
			continue
		}
		b.Include(p.X, p.Y)
		samples++
	}
	return samples
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
