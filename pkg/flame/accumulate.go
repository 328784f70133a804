package flame

import "math/rand/v2"

// Accumulate runs one accumulation step: games chaos-game iterations on the
// walker. Every iteration after the first burnIn is projected through b and
// recorded in the grid. The walker is left where the step ended so the next
// step continues the same trajectory. It returns the number of recorded hits.
func Accumulate(rng *rand.Rand, transforms []*Transform, p *Walker, g *Grid, b Bounds, games, burnIn int) int {
	hits := 0
	for k := 0; k < games; k++ {
		p.step(rng, transforms)
		if k < burnIn {
			continue
		}
		x, y := b.Project(p.X, p.Y, g.Width, g.Height)
		cell := g.At(x, y)
		cell.Hits++
		cell.Color = (cell.Color + p.C) / 2
		hits++
	}
	return hits
}
