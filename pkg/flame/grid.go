package flame

// Cell holds the statistics accumulated for one grid position.
type Cell struct {
	// Hits counts walker visits.
	Hits int `json:"hits"`
	// Color is a recency-weighted average: each hit sets it to (Color+c)/2.
	Color float64 `json:"color"`
}

// Grid is a fixed-size row-major array of cells.
type Grid struct {
	Width  int
	Height int
	Cells  []Cell
}

// NewGrid allocates a zeroed w×h grid.
func NewGrid(w, h int) *Grid {
	return &Grid{Width: w, Height: h, Cells: make([]Cell, w*h)}
}

// At returns a pointer to the cell at (x, y).
func (g *Grid) At(x, y int) *Cell {
	return &g.Cells[y*g.Width+x]
}

// Reset zeroes every cell.
func (g *Grid) Reset() {
	clear(g.Cells)
}

// PeakHits returns the largest hit count in the grid.
func (g *Grid) PeakHits() int {
	peak := 0
	for i := range g.Cells {
		if g.Cells[i].Hits > peak {
			peak = g.Cells[i].Hits
		}
	}
	return peak
}

// TotalHits returns the sum of all hit counts.
func (g *Grid) TotalHits() int {
	total := 0
	for i := range g.Cells {
		total += g.Cells[i].Hits
	}
	return total
}

// Coverage returns the fraction of cells hit at least once.
func (g *Grid) Coverage() float64 {
	if len(g.Cells) == 0 {
		return 0
	}
	hit := 0
	for i := range g.Cells {
		if g.Cells[i].Hits > 0 {
			hit++
		}
	}
	return float64(hit) / float64(len(g.Cells))
}
