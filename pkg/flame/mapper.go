package flame

import (
	"image"
	"math"
)

// PeakLogFrequency returns ln of the largest hit count in g, the divisor
// used for log-density normalization. An empty grid yields 0.
func PeakLogFrequency(g *Grid) float64 {
	peak := g.PeakHits()
	if peak == 0 {
		return 0
	}
	return math.Log(float64(peak))
}

// CellAlpha returns the log-density brightness of c in [0, 1].
//
// Cells without hits are dark and never evaluate ln(0). When logFreq is 0
// the peak count is 1, so every hit cell is at full brightness.
func CellAlpha(c Cell, logFreq float64) float64 {
	if c.Hits <= 0 {
		return 0
	}
	if logFreq <= 0 {
		return 1
	}
	return clamp(math.Log(float64(c.Hits))/logFreq, 0, 1)
}

// CellRGB returns the 8-bit color of c: hue from the running color average,
// full saturation, and value from the log density.
func CellRGB(c Cell, logFreq float64) (uint8, uint8, uint8) {
	r, g, b := HSVToRGB(clamp(c.Color, 0, 1), 1, CellAlpha(c, logFreq))
	return channel(r), channel(g), channel(b)
}

// MapGrid overwrites dst with the colors of g. dst must have g's dimensions.
// Alpha is always opaque; density is expressed through brightness only.
// g is not modified.
func MapGrid(g *Grid, logFreq float64, dst *image.RGBA) {
	for y := 0; y < g.Height; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < g.Width; x++ {
			r, gr, b := CellRGB(g.Cells[y*g.Width+x], logFreq)
			px := row[4*x : 4*x+4 : 4*x+4]
			px[0] = r
			px[1] = gr
			px[2] = b
			px[3] = 255
		}
	}
}

// HSVToRGB converts hue, saturation and value in [0, 1] to RGB in [0, 1]
// using the six-sector formula. Hue 1 wraps to sector 0.
func HSVToRGB(h, s, v float64) (float64, float64, float64) {
	i := math.Floor(h * 6)
	f := h*6 - i
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

func channel(v float64) uint8 {
	return uint8(math.Round(255 * clamp(v, 0, 1)))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
