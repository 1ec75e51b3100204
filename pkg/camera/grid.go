package camera

import "math"

// Grid lays layers out in a grid of viewboxes. A Shape entry of -1 is
// derived from the layer count; Stride is how many consecutive layers
// share a cell, negative to fill from the end. Spacing of 1 or more is in
// pixels, below 1 it is a fraction of the cell size.
type Grid struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Shape   [2]int  `json:"shape" yaml:"shape"`
	Stride  int     `json:"stride" yaml:"stride"`
	Spacing float64 `json:"spacing" yaml:"spacing"`
}

// DefaultGrid is a disabled, automatically shaped grid.
func DefaultGrid() Grid {
	return Grid{Shape: [2]int{-1, -1}, Stride: 1}
}

func (g Grid) stride() int {
	if g.Stride == 0 {
		return 1
	}
	if g.Stride < 0 {
		return -g.Stride
	}
	return g.Stride
}

func (g Grid) squares(nlayers int) int {
	return (nlayers + g.stride() - 1) / g.stride()
}

// ActualShape returns the (rows, cols) of the grid for nlayers layers.
func (g Grid) ActualShape(nlayers int) [2]int {
	if !g.Enabled || nlayers == 0 {
		return [2]int{1, 1}
	}
	n := g.squares(nlayers)
	rows, cols := g.Shape[0], g.Shape[1]
	switch {
	case rows == -1 && cols == -1:
		cols = int(math.Ceil(math.Sqrt(float64(n))))
		rows = ceilDiv(n, cols)
	case rows == -1:
		rows = ceilDiv(n, max(cols, 1))
	case cols == -1:
		cols = ceilDiv(n, max(rows, 1))
	}
	return [2]int{max(rows, 1), max(cols, 1)}
}

// Position returns the (row, col) cell of the layer at index.
func (g Grid) Position(index, nlayers int) [2]int {
	if !g.Enabled {
		return [2]int{0, 0}
	}
	shape := g.ActualShape(nlayers)
	adj := index / g.stride()
	if g.Stride < 0 {
		adj = g.squares(nlayers) - adj - 1
	}
	adj %= shape[0] * shape[1]
	if adj < 0 {
		adj += shape[0] * shape[1]
	}
	return [2]int{adj / shape[1], adj % shape[1]}
}

// CanvasSpacing is the gap between cells in pixels.
func (g Grid) CanvasSpacing(canvas [2]float64, nlayers int) float64 {
	if g.Spacing >= 1 {
		return g.Spacing
	}
	shape := g.ActualShape(nlayers)
	cell := math.Min(canvas[0]/float64(shape[0]), canvas[1]/float64(shape[1]))
	return g.Spacing * cell
}

// ViewboxSize is the canvas size of one cell. With the grid disabled it is
// the canvas itself.
func (g Grid) ViewboxSize(canvas [2]float64, nlayers int) [2]float64 {
	if !g.Enabled {
		return canvas
	}
	shape := g.ActualShape(nlayers)
	sp := g.CanvasSpacing(canvas, nlayers)
	var out [2]float64
	for i := range out {
		n := float64(shape[i])
		out[i] = (canvas[i] - sp*(n-1)) / n
	}
	return out
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }
