// Package slicing models the N-dimensional thick slice requested by the
// dims model and derives the per-layer slice input from it.
package slicing

import (
	"math"
	"slices"

	"github.com/chazu/ndview/pkg/transform"
)

// ThickNDSlice is a slicing point with left and right margins per axis.
type ThickNDSlice struct {
	Point       []float64
	MarginLeft  []float64
	MarginRight []float64
}

// NewThickNDSlice returns a zero point with zero margins.
func NewThickNDSlice(ndim int) ThickNDSlice {
	return ThickNDSlice{
		Point:       make([]float64, ndim),
		MarginLeft:  make([]float64, ndim),
		MarginRight: make([]float64, ndim),
	}
}

// NDim returns the number of axes.
func (s ThickNDSlice) NDim() int { return len(s.Point) }

// Copy returns a deep copy.
func (s ThickNDSlice) Copy() ThickNDSlice {
	return ThickNDSlice{
		Point:       slices.Clone(s.Point),
		MarginLeft:  slices.Clone(s.MarginLeft),
		MarginRight: slices.Clone(s.MarginRight),
	}
}

// Subset returns the slice restricted to the given axes.
func (s ThickNDSlice) Subset(axes []int) ThickNDSlice {
	out := NewThickNDSlice(len(axes))
	for i, ax := range axes {
		out.Point[i] = s.Point[ax]
		out.MarginLeft[i] = s.MarginLeft[ax]
		out.MarginRight[i] = s.MarginRight[ax]
	}
	return out
}

// Last returns the trailing n axes. When the slice has fewer than n axes
// it is left-padded with zero points and margins.
func (s ThickNDSlice) Last(n int) ThickNDSlice {
	if n <= s.NDim() {
		off := s.NDim() - n
		return ThickNDSlice{
			Point:       slices.Clone(s.Point[off:]),
			MarginLeft:  slices.Clone(s.MarginLeft[off:]),
			MarginRight: slices.Clone(s.MarginRight[off:]),
		}
	}
	pad := n - s.NDim()
	out := NewThickNDSlice(n)
	copy(out.Point[pad:], s.Point)
	copy(out.MarginLeft[pad:], s.MarginLeft)
	copy(out.MarginRight[pad:], s.MarginRight)
	return out
}

// AsArray returns the 3×D array of point, left margin and right margin.
func (s ThickNDSlice) AsArray() [3][]float64 {
	c := s.Copy()
	return [3][]float64{c.Point, c.MarginLeft, c.MarginRight}
}

// Equal reports element-wise equality; NaN equals NaN.
func (s ThickNDSlice) Equal(o ThickNDSlice) bool {
	return floatsEqual(s.Point, o.Point) &&
		floatsEqual(s.MarginLeft, o.MarginLeft) &&
		floatsEqual(s.MarginRight, o.MarginRight)
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] && !(math.IsNaN(a[i]) && math.IsNaN(b[i])) {
			return false
		}
	}
	return true
}

// SliceInput is the slice request for a single layer: the display
// dimensionality, the thick slice over the layer's axes and the axis order.
// The last NDisplay entries of Order are the displayed axes.
type SliceInput struct {
	NDisplay   int
	WorldSlice ThickNDSlice
	Order      []int
}

// NDim returns the number of layer axes.
func (s SliceInput) NDim() int { return len(s.Order) }

// Displayed returns the displayed axes in display order.
func (s SliceInput) Displayed() []int {
	n := min(s.NDisplay, len(s.Order))
	return slices.Clone(s.Order[len(s.Order)-n:])
}

// NotDisplayed returns the axes that are sliced through.
func (s SliceInput) NotDisplayed() []int {
	n := min(s.NDisplay, len(s.Order))
	return slices.Clone(s.Order[:len(s.Order)-n])
}

// Equal gates re-slicing: a layer whose new input equals the cached one
// needs no recomputation.
func (s SliceInput) Equal(o SliceInput) bool {
	return s.NDisplay == o.NDisplay &&
		slices.Equal(s.Order, o.Order) &&
		s.WorldSlice.Equal(o.WorldSlice)
}

// DataSlice maps the world slice into data coordinates through worldToData
// restricted to the not-displayed axes. Displayed axes get NaN points and
// zero margins. Margins are mapped as distances from the mapped point.
func (s SliceInput) DataSlice(worldToData *transform.Affine) ThickNDSlice {
	n := s.NDim()
	out := NewThickNDSlice(n)
	for i := range out.Point {
		out.Point[i] = math.NaN()
	}
	notDisplayed := s.NotDisplayed()
	if len(notDisplayed) == 0 {
		return out
	}
	sub := worldToData.SetSlice(notDisplayed)
	ws := s.WorldSlice.Subset(notDisplayed)

	lo := make([]float64, len(notDisplayed))
	hi := make([]float64, len(notDisplayed))
	for i := range notDisplayed {
		lo[i] = ws.Point[i] - ws.MarginLeft[i]
		hi[i] = ws.Point[i] + ws.MarginRight[i]
	}
	p := sub.Apply(ws.Point)
	pl := sub.Apply(lo)
	ph := sub.Apply(hi)
	for i, ax := range notDisplayed {
		out.Point[ax] = p[i]
		out.MarginLeft[ax] = math.Abs(p[i] - pl[i])
		out.MarginRight[ax] = math.Abs(ph[i] - p[i])
	}
	return out
}
