package layer

import (
	"fmt"
	"math"
	"slices"

	"github.com/chazu/ndview/pkg/extent"
	"github.com/chazu/ndview/pkg/slicing"
)

var _ Layer = (*Points)(nil)

// DefaultPointSize is the diameter given to points without a size.
const DefaultPointSize = 10.0

// Points is a set of N-d points with a per-point diameter.
type Points struct {
	base  Base
	ndim  int
	data  [][]float64
	sizes []float64

	view []int
}

// NewPoints builds a points layer. ndim is only consulted when data is
// empty; size <= 0 uses DefaultPointSize.
func NewPoints(data [][]float64, ndim int, size float64, opts Options) (*Points, error) {
	p := &Points{}
	if err := p.setData(data, ndim, size); err != nil {
		return nil, err
	}
	if err := Initialize(p, opts); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Points) setData(data [][]float64, ndim int, size float64) error {
	if len(data) > 0 {
		ndim = len(data[0])
	}
	if ndim < 2 {
		ndim = 2
	}
	for i, row := range data {
		if len(row) != ndim {
			return fmt.Errorf("%w: point %d has %d coordinates, want %d", ErrLayerData, i, len(row), ndim)
		}
	}
	if size <= 0 {
		size = DefaultPointSize
	}
	p.ndim = ndim
	p.data = cloneRows(data)
	p.sizes = make([]float64, len(data))
	for i := range p.sizes {
		p.sizes[i] = size
	}
	return nil
}

func (p *Points) Base() *Base { return &p.base }
func (p *Points) Kind() Kind { return KindPoints }
func (p *Points) NDim() int { return p.ndim }
func (p *Points) Len() int { return len(p.data) }
func (p *Points) Data() [][]float64 { return cloneRows(p.data) }
func (p *Points) Sizes() []float64 { return slices.Clone(p.sizes) }
func (p *Points) ViewIndices() []int { return slices.Clone(p.view) }

// SetData replaces the points with the given diameter.
func (p *Points) SetData(data [][]float64, size float64) error {
	if err := p.setData(data, p.ndim, size); err != nil {
		return err
	}
	p.base.InvalidateExtent()
	p.base.UpdateDims()
	p.UpdateDisplayedData()
	return nil
}

// SetSizes replaces the per-point diameters.
func (p *Points) SetSizes(sizes []float64) error {
	if len(sizes) != len(p.data) {
		return fmt.Errorf("%w: %d sizes for %d points", ErrLayerData, len(sizes), len(p.data))
	}
	p.sizes = slices.Clone(sizes)
	p.base.InvalidateExtent()
	return nil
}

// Add appends a point.
func (p *Points) Add(pt []float64, size float64) error {
	if len(pt) != p.ndim {
		return fmt.Errorf("%w: point has %d coordinates, want %d", ErrLayerData, len(pt), p.ndim)
	}
	if size <= 0 {
		size = DefaultPointSize
	}
	p.data = append(p.data, slices.Clone(pt))
	p.sizes = append(p.sizes, size)
	p.base.InvalidateExtent()
	p.UpdateDisplayedData()
	return nil
}

// DataExtent is the bounding box of the points, NaN when empty.
func (p *Points) DataExtent() [2][]float64 { return extent.OfPoints(p.data, p.ndim) }

// AugmentedDataExtent grows the box by the largest radius.
func (p *Points) AugmentedDataExtent() [2][]float64 {
	var r float64
	for _, s := range p.sizes {
		r = math.Max(r, s/2)
	}
	return extent.Inflate(p.DataExtent(), r)
}

func (p *Points) UpdateDisplayedData() {
	p.view = inSlice(p.data, p.base.sliceInput, p.base.DataSlice())
}

// ValueAt returns the topmost displayed point whose disk contains the
// world position.
func (p *Points) ValueAt(world []float64) (Value, bool) {
	pos, err := p.base.WorldToData(world)
	if err != nil {
		return Value{}, false
	}
	disp := p.base.sliceInput.Displayed()
	for k := len(p.view) - 1; k >= 0; k-- {
		i := p.view[k]
		if dist(p.data[i], pos, disp) <= p.sizes[i]/2 {
			return Value{Kind: KindPoints, Index: i}, true
		}
	}
	return Value{}, false
}

// ValueAtRay returns the displayed point closest to the camera along the
// view ray through a world click in 3D.
func (p *Points) ValueAtRay(world, viewDirection []float64) (Value, bool) {
	start, end := p.base.ClickRay(world, viewDirection)
	if start == nil {
		return Value{}, false
	}
	disp := p.base.sliceInput.Displayed()
	a, b := pick(start, disp), pick(end, disp)
	best, bestT := -1, math.Inf(1)
	for _, i := range p.view {
		q := pick(p.data[i], disp)
		t, d := segmentDistance(q, a, b)
		if d <= p.sizes[i]/2 && t < bestT {
			best, bestT = i, t
		}
	}
	if best < 0 {
		return Value{}, false
	}
	return Value{Kind: KindPoints, Index: best}, true
}

// inSlice returns the indices of rows inside the current thick slice on
// the not-displayed axes. Without margins a row is inside when it rounds
// onto the slice point; with margins it must lie within them.
func inSlice(rows [][]float64, in slicing.SliceInput, ds slicing.ThickNDSlice) []int {
	notDisp := in.NotDisplayed()
	out := make([]int, 0, len(rows))
	for i, r := range rows {
		inside := true
		for _, ax := range notDisp {
			pt := ds.Point[ax]
			if math.IsNaN(pt) {
				continue
			}
			l, h := ds.MarginLeft[ax], ds.MarginRight[ax]
			if l == 0 && h == 0 {
				inside = math.Abs(r[ax]-pt) < 0.5
			} else {
				inside = r[ax] >= pt-l && r[ax] <= pt+h
			}
			if !inside {
				break
			}
		}
		if inside {
			out = append(out, i)
		}
	}
	return out
}

func dist(a, b []float64, axes []int) float64 {
	var s float64
	for _, ax := range axes {
		d := a[ax] - b[ax]
		s += d * d
	}
	return math.Sqrt(s)
}

// segmentDistance returns the parameter of the projection of q onto the
// segment ab, clamped to [0, 1], and the distance from q to it.
func segmentDistance(q, a, b []float64) (float64, float64) {
	var ab2, t float64
	for i := range a {
		d := b[i] - a[i]
		ab2 += d * d
		t += (q[i] - a[i]) * d
	}
	if ab2 > 0 {
		t = math.Max(0, math.Min(1, t/ab2))
	} else {
		t = 0
	}
	var s float64
	for i := range a {
		d := a[i] + t*(b[i]-a[i]) - q[i]
		s += d * d
	}
	return t, math.Sqrt(s)
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out
}
