package layer

import (
	"fmt"
	"slices"

	"github.com/chazu/ndview/pkg/extent"
)

var _ Layer = (*Vectors)(nil)

// Vectors holds N-d arrows as position and projection pairs. The rendered
// tip is position + Length*projection.
type Vectors struct {
	base   Base
	ndim   int
	pos    [][]float64
	proj   [][]float64
	length float64

	view []int
}

// NewVectors builds a vectors layer from rows of [position, projection].
func NewVectors(data [][2][]float64, ndim int, length float64, opts Options) (*Vectors, error) {
	v := &Vectors{}
	if err := v.setData(data, ndim, length); err != nil {
		return nil, err
	}
	if err := Initialize(v, opts); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vectors) setData(data [][2][]float64, ndim int, length float64) error {
	if len(data) > 0 {
		ndim = len(data[0][0])
	}
	if ndim < 2 {
		ndim = 2
	}
	v.pos = make([][]float64, len(data))
	v.proj = make([][]float64, len(data))
	for i, row := range data {
		if len(row[0]) != ndim || len(row[1]) != ndim {
			return fmt.Errorf("%w: vector %d is not %d-D", ErrLayerData, i, ndim)
		}
		v.pos[i] = slices.Clone(row[0])
		v.proj[i] = slices.Clone(row[1])
	}
	if length == 0 {
		length = 1
	}
	v.ndim, v.length = ndim, length
	return nil
}

func (v *Vectors) Base() *Base { return &v.base }
func (v *Vectors) Kind() Kind { return KindVectors }
func (v *Vectors) NDim() int { return v.ndim }
func (v *Vectors) Len() int { return len(v.pos) }
func (v *Vectors) Length() float64 { return v.length }
func (v *Vectors) ViewIndices() []int { return slices.Clone(v.view) }

// SetLength changes the drawn length, which moves the tips.
func (v *Vectors) SetLength(l float64) {
	v.length = l
	v.base.InvalidateExtent()
}

// Tips returns position + Length*projection for every vector.
func (v *Vectors) Tips() [][]float64 {
	out := make([][]float64, len(v.pos))
	for i, p := range v.pos {
		t := make([]float64, len(p))
		for j := range p {
			t[j] = p[j] + v.length*v.proj[i][j]
		}
		out[i] = t
	}
	return out
}

// Positions returns the vector origins.
func (v *Vectors) Positions() [][]float64 { return cloneRows(v.pos) }

// DataExtent covers the origins and the tips.
func (v *Vectors) DataExtent() [2][]float64 {
	return extent.OfPoints(append(cloneRows(v.pos), v.Tips()...), v.ndim)
}

func (v *Vectors) AugmentedDataExtent() [2][]float64 { return v.DataExtent() }

func (v *Vectors) UpdateDisplayedData() {
	v.view = inSlice(v.pos, v.base.sliceInput, v.base.DataSlice())
}

// ValueAt returns the displayed vector whose origin is within half a data
// unit of the world position.
func (v *Vectors) ValueAt(world []float64) (Value, bool) {
	pos, err := v.base.WorldToData(world)
	if err != nil {
		return Value{}, false
	}
	disp := v.base.sliceInput.Displayed()
	for _, i := range v.view {
		if dist(v.pos[i], pos, disp) <= 0.5 {
			return Value{Kind: KindVectors, Index: i}, true
		}
	}
	return Value{}, false
}
