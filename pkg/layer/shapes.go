package layer

import (
	"fmt"
	"math"
	"slices"

	"github.com/chazu/ndview/pkg/extent"
	"github.com/chazu/ndview/pkg/shapes"
	"github.com/chazu/ndview/pkg/triangulate"
)

var _ Layer = (*Shapes)(nil)

// ShapeSpec describes one shape to add to a Shapes layer.
type ShapeSpec struct {
	Kind      shapes.Kind
	Data      [][]float64
	EdgeWidth float64
	ZIndex    int
}

// Shapes is a list of 2D shapes embedded in N-d data.
type Shapes struct {
	base    Base
	ndim    int
	backend triangulate.Backend
	list    []*shapes.Shape

	view  []int
	index *shapes.Index
}

// NewShapes builds a shapes layer. ndim is only consulted when specs is
// empty. A nil backend uses the pure triangulator.
func NewShapes(specs []ShapeSpec, ndim int, backend triangulate.Backend, opts Options) (*Shapes, error) {
	if len(specs) > 0 && len(specs[0].Data) > 0 {
		ndim = len(specs[0].Data[0])
	}
	l := &Shapes{ndim: max(ndim, 2), backend: backend}
	for i, sp := range specs {
		s, err := l.build(sp)
		if err != nil {
			return nil, fmt.Errorf("layer: shape %d: %w", i, err)
		}
		l.list = append(l.list, s)
	}
	if err := Initialize(l, opts); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Shapes) build(sp ShapeSpec) (*shapes.Shape, error) {
	for _, row := range sp.Data {
		if len(row) != l.ndim {
			return nil, fmt.Errorf("%w: shape vertex has %d coordinates, want %d", ErrLayerData, len(row), l.ndim)
		}
	}
	return shapes.New(sp.Kind, sp.Data, shapes.Options{
		EdgeWidth: sp.EdgeWidth,
		ZIndex:    sp.ZIndex,
		Backend:   l.backend,
	})
}

func (l *Shapes) Base() *Base { return &l.base }
func (l *Shapes) Kind() Kind { return KindShapes }
func (l *Shapes) NDim() int { return l.ndim }
func (l *Shapes) Len() int { return len(l.list) }
func (l *Shapes) Shape(i int) *shapes.Shape { return l.list[i] }
func (l *Shapes) ViewIndices() []int { return slices.Clone(l.view) }

// Add appends a shape and re-slices.
func (l *Shapes) Add(sp ShapeSpec) error {
	s, err := l.build(sp)
	if err != nil {
		return err
	}
	l.list = append(l.list, s)
	l.base.InvalidateExtent()
	l.UpdateDisplayedData()
	return nil
}

// DataExtent is the union of the shapes' data bounding boxes.
func (l *Shapes) DataExtent() [2][]float64 {
	boxes := make([][2][]float64, len(l.list))
	for i, s := range l.list {
		boxes[i] = s.DataBoundingBox()
	}
	if len(boxes) == 0 {
		return extent.OfPoints(nil, l.ndim)
	}
	return extent.Union(l.ndim, boxes...)
}

// AugmentedDataExtent grows the data extent by half the widest edge.
func (l *Shapes) AugmentedDataExtent() [2][]float64 {
	var w float64
	for _, s := range l.list {
		w = math.Max(w, s.EdgeWidth())
	}
	return extent.Inflate(l.DataExtent(), w/2)
}

// UpdateDisplayedData pushes the layer's displayed dims into every shape,
// keeps the shapes whose slice key spans the current slice point and
// rebuilds the spatial index for 2D views.
func (l *Shapes) UpdateDisplayedData() {
	in := l.base.sliceInput
	if in.NDim() != l.ndim {
		return
	}
	point := l.base.DataSlice().Point
	notDisp := in.NotDisplayed()

	l.view = l.view[:0]
	for i, s := range l.list {
		if err := s.SetDimsOrder(in.Order); err != nil {
			l.base.logger().Error("shape dims order", "shape", i, "err", err)
			continue
		}
		if err := s.SetNDisplay(in.NDisplay); err != nil {
			l.base.logger().Error("shape ndisplay", "shape", i, "err", err)
			continue
		}
		if onSlice(s.SliceKey(), point, notDisp) {
			l.view = append(l.view, i)
		}
	}

	l.index = nil
	if in.NDisplay != 2 {
		return
	}
	visible := make([]*shapes.Shape, len(l.view))
	for k, i := range l.view {
		visible[k] = l.list[i]
	}
	ix, err := shapes.NewIndex(visible)
	if err != nil {
		l.base.logger().Error("shape index", "err", err)
		return
	}
	l.index = ix
}

func onSlice(key *[2][]int, point []float64, axes []int) bool {
	if key == nil {
		return false
	}
	for _, ax := range axes {
		if math.IsNaN(point[ax]) {
			continue
		}
		p := int(math.Round(point[ax]))
		if p < key[0][ax] || p > key[1][ax] {
			return false
		}
	}
	return true
}

// ValueAt returns the topmost displayed shape containing the world
// position.
func (l *Shapes) ValueAt(world []float64) (Value, bool) {
	if l.index == nil {
		return Value{}, false
	}
	pos, err := l.base.WorldToData(world)
	if err != nil {
		return Value{}, false
	}
	k, ok := l.index.At(pick(pos, l.base.sliceInput.Displayed()))
	if !ok {
		return Value{}, false
	}
	return Value{Kind: KindShapes, Index: l.view[k]}, true
}

// ToMasks rasterizes every shape into a mask of maskShape at unit zoom.
func (l *Shapes) ToMasks(maskShape []int) ([]*shapes.Mask, error) {
	out := make([]*shapes.Mask, len(l.list))
	for i, s := range l.list {
		m, err := s.ToMask(maskShape, 1, [2]float64{})
		if err != nil {
			return nil, fmt.Errorf("layer: mask of shape %d: %w", i, err)
		}
		out[i] = m
	}
	return out, nil
}
