package layer

import (
	"fmt"
	"math"
	"slices"
)

var _ Layer = (*Image)(nil)

// Image is a dense N-d array of samples, optionally multiscale. A labels
// layer is an image whose samples are integer labels.
type Image struct {
	base   Base
	labels bool
	shape  []int
	data   []float64

	sliceIndex []int
}

// NewImage builds an image of the given shape. data is row-major and may
// be nil for a zero image. levels > 1 declares a multiscale pyramid that
// halves every axis per level.
func NewImage(shape []int, data []float64, levels int, opts Options) (*Image, error) {
	im, err := newImage(shape, data, false)
	if err != nil {
		return nil, err
	}
	if err := Initialize(im, opts); err != nil {
		return nil, err
	}
	im.base.SetMultiscale(pyramid(shape, levels))
	return im, nil
}

// NewLabels builds a labels layer.
func NewLabels(shape []int, data []int, opts Options) (*Image, error) {
	var vals []float64
	if data != nil {
		vals = make([]float64, len(data))
		for i, v := range data {
			vals[i] = float64(v)
		}
	}
	im, err := newImage(shape, vals, true)
	if err != nil {
		return nil, err
	}
	if err := Initialize(im, opts); err != nil {
		return nil, err
	}
	return im, nil
}

func newImage(shape []int, data []float64, labels bool) (*Image, error) {
	if len(shape) < 2 {
		return nil, fmt.Errorf("%w: image needs at least 2 dims, got shape %v", ErrLayerData, shape)
	}
	n := 1
	for _, s := range shape {
		if s < 0 {
			return nil, fmt.Errorf("%w: negative size in shape %v", ErrLayerData, shape)
		}
		n *= s
	}
	if data != nil && len(data) != n {
		return nil, fmt.Errorf("%w: %d samples for shape %v", ErrLayerData, len(data), shape)
	}
	return &Image{labels: labels, shape: slices.Clone(shape), data: data}, nil
}

func pyramid(shape []int, levels int) [][]int {
	out := [][]int{slices.Clone(shape)}
	for l := 1; l < levels; l++ {
		prev := out[l-1]
		next := make([]int, len(prev))
		for i, s := range prev {
			next[i] = max((s+1)/2, 1)
		}
		out = append(out, next)
	}
	return out
}

func (im *Image) Base() *Base { return &im.base }

func (im *Image) Kind() Kind {
	if im.labels {
		return KindLabels
	}
	return KindImage
}

func (im *Image) NDim() int { return len(im.shape) }
func (im *Image) Shape() []int { return slices.Clone(im.shape) }
func (im *Image) Data() []float64 { return im.data }

// SliceIndex is the integer index on each not-displayed axis of the
// current slice, and -1 on displayed axes.
func (im *Image) SliceIndex() []int { return slices.Clone(im.sliceIndex) }

// DataExtent spans the sample centers.
func (im *Image) DataExtent() [2][]float64 {
	lo := make([]float64, len(im.shape))
	hi := make([]float64, len(im.shape))
	for i, s := range im.shape {
		if s == 0 {
			return emptyBox(len(im.shape))
		}
		hi[i] = float64(s - 1)
	}
	return [2][]float64{lo, hi}
}

// AugmentedDataExtent adds half a pixel around the sample centers.
func (im *Image) AugmentedDataExtent() [2][]float64 {
	e := im.DataExtent()
	for i := range e[0] {
		e[0][i] -= 0.5
		e[1][i] += 0.5
	}
	return e
}

// SetData replaces the samples and the shape.
func (im *Image) SetData(shape []int, data []float64) error {
	next, err := newImage(shape, data, im.labels)
	if err != nil {
		return err
	}
	im.shape, im.data = next.shape, next.data
	im.base.SetMultiscale([][]int{next.shape})
	im.base.InvalidateExtent()
	im.base.UpdateDims()
	im.UpdateDisplayedData()
	return nil
}

func (im *Image) UpdateDisplayedData() {
	ds := im.base.DataSlice()
	idx := make([]int, len(im.shape))
	for i := range idx {
		idx[i] = -1
	}
	for _, ax := range im.base.sliceInput.NotDisplayed() {
		p := ds.Point[ax]
		if math.IsNaN(p) {
			p = 0
		}
		idx[ax] = clampInt(int(math.Round(p)), 0, max(im.shape[ax]-1, 0))
	}
	im.sliceIndex = idx
}

func (im *Image) offset(pos []float64) (int, bool) {
	off := 0
	for i, s := range im.shape {
		k := int(math.Round(pos[i]))
		if k < 0 || k >= s {
			return 0, false
		}
		off = off*s + k
	}
	return off, true
}

// ValueAt returns the sample nearest to a world position.
func (im *Image) ValueAt(world []float64) (Value, bool) {
	pos, err := im.base.WorldToData(world)
	if err != nil {
		return Value{}, false
	}
	off, ok := im.offset(pos)
	if !ok {
		return Value{}, false
	}
	v := Value{Kind: im.Kind(), Index: -1}
	if im.data != nil {
		v.Data = im.data[off]
	}
	return v, true
}
