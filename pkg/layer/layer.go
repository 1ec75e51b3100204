// Package layer implements the layer variants of the viewer and the shared
// Base that owns each layer's transform chain, extent cache and slice
// input.
package layer

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/chazu/ndview/pkg/transform"
)

// Kind names a layer variant.
type Kind string

const (
	KindImage   Kind = "image"
	KindLabels  Kind = "labels"
	KindPoints  Kind = "points"
	KindShapes  Kind = "shapes"
	KindSurface Kind = "surface"
	KindVectors Kind = "vectors"
	KindTracks  Kind = "tracks"
)

var (
	ErrLayerData = errors.New("layer: invalid layer data")
	ErrNotReady  = errors.New("layer: not initialized")
)

// Layer is implemented by every variant. DataExtent is in data
// coordinates; the augmented variant includes the rendered size of the
// data such as pixel width or point radius.
type Layer interface {
	Base() *Base
	Kind() Kind
	NDim() int
	DataExtent() [2][]float64
	AugmentedDataExtent() [2][]float64
	UpdateDisplayedData()
	ValueAt(world []float64) (Value, bool)
}

// Value is what a layer holds at a position. Index is the element index
// (point, shape, vector, vertex, track id) or -1 for pixel data.
type Value struct {
	Kind  Kind
	Index int
	Data  float64
}

// Options are the transform and naming settings shared by all
// constructors. Nil fields keep the identity.
type Options struct {
	Name       string
	Scale      []float64
	Translate  []float64
	Rotate     mat.Matrix
	Shear      []float64
	Affine     *transform.Affine
	Units      []string
	AxisLabels []string
	Hidden     bool
}

// RotateLastTwo returns the ndim×ndim rotation by deg degrees in the plane
// of the last two axes.
func RotateLastTwo(ndim int, deg float64) *mat.Dense {
	m := mat.NewDense(ndim, ndim, nil)
	for i := 0; i < ndim; i++ {
		m.Set(i, i, 1)
	}
	if ndim < 2 {
		return m
	}
	r := transform.RotationMatrix2D(deg)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			m.Set(ndim-2+i, ndim-2+j, r.At(i, j))
		}
	}
	return m
}

// Initialize runs the second construction phase of l: it binds the base
// to its owner, applies the options and computes the first extent and
// slice.
func Initialize(l Layer, opts Options) error {
	b := l.Base()
	if err := b.bind(l, opts); err != nil {
		return fmt.Errorf("layer: %s %q: %w", l.Kind(), opts.Name, err)
	}
	b.Extent()
	b.RefreshSlice(nil, true)
	return nil
}

func emptyBox(ndim int) [2][]float64 {
	lo := make([]float64, ndim)
	hi := make([]float64, ndim)
	for i := range hi {
		hi[i] = 1
	}
	return [2][]float64{lo, hi}
}
