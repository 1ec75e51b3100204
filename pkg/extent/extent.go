// Package extent computes layer bounding boxes in data and world space and
// caches them until the layer invalidates them.
package extent

import (
	"math"

	"github.com/chazu/ndview/pkg/transform"
	"gonum.org/v1/gonum/floats"
)

// Extent is a layer's bounding box: Data and World hold per-axis minimum
// (index 0) and maximum (index 1); Step is the world-space sample spacing.
type Extent struct {
	Data  [2][]float64
	World [2][]float64
	Step  []float64
}

// NDim returns the number of axes.
func (e Extent) NDim() int { return len(e.Data[0]) }

// Corners returns all 2^D corners of the box.
func Corners(box [2][]float64) [][]float64 {
	n := len(box[0])
	out := make([][]float64, 0, 1<<n)
	for mask := 0; mask < 1<<n; mask++ {
		c := make([]float64, n)
		for i := 0; i < n; i++ {
			c[i] = box[(mask>>i)&1][i]
		}
		out = append(out, c)
	}
	return out
}

// World maps every corner of the data box through t and returns the
// per-axis min and max of the mapped corners. Under rotation or shear the
// mapped min and max corners are not the images of the data min and max.
func World(data [2][]float64, t *transform.Affine) [2][]float64 {
	n := len(data[0])
	lo := make([]float64, n)
	hi := make([]float64, n)
	for i := range lo {
		lo[i] = math.Inf(1)
		hi[i] = math.Inf(-1)
	}
	for _, c := range Corners(data) {
		m := t.Apply(c)
		for i, v := range m {
			lo[i] = math.Min(lo[i], v)
			hi[i] = math.Max(hi[i], v)
		}
	}
	return [2][]float64{lo, hi}
}

// Compute builds a full Extent from a data box and a data-to-world transform.
func Compute(data [2][]float64, dataToWorld *transform.Affine) Extent {
	step := dataToWorld.Scale()
	for i := range step {
		step[i] = math.Abs(step[i])
	}
	return Extent{
		Data:  [2][]float64{append([]float64(nil), data[0]...), append([]float64(nil), data[1]...)},
		World: World(data, dataToWorld),
		Step:  step,
	}
}

// Inflate returns box grown by pad on both sides of every axis.
func Inflate(box [2][]float64, pad float64) [2][]float64 {
	lo := append([]float64(nil), box[0]...)
	hi := append([]float64(nil), box[1]...)
	floats.AddConst(-pad, lo)
	floats.AddConst(pad, hi)
	return [2][]float64{lo, hi}
}

// OfPoints returns the per-axis min and max of a point set. An empty set
// yields NaN bounds of width ndim.
func OfPoints(pts [][]float64, ndim int) [2][]float64 {
	lo := make([]float64, ndim)
	hi := make([]float64, ndim)
	if len(pts) == 0 {
		for i := range lo {
			lo[i] = math.NaN()
			hi[i] = math.NaN()
		}
		return [2][]float64{lo, hi}
	}
	copy(lo, pts[0])
	copy(hi, pts[0])
	for _, p := range pts[1:] {
		for i := 0; i < ndim; i++ {
			lo[i] = math.Min(lo[i], p[i])
			hi[i] = math.Max(hi[i], p[i])
		}
	}
	return [2][]float64{lo, hi}
}

// Select returns the box restricted to the given axes.
func Select(box [2][]float64, axes []int) [2][]float64 {
	lo := make([]float64, len(axes))
	hi := make([]float64, len(axes))
	for i, ax := range axes {
		lo[i] = box[0][ax]
		hi[i] = box[1][ax]
	}
	return [2][]float64{lo, hi}
}

// Union merges boxes of possibly different dimensionality, aligning their
// trailing axes, into an ndim box. NaN bounds are ignored; an axis with no
// finite bound stays NaN.
func Union(ndim int, boxes ...[2][]float64) [2][]float64 {
	lo := make([]float64, ndim)
	hi := make([]float64, ndim)
	for i := range lo {
		lo[i] = math.NaN()
		hi[i] = math.NaN()
	}
	for _, b := range boxes {
		off := ndim - len(b[0])
		for i := range b[0] {
			ax := i + off
			if ax < 0 {
				continue
			}
			if v := b[0][i]; !math.IsNaN(v) && (math.IsNaN(lo[ax]) || v < lo[ax]) {
				lo[ax] = v
			}
			if v := b[1][i]; !math.IsNaN(v) && (math.IsNaN(hi[ax]) || v > hi[ax]) {
				hi[ax] = v
			}
		}
	}
	return [2][]float64{lo, hi}
}

// Size returns max - min per axis.
func Size(box [2][]float64) []float64 {
	out := make([]float64, len(box[0]))
	floats.SubTo(out, box[1], box[0])
	return out
}
