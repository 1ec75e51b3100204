// Package isosurface extracts the level set of a 3D image as surface
// vertices and faces, using sdfx marching cubes over a trilinear sampling
// of the image.
package isosurface

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/ndview/pkg/logging"
)

// DefaultCellsPerSample sets the marching cubes resolution relative to the
// longest image axis.
const DefaultCellsPerSample = 2

var ErrVolume = errors.New("isosurface: invalid volume")

// Options control extraction. Cells is the number of marching cubes cells
// along the longest axis; zero means DefaultCellsPerSample per sample.
type Options struct {
	Level float64
	Cells int
}

// volume is a 3D image seen as a signed distance function: negative where
// the sampled value is above the level. Outside the image bounds it is
// positive so the surface is always closed.
type volume struct {
	shape [3]int
	data  []float64
	level float64
	bb    sdf.Box3
}

var _ sdf.SDF3 = (*volume)(nil)

func newVolume(shape []int, data []float64, level float64) (*volume, error) {
	if len(shape) != 3 {
		return nil, fmt.Errorf("%w: need 3 dims, got shape %v", ErrVolume, shape)
	}
	n := 1
	for _, s := range shape {
		if s < 2 {
			return nil, fmt.Errorf("%w: every axis needs at least 2 samples, got shape %v", ErrVolume, shape)
		}
		n *= s
	}
	if len(data) != n {
		return nil, fmt.Errorf("%w: %d samples for shape %v", ErrVolume, len(data), shape)
	}
	v := &volume{shape: [3]int{shape[0], shape[1], shape[2]}, data: data, level: level}
	v.bb = sdf.Box3{
		Min: v3.Vec{},
		Max: v3.Vec{X: float64(shape[0] - 1), Y: float64(shape[1] - 1), Z: float64(shape[2] - 1)},
	}
	return v, nil
}

func (v *volume) BoundingBox() sdf.Box3 { return v.bb }

func (v *volume) Evaluate(p v3.Vec) float64 {
	q := [3]float64{p.X, p.Y, p.Z}
	out := 0.0
	for i := range q {
		hi := float64(v.shape[i] - 1)
		switch {
		case q[i] < 0:
			out = math.Max(out, -q[i])
			q[i] = 0
		case q[i] > hi:
			out = math.Max(out, q[i]-hi)
			q[i] = hi
		}
	}
	d := v.level - v.sample(q)
	if out > 0 {
		return math.Max(d, out)
	}
	return d
}

// sample interpolates trilinearly at an in-bounds position.
func (v *volume) sample(q [3]float64) float64 {
	var i0 [3]int
	var f [3]float64
	for i := range q {
		i0[i] = min(int(math.Floor(q[i])), v.shape[i]-2)
		f[i] = q[i] - float64(i0[i])
	}
	at := func(a, b, c int) float64 {
		return v.data[((i0[0]+a)*v.shape[1]+i0[1]+b)*v.shape[2]+i0[2]+c]
	}
	lerp := func(a, b, t float64) float64 { return a + (b-a)*t }
	c00 := lerp(at(0, 0, 0), at(1, 0, 0), f[0])
	c01 := lerp(at(0, 0, 1), at(1, 0, 1), f[0])
	c10 := lerp(at(0, 1, 0), at(1, 1, 0), f[0])
	c11 := lerp(at(0, 1, 1), at(1, 1, 1), f[0])
	return lerp(lerp(c00, c10, f[1]), lerp(c01, c11, f[1]), f[2])
}

// Extract returns the isosurface of a row-major 3D image at opts.Level as
// shared vertices in data coordinates and triangle faces. Samples above
// the level are inside. A volume entirely on one side of the level gives
// no faces.
func Extract(shape []int, data []float64, opts Options) ([][]float64, [][3]int, error) {
	vol, err := newVolume(shape, data, opts.Level)
	if err != nil {
		return nil, nil, err
	}
	cells := opts.Cells
	if cells <= 0 {
		cells = DefaultCellsPerSample * max(shape[0], shape[1], shape[2])
	}

	tris := render.ToTriangles(vol, render.NewMarchingCubesUniform(cells))

	index := make(map[[3]int64]int)
	var vertices [][]float64
	faces := make([][3]int, 0, len(tris))
	for _, tri := range tris {
		var face [3]int
		for j := 0; j < 3; j++ {
			p := tri[j]
			key := [3]int64{quantize(p.X), quantize(p.Y), quantize(p.Z)}
			k, ok := index[key]
			if !ok {
				k = len(vertices)
				index[key] = k
				vertices = append(vertices, []float64{p.X, p.Y, p.Z})
			}
			face[j] = k
		}
		if face[0] == face[1] || face[1] == face[2] || face[0] == face[2] {
			continue
		}
		faces = append(faces, face)
	}
	logging.WithComponent("isosurface").Debug("extracted",
		"shape", shape, "level", opts.Level, "cells", cells,
		"vertices", len(vertices), "faces", len(faces))
	return vertices, faces, nil
}

func quantize(x float64) int64 { return int64(math.Round(x * 1e6)) }
