package triangulate

import (
	"fmt"
	"math"

	"github.com/chazu/ndview/pkg/geometry"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// MiterLimit is the longest miter, in half-widths, kept before a join is
// beveled.
const MiterLimit = 3.0

// EdgeRibbon builds the outline ribbon of a 2D or 3D path. Every path
// vertex contributes a pair of ribbon vertices offset by ±half the miter
// vector; joins whose miter exceeds MiterLimit, and hairpins, are beveled
// with an extra center vertex. Each segment is one quad of two triangles.
func EdgeRibbon(path [][]float64, closed bool) (Edge, error) {
	n := len(path)
	if n < 2 {
		return Edge{}, nil
	}
	d := len(path[0])
	if d != 2 && d != 3 {
		return Edge{}, fmt.Errorf("triangulate: edge: %d-dimensional path", d)
	}
	if closed && n == 2 {
		closed = false
	}

	nseg := n - 1
	if closed {
		nseg = n
	}
	normals := make([][]float64, nseg)
	var plane r3.Vec
	if d == 3 {
		nn := geometry.NewellNormal(path)
		plane = r3.Vec{X: nn[0], Y: nn[1], Z: nn[2]}
	}
	for s := 0; s < nseg; s++ {
		a, b := path[s], path[(s+1)%n]
		if d == 2 {
			normals[s] = normal2(a, b)
		} else {
			normals[s] = normal3(a, b, plane)
		}
	}

	var e Edge
	add := func(c, off []float64) int {
		e.Centers = append(e.Centers, c)
		e.Offsets = append(e.Offsets, off)
		return len(e.Centers) - 1
	}
	// in/out hold the (+, -) vertex pair that the incoming and outgoing
	// segment quads attach to.
	in := make([][2]int, n)
	out := make([][2]int, n)
	for i := 0; i < n; i++ {
		p := path[i]
		var nin, nout []float64
		switch {
		case closed:
			nin, nout = normals[(i-1+nseg)%nseg], normals[i]
		case i == 0:
			nin, nout = normals[0], normals[0]
		case i == n-1:
			nin, nout = normals[nseg-1], normals[nseg-1]
		default:
			nin, nout = normals[i-1], normals[i]
		}

		miter, ok := miterVector(nin, nout)
		if ok {
			plus := add(p, scaled(miter, 0.5))
			minus := add(p, scaled(miter, -0.5))
			in[i] = [2]int{plus, minus}
			out[i] = in[i]
			continue
		}
		inPlus := add(p, scaled(nin, 0.5))
		inMinus := add(p, scaled(nin, -0.5))
		outPlus := add(p, scaled(nout, 0.5))
		outMinus := add(p, scaled(nout, -0.5))
		center := add(p, make([]float64, d))
		in[i] = [2]int{inPlus, inMinus}
		out[i] = [2]int{outPlus, outMinus}
		e.Triangles = append(e.Triangles,
			[3]int{center, inPlus, outPlus},
			[3]int{center, inMinus, outMinus},
		)
	}
	for s := 0; s < nseg; s++ {
		a, b := out[s], in[(s+1)%n]
		e.Triangles = append(e.Triangles,
			[3]int{a[0], a[1], b[0]},
			[3]int{a[1], b[1], b[0]},
		)
	}
	return e, nil
}

// miterVector returns (nin+nout)/(1+nin·nout), whose projection on each
// segment normal is 1. ok is false when the join should be beveled.
func miterVector(nin, nout []float64) ([]float64, bool) {
	denom := 1 + floats.Dot(nin, nout)
	if denom < 1e-9 {
		return nil, false
	}
	m := make([]float64, len(nin))
	floats.AddTo(m, nin, nout)
	floats.Scale(1/denom, m)
	if floats.Dot(m, m) > MiterLimit*MiterLimit {
		return nil, false
	}
	return m, true
}

func scaled(v []float64, s float64) []float64 {
	out := append([]float64(nil), v...)
	floats.Scale(s, out)
	return out
}

func normal2(a, b []float64) []float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l := math.Hypot(dx, dy)
	if l == 0 {
		return []float64{0, 0}
	}
	return []float64{-dy / l, dx / l}
}

// normal3 is the in-plane normal of segment ab for a path whose plane
// normal is plane. Straight or degenerate paths have no plane; the segment
// is then offset along the axis it is least aligned with.
func normal3(a, b []float64, plane r3.Vec) []float64 {
	dir := r3.Sub(geometry.Vec(b), geometry.Vec(a))
	if r3.Norm(dir) == 0 {
		return []float64{0, 0, 0}
	}
	n := r3.Cross(plane, dir)
	if r3.Norm(n) < 1e-12*r3.Norm(dir)*math.Max(1, r3.Norm(plane)) {
		n = r3.Cross(dir, leastAlignedAxis(dir))
	}
	return geometry.Slice(r3.Unit(n))
}

func leastAlignedAxis(v r3.Vec) r3.Vec {
	x, y, z := math.Abs(v.X), math.Abs(v.Y), math.Abs(v.Z)
	switch {
	case x <= y && x <= z:
		return r3.Vec{X: 1}
	case y <= z:
		return r3.Vec{Y: 1}
	default:
		return r3.Vec{Z: 1}
	}
}
