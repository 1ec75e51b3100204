// Package geometry holds the free geometry helpers shared by layers, shapes
// and triangulation backends: ray and box picking in 3D and the 2D/3D
// polygon predicates used before triangulation.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// faceTol keeps faces nearly parallel to the ray from being chosen.
const faceTol = 1e-3

// Face identifies one side of an axis-aligned box by the axis it is
// perpendicular to and the sign of its outward normal.
type Face struct {
	Axis int
	Sign int // -1 for the min side, +1 for the max side
}

// Normal returns the outward unit normal of the face.
func (f Face) Normal() r3.Vec {
	var v [3]float64
	v[f.Axis] = float64(f.Sign)
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

var boxFaces = []Face{
	{0, -1}, {0, 1},
	{1, -1}, {1, 1},
	{2, -1}, {2, 1},
}

// Component returns the i-th coordinate of v.
func Component(v r3.Vec, i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// Vec builds a vector from a 3-element slice.
func Vec(p []float64) r3.Vec { return r3.Vec{X: p[0], Y: p[1], Z: p[2]} }

// Slice returns v as a 3-element slice.
func Slice(v r3.Vec) []float64 { return []float64{v.X, v.Y, v.Z} }

func boxPlane(box r3.Box, f Face) float64 {
	if f.Sign < 0 {
		return Component(box.Min, f.Axis)
	}
	return Component(box.Max, f.Axis)
}

// IntersectLineAxisPlane returns the point where the infinite line through
// origin along dir crosses the plane of face f of box.
func IntersectLineAxisPlane(origin, dir r3.Vec, box r3.Box, f Face) (r3.Vec, bool) {
	d := Component(dir, f.Axis)
	if d == 0 {
		return r3.Vec{}, false
	}
	t := (boxPlane(box, f) - Component(origin, f.Axis)) / d
	return r3.Add(origin, r3.Scale(t, dir)), true
}

func onFace(p r3.Vec, box r3.Box, f Face) bool {
	for ax := 0; ax < 3; ax++ {
		if ax == f.Axis {
			continue
		}
		v := Component(p, ax)
		if v < Component(box.Min, ax)-1e-9 || v > Component(box.Max, ax)+1e-9 {
			return false
		}
	}
	return true
}

// FrontBackFaces finds the face the line enters through (facing against
// dir) and the face it leaves through. The line is unbounded in both
// directions, so a point behind the box still picks through it. ok is false
// when the line misses the box.
func FrontBackFaces(origin, dir r3.Vec, box r3.Box) (front, back Face, ok bool) {
	var haveFront, haveBack bool
	for _, f := range boxFaces {
		dot := r3.Dot(dir, f.Normal())
		switch {
		case !haveFront && dot+faceTol < 0:
			if p, hit := IntersectLineAxisPlane(origin, dir, box, f); hit && onFace(p, box, f) {
				front, haveFront = f, true
			}
		case !haveBack && dot-faceTol > 0:
			if p, hit := IntersectLineAxisPlane(origin, dir, box, f); hit && onFace(p, box, f) {
				back, haveBack = f, true
			}
		}
		if haveFront && haveBack {
			return front, back, true
		}
	}
	return Face{}, Face{}, false
}

// IntersectRayBox returns the entry and exit points of the line through
// origin along dir with box.
func IntersectRayBox(origin, dir r3.Vec, box r3.Box) (start, end r3.Vec, ok bool) {
	front, back, ok := FrontBackFaces(origin, dir, box)
	if !ok {
		return r3.Vec{}, r3.Vec{}, false
	}
	start, _ = IntersectLineAxisPlane(origin, dir, box, front)
	end, _ = IntersectLineAxisPlane(origin, dir, box, back)
	return start, end, true
}

// IntersectRayTriangle is the Möller–Trumbore test on the infinite line.
// It returns the line parameter t of the hit.
func IntersectRayTriangle(origin, dir, a, b, c r3.Vec) (float64, bool) {
	const eps = 1e-12
	e1 := r3.Sub(b, a)
	e2 := r3.Sub(c, a)
	h := r3.Cross(dir, e2)
	det := r3.Dot(e1, h)
	if math.Abs(det) < eps {
		return 0, false
	}
	inv := 1 / det
	s := r3.Sub(origin, a)
	u := inv * r3.Dot(s, h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := r3.Cross(s, e1)
	v := inv * r3.Dot(dir, q)
	if v < 0 || u+v > 1 {
		return 0, false
	}
	return inv * r3.Dot(e2, q), true
}
