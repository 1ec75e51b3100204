package layer

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/ndview/pkg/extent"
	"github.com/chazu/ndview/pkg/geometry"
)

var _ Layer = (*Surface)(nil)

// Surface is a triangle mesh with one value per vertex.
type Surface struct {
	base     Base
	ndim     int
	vertices [][]float64
	faces    [][3]int
	values   []float64

	view []int
}

// NewSurface builds a surface layer. A nil values slice gives every vertex
// the value 1.
func NewSurface(vertices [][]float64, faces [][3]int, values []float64, opts Options) (*Surface, error) {
	s := &Surface{}
	if err := s.setData(vertices, faces, values); err != nil {
		return nil, err
	}
	if err := Initialize(s, opts); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Surface) setData(vertices [][]float64, faces [][3]int, values []float64) error {
	ndim := 3
	if len(vertices) > 0 {
		ndim = len(vertices[0])
	}
	if ndim < 2 {
		return fmt.Errorf("%w: surface vertices need at least 2 coordinates", ErrLayerData)
	}
	for i, v := range vertices {
		if len(v) != ndim {
			return fmt.Errorf("%w: vertex %d has %d coordinates, want %d", ErrLayerData, i, len(v), ndim)
		}
	}
	for i, f := range faces {
		for _, k := range f {
			if k < 0 || k >= len(vertices) {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrLayerData, i, k, len(vertices))
			}
		}
	}
	if values == nil {
		values = make([]float64, len(vertices))
		for i := range values {
			values[i] = 1
		}
	}
	if len(values) != len(vertices) {
		return fmt.Errorf("%w: %d values for %d vertices", ErrLayerData, len(values), len(vertices))
	}
	s.ndim = ndim
	s.vertices = cloneRows(vertices)
	s.faces = slices.Clone(faces)
	s.values = slices.Clone(values)
	return nil
}

func (s *Surface) Base() *Base { return &s.base }
func (s *Surface) Kind() Kind { return KindSurface }
func (s *Surface) NDim() int { return s.ndim }
func (s *Surface) Vertices() [][]float64 { return cloneRows(s.vertices) }
func (s *Surface) Faces() [][3]int { return slices.Clone(s.faces) }
func (s *Surface) Values() []float64 { return slices.Clone(s.values) }

// ViewFaces returns the indices of the faces whose vertices all lie on the
// current slice.
func (s *Surface) ViewFaces() []int { return slices.Clone(s.view) }

func (s *Surface) DataExtent() [2][]float64 { return extent.OfPoints(s.vertices, s.ndim) }

func (s *Surface) AugmentedDataExtent() [2][]float64 { return s.DataExtent() }

func (s *Surface) UpdateDisplayedData() {
	on := inSlice(s.vertices, s.base.sliceInput, s.base.DataSlice())
	mark := make([]bool, len(s.vertices))
	for _, i := range on {
		mark[i] = true
	}
	s.view = s.view[:0]
	for i, f := range s.faces {
		if mark[f[0]] && mark[f[1]] && mark[f[2]] {
			s.view = append(s.view, i)
		}
	}
}

// ValueAt returns the value of the nearest displayed vertex within half a
// data unit of the world position.
func (s *Surface) ValueAt(world []float64) (Value, bool) {
	pos, err := s.base.WorldToData(world)
	if err != nil {
		return Value{}, false
	}
	disp := s.base.sliceInput.Displayed()
	best, bestD := -1, 0.5
	for _, fi := range s.view {
		for _, k := range s.faces[fi] {
			if d := dist(s.vertices[k], pos, disp); d <= bestD {
				best, bestD = k, d
			}
		}
	}
	if best < 0 {
		return Value{}, false
	}
	return Value{Kind: KindSurface, Index: best, Data: s.values[best]}, true
}

// ValueAtRay intersects the view ray through a world click with the
// displayed faces in 3D. The nearest hit's value is interpolated from its
// vertices with barycentric weights; Index is the face.
func (s *Surface) ValueAtRay(world, viewDirection []float64) (Value, bool) {
	disp := s.base.sliceInput.Displayed()
	if len(disp) != 3 {
		return Value{}, false
	}
	start, end := s.base.ClickRay(world, viewDirection)
	if start == nil {
		return Value{}, false
	}
	origin := geometry.Vec(pick(start, disp))
	dir := r3.Sub(geometry.Vec(pick(end, disp)), origin)
	if r3.Norm(dir) == 0 {
		return Value{}, false
	}
	dir = r3.Unit(dir)

	bestFace, bestT := -1, math.Inf(1)
	var bestHit r3.Vec
	for _, fi := range s.view {
		f := s.faces[fi]
		a := geometry.Vec(pick(s.vertices[f[0]], disp))
		b := geometry.Vec(pick(s.vertices[f[1]], disp))
		c := geometry.Vec(pick(s.vertices[f[2]], disp))
		t, ok := geometry.IntersectRayTriangle(origin, dir, a, b, c)
		if !ok || t >= bestT {
			continue
		}
		bestFace, bestT = fi, t
		bestHit = r3.Add(origin, r3.Scale(t, dir))
	}
	if bestFace < 0 {
		return Value{}, false
	}
	f := s.faces[bestFace]
	w := barycentric(bestHit,
		geometry.Vec(pick(s.vertices[f[0]], disp)),
		geometry.Vec(pick(s.vertices[f[1]], disp)),
		geometry.Vec(pick(s.vertices[f[2]], disp)))
	v := w[0]*s.values[f[0]] + w[1]*s.values[f[1]] + w[2]*s.values[f[2]]
	return Value{Kind: KindSurface, Index: bestFace, Data: v}, true
}

func barycentric(p, a, b, c r3.Vec) [3]float64 {
	v0, v1, v2 := r3.Sub(b, a), r3.Sub(c, a), r3.Sub(p, a)
	d00, d01, d11 := r3.Dot(v0, v0), r3.Dot(v0, v1), r3.Dot(v1, v1)
	d20, d21 := r3.Dot(v2, v0), r3.Dot(v2, v1)
	den := d00*d11 - d01*d01
	if den == 0 {
		return [3]float64{1, 0, 0}
	}
	v := (d11*d20 - d01*d21) / den
	w := (d00*d21 - d01*d20) / den
	return [3]float64{1 - v - w, v, w}
}
