package shapes

import (
	"fmt"
	"math"

	"github.com/chazu/ndview/pkg/geometry"
	"github.com/chazu/ndview/pkg/triangulate"
)

// Matrix is a 2x2 linear map applied to displayed coordinates as p' = M p.
type Matrix [2][2]float64

func (m Matrix) apply(p []float64) {
	x, y := p[0], p[1]
	p[0] = m[0][0]*x + m[0][1]*y
	p[1] = m[1][0]*x + m[1][1]*y
}

// Transform applies m to the box, the displayed data and the face
// vertices, then rebuilds the edge ribbon from the transformed outline.
// The face is not re-triangulated since a linear map keeps its topology.
func (s *Shape) Transform(m Matrix) error {
	if s.ndisplay != 2 {
		return ErrNDisplay
	}
	for i := range s.box {
		p := s.box[i][:]
		m.apply(p)
	}
	dd := s.DimsDisplayed()
	for _, row := range s.data {
		p := []float64{row[dd[0]], row[dd[1]]}
		m.apply(p)
		row[dd[0]], row[dd[1]] = p[0], p[1]
	}
	s.displayedDirty = true
	for _, p := range s.faceVertices {
		m.apply(p)
	}

	outline := s.DataDisplayed()
	if s.useFaceVertices {
		outline = s.faceVertices[1:]
	}
	outline = geometry.RemovePathDuplicates(outline, s.closed)
	mesh, err := triangulate.Run(s.backend, outline, s.closed, false, true)
	if err != nil {
		return fmt.Errorf("shapes: transform: %w", err)
	}
	s.setEdge(mesh.Edge)
	s.boundingBox = dataBounds(s.data)
	return nil
}

// Shift translates the shape in the displayed plane. Translation keeps the
// ribbon offsets, so the edge is moved rather than rebuilt.
func (s *Shape) Shift(v [2]float64) error {
	if s.ndisplay != 2 {
		return ErrNDisplay
	}
	add := func(p []float64) {
		p[0] += v[0]
		p[1] += v[1]
	}
	for _, p := range s.faceVertices {
		add(p)
	}
	for _, p := range s.edgeVertices {
		add(p)
	}
	for i := range s.box {
		add(s.box[i][:])
	}
	dd := s.DimsDisplayed()
	for _, row := range s.data {
		row[dd[0]] += v[0]
		row[dd[1]] += v[1]
	}
	for i, ax := range dd {
		s.boundingBox[0][ax] += v[i]
		s.boundingBox[1][ax] += v[i]
	}
	s.displayedDirty = true
	return nil
}

// Scale scales the shape per displayed axis, about center when given and
// about the origin otherwise.
func (s *Shape) Scale(f [2]float64, center *[2]float64) error {
	return s.about(Matrix{{f[0], 0}, {0, f[1]}}, center)
}

// Rotate rotates the shape by deg degrees about center, or the origin.
func (s *Shape) Rotate(deg float64, center *[2]float64) error {
	t := deg * math.Pi / 180
	c, sn := math.Cos(t), math.Sin(t)
	return s.about(Matrix{{c, sn}, {-sn, c}}, center)
}

// Flip mirrors the shape across displayed axis 0 or 1 through center, or
// the origin.
func (s *Shape) Flip(axis int, center *[2]float64) error {
	var m Matrix
	switch axis {
	case 0:
		m = Matrix{{1, 0}, {0, -1}}
	case 1:
		m = Matrix{{-1, 0}, {0, 1}}
	default:
		return fmt.Errorf("%w: got %d", ErrFlipAxis, axis)
	}
	return s.about(m, center)
}

func (s *Shape) about(m Matrix, center *[2]float64) error {
	if center == nil {
		return s.Transform(m)
	}
	c := *center
	if err := s.Shift([2]float64{-c[0], -c[1]}); err != nil {
		return err
	}
	if err := s.Transform(m); err != nil {
		return err
	}
	return s.Shift(c)
}

// AllTriangles returns every face triangle followed by every edge triangle
// as vertex coordinates, the edge drawn at the current edge width.
func (s *Shape) AllTriangles() [][3][]float64 {
	out := make([][3][]float64, 0, s.TrianglesCount())
	for _, t := range s.faceTriangles {
		out = append(out, [3][]float64{
			s.faceVertices[t[0]], s.faceVertices[t[1]], s.faceVertices[t[2]],
		})
	}
	edge := make([][]float64, len(s.edgeVertices))
	for i, c := range s.edgeVertices {
		p := make([]float64, len(c))
		for j := range c {
			p[j] = c[j] + s.edgeWidth*s.edgeOffsets[i][j]
		}
		edge[i] = p
	}
	for _, t := range s.edgeTriangles {
		out = append(out, [3][]float64{edge[t[0]], edge[t[1]], edge[t[2]]})
	}
	return out
}

// Contains reports whether the displayed point p lies on the face or the
// rendered edge.
func (s *Shape) Contains(p []float64) bool {
	if len(p) != 2 || s.ndisplay != 2 {
		return false
	}
	for _, t := range s.AllTriangles() {
		if geometry.PointInTriangle(p, t[0], t[1], t[2]) {
			return true
		}
	}
	return false
}
