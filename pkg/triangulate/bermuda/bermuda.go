//go:build bermuda

// Package bermuda is the first accelerated triangulation backend. Convex
// faces are fanned in linear time, planar 3D faces are handled in any
// orientation and only non-convex polygons pay for ear clipping.
//
// Build with: go build -tags=bermuda
package bermuda

import (
	"math"

	"github.com/chazu/ndview/pkg/geometry"
	"github.com/chazu/ndview/pkg/triangulate"
	"github.com/chazu/ndview/pkg/triangulate/pure"
	"gonum.org/v1/gonum/spatial/r3"
)

// Available reports whether the backend is compiled in.
const Available = true

var (
	_ triangulate.Backend          = (*Backend)(nil)
	_ triangulate.PlanarFaceMesher = (*Backend)(nil)
)

// Backend implements triangulate.Backend.
type Backend struct{}

// New returns the bermuda backend.
func New() (triangulate.Backend, error) { return &Backend{}, nil }

func (*Backend) Name() triangulate.Kind { return triangulate.KindBermuda }

func (*Backend) EdgeMesh(path [][]float64, closed bool) (triangulate.Edge, error) {
	return triangulate.EdgeRibbon(path, closed)
}

func (*Backend) FaceMesh(poly [][]float64) (triangulate.Face, error) {
	if err := pure.Check2D(poly); err != nil {
		return triangulate.Face{}, err
	}
	verts := make([][]float64, len(poly))
	for i, p := range poly {
		verts[i] = []float64{p[0], p[1]}
	}
	return triangulate.Face{Vertices: verts, Triangles: triangles2D(verts)}, nil
}

// FaceMesh3D triangulates a planar 3D polygon in its own plane. Non-planar
// or degenerate input gives an empty face.
func (*Backend) FaceMesh3D(poly [][]float64) (triangulate.Face, error) {
	if len(poly) < 3 {
		return triangulate.Face{}, nil
	}
	nn := geometry.NewellNormal(poly)
	n := r3.Vec{X: nn[0], Y: nn[1], Z: nn[2]}
	if r3.Norm(n) == 0 {
		return triangulate.Face{}, nil
	}
	n = r3.Unit(n)

	origin := geometry.Vec(poly[0])
	var extent float64
	for _, p := range poly {
		extent = math.Max(extent, r3.Norm(r3.Sub(geometry.Vec(p), origin)))
	}
	for _, p := range poly {
		if math.Abs(r3.Dot(r3.Sub(geometry.Vec(p), origin), n)) > 1e-9*math.Max(1, extent) {
			return triangulate.Face{}, nil
		}
	}

	drop := dominantAxis(n)
	proj := make([][]float64, len(poly))
	verts := make([][]float64, len(poly))
	for i, p := range poly {
		q := make([]float64, 0, 2)
		for ax := 0; ax < 3; ax++ {
			if ax != drop {
				q = append(q, p[ax])
			}
		}
		proj[i] = q
		verts[i] = append([]float64(nil), p...)
	}
	return triangulate.Face{Vertices: verts, Triangles: triangles2D(proj)}, nil
}

func (b *Backend) Meshes(data [][]float64, closed, face, edge bool) (triangulate.Mesh, error) {
	if err := pure.CheckFinite(data); err != nil {
		return triangulate.Mesh{}, err
	}
	data = geometry.RemovePathDuplicates(data, closed)
	var m triangulate.Mesh
	if edge {
		e, err := triangulate.EdgeRibbon(data, closed)
		if err != nil {
			return triangulate.Mesh{}, err
		}
		m.Edge = e
	}
	if face && len(data) > 0 {
		var (
			f   triangulate.Face
			err error
		)
		if len(data[0]) == 3 {
			f, err = b.FaceMesh3D(data)
		} else {
			f, err = triangulate.FaceFromData(data, b.FaceMesh)
		}
		if err != nil {
			return triangulate.Mesh{}, err
		}
		m.Face = f
	}
	return m, nil
}

func dominantAxis(n r3.Vec) int {
	x, y, z := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	switch {
	case x >= y && x >= z:
		return 0
	case y >= z:
		return 1
	default:
		return 2
	}
}

func triangles2D(poly [][]float64) [][3]int {
	if fan, ok := convexFan(poly); ok {
		return fan
	}
	return pure.EarClip(poly)
}

// convexFan fans a strictly convex polygon from its first vertex.
func convexFan(poly [][]float64) ([][3]int, bool) {
	n := len(poly)
	if n < 3 {
		return nil, false
	}
	var sign float64
	for i := 0; i < n; i++ {
		o := geometry.Orientation(poly[i], poly[(i+1)%n], poly[(i+2)%n])
		if o == 0 {
			return nil, false
		}
		if sign == 0 {
			sign = math.Copysign(1, o)
		} else if sign*o < 0 {
			return nil, false
		}
	}
	// convex turns with a winding number above one make a star
	var turn float64
	for i := 0; i < n; i++ {
		a, b, c := poly[i], poly[(i+1)%n], poly[(i+2)%n]
		t1 := math.Atan2(b[1]-a[1], b[0]-a[0])
		t2 := math.Atan2(c[1]-b[1], c[0]-b[0])
		d := t2 - t1
		for d > math.Pi {
			d -= 2 * math.Pi
		}
		for d < -math.Pi {
			d += 2 * math.Pi
		}
		turn += d
	}
	if math.Abs(turn) > 2*math.Pi+1e-6 {
		return nil, false
	}
	tris := make([][3]int, 0, n-2)
	for i := 1; i < n-1; i++ {
		tris = append(tris, [3]int{0, i, i + 1})
	}
	return tris, true
}
