// Package pure is the dependency-free triangulation backend: ear clipping
// for faces and the shared ribbon builder for edges. It is always
// available and is the fallback for every other backend.
package pure

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/ndview/pkg/geometry"
	"github.com/chazu/ndview/pkg/triangulate"
)

// ErrNonFinite is returned for polygons with NaN or infinite coordinates.
var ErrNonFinite = errors.New("pure: non-finite vertex")

var _ triangulate.Backend = (*Backend)(nil)

// Backend implements triangulate.Backend by ear clipping.
type Backend struct{}

// New returns the pure backend.
func New() *Backend { return &Backend{} }

func (*Backend) Name() triangulate.Kind { return triangulate.KindPure }

func (*Backend) EdgeMesh(path [][]float64, closed bool) (triangulate.Edge, error) {
	return triangulate.EdgeRibbon(path, closed)
}

// FaceMesh triangulates a simple 2D polygon of either winding.
func (*Backend) FaceMesh(poly [][]float64) (triangulate.Face, error) {
	if err := Check2D(poly); err != nil {
		return triangulate.Face{}, err
	}
	verts := make([][]float64, len(poly))
	for i, p := range poly {
		verts[i] = []float64{p[0], p[1]}
	}
	return triangulate.Face{Vertices: verts, Triangles: EarClip(verts)}, nil
}

func (b *Backend) Meshes(data [][]float64, closed, face, edge bool) (triangulate.Mesh, error) {
	if err := CheckFinite(data); err != nil {
		return triangulate.Mesh{}, err
	}
	return triangulate.MeshesGeneric(data, closed, face, edge, b.FaceMesh)
}

// Check2D rejects polygons that are not 2D or carry non-finite values.
func Check2D(poly [][]float64) error {
	for i, p := range poly {
		if len(p) != 2 {
			return fmt.Errorf("pure: vertex %d has %d coordinates, want 2", i, len(p))
		}
	}
	return CheckFinite(poly)
}

// CheckFinite rejects NaN or infinite coordinates.
func CheckFinite(data [][]float64) error {
	for i, p := range data {
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w at %d", ErrNonFinite, i)
			}
		}
	}
	return nil
}

// EarClip triangulates a simple polygon. When no ear can be found, which
// happens for self-intersecting input, the first remaining vertex is
// clipped anyway so the loop always terminates.
func EarClip(poly [][]float64) [][3]int {
	n := len(poly)
	if n < 3 {
		return nil
	}
	area := geometry.PolygonArea(poly)
	if area == 0 {
		return nil
	}
	sign := 1.0
	if area < 0 {
		sign = -1
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	tris := make([][3]int, 0, n-2)
	for len(idx) > 3 {
		ear := -1
		for k := range idx {
			if isEar(poly, idx, k, sign) {
				ear = k
				break
			}
		}
		forced := ear < 0
		if forced {
			ear = 0
		}
		m := len(idx)
		a, b, c := idx[(ear-1+m)%m], idx[ear], idx[(ear+1)%m]
		if !forced || sign*geometry.Orientation(poly[a], poly[b], poly[c]) > 0 {
			tris = append(tris, [3]int{a, b, c})
		}
		idx = append(idx[:ear], idx[ear+1:]...)
	}
	if sign*geometry.Orientation(poly[idx[0]], poly[idx[1]], poly[idx[2]]) > 0 {
		tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	}
	return tris
}

func isEar(poly [][]float64, idx []int, k int, sign float64) bool {
	m := len(idx)
	a, b, c := idx[(k-1+m)%m], idx[k], idx[(k+1)%m]
	pa, pb, pc := poly[a], poly[b], poly[c]
	if sign*geometry.Orientation(pa, pb, pc) <= 0 {
		return false
	}
	for _, j := range idx {
		if j == a || j == b || j == c {
			continue
		}
		p := poly[j]
		if sameXY(p, pa) || sameXY(p, pb) || sameXY(p, pc) {
			continue
		}
		if geometry.PointInTriangle(p, pa, pb, pc) {
			return false
		}
	}
	return true
}

func sameXY(a, b []float64) bool { return a[0] == b[0] && a[1] == b[1] }
