// Package delaunay is the "triangle" backend: faces come from the sdfx
// Delaunay triangulation of the polygon vertices, restricted to the
// triangles inside the polygon.
package delaunay

import (
	"fmt"
	"math"

	"github.com/chazu/ndview/pkg/geometry"
	"github.com/chazu/ndview/pkg/logging"
	"github.com/chazu/ndview/pkg/triangulate"
	"github.com/chazu/ndview/pkg/triangulate/pure"
	"github.com/deadsy/sdfx/render"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

var _ triangulate.Backend = (*Backend)(nil)

// Backend implements triangulate.Backend on render.Delaunay2d.
type Backend struct{}

// New returns the Delaunay backend.
func New() *Backend { return &Backend{} }

func (*Backend) Name() triangulate.Kind { return triangulate.KindTriangle }

func (*Backend) EdgeMesh(path [][]float64, closed bool) (triangulate.Edge, error) {
	return triangulate.EdgeRibbon(path, closed)
}

// FaceMesh triangulates the convex hull of the vertices and keeps the
// triangles whose centroid lies inside the polygon. Concave polygons whose
// boundary is not a subset of the Delaunay edges lose area this way; for
// those the face is rebuilt by ear clipping and a debug record is logged.
// An error from the Delaunay step is returned as is.
func (*Backend) FaceMesh(poly [][]float64) (triangulate.Face, error) {
	if err := pure.Check2D(poly); err != nil {
		return triangulate.Face{}, err
	}
	vs := make(v2.VecSet, len(poly))
	for i, p := range poly {
		vs[i] = v2.Vec{X: p[0], Y: p[1]}
	}
	tris, err := render.Delaunay2d(vs)
	if err != nil {
		return triangulate.Face{}, fmt.Errorf("delaunay: %w", err)
	}

	// Triangle indices address vs, which the library may have reordered;
	// containment and area are measured against the polygon in its own order.
	verts := make([][]float64, len(vs))
	for i, v := range vs {
		verts[i] = []float64{v.X, v.Y}
	}
	face := triangulate.Face{Vertices: verts}
	for _, t := range tris {
		if !inRange(t, len(verts)) {
			continue
		}
		a, b, c := verts[t[0]], verts[t[1]], verts[t[2]]
		if geometry.TriangleArea(a, b, c) == 0 {
			continue
		}
		centroid := []float64{(a[0] + b[0] + c[0]) / 3, (a[1] + b[1] + c[1]) / 3}
		if geometry.PointInPolygon(centroid, poly) {
			face.Triangles = append(face.Triangles, [3]int{t[0], t[1], t[2]})
		}
	}

	want := math.Abs(geometry.PolygonArea(poly))
	if got := face.Area(); math.Abs(got-want) > 1e-9*math.Max(1, want) {
		logging.WithComponent("triangulate").Debug("delaunay face repaired by ear clipping",
			"backend", string(triangulate.KindTriangle),
			"vertices", len(poly),
			"area", got,
			"want", want,
		)
		ordered := make([][]float64, len(poly))
		for i, p := range poly {
			ordered[i] = []float64{p[0], p[1]}
		}
		face = triangulate.Face{Vertices: ordered, Triangles: pure.EarClip(ordered)}
	}
	return face, nil
}

func (b *Backend) Meshes(data [][]float64, closed, face, edge bool) (triangulate.Mesh, error) {
	if err := pure.CheckFinite(data); err != nil {
		return triangulate.Mesh{}, err
	}
	return triangulate.MeshesGeneric(data, closed, face, edge, b.FaceMesh)
}

func inRange(t render.TriangleI, n int) bool {
	return t[0] >= 0 && t[0] < n && t[1] >= 0 && t[1] < n && t[2] >= 0 && t[2] < n
}
