// Package triangulate defines the triangulation backend contract used by
// shapes and the pieces every backend shares: the edge ribbon builder, the
// planar 3D face dispatch and the failure dump.
//
// Backends (pure, delaunay, bermuda, partseg) live in sub-packages and are
// chosen once by the backends package.
package triangulate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/ndview/pkg/geometry"
)

// Kind names a triangulation backend.
type Kind string

const (
	KindPure     Kind = "pure"
	KindBermuda  Kind = "bermuda"
	KindPartSeg  Kind = "partsegcore"
	KindTriangle Kind = "triangle"
	KindFastest  Kind = "fastest_available"
)

// Kinds lists the concrete backends in preference order for
// fastest_available.
var Kinds = []Kind{KindBermuda, KindPartSeg, KindTriangle, KindPure}

// ErrUnknownKind is returned by ParseKind for names outside the closed set.
var ErrUnknownKind = errors.New("triangulate: unknown backend")

// ParseKind maps a configuration value to a Kind. The empty string selects
// fastest_available; "pure_python" is accepted as an alias of pure.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindFastest, nil
	case "pure_python":
		return KindPure, nil
	case KindPure, KindBermuda, KindPartSeg, KindTriangle, KindFastest:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Face is a fill mesh: vertices in the shape's displayed space and
// triangles indexing them.
type Face struct {
	Vertices  [][]float64
	Triangles [][3]int
}

// Edge is an outline ribbon. The rendered position of vertex i is
// Centers[i] + width*Offsets[i], so the width can change without
// rebuilding the ribbon.
type Edge struct {
	Centers   [][]float64
	Offsets   [][]float64
	Triangles [][3]int
}

// Mesh holds both meshes of a shape.
type Mesh struct {
	Face Face
	Edge Edge
}

// Backend is a triangulation strategy. FaceMesh receives a 2D polygon;
// Meshes handles 2D or 3D data and decides how to reach FaceMesh.
type Backend interface {
	Name() Kind
	EdgeMesh(path [][]float64, closed bool) (Edge, error)
	FaceMesh(poly [][]float64) (Face, error)
	Meshes(data [][]float64, closed, face, edge bool) (Mesh, error)
}

// PlanarFaceMesher is implemented by backends that triangulate planar 3D
// polygons in any orientation, not only axis-aligned ones.
type PlanarFaceMesher interface {
	FaceMesh3D(poly [][]float64) (Face, error)
}

// MeshesGeneric is the Meshes flow shared by backends that only
// triangulate in 2D: duplicates are dropped, the edge is built on the full
// data and the face goes through FaceFromData.
func MeshesGeneric(data [][]float64, closed, face, edge bool, faceFn func([][]float64) (Face, error)) (Mesh, error) {
	var m Mesh
	data = geometry.RemovePathDuplicates(data, closed)
	if edge {
		e, err := EdgeRibbon(data, closed)
		if err != nil {
			return Mesh{}, err
		}
		m.Edge = e
	}
	if face {
		f, err := FaceFromData(data, faceFn)
		if err != nil {
			return Mesh{}, err
		}
		m.Face = f
	}
	return m, nil
}

// FaceFromData triangulates a 2D polygon, or a 3D polygon confined to an
// axis-aligned plane by projecting it, triangulating and re-inserting the
// constant coordinate. Non-planar 3D data and degenerate polygons give an
// empty face.
func FaceFromData(data [][]float64, faceFn func([][]float64) (Face, error)) (Face, error) {
	proj, axis, value, planar := geometry.FindPlanarAxis(data)
	if !planar || len(proj) < 3 || geometry.IsCollinear(proj) {
		return Face{}, nil
	}
	f, err := faceFn(proj)
	if err != nil {
		return Face{}, err
	}
	if axis >= 0 {
		f.Vertices = geometry.InsertAxis(f.Vertices, axis, value)
	}
	return f, nil
}

// Area sums the unsigned areas of a 2D face.
func (f Face) Area() float64 {
	var a float64
	for _, t := range f.Triangles {
		a += geometry.TriangleArea(f.Vertices[t[0]], f.Vertices[t[1]], f.Vertices[t[2]])
	}
	return a
}

// Valid reports whether every triangle index addresses a vertex.
func (f Face) Valid() bool { return validIndices(f.Triangles, len(f.Vertices)) }

// Valid reports whether the ribbon is consistent.
func (e Edge) Valid() bool {
	return len(e.Centers) == len(e.Offsets) && validIndices(e.Triangles, len(e.Centers))
}

func validIndices(tris [][3]int, n int) bool {
	for _, t := range tris {
		for _, i := range t {
			if i < 0 || i >= n {
				return false
			}
		}
	}
	return true
}
