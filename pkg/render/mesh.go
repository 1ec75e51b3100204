// Package render holds the flat triangle buffers handed to a GPU front end.
package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Palette assigns distinct colors to meshes in layer order.
var Palette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// Part names what a mesh was built from inside its layer.
type Part string

const (
	PartFace    Part = "face"
	PartEdge    Part = "edge"
	PartPoints  Part = "points"
	PartSurface Part = "surface"
	PartVectors Part = "vectors"
	PartTracks  Part = "tracks"
)

// Mesh is a triangle mesh in world coordinates. All arrays are flat:
// three floats per vertex position and normal, three indices per
// triangle. 2D meshes carry z = 0 and the +z normal.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Layer    string    `json:"layer"`
	Part     Part      `json:"part"`
	Color    string    `json:"color"`
}

func (m *Mesh) VertexCount() int { return len(m.Vertices) / 3 }
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }
func (m *Mesh) IsEmpty() bool { return len(m.Indices) == 0 }

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) r3.Vec {
	return r3.Vec{X: float64(m.Vertices[3*i]), Y: float64(m.Vertices[3*i+1]), Z: float64(m.Vertices[3*i+2])}
}

// Append adds one triangle list to the mesh. Vertices have 2 or 3
// components; indices refer into verts. Normals are per-face, so shared
// vertices are duplicated.
func (m *Mesh) Append(verts []r3.Vec, tris [][3]int) {
	for _, t := range tris {
		a, b, c := verts[t[0]], verts[t[1]], verts[t[2]]
		n := faceNormal(a, b, c)
		for _, v := range [3]r3.Vec{a, b, c} {
			m.Indices = append(m.Indices, uint32(len(m.Vertices)/3))
			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		}
	}
}

// Bounds returns the min and max corner of the vertices. An empty mesh
// returns NaN corners.
func (m *Mesh) Bounds() (r3.Vec, r3.Vec) {
	nan := math.NaN()
	if m.VertexCount() == 0 {
		return r3.Vec{X: nan, Y: nan, Z: nan}, r3.Vec{X: nan, Y: nan, Z: nan}
	}
	lo, hi := m.Vertex(0), m.Vertex(0)
	for i := 1; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		lo = r3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = r3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	return lo, hi
}

// faceNormal is the unit normal of abc, or +z for a degenerate triangle.
func faceNormal(a, b, c r3.Vec) r3.Vec {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	if r3.Norm(n) < 1e-12 {
		return r3.Vec{Z: 1}
	}
	return r3.Unit(n)
}
