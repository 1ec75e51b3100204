//go:build partsegcore

// Package partseg is the second accelerated triangulation backend. Its
// edge ribbon gives every segment its own four vertices and closes the
// joins with separate triangles, so segment quads never share vertices.
//
// Build with: go build -tags=partsegcore
package partseg

import (
	"fmt"
	"math"

	"github.com/chazu/ndview/pkg/geometry"
	"github.com/chazu/ndview/pkg/triangulate"
	"github.com/chazu/ndview/pkg/triangulate/pure"
)

// Available reports whether the backend is compiled in.
const Available = true

var _ triangulate.Backend = (*Backend)(nil)

// Backend implements triangulate.Backend.
type Backend struct {
	fallback *pure.Backend
}

// New returns the partseg backend.
func New() (triangulate.Backend, error) { return &Backend{fallback: pure.New()}, nil }

func (*Backend) Name() triangulate.Kind { return triangulate.KindPartSeg }

// EdgeMesh builds split-segment ribbons for 2D paths. 3D paths use the
// shared mitered ribbon.
func (*Backend) EdgeMesh(path [][]float64, closed bool) (triangulate.Edge, error) {
	if len(path) > 0 && len(path[0]) != 2 {
		return triangulate.EdgeRibbon(path, closed)
	}
	return splitRibbon(path, closed)
}

func (b *Backend) FaceMesh(poly [][]float64) (triangulate.Face, error) {
	return b.fallback.FaceMesh(poly)
}

func (b *Backend) Meshes(data [][]float64, closed, face, edge bool) (triangulate.Mesh, error) {
	if err := pure.CheckFinite(data); err != nil {
		return triangulate.Mesh{}, err
	}
	if len(data) > 0 && len(data[0]) == 3 {
		return b.fallback.Meshes(data, closed, face, edge)
	}
	data = geometry.RemovePathDuplicates(data, closed)
	var m triangulate.Mesh
	if edge {
		e, err := b.EdgeMesh(data, closed)
		if err != nil {
			return triangulate.Mesh{}, err
		}
		m.Edge = e
	}
	if face {
		f, err := triangulate.FaceFromData(data, b.FaceMesh)
		if err != nil {
			return triangulate.Mesh{}, err
		}
		m.Face = f
	}
	return m, nil
}

func splitRibbon(path [][]float64, closed bool) (triangulate.Edge, error) {
	n := len(path)
	if n < 2 {
		return triangulate.Edge{}, nil
	}
	if err := pure.Check2D(path); err != nil {
		return triangulate.Edge{}, fmt.Errorf("partseg: %w", err)
	}
	if closed && n == 2 {
		closed = false
	}
	nseg := n - 1
	if closed {
		nseg = n
	}

	var e triangulate.Edge
	add := func(c, off []float64) int {
		e.Centers = append(e.Centers, c)
		e.Offsets = append(e.Offsets, off)
		return len(e.Centers) - 1
	}
	// first vertex of each segment's (a+, a-, b+, b-) block
	start := make([]int, nseg)
	normals := make([][2]float64, nseg)
	for s := 0; s < nseg; s++ {
		a, b := path[s], path[(s+1)%n]
		dx, dy := b[0]-a[0], b[1]-a[1]
		l := math.Hypot(dx, dy)
		if l > 0 {
			normals[s] = [2]float64{-dy / l, dx / l}
		}
		nx, ny := normals[s][0]/2, normals[s][1]/2
		start[s] = add(a, []float64{nx, ny})
		add(a, []float64{-nx, -ny})
		add(b, []float64{nx, ny})
		add(b, []float64{-nx, -ny})
		i := start[s]
		e.Triangles = append(e.Triangles,
			[3]int{i, i + 1, i + 2},
			[3]int{i + 1, i + 3, i + 2},
		)
	}

	joins := nseg - 1
	if closed {
		joins = nseg
	}
	for j := 0; j < joins; j++ {
		in, out := j, (j+1)%nseg
		c := path[(j+1)%n]
		center := add(c, []float64{0, 0})
		inPlus, inMinus := start[in]+2, start[in]+3
		outPlus, outMinus := start[out], start[out]+1
		e.Triangles = append(e.Triangles,
			[3]int{center, inPlus, outPlus},
			[3]int{center, inMinus, outMinus},
		)
	}
	return e, nil
}
