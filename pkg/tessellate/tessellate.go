// Package tessellate walks the visible layers of a viewer and produces
// triangle meshes in world coordinates over the displayed axes. Each layer
// yields one mesh per part (shape faces, shape edges, point markers and so
// on). Image layers are drawn as textures and yield no mesh.
package tessellate

import (
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/ndview/pkg/layer"
	"github.com/chazu/ndview/pkg/logging"
	"github.com/chazu/ndview/pkg/render"
	"github.com/chazu/ndview/pkg/shapes"
)

// Options control marker and line geometry. Widths are in data units.
type Options struct {
	LineWidth float64
}

// DefaultOptions are used for zero fields.
var DefaultOptions = Options{LineWidth: 1}

// projector maps layer data coordinates to the world coordinates of the
// layer's displayed axes.
type projector struct {
	base      *layer.Base
	displayed []int
	point     []float64
}

func newProjector(b *layer.Base) projector {
	return projector{
		base:      b,
		displayed: b.SliceInput().Displayed(),
		point:     b.DataSlice().Point,
	}
}

func (p projector) ndisplay() int { return len(p.displayed) }

// world maps a full data position.
func (p projector) world(data []float64) r3.Vec {
	w := p.base.DataToWorldPoint(data)
	var c [3]float64
	for i, ax := range p.displayed {
		if i < 3 {
			c[i] = w[ax]
		}
	}
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}
}

// displayedWorld maps a position given only on the axes in dims; the
// other axes take the current slice point.
func (p projector) displayedWorld(coords []float64, dims []int) r3.Vec {
	full := slices.Clone(p.point)
	for i, nan := range full {
		if math.IsNaN(nan) {
			full[i] = 0
		}
	}
	for i, ax := range dims {
		full[ax] = coords[i]
	}
	return p.world(full)
}

// Tessellate returns the meshes of the visible layers in draw order.
// Layers are named by their index when unnamed; colors cycle through
// render.Palette by layer.
func Tessellate(layers []layer.Layer, opts Options) ([]*render.Mesh, error) {
	if opts.LineWidth <= 0 {
		opts.LineWidth = DefaultOptions.LineWidth
	}
	log := logging.WithComponent("tessellate")

	var meshes []*render.Mesh
	for i, l := range layers {
		if !l.Base().Visible {
			continue
		}
		collected, err := walkLayer(l, opts)
		if err != nil {
			return nil, fmt.Errorf("tessellate: layer %d %q: %w", i, l.Base().Name, err)
		}
		name := l.Base().Name
		if name == "" {
			name = fmt.Sprintf("layer-%d", i)
		}
		color := render.Palette[i%len(render.Palette)]
		for _, m := range collected {
			m.Layer = name
			m.Color = color
		}
		meshes = append(meshes, lo.Filter(collected, func(m *render.Mesh, _ int) bool { return !m.IsEmpty() })...)
	}
	log.Debug("tessellated", "layers", len(layers), "meshes", len(meshes))
	return meshes, nil
}

func walkLayer(l layer.Layer, opts Options) ([]*render.Mesh, error) {
	switch t := l.(type) {
	case *layer.Image:
		return nil, nil
	case *layer.Shapes:
		return handleShapes(t)
	case *layer.Points:
		return handlePoints(t), nil
	case *layer.Surface:
		return handleSurface(t), nil
	case *layer.Vectors:
		return handleVectors(t, opts), nil
	case *layer.Tracks:
		return handleTracks(t, opts), nil
	default:
		return nil, fmt.Errorf("unsupported layer kind %q", l.Kind())
	}
}

// handleShapes merges the faces and the edges of the shapes on the
// current slice into one mesh each. Edge vertices are pushed out along
// their offsets by the shape's edge width.
func handleShapes(l *layer.Shapes) ([]*render.Mesh, error) {
	p := newProjector(l.Base())
	face := &render.Mesh{Part: render.PartFace}
	edge := &render.Mesh{Part: render.PartEdge}
	for _, i := range l.ViewIndices() {
		s := l.Shape(i)
		dims := s.DimsDisplayed()
		if s.Filled() {
			verts := lo.Map(s.FaceVertices(), func(v []float64, _ int) r3.Vec { return p.displayedWorld(v, dims) })
			face.Append(verts, s.FaceTriangles())
		}
		ev, err := edgeVertices(s)
		if err != nil {
			return nil, err
		}
		verts := lo.Map(ev, func(v []float64, _ int) r3.Vec { return p.displayedWorld(v, dims) })
		edge.Append(verts, s.EdgeTriangles())
	}
	return []*render.Mesh{face, edge}, nil
}

func edgeVertices(s *shapes.Shape) ([][]float64, error) {
	centers, offsets := s.EdgeVertices(), s.EdgeOffsets()
	if len(centers) != len(offsets) {
		return nil, fmt.Errorf("shape %q: %d edge vertices, %d offsets: %w", s.Name(), len(centers), len(offsets), shapes.ErrInternal)
	}
	w := s.EdgeWidth()
	out := make([][]float64, len(centers))
	for i, c := range centers {
		v := slices.Clone(c)
		for j := range v {
			v[j] += w * offsets[i][j]
		}
		out[i] = v
	}
	return out, nil
}

// handlePoints draws a square per point in 2D and an octahedron in 3D,
// sized by the point size.
func handlePoints(l *layer.Points) []*render.Mesh {
	p := newProjector(l.Base())
	m := &render.Mesh{Part: render.PartPoints}
	data, sizes := l.Data(), l.Sizes()
	for _, i := range l.ViewIndices() {
		c := p.world(data[i])
		r := sizes[i] / 2
		if p.ndisplay() == 3 {
			m.Append(octahedron(c, r))
		} else {
			m.Append(square(c, r))
		}
	}
	return []*render.Mesh{m}
}

func square(c r3.Vec, r float64) ([]r3.Vec, [][3]int) {
	return []r3.Vec{
		{X: c.X - r, Y: c.Y - r}, {X: c.X + r, Y: c.Y - r},
		{X: c.X + r, Y: c.Y + r}, {X: c.X - r, Y: c.Y + r},
	}, [][3]int{{0, 1, 2}, {0, 2, 3}}
}

func octahedron(c r3.Vec, r float64) ([]r3.Vec, [][3]int) {
	v := []r3.Vec{
		r3.Add(c, r3.Vec{X: r}), r3.Add(c, r3.Vec{X: -r}),
		r3.Add(c, r3.Vec{Y: r}), r3.Add(c, r3.Vec{Y: -r}),
		r3.Add(c, r3.Vec{Z: r}), r3.Add(c, r3.Vec{Z: -r}),
	}
	return v, [][3]int{
		{0, 2, 4}, {2, 1, 4}, {1, 3, 4}, {3, 0, 4},
		{2, 0, 5}, {1, 2, 5}, {3, 1, 5}, {0, 3, 5},
	}
}

// handleSurface draws the faces whose vertices all lie on the slice.
func handleSurface(l *layer.Surface) []*render.Mesh {
	p := newProjector(l.Base())
	m := &render.Mesh{Part: render.PartSurface}
	verts := lo.Map(l.Vertices(), func(v []float64, _ int) r3.Vec { return p.world(v) })
	faces := l.Faces()
	tris := lo.Map(l.ViewFaces(), func(i int, _ int) [3]int { return faces[i] })
	m.Append(verts, tris)
	return []*render.Mesh{m}
}

// handleVectors draws each displayed vector as a ribbon from its origin
// to its tip.
func handleVectors(l *layer.Vectors, opts Options) []*render.Mesh {
	p := newProjector(l.Base())
	m := &render.Mesh{Part: render.PartVectors}
	pos, tips := l.Positions(), l.Tips()
	for _, i := range l.ViewIndices() {
		m.Append(ribbon(p.world(pos[i]), p.world(tips[i]), opts.LineWidth, p.ndisplay()))
	}
	return []*render.Mesh{m}
}

// handleTracks joins consecutive displayed vertices of each track with
// ribbons.
func handleTracks(l *layer.Tracks, opts Options) []*render.Mesh {
	p := newProjector(l.Base())
	m := &render.Mesh{Part: render.PartTracks}
	ids, coords := l.IDs(), l.Coords()
	byTrack := lo.GroupBy(l.ViewIndices(), func(i int) int { return ids[i] })
	keys := lo.Keys(byTrack)
	slices.Sort(keys)
	for _, id := range keys {
		idx := byTrack[id]
		slices.SortStableFunc(idx, func(a, b int) int {
			switch {
			case coords[a][0] < coords[b][0]:
				return -1
			case coords[a][0] > coords[b][0]:
				return 1
			}
			return 0
		})
		for k := 1; k < len(idx); k++ {
			m.Append(ribbon(p.world(coords[idx[k-1]]), p.world(coords[idx[k]]), opts.LineWidth, p.ndisplay()))
		}
	}
	return []*render.Mesh{m}
}

// ribbon is a quad of the given width along ab. In 2D it lies in the
// display plane; in 3D it is perpendicular to the axis least aligned with
// ab.
func ribbon(a, b r3.Vec, width float64, ndisplay int) ([]r3.Vec, [][3]int) {
	d := r3.Sub(b, a)
	if r3.Norm(d) < 1e-12 {
		return nil, nil
	}
	var n r3.Vec
	if ndisplay == 3 {
		ref := r3.Vec{Z: 1}
		if math.Abs(r3.Unit(d).Z) > 0.9 {
			ref = r3.Vec{X: 1}
		}
		n = r3.Unit(r3.Cross(d, ref))
	} else {
		n = r3.Unit(r3.Vec{X: -d.Y, Y: d.X})
	}
	h := r3.Scale(width/2, n)
	return []r3.Vec{r3.Sub(a, h), r3.Add(a, h), r3.Add(b, h), r3.Sub(b, h)}, [][3]int{{0, 1, 2}, {0, 2, 3}}
}
