// Package shapes models the vector shapes of a Shapes layer: their vertex
// data, the face and edge meshes produced by a triangulation backend, the
// in-place affine operations and mask rasterization.
package shapes

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/chazu/ndview/pkg/triangulate"
	"github.com/chazu/ndview/pkg/triangulate/pure"
)

// Kind is the shape variant.
type Kind string

const (
	Rectangle Kind = "rectangle"
	Ellipse   Kind = "ellipse"
	Polygon   Kind = "polygon"
	Path      Kind = "path"
	Line      Kind = "line"
)

// EllipseSegments is the number of ring vertices used to approximate an
// ellipse.
const EllipseSegments = 100

var (
	ErrShapeData = errors.New("shapes: invalid shape data")
	ErrNDisplay  = errors.New("shapes: operation needs two displayed dims")
	ErrFlipAxis  = errors.New("shapes: axis not recognized, must be one of {0, 1}")
	ErrMaskShape = errors.New("shapes: mask shape length must be 2 or the shape dimensionality")
	ErrInternal  = errors.New("shapes: internal error")
)

// ParseKind maps a name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Rectangle, Ellipse, Polygon, Path, Line:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrShapeData, s)
}

// Options configures a new shape. Zero values pick the defaults: edge width
// 1, natural dims order, 2 displayed dims and the pure backend.
type Options struct {
	Name      string
	EdgeWidth float64
	ZIndex    int
	DimsOrder []int
	NDisplay  int
	Backend   triangulate.Backend
}

// Shape is one triangulatable primitive. Mesh fields are derived from the
// displayed data and rebuilt by Initialize, SetData, SetNDisplay and
// SetDimsOrder; the affine operations update them in place.
type Shape struct {
	kind            Kind
	name            string
	data            [][]float64
	dimsOrder       []int
	ndisplay        int
	closed          bool
	filled          bool
	useFaceVertices bool
	edgeWidth       float64
	zIndex          int
	backend         triangulate.Backend

	faceVertices  [][]float64
	faceTriangles [][3]int
	edgeVertices  [][]float64
	edgeOffsets   [][]float64
	edgeTriangles [][3]int

	box         [9][2]float64
	boundingBox [2][]float64
	sliceKey    *[2][]int

	displayed      [][]float64
	displayedDirty bool
}

// New builds and initializes a shape.
func New(kind Kind, data [][]float64, opts Options) (*Shape, error) {
	s, err := construct(kind, data, opts)
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

func construct(kind Kind, data [][]float64, opts Options) (*Shape, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	s := &Shape{
		kind:      kind,
		name:      opts.Name,
		edgeWidth: opts.EdgeWidth,
		zIndex:    opts.ZIndex,
		backend:   opts.Backend,
		ndisplay:  opts.NDisplay,
	}
	if s.edgeWidth == 0 {
		s.edgeWidth = 1
	}
	if s.backend == nil {
		s.backend = pure.New()
	}
	switch kind {
	case Rectangle:
		s.closed, s.filled = true, true
	case Ellipse:
		s.closed, s.filled, s.useFaceVertices = true, true, true
	case Polygon:
		s.closed, s.filled = true, true
	}
	norm, err := normalizeData(kind, data)
	if err != nil {
		return nil, err
	}
	s.data = norm
	d := len(norm[0])
	if s.ndisplay == 0 {
		s.ndisplay = 2
	}
	s.ndisplay = min(s.ndisplay, d)
	if opts.DimsOrder != nil {
		if err := checkOrder(opts.DimsOrder, d); err != nil {
			return nil, err
		}
		s.dimsOrder = slices.Clone(opts.DimsOrder)
	} else {
		s.dimsOrder = naturalOrder(d)
	}
	return s, nil
}

func naturalOrder(n int) []int {
	o := make([]int, n)
	for i := range o {
		o[i] = i
	}
	return o
}

func checkOrder(order []int, d int) error {
	if len(order) != d {
		return fmt.Errorf("%w: dims order %v for %d dims", ErrShapeData, order, d)
	}
	seen := make([]bool, d)
	for _, o := range order {
		if o < 0 || o >= d || seen[o] {
			return fmt.Errorf("%w: dims order %v is not a permutation", ErrShapeData, order)
		}
		seen[o] = true
	}
	return nil
}

func normalizeData(kind Kind, data [][]float64) ([][]float64, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s needs vertices", ErrShapeData, kind)
	}
	d := len(data[0])
	if d < 2 {
		return nil, fmt.Errorf("%w: %s vertices need at least 2 coordinates", ErrShapeData, kind)
	}
	out := make([][]float64, len(data))
	for i, p := range data {
		if len(p) != d {
			return nil, fmt.Errorf("%w: vertex %d has %d coordinates, want %d", ErrShapeData, i, len(p), d)
		}
		out[i] = slices.Clone(p)
	}

	switch kind {
	case Rectangle, Ellipse:
		if len(out) == 2 && d == 2 {
			out = corners(out[0], out[1])
		}
		if len(out) != 4 {
			return nil, fmt.Errorf("%w: %s needs 4 corners or 2 opposite corners, got %d vertices", ErrShapeData, kind, len(out))
		}
	case Line:
		if len(out) != 2 {
			return nil, fmt.Errorf("%w: line needs exactly 2 vertices, got %d", ErrShapeData, len(out))
		}
	case Polygon, Path:
		if len(out) < 2 {
			return nil, fmt.Errorf("%w: %s needs at least 2 vertices, got %d", ErrShapeData, kind, len(out))
		}
	}
	return out, nil
}

// corners expands two opposite corners into the four corners of the
// axis-aligned rectangle, in order around it.
func corners(a, b []float64) [][]float64 {
	lo := []float64{math.Min(a[0], b[0]), math.Min(a[1], b[1])}
	hi := []float64{math.Max(a[0], b[0]), math.Max(a[1], b[1])}
	return [][]float64{
		{lo[0], lo[1]},
		{lo[0], hi[1]},
		{hi[0], hi[1]},
		{hi[0], lo[1]},
	}
}

// Initialize derives the displayed data, meshes, box, bounding box and
// slice key. It is the second phase of construction and is safe to call
// again.
func (s *Shape) Initialize() error {
	s.displayedDirty = true
	return s.updateDisplayed()
}

func (s *Shape) Kind() Kind { return s.kind }
func (s *Shape) Name() string { return s.name }
func (s *Shape) Closed() bool { return s.closed }
func (s *Shape) Filled() bool { return s.filled }
func (s *Shape) ZIndex() int { return s.zIndex }
func (s *Shape) SetZIndex(z int) { s.zIndex = z }
func (s *Shape) EdgeWidth() float64 { return s.edgeWidth }
func (s *Shape) NDisplay() int { return s.ndisplay }
func (s *Shape) NDim() int { return len(s.data[0]) }
func (s *Shape) DimsOrder() []int { return slices.Clone(s.dimsOrder) }
func (s *Shape) Backend() triangulate.Backend { return s.backend }
func (s *Shape) Box() [9][2]float64 { return s.box }
func (s *Shape) FaceVertices() [][]float64 { return s.faceVertices }
func (s *Shape) FaceTriangles() [][3]int { return s.faceTriangles }
func (s *Shape) EdgeVertices() [][]float64 { return s.edgeVertices }
func (s *Shape) EdgeOffsets() [][]float64 { return s.edgeOffsets }
func (s *Shape) EdgeTriangles() [][3]int { return s.edgeTriangles }
func (s *Shape) UseFaceVertices() bool { return s.useFaceVertices }
func (s *Shape) DimsDisplayed() []int { return slices.Clone(s.dimsOrder[len(s.dimsOrder)-s.ndisplay:]) }
func (s *Shape) DimsNotDisplayed() []int { return slices.Clone(s.dimsOrder[:len(s.dimsOrder)-s.ndisplay]) }
func (s *Shape) FaceVerticesCount() int { return len(s.faceVertices) }
func (s *Shape) FaceTrianglesCount() int { return len(s.faceTriangles) }
func (s *Shape) EdgeVerticesCount() int { return len(s.edgeVertices) }
func (s *Shape) EdgeTrianglesCount() int { return len(s.edgeTriangles) }
func (s *Shape) VerticesCount() int { return len(s.edgeVertices) + len(s.faceVertices) }
func (s *Shape) TrianglesCount() int { return len(s.faceTriangles) + len(s.edgeTriangles) }

// Data returns a copy of the vertex data.
func (s *Shape) Data() [][]float64 {
	out := make([][]float64, len(s.data))
	for i, p := range s.data {
		out[i] = slices.Clone(p)
	}
	return out
}

// SliceKey returns the rounded per-dim min and max of the data, or nil
// before Initialize.
func (s *Shape) SliceKey() *[2][]int { return s.sliceKey }

// SetData replaces the vertices and rebuilds the meshes.
func (s *Shape) SetData(data [][]float64) error {
	norm, err := normalizeData(s.kind, data)
	if err != nil {
		return err
	}
	if len(norm[0]) != len(s.dimsOrder) {
		s.dimsOrder = naturalOrder(len(norm[0]))
		s.ndisplay = min(s.ndisplay, len(norm[0]))
	}
	s.data = norm
	return s.Initialize()
}

// SetNDisplay changes the number of displayed dims and rebuilds the meshes
// when it differs.
func (s *Shape) SetNDisplay(n int) error {
	n = min(n, s.NDim())
	if n == s.ndisplay {
		return nil
	}
	s.ndisplay = n
	return s.Initialize()
}

// SetDimsOrder changes the dims order and rebuilds the meshes when it
// differs.
func (s *Shape) SetDimsOrder(order []int) error {
	if slices.Equal(order, s.dimsOrder) {
		return nil
	}
	if err := checkOrder(order, s.NDim()); err != nil {
		return err
	}
	s.dimsOrder = slices.Clone(order)
	return s.Initialize()
}

// SetEdgeWidth changes the outline width. The ribbon is not rebuilt: the
// rendered outline is EdgeVertices + width*EdgeOffsets.
func (s *Shape) SetEdgeWidth(w float64) { s.edgeWidth = w }

// DataDisplayed returns the vertices restricted to the displayed dims.
func (s *Shape) DataDisplayed() [][]float64 {
	if s.displayedDirty || s.displayed == nil {
		dd := s.DimsDisplayed()
		s.displayed = make([][]float64, len(s.data))
		for i, p := range s.data {
			q := make([]float64, len(dd))
			for j, ax := range dd {
				q[j] = p[ax]
			}
			s.displayed[i] = q
		}
		s.displayedDirty = false
	}
	return s.displayed
}

// BoundingBox is the displayed-dims data extent grown by half the edge
// width on both sides.
func (s *Shape) BoundingBox() [2][]float64 {
	dd := s.DimsDisplayed()
	lo := make([]float64, len(dd))
	hi := make([]float64, len(dd))
	for i, ax := range dd {
		lo[i] = s.boundingBox[0][ax] - 0.5*s.edgeWidth
		hi[i] = s.boundingBox[1][ax] + 0.5*s.edgeWidth
	}
	return [2][]float64{lo, hi}
}

// DataBoundingBox is the per-dim min and max over all vertices.
func (s *Shape) DataBoundingBox() [2][]float64 {
	return [2][]float64{slices.Clone(s.boundingBox[0]), slices.Clone(s.boundingBox[1])}
}

func (s *Shape) updateDisplayed() error {
	s.displayedDirty = true
	disp := s.DataDisplayed()

	switch s.kind {
	case Rectangle:
		m, err := triangulate.Run(s.backend, disp, true, false, true)
		if err != nil {
			return err
		}
		s.setEdge(m.Edge)
		s.faceVertices = cloneRows(disp)
		s.faceTriangles = [][3]int{{0, 1, 2}, {0, 2, 3}}
	case Ellipse:
		verts, tris := ellipseMesh(disp, EllipseSegments)
		m, err := triangulate.Run(s.backend, verts[1:], true, false, true)
		if err != nil {
			return err
		}
		s.setEdge(m.Edge)
		s.faceVertices = verts
		s.faceTriangles = tris
	default:
		m, err := triangulate.Run(s.backend, disp, s.closed, s.filled, true)
		if err != nil {
			return err
		}
		s.setEdge(m.Edge)
		s.faceVertices = cloneRows(m.Face.Vertices)
		s.faceTriangles = m.Face.Triangles
	}

	s.box = s.computeBox()
	s.boundingBox = dataBounds(s.data)
	key := [2][]int{make([]int, s.NDim()), make([]int, s.NDim())}
	for i := range key[0] {
		key[0][i] = int(math.Round(s.boundingBox[0][i]))
		key[1][i] = int(math.Round(s.boundingBox[1][i]))
	}
	s.sliceKey = &key
	return nil
}

// setEdge stores the ribbon with its own rows, since backends may share
// center slices between vertices and with the input path.
func (s *Shape) setEdge(e triangulate.Edge) {
	s.edgeVertices = cloneRows(e.Centers)
	s.edgeOffsets = cloneRows(e.Offsets)
	s.edgeTriangles = e.Triangles
}

// computeBox returns the 8 outline handles of the shape plus its center.
// It is only defined for two displayed dims.
func (s *Shape) computeBox() [9][2]float64 {
	if s.ndisplay != 2 {
		return [9][2]float64{}
	}
	disp := s.DataDisplayed()
	if s.kind == Rectangle || s.kind == Ellipse {
		return rectangleToBox(disp)
	}
	b := dataBounds(disp)
	return rectangleToBox(corners(b[0], b[1]))
}

func rectangleToBox(c [][]float64) [9][2]float64 {
	var box [9][2]float64
	for i := 0; i < 4; i++ {
		a, b := c[i], c[(i+1)%4]
		box[2*i] = [2]float64{a[0], a[1]}
		box[2*i+1] = [2]float64{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
	}
	box[8] = [2]float64{
		(c[0][0] + c[1][0] + c[2][0] + c[3][0]) / 4,
		(c[0][1] + c[1][1] + c[2][1] + c[3][1]) / 4,
	}
	return box
}

func dataBounds(data [][]float64) [2][]float64 {
	lo := slices.Clone(data[0])
	hi := slices.Clone(data[0])
	for _, p := range data[1:] {
		for i, v := range p {
			lo[i] = math.Min(lo[i], v)
			hi[i] = math.Max(hi[i], v)
		}
	}
	return [2][]float64{lo, hi}
}

// ellipseMesh returns the center followed by n ring vertices of the
// ellipse inscribed in the four corners, and the fan triangles over them.
func ellipseMesh(c [][]float64, n int) ([][]float64, [][3]int) {
	d := len(c[0])
	center := make([]float64, d)
	for _, p := range c {
		for i := range center {
			center[i] += p[i] / 4
		}
	}
	a := make([]float64, d)
	b := make([]float64, d)
	for i := 0; i < d; i++ {
		a[i] = (c[2][i] - c[1][i]) / 2
		b[i] = (c[1][i] - c[0][i]) / 2
	}
	verts := make([][]float64, 0, n+1)
	verts = append(verts, center)
	for k := 0; k < n; k++ {
		t := 2 * math.Pi * float64(k) / float64(n)
		ct, st := math.Cos(t), math.Sin(t)
		p := make([]float64, d)
		for i := range p {
			p[i] = center[i] + ct*a[i] + st*b[i]
		}
		verts = append(verts, p)
	}
	tris := make([][3]int, n)
	for k := 0; k < n; k++ {
		tris[k] = [3]int{0, k + 1, (k+1)%n + 1}
	}
	return verts, tris
}

func cloneRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out
}
