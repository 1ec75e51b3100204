// Package scene defines the declarative scene description produced by the
// DSL: an ordered list of layer specs plus dims, camera, grid and canvas
// settings. A scene is plain data; Build turns it into a viewer.
package scene

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/chazu/ndview/pkg/camera"
	"github.com/chazu/ndview/pkg/layer"
	"github.com/chazu/ndview/pkg/shapes"
)

var (
	ErrDuplicateName = errors.New("scene: duplicate layer name")
	ErrUnknownLayer  = errors.New("scene: unknown layer")
)

// Transform is the data-to-physical transform of a layer. Rotate is in
// degrees in the plane of the last two axes.
type Transform struct {
	Scale      []float64 `json:"scale,omitempty"`
	Translate  []float64 `json:"translate,omitempty"`
	Rotate     float64   `json:"rotate,omitempty"`
	Shear      []float64 `json:"shear,omitempty"`
	Units      []string  `json:"units,omitempty"`
	AxisLabels []string  `json:"axis_labels,omitempty"`
}

// ShapeSpec is one shape of a shapes layer.
type ShapeSpec struct {
	Kind      shapes.Kind `json:"kind"`
	Data      [][]float64 `json:"data"`
	EdgeWidth float64     `json:"edge_width"`
	ZIndex    int         `json:"z_index"`
}

// LayerSpec describes one layer. Only the fields of its Kind are used.
type LayerSpec struct {
	Name      string     `json:"name"`
	Kind      layer.Kind `json:"kind"`
	Hidden    bool       `json:"hidden,omitempty"`
	Transform Transform  `json:"transform"`

	// image and labels
	Shape   []int     `json:"shape,omitempty"`
	Data    []float64 `json:"data,omitempty"`
	Pattern string    `json:"pattern,omitempty"`
	Levels  int       `json:"levels,omitempty"`

	// points
	Points [][]float64 `json:"points,omitempty"`
	Size   float64     `json:"size,omitempty"`

	// points, shapes and vectors; zero means the width of the data
	NDim int `json:"ndim,omitempty"`

	// shapes
	Shapes []ShapeSpec `json:"shapes,omitempty"`

	// surface: explicit mesh, or the isosurface of an image layer
	Vertices [][]float64 `json:"vertices,omitempty"`
	Faces    [][3]int    `json:"faces,omitempty"`
	Values   []float64   `json:"values,omitempty"`
	Volume   string      `json:"volume,omitempty"`
	Level    float64     `json:"level,omitempty"`

	// vectors
	Vectors [][2][]float64 `json:"vectors,omitempty"`
	Length  float64        `json:"length,omitempty"`

	// tracks
	Tracks [][]float64 `json:"tracks,omitempty"`
	Tail   float64     `json:"tail,omitempty"`
	Head   float64     `json:"head,omitempty"`
}

// Margin is a thick-slice margin on one world axis.
type Margin struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Dims holds the dims settings applied after all layers are added. Axes
// are world axes.
type Dims struct {
	NDisplay int             `json:"ndisplay,omitempty"`
	Order    []int           `json:"order,omitempty"`
	Point    map[int]float64 `json:"point,omitempty"`
	Margins  map[int]Margin  `json:"margins,omitempty"`
}

// Camera overrides the fitted camera. Nil fields keep the fit.
type Camera struct {
	Angles      *[3]float64 `json:"angles,omitempty"`
	Zoom        *float64    `json:"zoom,omitempty"`
	Center      []float64   `json:"center,omitempty"`
	Perspective float64     `json:"perspective,omitempty"`
}

// Scene is the result of evaluating a scene script.
type Scene struct {
	Layers []*LayerSpec `json:"layers"`
	Dims   Dims         `json:"dims"`
	Camera Camera       `json:"camera"`
	Grid   *camera.Grid `json:"grid,omitempty"`
	Canvas [2]float64   `json:"canvas"`

	index map[string]int
}

// New returns an empty scene.
func New() *Scene {
	return &Scene{index: make(map[string]int)}
}

// AddLayer appends a layer spec. Names must be unique; an empty name is
// replaced by the kind and position.
func (s *Scene) AddLayer(spec *LayerSpec) error {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if spec.Name == "" {
		spec.Name = fmt.Sprintf("%s-%d", spec.Kind, len(s.Layers))
	}
	if _, ok := s.index[spec.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, spec.Name)
	}
	s.index[spec.Name] = len(s.Layers)
	s.Layers = append(s.Layers, spec)
	return nil
}

// Lookup returns the layer with the given name, or nil.
func (s *Scene) Lookup(name string) *LayerSpec {
	l, _ := lo.Find(s.Layers, func(l *LayerSpec) bool { return l.Name == name })
	return l
}

// Len returns the number of layers.
func (s *Scene) Len() int { return len(s.Layers) }

// LayerNDim is the number of axes a spec's data has, or 0 when it cannot
// be told from the data.
func (l *LayerSpec) LayerNDim() int {
	if l.NDim > 0 {
		return l.NDim
	}
	switch l.Kind {
	case layer.KindImage, layer.KindLabels:
		return len(l.Shape)
	case layer.KindPoints:
		if len(l.Points) > 0 {
			return len(l.Points[0])
		}
	case layer.KindShapes:
		if len(l.Shapes) > 0 && len(l.Shapes[0].Data) > 0 {
			return len(l.Shapes[0].Data[0])
		}
	case layer.KindSurface:
		if len(l.Vertices) > 0 {
			return len(l.Vertices[0])
		}
		if l.Volume != "" {
			return 3
		}
	case layer.KindVectors:
		if len(l.Vectors) > 0 {
			return len(l.Vectors[0][0])
		}
	case layer.KindTracks:
		if len(l.Tracks) > 0 {
			return len(l.Tracks[0]) - 1
		}
	}
	return 0
}
