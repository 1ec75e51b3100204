package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/chazu/ndview/pkg/camera"
	"github.com/chazu/ndview/pkg/isosurface"
	"github.com/chazu/ndview/pkg/layer"
	"github.com/chazu/ndview/pkg/logging"
	"github.com/chazu/ndview/pkg/triangulate"
	"github.com/chazu/ndview/pkg/viewer"
)

var ErrInvalid = errors.New("scene: invalid scene")

// BuildOptions carry the settings a scene does not.
type BuildOptions struct {
	Backend triangulate.Backend
	Canvas  [2]float64
	// NDisplay is used when the scene does not set one.
	NDisplay       int
	ShapeThreshold [2]float64
	// Cells is the isosurface resolution; zero uses the isosurface default.
	Cells int
}

// Build validates the scene and creates a viewer holding its layers in
// order with the scene's dims, grid and canvas applied. Camera angles are
// applied so a following fit sees them; the other camera overrides are
// left to Override.
func Build(s *Scene, opts BuildOptions) (*viewer.Viewer, error) {
	if errs := Validate(s); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, errors.Join(lo.Map(errs, func(e ValidationError, _ int) error { return e })...))
	}
	log := logging.WithComponent("scene")

	vopts := viewer.Options{Canvas: s.Canvas, NDisplay: opts.NDisplay, ShapeThreshold: opts.ShapeThreshold}
	if vopts.Canvas == ([2]float64{}) {
		vopts.Canvas = opts.Canvas
	}
	if s.Grid != nil {
		vopts.Grid = *s.Grid
	}
	v := viewer.New(vopts)

	images := make(map[string]*layer.Image)
	for _, spec := range s.Layers {
		l, err := buildLayer(s, spec, images, opts)
		if err != nil {
			return nil, fmt.Errorf("scene: layer %q: %w", spec.Name, err)
		}
		if im, ok := l.(*layer.Image); ok {
			images[spec.Name] = im
		}
		v.AddLayer(l)
		log.Debug("layer built", "layer", spec.Name, "kind", string(spec.Kind))
	}

	if err := applyDims(v, s.Dims); err != nil {
		return nil, err
	}
	if s.Camera.Angles != nil {
		v.Camera.Angles = *s.Camera.Angles
	}
	return v, nil
}

// Override applies the explicit zoom, center and perspective of the scene
// camera over a fitted camera.
func (c Camera) Override(cam *camera.Camera) {
	if c.Zoom != nil {
		cam.Zoom = *c.Zoom
	}
	if c.Center != nil {
		cam.Center = slices.Clone(c.Center)
	}
	if c.Perspective != 0 {
		cam.Perspective = c.Perspective
	}
}

func applyDims(v *viewer.Viewer, d Dims) error {
	if d.NDisplay != 0 {
		if err := v.SetNDisplay(d.NDisplay); err != nil {
			return fmt.Errorf("scene: dims: %w", err)
		}
	}
	if d.Order != nil {
		if err := v.SetOrder(d.Order); err != nil {
			return fmt.Errorf("scene: dims: %w", err)
		}
	}
	for _, ax := range sortedKeys(d.Point) {
		if err := v.SetPoint(ax, d.Point[ax]); err != nil {
			return fmt.Errorf("scene: dims point: %w", err)
		}
	}
	for _, ax := range sortedKeys(d.Margins) {
		m := d.Margins[ax]
		if err := v.SetMargins(ax, m.Left, m.Right); err != nil {
			return fmt.Errorf("scene: dims margins: %w", err)
		}
	}
	return nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}

func layerOptions(spec *LayerSpec, t Transform, ndim int) layer.Options {
	opts := layer.Options{
		Name:       spec.Name,
		Scale:      t.Scale,
		Translate:  t.Translate,
		Shear:      t.Shear,
		Units:      t.Units,
		AxisLabels: t.AxisLabels,
		Hidden:     spec.Hidden,
	}
	if t.Rotate != 0 {
		opts.Rotate = layer.RotateLastTwo(ndim, t.Rotate)
	}
	return opts
}

func buildLayer(s *Scene, spec *LayerSpec, images map[string]*layer.Image, bo BuildOptions) (layer.Layer, error) {
	ndim := spec.LayerNDim()
	opts := layerOptions(spec, spec.Transform, ndim)

	switch spec.Kind {
	case layer.KindImage, layer.KindLabels:
		data := spec.Data
		if data == nil && spec.Pattern != "" {
			var err error
			if data, err = Fill(spec.Pattern, spec.Shape); err != nil {
				return nil, err
			}
		}
		if spec.Kind == layer.KindLabels {
			var labels []int
			if data != nil {
				labels = lo.Map(data, func(v float64, _ int) int { return int(v) })
			}
			return layer.NewLabels(spec.Shape, labels, opts)
		}
		return layer.NewImage(spec.Shape, data, max(spec.Levels, 1), opts)

	case layer.KindPoints:
		return layer.NewPoints(spec.Points, ndim, spec.Size, opts)

	case layer.KindShapes:
		specs := lo.Map(spec.Shapes, func(sh ShapeSpec, _ int) layer.ShapeSpec {
			return layer.ShapeSpec{Kind: sh.Kind, Data: sh.Data, EdgeWidth: sh.EdgeWidth, ZIndex: sh.ZIndex}
		})
		return layer.NewShapes(specs, ndim, bo.Backend, opts)

	case layer.KindSurface:
		if spec.Volume == "" {
			return layer.NewSurface(spec.Vertices, spec.Faces, spec.Values, opts)
		}
		return buildIsosurface(s, spec, images, bo)

	case layer.KindVectors:
		return layer.NewVectors(spec.Vectors, ndim, spec.Length, opts)

	case layer.KindTracks:
		return layer.NewTracks(spec.Tracks, spec.Tail, spec.Head, opts)
	}
	return nil, fmt.Errorf("unknown layer kind %q", spec.Kind)
}

// buildIsosurface extracts the surface of an earlier image layer. Without
// its own transform the surface takes the volume's.
func buildIsosurface(s *Scene, spec *LayerSpec, images map[string]*layer.Image, bo BuildOptions) (layer.Layer, error) {
	im, ok := images[spec.Volume]
	if !ok {
		return nil, fmt.Errorf("volume %q: %w", spec.Volume, ErrUnknownLayer)
	}
	data := im.Data()
	if data == nil {
		data, _ = Fill("zeros", im.Shape())
	}
	verts, faces, err := isosurface.Extract(im.Shape(), data, isosurface.Options{Level: spec.Level, Cells: bo.Cells})
	if err != nil {
		return nil, err
	}
	t := spec.Transform
	if isZeroTransform(t) {
		if vol := s.Lookup(spec.Volume); vol != nil {
			t = vol.Transform
		}
	}
	return layer.NewSurface(verts, faces, nil, layerOptions(spec, t, 3))
}

func isZeroTransform(t Transform) bool {
	return t.Scale == nil && t.Translate == nil && t.Rotate == 0 && t.Shear == nil &&
		t.Units == nil && t.AxisLabels == nil
}
