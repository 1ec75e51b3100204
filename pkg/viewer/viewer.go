// Package viewer ties layers, the dims model, the camera and the grid
// together: it keeps dims in step with the layers, pushes slice changes
// into them and fits the camera to what is visible.
package viewer

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/chazu/ndview/pkg/camera"
	"github.com/chazu/ndview/pkg/extent"
	"github.com/chazu/ndview/pkg/layer"
	"github.com/chazu/ndview/pkg/logging"
	"github.com/chazu/ndview/pkg/slicing"
)

// DefaultCanvas is the (height, width) used when none is configured.
var DefaultCanvas = [2]float64{600, 800}

// Default world box bounds used on displayed axes no layer covers.
const (
	emptyLow  = -0.5
	emptyHigh = 511.5
)

var ErrNoLayer = errors.New("viewer: no such layer")

// Options configure a new viewer.
type Options struct {
	Canvas   [2]float64
	Grid     camera.Grid
	NDisplay int
	// ShapeThreshold is the on-screen size multiscale layers aim for; zero
	// uses the canvas.
	ShapeThreshold [2]float64
}

// ResetViewFunc receives the camera state after every fit.
type ResetViewFunc func(camera.FitResult)

// Viewer is the viewer model.
type Viewer struct {
	Dims   *slicing.Dims
	Camera *camera.Camera
	Grid   camera.Grid
	Canvas [2]float64

	ShapeThreshold [2]float64

	layers    []layer.Layer
	listeners []ResetViewFunc
}

// New returns an empty 2D viewer.
func New(opts Options) *Viewer {
	if opts.Canvas == ([2]float64{}) {
		opts.Canvas = DefaultCanvas
	}
	if opts.Grid == (camera.Grid{}) {
		opts.Grid = camera.DefaultGrid()
	}
	v := &Viewer{
		Dims:   slicing.NewDims(2),
		Camera: camera.New(),
		Grid:   opts.Grid,
		Canvas: opts.Canvas,

		ShapeThreshold: opts.ShapeThreshold,
	}
	if opts.NDisplay == 3 {
		_ = v.Dims.SetNDisplay(3)
		v.Camera.Center = []float64{0, 0, 0}
	}
	return v
}

// Layers returns the layers in draw order.
func (v *Viewer) Layers() []layer.Layer { return slices.Clone(v.layers) }

// Len returns the number of layers.
func (v *Viewer) Len() int { return len(v.layers) }

// Layer returns the first layer with the given name.
func (v *Viewer) Layer(name string) (layer.Layer, error) {
	l, ok := lo.Find(v.layers, func(l layer.Layer) bool { return l.Base().Name == name })
	if !ok {
		return nil, fmt.Errorf("viewer: layer %q: %w", name, ErrNoLayer)
	}
	return l, nil
}

// OnResetView registers fn to run after every fit.
func (v *Viewer) OnResetView(fn ResetViewFunc) {
	v.listeners = append(v.listeners, fn)
}

// AddLayer appends l, grows the dims to cover it and slices it.
func (v *Viewer) AddLayer(l layer.Layer) {
	v.layers = append(v.layers, l)
	v.logger().Debug("layer added", "layer", l.Base().Name, "kind", string(l.Kind()), "ndim", l.NDim())
	v.updateDims()
	v.Refresh(true)
}

// RemoveLayer removes the layer at index i.
func (v *Viewer) RemoveLayer(i int) error {
	if i < 0 || i >= len(v.layers) {
		return fmt.Errorf("viewer: remove %d of %d layers: %w", i, len(v.layers), ErrNoLayer)
	}
	v.layers = slices.Delete(v.layers, i, i+1)
	v.updateDims()
	v.Refresh(false)
	return nil
}

// updateDims resizes the dims to the widest layer and resets the ranges
// from the world extent of every layer.
func (v *Viewer) updateDims() {
	ndim := 2
	for _, l := range v.layers {
		ndim = max(ndim, l.NDim())
	}
	if ndim != v.Dims.NDim() {
		v.Dims.SetNDim(ndim)
	}

	boxes := make([][2][]float64, 0, len(v.layers))
	steps := make([]float64, ndim)
	for i := range steps {
		steps[i] = math.Inf(1)
	}
	for _, l := range v.layers {
		e := l.Base().Extent()
		boxes = append(boxes, e.World)
		off := ndim - len(e.Step)
		for i, s := range e.Step {
			if s > 0 {
				steps[i+off] = math.Min(steps[i+off], s)
			}
		}
	}
	world := extent.Union(ndim, boxes...)
	ranges := make([]slicing.Range, ndim)
	for i := range ranges {
		if math.IsNaN(world[0][i]) || math.IsNaN(world[1][i]) {
			ranges[i] = slicing.DefaultRange
			continue
		}
		step := steps[i]
		if math.IsInf(step, 1) {
			step = 1
		}
		ranges[i] = slicing.Range{Start: world[0][i], Stop: world[1][i], Step: step}
	}
	if err := v.Dims.SetRanges(ranges); err != nil {
		v.logger().Error("set dims ranges", "err", err)
	}
}

// Refresh re-slices every layer against the current dims and returns how
// many layers were re-sliced.
func (v *Viewer) Refresh(force bool) int {
	n := 0
	for _, l := range v.layers {
		if l.Base().RefreshSlice(v.Dims, force) {
			n++
		}
	}
	return n
}

// SetNDisplay switches between 2D and 3D display.
func (v *Viewer) SetNDisplay(n int) error {
	if err := v.Dims.SetNDisplay(n); err != nil {
		return err
	}
	v.Refresh(false)
	return nil
}

// SetOrder changes the axis order.
func (v *Viewer) SetOrder(order []int) error {
	if err := v.Dims.SetOrder(order); err != nil {
		return err
	}
	v.Refresh(false)
	return nil
}

// SetPoint moves the slicing point on a world axis.
func (v *Viewer) SetPoint(axis int, value float64) error {
	if err := v.Dims.SetPoint(axis, value); err != nil {
		return err
	}
	v.Refresh(false)
	return nil
}

// SetMargins sets the thick-slice margins on a world axis.
func (v *Viewer) SetMargins(axis int, left, right float64) error {
	if err := v.Dims.SetMargins(axis, left, right); err != nil {
		return err
	}
	v.Refresh(false)
	return nil
}

// ExtentWorldAugmented is the union of the augmented world extents of the
// visible layers over all world axes.
func (v *Viewer) ExtentWorldAugmented() [2][]float64 {
	boxes := lo.FilterMap(v.layers, func(l layer.Layer, _ int) ([2][]float64, bool) {
		return l.Base().ExtentAugmented().World, l.Base().Visible
	})
	return extent.Union(v.Dims.NDim(), boxes...)
}

// SlicedExtentWorldAugmented restricts ExtentWorldAugmented to the
// displayed axes. Axes no visible layer covers get [-0.5, 511.5].
func (v *Viewer) SlicedExtentWorldAugmented() [2][]float64 {
	box := extent.Select(v.ExtentWorldAugmented(), v.Dims.Displayed())
	for i := range box[0] {
		if math.IsNaN(box[0][i]) || math.IsNaN(box[1][i]) {
			box[0][i], box[1][i] = emptyLow, emptyHigh
		}
	}
	return box
}

// FitToView centers the camera on the visible layers and zooms so they
// fill the canvas less margin, then notifies the reset-view listeners.
func (v *Viewer) FitToView(margin float64) (camera.FitResult, error) {
	res, err := camera.FitToView(camera.FitInput{
		Extent:   v.SlicedExtentWorldAugmented(),
		NDisplay: v.Dims.NDisplay(),
		Canvas:   v.Canvas,
		Grid:     v.Grid,
		NLayers:  len(v.layers),
		Margin:   margin,
		Angles:   v.Camera.Angles,
	})
	if err != nil {
		return camera.FitResult{}, fmt.Errorf("viewer: fit to view: %w", err)
	}
	v.Camera.Center = res.Center
	v.Camera.Zoom = res.Zoom
	v.Camera.Angles = res.Angles
	v.logger().Debug("fit to view", "center", res.Center, "zoom", res.Zoom)
	for _, fn := range v.listeners {
		fn(res)
	}
	return res, nil
}

// ResetView restores the default 3D angles when displaying in 3D and fits
// the view.
func (v *Viewer) ResetView(margin float64) (camera.FitResult, error) {
	if v.Dims.NDisplay() == 3 {
		v.Camera.Angles = camera.DefaultAngles
	}
	return v.FitToView(margin)
}

// Hit is a layer value found under a world position.
type Hit struct {
	Layer int
	Value layer.Value
}

// ValueAt returns the value of the topmost visible layer holding data at
// the world position.
func (v *Viewer) ValueAt(world []float64) (Hit, bool) {
	for i := len(v.layers) - 1; i >= 0; i-- {
		l := v.layers[i]
		if !l.Base().Visible {
			continue
		}
		if val, ok := l.ValueAt(world); ok {
			return Hit{Layer: i, Value: val}, true
		}
	}
	return Hit{}, false
}

// UpdateDraw tells every layer what part of the world the canvas shows so
// multiscale layers can pick a level. The canvas size is the shape
// threshold unless ShapeThreshold is set.
func (v *Viewer) UpdateDraw() {
	if v.Camera.Zoom <= 0 {
		return
	}
	threshold := []float64{v.Canvas[0], v.Canvas[1]}
	if v.ShapeThreshold[0] > 0 && v.ShapeThreshold[1] > 0 {
		threshold = []float64{v.ShapeThreshold[0], v.ShapeThreshold[1]}
	}
	for _, l := range v.layers {
		var corners [2][]float64
		if v.Dims.NDisplay() == 2 && len(v.Camera.Center) == 2 {
			half := []float64{v.Canvas[0] / 2 / v.Camera.Zoom, v.Canvas[1] / 2 / v.Camera.Zoom}
			corners = [2][]float64{
				{v.Camera.Center[0] - half[0], v.Camera.Center[1] - half[1]},
				{v.Camera.Center[0] + half[0], v.Camera.Center[1] + half[1]},
			}
		} else {
			corners = l.Base().SlicedExtentAugmented()
		}
		l.Base().UpdateDraw(1/v.Camera.Zoom, corners, threshold)
	}
}

func (v *Viewer) logger() *slog.Logger { return logging.WithComponent("viewer") }
