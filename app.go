// Package ndview evaluates scene scripts into render meshes and a fitted
// camera. App is the entry point used by the ndview command.
package ndview

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/chazu/ndview/pkg/camera"
	"github.com/chazu/ndview/pkg/config"
	"github.com/chazu/ndview/pkg/engine"
	"github.com/chazu/ndview/pkg/layer"
	"github.com/chazu/ndview/pkg/logging"
	"github.com/chazu/ndview/pkg/render"
	"github.com/chazu/ndview/pkg/scene"
	"github.com/chazu/ndview/pkg/shapes"
	"github.com/chazu/ndview/pkg/tessellate"
	"github.com/chazu/ndview/pkg/triangulate"
	"github.com/chazu/ndview/pkg/triangulate/backends"
	"github.com/chazu/ndview/pkg/viewer"
)

// ErrNotShapes is returned by Mask for a layer that is not a shapes layer.
var ErrNotShapes = errors.New("ndview: not a shapes layer")

// App evaluates scripts with one engine and one triangulation backend.
type App struct {
	engine  *engine.Engine
	cfg     config.Config
	backend triangulate.Backend
}

// EvalErrorData is an error or warning in the JSON result.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
	Layer   string `json:"layer,omitempty"`
}

// EvalResult is everything one evaluation produces. Slices are never nil
// so the JSON always carries arrays.
type EvalResult struct {
	Meshes   []*render.Mesh  `json:"meshes"`
	Camera   *camera.Camera  `json:"camera,omitempty"`
	NDisplay int             `json:"ndisplay"`
	Canvas   [2]float64      `json:"canvas"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates an App with the default configuration.
func NewApp() *App {
	app, _ := NewAppWithConfig(config.Defaults())
	return app
}

// NewAppWithConfig creates an App from cfg. An unknown backend name is an
// error; an unavailable backend falls back as backends.Select describes.
func NewAppWithConfig(cfg config.Config) (*App, error) {
	b, err := backends.SelectName(cfg.Triangulation.Backend)
	if err != nil {
		return nil, fmt.Errorf("ndview: %w", err)
	}
	return &App{
		engine:  engine.NewEngine(engine.WithTimeout(cfg.Engine.Timeout())),
		cfg:     cfg,
		backend: b,
	}, nil
}

// Backend is the triangulation backend in use.
func (a *App) Backend() triangulate.Backend { return a.backend }

// Evaluate runs source and returns the meshes of its visible layers with
// the camera fitted to them.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []*render.Mesh{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	v, warnings, errs := a.view(source, a.cfg.View.Margin)
	result.Warnings = append(result.Warnings, warnings...)
	if len(errs) > 0 {
		result.Errors = append(result.Errors, errs...)
		return result
	}

	meshes, err := tessellate.Tessellate(v.Layers(), tessellate.DefaultOptions)
	if err != nil {
		a.logger().Error("tessellate", "err", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}
	result.Meshes = append(result.Meshes, meshes...)
	cam := *v.Camera
	result.Camera = &cam
	result.NDisplay = v.Dims.NDisplay()
	result.Canvas = v.Canvas
	return result
}

// Fit evaluates source and returns only the fitted camera.
func (a *App) Fit(source string, margin float64) (camera.Camera, []EvalErrorData) {
	v, _, errs := a.view(source, margin)
	if len(errs) > 0 {
		return camera.Camera{}, errs
	}
	return *v.Camera, nil
}

// Mask rasterizes shape index of the named shapes layer. A nil maskShape
// covers the layer's data extent from the origin.
func (a *App) Mask(source, name string, index int, maskShape []int) (*shapes.Mask, []EvalErrorData) {
	v, _, errs := a.view(source, a.cfg.View.Margin)
	if len(errs) > 0 {
		return nil, errs
	}
	fail := func(err error) (*shapes.Mask, []EvalErrorData) {
		return nil, []EvalErrorData{{Message: err.Error(), Layer: name}}
	}
	l, err := v.Layer(name)
	if err != nil {
		return fail(err)
	}
	sl, ok := l.(*layer.Shapes)
	if !ok {
		return fail(fmt.Errorf("%w: %s", ErrNotShapes, l.Kind()))
	}
	if index < 0 || index >= sl.Len() {
		return fail(fmt.Errorf("ndview: shape %d of %d", index, sl.Len()))
	}
	if maskShape == nil {
		maskShape = coverShape(sl.DataExtent())
	}
	masks, err := sl.ToMasks(maskShape)
	if err != nil {
		return fail(err)
	}
	return masks[index], nil
}

// view runs the engine, builds the viewer and fits the camera with margin.
func (a *App) view(source string, margin float64) (*viewer.Viewer, []EvalErrorData, []EvalErrorData) {
	res, err := a.engine.Run(source)
	if err != nil {
		a.logger().Error("evaluate", "err", err)
		return nil, nil, []EvalErrorData{{Message: err.Error()}}
	}
	warnings := make([]EvalErrorData, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, EvalErrorData{Message: w.Message, Layer: w.Layer})
	}
	if len(res.Errors) > 0 {
		errs := make([]EvalErrorData, 0, len(res.Errors))
		for _, e := range res.Errors {
			errs = append(errs, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message, Layer: e.Layer})
		}
		return nil, warnings, errs
	}

	s := res.Scene
	v, err := scene.Build(s, scene.BuildOptions{
		Backend:        a.backend,
		Canvas:         a.cfg.View.Canvas,
		NDisplay:       a.cfg.View.NDisplay,
		ShapeThreshold: a.cfg.View.ShapeThreshold,
	})
	if err != nil {
		a.logger().Error("build scene", "err", err)
		return nil, warnings, []EvalErrorData{{Message: err.Error()}}
	}
	if _, err := v.FitToView(margin); err != nil {
		return nil, warnings, []EvalErrorData{{Message: err.Error()}}
	}
	s.Camera.Override(v.Camera)
	v.UpdateDraw()
	a.logger().Debug("scene built", "layers", v.Len(), "ndisplay", v.Dims.NDisplay(), "zoom", v.Camera.Zoom)
	return v, warnings, nil
}

func (a *App) logger() *slog.Logger { return logging.WithComponent("app") }

// coverShape is the smallest mask shape holding the upper corner of box.
func coverShape(box [2][]float64) []int {
	out := make([]int, len(box[1]))
	for i, hi := range box[1] {
		if math.IsNaN(hi) || hi < 0 {
			out[i] = 1
			continue
		}
		out[i] = int(math.Floor(hi)) + 1
	}
	return out
}
