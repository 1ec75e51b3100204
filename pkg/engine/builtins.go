package engine

import (
	"fmt"
	"math"
	"slices"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/samber/lo"

	"github.com/chazu/ndview/pkg/camera"
	"github.com/chazu/ndview/pkg/layer"
	"github.com/chazu/ndview/pkg/scene"
	"github.com/chazu/ndview/pkg/shapes"
)

type builtinFunc = func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error)

// registerBuiltins installs the scene forms into env. Every form appends
// to s; layer forms return a reference that can be passed to :volume.
func registerBuiltins(env *zygo.Zlisp, s *scene.Scene) {
	env.AddFunction("image", imageForm(s, layer.KindImage))
	env.AddFunction("labels", imageForm(s, layer.KindLabels))
	env.AddFunction("points", pointsForm(s))
	for _, k := range []shapes.Kind{shapes.Rectangle, shapes.Ellipse, shapes.Polygon, shapes.Path, shapes.Line} {
		env.AddFunction(string(k), shapeForm(s, k))
	}
	env.AddFunction("shapes", shapesForm(s))
	env.AddFunction("surface", surfaceForm(s))
	env.AddFunction("vectors", vectorsForm(s))
	env.AddFunction("tracks", tracksForm(s))
	env.AddFunction("dims", dimsForm(s))
	env.AddFunction("camera", cameraForm(s))
	env.AddFunction("grid", gridForm(s))
	env.AddFunction("canvas", canvasForm(s))
}

// ---------------------------------------------------------------------------
// Custom Sexp types
// ---------------------------------------------------------------------------

// sexpLayer is the value of a layer form.
type sexpLayer struct {
	name string
	kind layer.Kind
}

func (l *sexpLayer) SexpString(*zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", l.kind, l.name)
}

func (l *sexpLayer) Type() *zygo.RegisteredType { return nil }

// sexpShape is an unnamed shape waiting to be collected by (shapes ...).
type sexpShape struct {
	spec scene.ShapeSpec
}

func (sh *sexpShape) SexpString(*zygo.PrintState) string {
	return fmt.Sprintf("(%s %d vertices)", sh.spec.Kind, len(sh.spec.Data))
}

func (sh *sexpShape) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Layer forms
// ---------------------------------------------------------------------------

// (image "name" :shape (list 10 20) [:data (list ...) | :pattern :ramp] :multiscale 3)
func imageForm(s *scene.Scene, kind layer.Kind) builtinFunc {
	return func(_ *zygo.Zlisp, form string, raw []zygo.Sexp) (zygo.Sexp, error) {
		a := newArgs(form, raw)
		spec := &scene.LayerSpec{Kind: kind, Name: a.name()}
		read(a, "shape", toInts, &spec.Shape)
		read(a, "data", toFloats, &spec.Data)
		read(a, "pattern", toKeywordString, &spec.Pattern)
		read(a, "multiscale", toInt, &spec.Levels)
		readLayerCommon(a, spec)
		return addLayer(s, a, spec)
	}
}

// (points "name" (list (list y x) ...) :size 4 :ndim 2)
func pointsForm(s *scene.Scene) builtinFunc {
	return func(_ *zygo.Zlisp, form string, raw []zygo.Sexp) (zygo.Sexp, error) {
		a := newArgs(form, raw)
		spec := &scene.LayerSpec{Kind: layer.KindPoints, Name: a.name()}
		if v, ok := a.next(); ok {
			spec.Points = a.rows(v)
		}
		read(a, "size", toFloat64, &spec.Size)
		read(a, "ndim", toInt, &spec.NDim)
		readLayerCommon(a, spec)
		return addLayer(s, a, spec)
	}
}

// A shape form with a name adds a one-shape layer; without one it returns
// the shape for (shapes ...).
//
//	(polygon "tri" (list (list 0 0) (list 0 10) (list 10 0)) :edge-width 2)
//	(shapes "boxes" (rectangle (list (list 0 0) (list 5 5))) ...)
func shapeForm(s *scene.Scene, kind shapes.Kind) builtinFunc {
	return func(_ *zygo.Zlisp, form string, raw []zygo.Sexp) (zygo.Sexp, error) {
		a := newArgs(form, raw)
		name := a.name()
		sh := scene.ShapeSpec{Kind: kind, EdgeWidth: 1}
		v, ok := a.next()
		if !ok {
			return zygo.SexpNull, fmt.Errorf("%s: missing vertex list", form)
		}
		sh.Data = a.rows(v)
		read(a, "edge-width", toFloat64, &sh.EdgeWidth)
		read(a, "z-index", toInt, &sh.ZIndex)
		if name == "" {
			if err := a.done(); err != nil {
				return zygo.SexpNull, err
			}
			return &sexpShape{spec: sh}, nil
		}
		spec := &scene.LayerSpec{Kind: layer.KindShapes, Name: name, Shapes: []scene.ShapeSpec{sh}}
		read(a, "ndim", toInt, &spec.NDim)
		readLayerCommon(a, spec)
		return addLayer(s, a, spec)
	}
}

// (shapes "name" shape... :ndim 2)
func shapesForm(s *scene.Scene) builtinFunc {
	return func(_ *zygo.Zlisp, form string, raw []zygo.Sexp) (zygo.Sexp, error) {
		a := newArgs(form, raw)
		spec := &scene.LayerSpec{Kind: layer.KindShapes, Name: a.name()}
		for {
			v, ok := a.next()
			if !ok {
				break
			}
			got, err := collectShapes(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
			}
			spec.Shapes = append(spec.Shapes, got...)
		}
		read(a, "ndim", toInt, &spec.NDim)
		readLayerCommon(a, spec)
		return addLayer(s, a, spec)
	}
}

// collectShapes accepts a shape or a list of shapes.
func collectShapes(v zygo.Sexp) ([]scene.ShapeSpec, error) {
	if sh, ok := v.(*sexpShape); ok {
		return []scene.ShapeSpec{sh.spec}, nil
	}
	items, err := sexpListToSlice(v)
	if err != nil {
		return nil, fmt.Errorf("expected shape, got %s", v.SexpString(nil))
	}
	var out []scene.ShapeSpec
	for _, it := range items {
		sh, ok := it.(*sexpShape)
		if !ok {
			return nil, fmt.Errorf("expected shape, got %s", it.SexpString(nil))
		}
		out = append(out, sh.spec)
	}
	return out, nil
}

// (surface "name" :vertices rows :faces (list (list 0 1 2)) :values (list ...))
// (surface "name" :volume vol :level 0.5)
func surfaceForm(s *scene.Scene) builtinFunc {
	return func(_ *zygo.Zlisp, form string, raw []zygo.Sexp) (zygo.Sexp, error) {
		a := newArgs(form, raw)
		spec := &scene.LayerSpec{Kind: layer.KindSurface, Name: a.name()}
		read(a, "vertices", toRows, &spec.Vertices)
		read(a, "faces", toFaces, &spec.Faces)
		read(a, "values", toFloats, &spec.Values)
		read(a, "volume", toLayerName, &spec.Volume)
		read(a, "level", toFloat64, &spec.Level)
		readLayerCommon(a, spec)
		return addLayer(s, a, spec)
	}
}

// (vectors "name" (list (list origin direction) ...) :length 2 :ndim 2)
func vectorsForm(s *scene.Scene) builtinFunc {
	return func(_ *zygo.Zlisp, form string, raw []zygo.Sexp) (zygo.Sexp, error) {
		a := newArgs(form, raw)
		spec := &scene.LayerSpec{Kind: layer.KindVectors, Name: a.name(), Length: 1}
		if v, ok := a.next(); ok {
			vecs, err := toVectors(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
			}
			spec.Vectors = vecs
		}
		read(a, "length", toFloat64, &spec.Length)
		read(a, "ndim", toInt, &spec.NDim)
		readLayerCommon(a, spec)
		return addLayer(s, a, spec)
	}
}

// (tracks "name" (list (list id t y x) ...) :tail 10 :head 0)
func tracksForm(s *scene.Scene) builtinFunc {
	return func(_ *zygo.Zlisp, form string, raw []zygo.Sexp) (zygo.Sexp, error) {
		a := newArgs(form, raw)
		spec := &scene.LayerSpec{Kind: layer.KindTracks, Name: a.name()}
		if v, ok := a.next(); ok {
			spec.Tracks = a.rows(v)
		}
		read(a, "tail", toFloat64, &spec.Tail)
		read(a, "head", toFloat64, &spec.Head)
		readLayerCommon(a, spec)
		return addLayer(s, a, spec)
	}
}

func readLayerCommon(a *args, spec *scene.LayerSpec) {
	t := &spec.Transform
	read(a, "scale", toFloats, &t.Scale)
	read(a, "translate", toFloats, &t.Translate)
	read(a, "rotate", toFloat64, &t.Rotate)
	read(a, "shear", toFloats, &t.Shear)
	read(a, "units", toStrings, &t.Units)
	read(a, "axis-labels", toStrings, &t.AxisLabels)
	read(a, "hidden", toBool, &spec.Hidden)
}

func addLayer(s *scene.Scene, a *args, spec *scene.LayerSpec) (zygo.Sexp, error) {
	if err := a.done(); err != nil {
		return zygo.SexpNull, err
	}
	if err := s.AddLayer(spec); err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: %w", a.form, err)
	}
	return &sexpLayer{name: spec.Name, kind: spec.Kind}, nil
}

// ---------------------------------------------------------------------------
// Settings forms
// ---------------------------------------------------------------------------

// (dims :ndisplay 3 :order (list 0 2 1) :point (list (list 0 12)) :margins (list (list 0 1 1)))
//
// :point rows are (axis value); :margins rows are (axis left right).
func dimsForm(s *scene.Scene) builtinFunc {
	return func(_ *zygo.Zlisp, form string, raw []zygo.Sexp) (zygo.Sexp, error) {
		a := newArgs(form, raw)
		d := &s.Dims
		read(a, "ndisplay", toInt, &d.NDisplay)
		read(a, "order", toInts, &d.Order)
		var rows [][]float64
		if read(a, "point", toRows, &rows) {
			if d.Point == nil {
				d.Point = make(map[int]float64)
			}
			for _, r := range rows {
				if len(r) != 2 || !isWhole(r[0]) {
					a.fail(":point: want (axis value), got %v", r)
					break
				}
				d.Point[int(r[0])] = r[1]
			}
		}
		rows = nil
		if read(a, "margins", toRows, &rows) {
			if d.Margins == nil {
				d.Margins = make(map[int]scene.Margin)
			}
			for _, r := range rows {
				if len(r) != 3 || !isWhole(r[0]) {
					a.fail(":margins: want (axis left right), got %v", r)
					break
				}
				d.Margins[int(r[0])] = scene.Margin{Left: r[1], Right: r[2]}
			}
		}
		return zygo.SexpNull, a.done()
	}
}

// (camera :angles (list 0 30 60) :zoom 2 :center (list 10 10) :perspective 0)
func cameraForm(s *scene.Scene) builtinFunc {
	return func(_ *zygo.Zlisp, form string, raw []zygo.Sexp) (zygo.Sexp, error) {
		a := newArgs(form, raw)
		c := &s.Camera
		var angles [3]float64
		if read(a, "angles", toVec3, &angles) {
			c.Angles = &angles
		}
		var zoom float64
		if read(a, "zoom", toFloat64, &zoom) {
			c.Zoom = &zoom
		}
		read(a, "center", toFloats, &c.Center)
		read(a, "perspective", toFloat64, &c.Perspective)
		return zygo.SexpNull, a.done()
	}
}

// (grid :enabled true :shape (list -1 2) :stride 1 :spacing 0)
func gridForm(s *scene.Scene) builtinFunc {
	return func(_ *zygo.Zlisp, form string, raw []zygo.Sexp) (zygo.Sexp, error) {
		a := newArgs(form, raw)
		if s.Grid == nil {
			g := camera.DefaultGrid()
			g.Enabled = true
			s.Grid = &g
		}
		g := s.Grid
		read(a, "enabled", toBool, &g.Enabled)
		var shape []int
		if read(a, "shape", toInts, &shape) {
			if len(shape) != 2 {
				a.fail(":shape: want (rows cols), got %v", shape)
			} else {
				g.Shape = [2]int{shape[0], shape[1]}
			}
		}
		read(a, "stride", toInt, &g.Stride)
		read(a, "spacing", toFloat64, &g.Spacing)
		return zygo.SexpNull, a.done()
	}
}

// (canvas height width)
func canvasForm(s *scene.Scene) builtinFunc {
	return func(_ *zygo.Zlisp, form string, raw []zygo.Sexp) (zygo.Sexp, error) {
		a := newArgs(form, raw)
		for i := range s.Canvas {
			v, ok := a.next()
			if !ok {
				return zygo.SexpNull, fmt.Errorf("%s: want height and width", form)
			}
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", form, err)
			}
			s.Canvas[i] = f
		}
		return zygo.SexpNull, a.done()
	}
}

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return strings.TrimPrefix(str.S, kwPrefix), true
}

// kwArgs splits a form's arguments into keywords and positionals.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs pairs every keyword with the argument after it. A trailing
// keyword with nothing after it maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	res := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			res.positional = append(res.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			res.kw[name] = args[i+1]
			i++
		} else {
			res.kw[name] = zygo.SexpNull
		}
	}
	return res
}

// args consumes a form's arguments. The first conversion error is kept
// and reported by done, together with anything left unconsumed.
type args struct {
	form string
	kwArgs
	err error
}

func newArgs(form string, raw []zygo.Sexp) *args {
	return &args{form: form, kwArgs: parseArgs(raw)}
}

func (a *args) fail(format string, v ...any) {
	if a.err == nil {
		a.err = fmt.Errorf("%s: "+format, append([]any{a.form}, v...)...)
	}
}

// name pops a leading string positional.
func (a *args) name() string {
	if len(a.positional) == 0 {
		return ""
	}
	str, ok := a.positional[0].(*zygo.SexpStr)
	if !ok {
		return ""
	}
	a.positional = a.positional[1:]
	return str.S
}

func (a *args) next() (zygo.Sexp, bool) {
	if len(a.positional) == 0 {
		return nil, false
	}
	v := a.positional[0]
	a.positional = a.positional[1:]
	return v, true
}

func (a *args) take(key string) (zygo.Sexp, bool) {
	v, ok := a.kw[key]
	delete(a.kw, key)
	return v, ok
}

func (a *args) rows(v zygo.Sexp) [][]float64 {
	rows, err := toRows(v)
	if err != nil {
		a.fail("%v", err)
	}
	return rows
}

func (a *args) done() error {
	if a.err != nil {
		return a.err
	}
	if len(a.kw) > 0 {
		keys := lo.Keys(a.kw)
		slices.Sort(keys)
		return fmt.Errorf("%s: unknown keyword :%s", a.form, keys[0])
	}
	if len(a.positional) > 0 {
		return fmt.Errorf("%s: unexpected argument %s", a.form, a.positional[0].SexpString(nil))
	}
	return nil
}

// read converts keyword key into dst and reports whether it was set.
func read[T any](a *args, key string, conv func(zygo.Sexp) (T, error), dst *T) bool {
	v, ok := a.take(key)
	if !ok {
		return false
	}
	x, err := conv(v)
	if err != nil {
		a.fail(":%s: %v", key, err)
		return false
	}
	*dst = x
	return true
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a SexpInt or SexpFloat.
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if !isWhole(f) {
		return 0, fmt.Errorf("expected integer, got %g", f)
	}
	return int(f), nil
}

func isWhole(f float64) bool { return f == math.Trunc(f) && !math.IsInf(f, 0) }

func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %s", s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %s", s.SexpString(nil))
}

// toKeywordString accepts :ramp as well as "ramp".
func toKeywordString(s zygo.Sexp) (string, error) {
	str, err := toString(s)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(str, kwPrefix), nil
}

// toLayerName accepts a layer reference or a layer name.
func toLayerName(s zygo.Sexp) (string, error) {
	if l, ok := s.(*sexpLayer); ok {
		return l.name, nil
	}
	return toString(s)
}

// sexpListToSlice converts a list or array to a Go slice. The empty list
// gives nil.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list, got %s", s.SexpString(nil))
}

func listOf[T any](s zygo.Sexp, conv func(zygo.Sexp) (T, error)) ([]T, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(items))
	for i, it := range items {
		if out[i], err = conv(it); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	return out, nil
}

func toFloats(s zygo.Sexp) ([]float64, error) { return listOf(s, toFloat64) }
func toInts(s zygo.Sexp) ([]int, error) { return listOf(s, toInt) }
func toStrings(s zygo.Sexp) ([]string, error) { return listOf(s, toKeywordString) }
func toRows(s zygo.Sexp) ([][]float64, error) { return listOf(s, toFloats) }

func toVec3(s zygo.Sexp) ([3]float64, error) {
	v, err := toFloats(s)
	if err != nil {
		return [3]float64{}, err
	}
	if len(v) != 3 {
		return [3]float64{}, fmt.Errorf("want 3 values, got %d", len(v))
	}
	return [3]float64{v[0], v[1], v[2]}, nil
}

func toFaces(s zygo.Sexp) ([][3]int, error) {
	return listOf(s, func(f zygo.Sexp) ([3]int, error) {
		idx, err := toInts(f)
		if err != nil {
			return [3]int{}, err
		}
		if len(idx) != 3 {
			return [3]int{}, fmt.Errorf("face has %d vertices, want 3", len(idx))
		}
		return [3]int{idx[0], idx[1], idx[2]}, nil
	})
}

// toVectors reads (origin direction) pairs.
func toVectors(s zygo.Sexp) ([][2][]float64, error) {
	return listOf(s, func(p zygo.Sexp) ([2][]float64, error) {
		rows, err := toRows(p)
		if err != nil {
			return [2][]float64{}, err
		}
		if len(rows) != 2 {
			return [2][]float64{}, fmt.Errorf("want (origin direction), got %d rows", len(rows))
		}
		return [2][]float64{rows[0], rows[1]}, nil
	})
}
