package scene_test

import (
	"strings"
	"testing"

	"github.com/chazu/ndview/pkg/camera"
	"github.com/chazu/ndview/pkg/layer"
	"github.com/chazu/ndview/pkg/scene"
	"github.com/chazu/ndview/pkg/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasError(errs []scene.ValidationError, substr string) bool {
	for _, e := range errs {
		if e.Severity == scene.SeverityError && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func hasWarning(ws []scene.ValidationWarning, substr string) bool {
	for _, w := range ws {
		if strings.Contains(w.Message, substr) {
			return true
		}
	}
	return false
}

func build(t *testing.T, specs ...*scene.LayerSpec) *scene.Scene {
	t.Helper()
	s := scene.New()
	for _, l := range specs {
		require.NoError(t, s.AddLayer(l))
	}
	return s
}

func TestAddLayer(t *testing.T) {
	s := scene.New()
	require.NoError(t, s.AddLayer(&scene.LayerSpec{Name: "a", Kind: layer.KindImage, Shape: []int{2, 2}}))
	err := s.AddLayer(&scene.LayerSpec{Name: "a", Kind: layer.KindPoints})
	assert.ErrorIs(t, err, scene.ErrDuplicateName)

	anon := &scene.LayerSpec{Kind: layer.KindPoints, NDim: 2}
	require.NoError(t, s.AddLayer(anon))
	assert.Equal(t, "points-1", anon.Name)
	assert.Equal(t, 2, s.Len())
	assert.Same(t, anon, s.Lookup("points-1"))
	assert.Nil(t, s.Lookup("missing"))
}

func TestFill(t *testing.T) {
	ramp, err := scene.Fill("ramp", []int{2, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75}, ramp)

	checker, err := scene.Fill("checker", []int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0, 1, 0, 1}, checker)

	ball, err := scene.Fill("ball", []int{3, 3, 3})
	require.NoError(t, err)
	assert.Equal(t, 1.0, ball[13], "center")
	assert.Less(t, ball[0], 0.0, "corner")

	_, err = scene.Fill("noise", []int{2, 2})
	assert.ErrorIs(t, err, scene.ErrPattern)
}

func TestValidateStructural(t *testing.T) {
	tests := []struct {
		name   string
		scene  *scene.Scene
		substr string
	}{
		{"unknown kind", &scene.Scene{Layers: []*scene.LayerSpec{{Name: "x", Kind: "volume"}}}, "unknown layer kind"},
		{"unnamed", &scene.Scene{Layers: []*scene.LayerSpec{{Kind: layer.KindImage, Shape: []int{2, 2}}}}, "has no name"},
		{"duplicate", &scene.Scene{Layers: []*scene.LayerSpec{
			{Name: "a", Kind: layer.KindImage, Shape: []int{2, 2}},
			{Name: "a", Kind: layer.KindImage, Shape: []int{2, 2}},
		}}, "duplicate layer name"},
		{"image shape", &scene.Scene{Layers: []*scene.LayerSpec{{Name: "a", Kind: layer.KindImage, Shape: []int{4}}}}, "at least 2 axes"},
		{"pattern", &scene.Scene{Layers: []*scene.LayerSpec{{Name: "a", Kind: layer.KindImage, Shape: []int{4, 4}, Pattern: "noise"}}}, "unknown pattern"},
		{"empty points", &scene.Scene{Layers: []*scene.LayerSpec{{Name: "p", Kind: layer.KindPoints}}}, "no data and no ndim"},
		{"missing volume", &scene.Scene{Layers: []*scene.LayerSpec{{Name: "s", Kind: layer.KindSurface, Volume: "v"}}}, "no such layer"},
		{"flat volume", &scene.Scene{Layers: []*scene.LayerSpec{
			{Name: "v", Kind: layer.KindImage, Shape: []int{4, 4}},
			{Name: "s", Kind: layer.KindSurface, Volume: "v"},
		}}, "want 3"},
		{"volume after surface", &scene.Scene{Layers: []*scene.LayerSpec{
			{Name: "s", Kind: layer.KindSurface, Volume: "v"},
			{Name: "v", Kind: layer.KindImage, Shape: []int{4, 4, 4}},
		}}, "before the surface"},
		{"ndisplay", &scene.Scene{Dims: scene.Dims{NDisplay: 4}}, "ndisplay"},
		{"order", &scene.Scene{Dims: scene.Dims{Order: []int{0, 0}}}, "not a permutation"},
		{"grid stride", &scene.Scene{Grid: &camera.Grid{Enabled: true}}, "stride"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := scene.Validate(tt.scene)
			assert.True(t, hasError(errs, tt.substr), "want %q in %v", tt.substr, errs)
		})
	}
}

func TestValidateGeometry(t *testing.T) {
	tests := []struct {
		name   string
		spec   *scene.LayerSpec
		substr string
	}{
		{"zero scale", &scene.LayerSpec{Name: "a", Kind: layer.KindImage, Shape: []int{4, 4}, Transform: scene.Transform{Scale: []float64{1, 0}}}, "is zero"},
		{"scale length", &scene.LayerSpec{Name: "a", Kind: layer.KindImage, Shape: []int{4, 4}, Transform: scene.Transform{Scale: []float64{1, 1, 1}}}, "scale has 3"},
		{"sample count", &scene.LayerSpec{Name: "a", Kind: layer.KindImage, Shape: []int{2, 2}, Data: []float64{1}}, "1 samples"},
		{"ragged points", &scene.LayerSpec{Name: "p", Kind: layer.KindPoints, Points: [][]float64{{1, 2}, {1, 2, 3}}}, "point 1 has 3"},
		{"short polygon", &scene.LayerSpec{Name: "s", Kind: layer.KindShapes, Shapes: []scene.ShapeSpec{
			{Kind: shapes.Polygon, Data: [][]float64{{0, 0}, {1, 1}}},
		}}, "want at least 3"},
		{"negative edge", &scene.LayerSpec{Name: "s", Kind: layer.KindShapes, Shapes: []scene.ShapeSpec{
			{Kind: shapes.Line, Data: [][]float64{{0, 0}, {1, 1}}, EdgeWidth: -1},
		}}, "negative"},
		{"bad face", &scene.LayerSpec{Name: "m", Kind: layer.KindSurface, Vertices: [][]float64{{0, 0, 0}}, Faces: [][3]int{{0, 1, 2}}}, "refers to vertex 1"},
		{"narrow tracks", &scene.LayerSpec{Name: "t", Kind: layer.KindTracks, Tracks: [][]float64{{1, 0, 5}}}, "at least 2 coordinates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := scene.ValidateAll(&scene.Scene{Layers: []*scene.LayerSpec{tt.spec}})
			assert.False(t, res.OK())
			assert.True(t, hasError(res.Errors, tt.substr), "want %q in %v", tt.substr, res.Errors)
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	s := build(t,
		&scene.LayerSpec{Name: "s", Kind: layer.KindShapes, Shapes: []scene.ShapeSpec{
			{Kind: shapes.Polygon, Data: [][]float64{{0, 0}, {1, 1}, {2, 2}}},
		}},
		&scene.LayerSpec{Name: "p", Kind: layer.KindPoints, NDim: 2},
	)
	s.Dims.NDisplay = 3
	res := scene.ValidateAll(s)
	assert.True(t, res.OK(), "%v", res.Errors)
	assert.True(t, hasWarning(res.Warnings, "collinear"))
	assert.True(t, hasWarning(res.Warnings, "is empty"))
	assert.True(t, hasWarning(res.Warnings, "3D display"))
}

func TestBuild(t *testing.T) {
	s := build(t,
		&scene.LayerSpec{Name: "img", Kind: layer.KindImage, Shape: []int{5, 20, 30}, Pattern: "ramp"},
		&scene.LayerSpec{Name: "pts", Kind: layer.KindPoints, Points: [][]float64{{2, 3}}, Size: 4},
	)
	s.Dims.Point = map[int]float64{0: 3}
	s.Canvas = [2]float64{400, 300}

	v, err := scene.Build(s, scene.BuildOptions{Canvas: [2]float64{10, 10}})
	require.NoError(t, err)
	assert.Equal(t, 2, v.Len())
	assert.Equal(t, 3, v.Dims.NDim())
	assert.Equal(t, [2]float64{400, 300}, v.Canvas)
	assert.Equal(t, 3.0, v.Dims.Point()[0])

	l, err := v.Layer("img")
	require.NoError(t, err)
	im := l.(*layer.Image)
	assert.Equal(t, []int{3, -1, -1}, im.SliceIndex())
	assert.InDelta(t, 1.0/3000, im.Data()[1], 1e-12)
}

func TestBuildIsosurface(t *testing.T) {
	s := build(t,
		&scene.LayerSpec{Name: "vol", Kind: layer.KindImage, Shape: []int{12, 12, 12}, Pattern: "ball",
			Transform: scene.Transform{Scale: []float64{2, 2, 2}}},
		&scene.LayerSpec{Name: "iso", Kind: layer.KindSurface, Volume: "vol", Level: 0.5},
	)
	s.Dims.NDisplay = 3
	angles := [3]float64{0, 0, 90}
	s.Camera.Angles = &angles

	v, err := scene.Build(s, scene.BuildOptions{})
	require.NoError(t, err)
	l, err := v.Layer("iso")
	require.NoError(t, err)
	surf := l.(*layer.Surface)
	assert.NotEmpty(t, surf.Faces())
	assert.Equal(t, []float64{2, 2, 2}, surf.Base().Scale(), "inherits the volume transform")
	assert.Equal(t, 3, v.Dims.NDisplay())
	assert.Equal(t, angles, v.Camera.Angles)
}

func TestBuildInvalid(t *testing.T) {
	s := &scene.Scene{Layers: []*scene.LayerSpec{{Name: "x", Kind: "volume"}}}
	_, err := scene.Build(s, scene.BuildOptions{})
	assert.ErrorIs(t, err, scene.ErrInvalid)
}

func TestCameraOverride(t *testing.T) {
	zoom := 3.0
	c := scene.Camera{Zoom: &zoom, Center: []float64{1, 2}}
	cam := camera.New()
	c.Override(cam)
	assert.Equal(t, 3.0, cam.Zoom)
	assert.Equal(t, []float64{1, 2}, cam.Center)

	scene.Camera{}.Override(cam)
	assert.Equal(t, 3.0, cam.Zoom)
}
