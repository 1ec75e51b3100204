package viewer_test

import (
	"testing"

	"github.com/chazu/ndview/pkg/camera"
	"github.com/chazu/ndview/pkg/layer"
	"github.com/chazu/ndview/pkg/slicing"
	"github.com/chazu/ndview/pkg/viewer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addImage(t *testing.T, v *viewer.Viewer, shape []int, opts layer.Options) *layer.Image {
	t.Helper()
	im, err := layer.NewImage(shape, nil, 1, opts)
	require.NoError(t, err)
	v.AddLayer(im)
	return im
}

func TestEmptyViewerFit(t *testing.T) {
	v := viewer.New(viewer.Options{})
	assert.Equal(t, [2][]float64{{-0.5, -0.5}, {511.5, 511.5}}, v.SlicedExtentWorldAugmented())

	res, err := v.FitToView(0.05)
	require.NoError(t, err)
	assert.Equal(t, []float64{255.5, 255.5}, res.Center)
	assert.InDelta(t, 0.95*600/512, res.Zoom, 1e-12)
}

func TestFitToViewScenario(t *testing.T) {
	v := viewer.New(viewer.Options{Canvas: [2]float64{800, 600}})
	for _, tr := range [][]float64{{0.5, 0.5}, {0.5, 50.5}, {25.5, 0.5}, {25.5, 50.5}} {
		addImage(t, v, []int{25, 50}, layer.Options{Translate: tr})
	}
	require.Equal(t, 4, v.Len())
	box := v.SlicedExtentWorldAugmented()
	assert.InDeltaSlice(t, []float64{0, 0}, box[0], 1e-12)
	assert.InDeltaSlice(t, []float64{50, 100}, box[1], 1e-12)

	var got []camera.FitResult
	v.OnResetView(func(r camera.FitResult) { got = append(got, r) })

	res, err := v.FitToView(0.05)
	require.NoError(t, err)
	assert.InDelta(t, 0.95*6, res.Zoom, 1e-9)
	assert.InDeltaSlice(t, []float64{25, 50}, res.Center, 1e-12)
	assert.Equal(t, res.Zoom, v.Camera.Zoom)
	require.Len(t, got, 1)
	assert.Equal(t, res, got[0])
}

func TestFitToViewBadMargin(t *testing.T) {
	v := viewer.New(viewer.Options{})
	_, err := v.FitToView(1)
	assert.ErrorIs(t, err, camera.ErrInvalidMargin)
}

func TestHiddenLayerIgnored(t *testing.T) {
	v := viewer.New(viewer.Options{})
	addImage(t, v, []int{10, 10}, layer.Options{})
	addImage(t, v, []int{100, 100}, layer.Options{Hidden: true})
	box := v.SlicedExtentWorldAugmented()
	assert.Equal(t, [2][]float64{{-0.5, -0.5}, {9.5, 9.5}}, box)
}

func TestDimsFollowLayers(t *testing.T) {
	v := viewer.New(viewer.Options{})
	im := addImage(t, v, []int{5, 10, 10}, layer.Options{Scale: []float64{2, 1, 1}})
	assert.Equal(t, 3, v.Dims.NDim())
	assert.Equal(t, slicing.Range{Start: 0, Stop: 8, Step: 2}, v.Dims.Ranges()[0])

	require.NoError(t, v.SetPoint(0, 4))
	assert.Equal(t, []int{2, -1, -1}, im.SliceIndex())
	assert.Equal(t, 0, v.Refresh(false), "unchanged dims")

	p, err := layer.NewPoints([][]float64{{20, 30}}, 2, 1, layer.Options{})
	require.NoError(t, err)
	v.AddLayer(p)
	box := v.ExtentWorldAugmented()
	assert.InDeltaSlice(t, []float64{-1, -0.5, -0.5}, box[0], 1e-12)
	assert.InDeltaSlice(t, []float64{9, 20.5, 30.5}, box[1], 1e-12)

	require.NoError(t, v.RemoveLayer(0))
	assert.Equal(t, 2, v.Dims.NDim())
	assert.ErrorIs(t, v.RemoveLayer(5), viewer.ErrNoLayer)
}

func TestResetView3D(t *testing.T) {
	v := viewer.New(viewer.Options{})
	addImage(t, v, []int{10, 20, 30}, layer.Options{})
	require.NoError(t, v.SetNDisplay(3))
	v.Camera.Angles = [3]float64{10, 20, 30}

	res, err := v.ResetView(0)
	require.NoError(t, err)
	assert.Equal(t, camera.DefaultAngles, v.Camera.Angles)
	assert.Len(t, res.Center, 3)
	assert.InDeltaSlice(t, []float64{4.5, 9.5, 14.5}, res.Center, 1e-12)
}

func TestValueAtTopmost(t *testing.T) {
	v := viewer.New(viewer.Options{})
	lb, err := layer.NewLabels([]int{2, 2}, []int{1, 2, 3, 4}, layer.Options{Name: "labels"})
	require.NoError(t, err)
	v.AddLayer(lb)
	p, err := layer.NewPoints([][]float64{{1, 1}}, 2, 1, layer.Options{Name: "points"})
	require.NoError(t, err)
	v.AddLayer(p)

	hit, ok := v.ValueAt([]float64{1, 1})
	require.True(t, ok)
	assert.Equal(t, 1, hit.Layer)
	assert.Equal(t, layer.KindPoints, hit.Value.Kind)

	hit, ok = v.ValueAt([]float64{0, 1})
	require.True(t, ok)
	assert.Equal(t, 0, hit.Layer)
	assert.Equal(t, 2.0, hit.Value.Data)

	l, err := v.Layer("points")
	require.NoError(t, err)
	assert.Equal(t, layer.KindPoints, l.Kind())
	_, err = v.Layer("missing")
	assert.ErrorIs(t, err, viewer.ErrNoLayer)
}

func TestUpdateDrawLevels(t *testing.T) {
	v := viewer.New(viewer.Options{})
	im, err := layer.NewImage([]int{1024, 1024}, nil, 3, layer.Options{})
	require.NoError(t, err)
	v.AddLayer(im)
	_, err = v.FitToView(0)
	require.NoError(t, err)

	v.UpdateDraw()
	assert.Equal(t, 0, im.Base().DataLevel())

	v.Camera.Zoom = 0.1
	v.UpdateDraw()
	assert.Equal(t, 2, im.Base().DataLevel())
	assert.InDelta(t, 10, im.Base().ScaleFactor(), 1e-12)
}
