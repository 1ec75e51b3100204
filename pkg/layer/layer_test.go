package layer_test

import (
	"math"
	"testing"

	"github.com/chazu/ndview/pkg/layer"
	"github.com/chazu/ndview/pkg/shapes"
	"github.com/chazu/ndview/pkg/slicing"
	"github.com/chazu/ndview/pkg/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func image(t *testing.T, shape []int, opts layer.Options) *layer.Image {
	t.Helper()
	im, err := layer.NewImage(shape, nil, 1, opts)
	require.NoError(t, err)
	return im
}

func TestImageExtent(t *testing.T) {
	im := image(t, []int{10, 20}, layer.Options{Scale: []float64{2, 3}})

	e := im.Base().Extent()
	assert.Equal(t, [2][]float64{{0, 0}, {9, 19}}, e.Data)
	assert.InDeltaSlice(t, []float64{0, 0}, e.World[0], 1e-12)
	assert.InDeltaSlice(t, []float64{18, 57}, e.World[1], 1e-12)

	aug := im.Base().ExtentAugmented()
	assert.Equal(t, [2][]float64{{-0.5, -0.5}, {9.5, 19.5}}, aug.Data)
}

func TestTransformInvalidatesExtent(t *testing.T) {
	im := image(t, []int{4, 4}, layer.Options{})
	b := im.Base()
	b.Extent()
	n := b.ExtentCache().Recomputations()

	b.Extent()
	assert.Equal(t, n, b.ExtentCache().Recomputations(), "clean cache must not recompute")

	require.NoError(t, b.SetTranslate([]float64{5, 5}))
	e := b.Extent()
	assert.Equal(t, n+1, b.ExtentCache().Recomputations())
	assert.InDeltaSlice(t, []float64{5, 5}, e.World[0], 1e-12)
	assert.InDeltaSlice(t, []float64{8, 8}, e.World[1], 1e-12)
}

func TestSetScaleZero(t *testing.T) {
	im := image(t, []int{4, 4}, layer.Options{})
	err := im.Base().SetScale([]float64{0, 1})
	assert.ErrorIs(t, err, transform.ErrZeroScale)

	_, err = layer.NewImage([]int{4, 4}, nil, 1, layer.Options{Scale: []float64{1, 1, 1}})
	assert.ErrorIs(t, err, transform.ErrDimMismatch)
}

func TestWorldToDataRoundTrip(t *testing.T) {
	im := image(t, []int{8, 8}, layer.Options{
		Scale:     []float64{2, 4},
		Translate: []float64{1, -3},
		Rotate:    layer.RotateLastTwo(2, 30),
	})
	b := im.Base()
	for _, p := range [][]float64{{0, 0}, {3, 7}, {-2.5, 11}} {
		w := b.DataToWorldPoint(p)
		got, err := b.WorldToData(w)
		require.NoError(t, err)
		assert.InDeltaSlice(t, p, got, 1e-9)
	}
}

func TestImageValidation(t *testing.T) {
	tests := []struct {
		name  string
		shape []int
		data  []float64
	}{
		{"one dim", []int{4}, nil},
		{"negative", []int{4, -1}, nil},
		{"wrong length", []int{2, 2}, []float64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := layer.NewImage(tt.shape, tt.data, 1, layer.Options{})
			assert.ErrorIs(t, err, layer.ErrLayerData)
		})
	}
}

func TestLabelsValueAt(t *testing.T) {
	lb, err := layer.NewLabels([]int{2, 3}, []int{1, 2, 3, 4, 5, 6}, layer.Options{})
	require.NoError(t, err)
	assert.Equal(t, layer.KindLabels, lb.Kind())

	v, ok := lb.ValueAt([]float64{1, 2})
	require.True(t, ok)
	assert.Equal(t, 6.0, v.Data)
	assert.Equal(t, -1, v.Index)

	_, ok = lb.ValueAt([]float64{5, 5})
	assert.False(t, ok)
}

func TestRefreshSliceGating(t *testing.T) {
	im := image(t, []int{5, 10, 10}, layer.Options{})
	b := im.Base()
	assert.Equal(t, 1, b.Slices())

	dims := slicing.NewDims(3)
	assert.False(t, b.RefreshSlice(dims, false), "unchanged input must not re-slice")
	assert.Equal(t, 1, b.Slices())

	require.NoError(t, dims.SetPoint(0, 2))
	assert.True(t, b.RefreshSlice(dims, false))
	assert.Equal(t, 2, b.Slices())
	assert.Equal(t, []int{2, -1, -1}, im.SliceIndex())

	assert.True(t, b.RefreshSlice(dims, true))
	assert.Equal(t, 3, b.Slices())
}

func TestUpdateDims(t *testing.T) {
	p, err := layer.NewPoints([][]float64{{1, 2}}, 2, 0, layer.Options{Scale: []float64{2, 3}})
	require.NoError(t, err)
	require.NoError(t, p.SetData([][]float64{{0, 1, 2}}, 0))

	b := p.Base()
	assert.Equal(t, 3, p.NDim())
	assert.Equal(t, 3, b.SliceInput().NDim())
	assert.Equal(t, []float64{1, 2, 3}, b.Scale())
	assert.Equal(t, [2][]float64{{0, 1, 2}, {0, 1, 2}}, b.Extent().Data)

	require.NoError(t, p.SetData([][]float64{{4, 5}}, 0))
	assert.Equal(t, 2, b.SliceInput().NDim())
	assert.Equal(t, []float64{2, 3}, b.Scale())
}

func volume(t *testing.T) *layer.Image {
	t.Helper()
	im := image(t, []int{10, 10, 10}, layer.Options{})
	dims := slicing.NewDims(3)
	require.NoError(t, dims.SetNDisplay(3))
	im.Base().RefreshSlice(dims, false)
	return im
}

func TestRayIntersections(t *testing.T) {
	im := volume(t)
	b := im.Base()

	start, end := b.RayIntersections([]float64{5, 5, -5}, []float64{0, 0, 1}, []int{0, 1, 2}, false)
	require.NotNil(t, start)
	assert.InDeltaSlice(t, []float64{5, 5, 0}, start, 1e-9)
	assert.InDeltaSlice(t, []float64{5, 5, 10}, end, 1e-9)

	start, end = b.RayIntersections([]float64{20, 20, -5}, []float64{0, 0, 1}, []int{0, 1, 2}, false)
	assert.Nil(t, start)
	assert.Nil(t, end)

	start, _ = b.RayIntersections([]float64{5, 5, -5}, []float64{0, 0, 1}, []int{1, 2}, false)
	assert.Nil(t, start, "two displayed dims")
}

func TestRayIntersectionsWorld(t *testing.T) {
	im := volume(t)
	require.NoError(t, im.Base().SetScale([]float64{2, 2, 2}))

	start, end := im.Base().RayIntersections([]float64{10, 10, -10}, []float64{0, 0, 1}, []int{0, 1, 2}, true)
	require.NotNil(t, start)
	assert.InDeltaSlice(t, []float64{5, 5, 0}, start, 1e-9)
	assert.InDeltaSlice(t, []float64{5, 5, 10}, end, 1e-9)
}

func TestComputeLevel(t *testing.T) {
	down := [][]float64{{1, 1}, {2, 2}, {4, 4}}
	threshold := []float64{300, 300}

	assert.Equal(t, 1, layer.ComputeLevel([]float64{1000, 1000}, threshold, down))
	assert.Equal(t, 0, layer.ComputeLevel([]float64{200, 1000}, threshold, down))
	assert.Equal(t, 2, layer.ComputeLevel([]float64{5000, 5000}, threshold, down))

	level, corners := layer.ComputeLevelAndCorners([2][]int{{3, 3}, {1001, 1001}}, threshold, down)
	assert.Equal(t, 1, level)
	assert.Equal(t, [2][]int{{1, 1}, {501, 501}}, corners)
}

func TestUpdateDrawMultiscale(t *testing.T) {
	im, err := layer.NewImage([]int{1024, 1024}, nil, 3, layer.Options{})
	require.NoError(t, err)
	b := im.Base()
	require.True(t, b.Multiscale())
	assert.Equal(t, [][]float64{{1, 1}, {2, 2}, {4, 4}}, b.DownsampleFactors())

	b.UpdateDraw(1, [2][]float64{{0, 0}, {1023, 1023}}, []float64{300, 300})
	assert.Equal(t, 1, b.DataLevel())
	assert.Equal(t, [2][]int{{0, 0}, {511, 511}}, b.CornerPixels())

	b.UpdateDraw(2, [2][]float64{{0, 0}, {500, 500}}, []float64{300, 300})
	assert.Equal(t, 0, b.DataLevel())
	assert.Equal(t, [2][]int{{0, 0}, {500, 500}}, b.CornerPixels())
	assert.Equal(t, 2.0, b.ScaleFactor())
}

func TestUpdateDrawSingleScale(t *testing.T) {
	im := image(t, []int{100, 100}, layer.Options{})
	b := im.Base()
	b.UpdateDraw(1, [2][]float64{{-20, 10}, {50, 200}}, []float64{300, 300})
	assert.Equal(t, [2][]int{{0, 10}, {50, 99}}, b.CornerPixels())
}

func TestPointsSlicing(t *testing.T) {
	p, err := layer.NewPoints([][]float64{{0, 0, 0}, {1, 5, 5}, {1, 8, 8}}, 3, 2, layer.Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, p.ViewIndices())

	aug := p.Base().ExtentAugmented().Data
	assert.Equal(t, [2][]float64{{-1, -1, -1}, {2, 9, 9}}, aug)

	dims := slicing.NewDims(3)
	require.NoError(t, dims.SetPoint(0, 1))
	p.Base().RefreshSlice(dims, false)
	assert.Equal(t, []int{1, 2}, p.ViewIndices())

	v, ok := p.ValueAt([]float64{1, 5, 5.5})
	require.True(t, ok)
	assert.Equal(t, 1, v.Index)
	_, ok = p.ValueAt([]float64{1, 20, 20})
	assert.False(t, ok)

	require.NoError(t, dims.SetMargins(0, 1, 1))
	p.Base().RefreshSlice(dims, false)
	assert.Equal(t, []int{0, 1, 2}, p.ViewIndices())
}

func TestPointsEmpty(t *testing.T) {
	p, err := layer.NewPoints(nil, 3, 0, layer.Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, p.NDim())
	e := p.DataExtent()
	for _, v := range append(e[0], e[1]...) {
		assert.True(t, math.IsNaN(v))
	}

	require.NoError(t, p.Add([]float64{0, 1, 1}, 4))
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, []float64{4}, p.Sizes())
	assert.ErrorIs(t, p.Add([]float64{1, 1}, 4), layer.ErrLayerData)
}

func TestPointsValueAtRay(t *testing.T) {
	p, err := layer.NewPoints([][]float64{{2, 2, 2}, {2, 2, 8}, {0, 0, 0}}, 3, 1, layer.Options{})
	require.NoError(t, err)
	dims := slicing.NewDims(3)
	require.NoError(t, dims.SetNDisplay(3))
	p.Base().RefreshSlice(dims, false)

	v, ok := p.ValueAtRay([]float64{2, 2, -5}, []float64{0, 0, 1})
	require.True(t, ok)
	assert.Equal(t, 0, v.Index, "nearest along the ray")

	v, ok = p.ValueAtRay([]float64{2, 2, 20}, []float64{0, 0, -1})
	require.True(t, ok)
	assert.Equal(t, 1, v.Index)
}

func TestShapesLayer(t *testing.T) {
	specs := []layer.ShapeSpec{
		{Kind: shapes.Rectangle, Data: [][]float64{{0, 0, 0}, {0, 0, 10}, {0, 10, 10}, {0, 10, 0}}},
		{Kind: shapes.Rectangle, Data: [][]float64{{1, 20, 20}, {1, 20, 30}, {1, 30, 30}, {1, 30, 20}}},
	}
	l, err := layer.NewShapes(specs, 3, nil, layer.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, []int{0}, l.ViewIndices())

	b := l.Base()
	assert.Equal(t, [2][]float64{{0, 0, 0}, {1, 30, 30}}, b.Extent().Data)
	assert.Equal(t, [2][]float64{{-0.5, -0.5, -0.5}, {1.5, 30.5, 30.5}}, b.ExtentAugmented().Data)

	v, ok := l.ValueAt([]float64{0, 5, 5})
	require.True(t, ok)
	assert.Equal(t, 0, v.Index)
	_, ok = l.ValueAt([]float64{0, 25, 25})
	assert.False(t, ok)

	dims := slicing.NewDims(3)
	require.NoError(t, dims.SetPoint(0, 1))
	b.RefreshSlice(dims, false)
	assert.Equal(t, []int{1}, l.ViewIndices())
	v, ok = l.ValueAt([]float64{1, 25, 25})
	require.True(t, ok)
	assert.Equal(t, 1, v.Index)

	masks, err := l.ToMasks([]int{2, 40, 40})
	require.NoError(t, err)
	require.Len(t, masks, 2)
	assert.Equal(t, 121, masks[0].Count())
	assert.Equal(t, 121, masks[1].Count())
	assert.True(t, masks[1].At(1, 25, 25))
	assert.False(t, masks[1].At(0, 25, 25))
}

func TestShapesLayerBadVertex(t *testing.T) {
	_, err := layer.NewShapes([]layer.ShapeSpec{
		{Kind: shapes.Line, Data: [][]float64{{0, 0}, {1, 1}}},
		{Kind: shapes.Line, Data: [][]float64{{0, 0, 0}, {1, 1, 1}}},
	}, 2, nil, layer.Options{})
	assert.ErrorIs(t, err, layer.ErrLayerData)
}

func surface(t *testing.T) *layer.Surface {
	t.Helper()
	s, err := layer.NewSurface(
		[][]float64{{0, 0, 0}, {0, 10, 0}, {0, 0, 10}},
		[][3]int{{0, 1, 2}},
		[]float64{0, 10, 20},
		layer.Options{},
	)
	require.NoError(t, err)
	return s
}

func TestSurfaceValueAt(t *testing.T) {
	s := surface(t)
	assert.Equal(t, []int{0}, s.ViewFaces())

	v, ok := s.ValueAt([]float64{0, 10, 0.2})
	require.True(t, ok)
	assert.Equal(t, 1, v.Index)
	assert.Equal(t, 10.0, v.Data)
}

func TestSurfaceValueAtRay(t *testing.T) {
	s := surface(t)
	dims := slicing.NewDims(3)
	require.NoError(t, dims.SetNDisplay(3))
	s.Base().RefreshSlice(dims, false)

	v, ok := s.ValueAtRay([]float64{-5, 2, 2}, []float64{1, 0, 0})
	require.True(t, ok)
	assert.Equal(t, 0, v.Index)
	assert.InDelta(t, 6.0, v.Data, 1e-9)

	_, ok = s.ValueAtRay([]float64{-5, 9, 9}, []float64{1, 0, 0})
	assert.False(t, ok, "outside the triangle")
}

func TestSurfaceBadFace(t *testing.T) {
	_, err := layer.NewSurface([][]float64{{0, 0}, {1, 1}}, [][3]int{{0, 1, 2}}, nil, layer.Options{})
	assert.ErrorIs(t, err, layer.ErrLayerData)
}

func TestVectors(t *testing.T) {
	v, err := layer.NewVectors([][2][]float64{{{0, 0}, {1, 2}}}, 2, 2, layer.Options{})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 4}}, v.Tips())
	assert.Equal(t, [2][]float64{{0, 0}, {2, 4}}, v.Base().Extent().Data)

	v.SetLength(1)
	assert.Equal(t, [2][]float64{{0, 0}, {1, 2}}, v.Base().Extent().Data)

	val, ok := v.ValueAt([]float64{0.2, 0.2})
	require.True(t, ok)
	assert.Equal(t, 0, val.Index)
}

func TestTracksTimeWindow(t *testing.T) {
	rows := [][]float64{
		{1, 0, 5, 5},
		{1, 1, 6, 6},
		{1, 2, 7, 7},
		{2, 2, 1, 1},
	}
	tr, err := layer.NewTracks(rows, 1, 0, layer.Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, tr.NDim())
	assert.Equal(t, []int{0}, tr.ViewIndices())

	dims := slicing.NewDims(3)
	require.NoError(t, dims.SetPoint(0, 2))
	tr.Base().RefreshSlice(dims, false)
	assert.Equal(t, []int{1, 2, 3}, tr.ViewIndices())

	v, ok := tr.ValueAt([]float64{2, 1, 1})
	require.True(t, ok)
	assert.Equal(t, 2, v.Index)
	assert.Equal(t, 2.0, v.Data)

	_, err = layer.NewTracks([][]float64{{1, 0, 5}}, 1, 1, layer.Options{})
	assert.ErrorIs(t, err, layer.ErrLayerData)
}
