package slicing_test

import (
	"math"
	"slices"
	"testing"

	"github.com/chazu/ndview/pkg/slicing"
	"github.com/chazu/ndview/pkg/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorldToLayerDims(t *testing.T) {
	tests := []struct {
		name      string
		worldDims []int
		ndimWorld int
		ndim      int
		want      []int
	}{
		{"drop two leading", []int{2, 1, 0, 3}, 4, 2, []int{0, 1}},
		{"drop one leading", []int{2, 1, 0, 3}, 4, 3, []int{1, 0, 2}},
		{"same ndim", []int{2, 1, 0, 3}, 4, 4, []int{2, 1, 0, 3}},
		{"layer has more dims", []int{1, 0}, 2, 4, []int{0, 1, 3, 2}},
		{"layer has one more", []int{2, 0, 1}, 3, 4, []int{0, 3, 1, 2}},
		{"single axis", []int{0, 1, 2}, 3, 1, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := slicing.WorldToLayerDims(tt.worldDims, tt.ndimWorld, tt.ndim)
			if !slices.Equal(got, tt.want) {
				t.Errorf("WorldToLayerDims(%v, %d, %d) = %v, want %v",
					tt.worldDims, tt.ndimWorld, tt.ndim, got, tt.want)
			}
		})
	}
}

func TestWorldToLayerDimsIsPermutation(t *testing.T) {
	world := []int{3, 0, 4, 1, 2}
	for ndim := 1; ndim <= 8; ndim++ {
		got := slicing.WorldToLayerDims(world, len(world), ndim)
		if len(got) != ndim {
			t.Fatalf("ndim %d: got %d axes", ndim, len(got))
		}
		sorted := slices.Clone(got)
		slices.Sort(sorted)
		for i, v := range sorted {
			if v != i {
				t.Fatalf("ndim %d: %v is not a permutation", ndim, got)
			}
		}
	}
}

func TestMakeSliceInput(t *testing.T) {
	d := slicing.NewDims(4)
	r := slicing.Range{Start: 0, Stop: 10, Step: 1}
	require.NoError(t, d.SetRanges([]slicing.Range{r, r, r, r}))
	require.NoError(t, d.SetOrder([]int{2, 1, 0, 3}))
	require.NoError(t, d.SetPoint(0, 4))
	require.NoError(t, d.SetPoint(1, 7))
	require.NoError(t, d.SetMargins(1, 0.5, 1.5))

	in := slicing.MakeSliceInput(d, 3)
	assert.Equal(t, 2, in.NDisplay)
	assert.Equal(t, []int{1, 0, 2}, in.Order)
	assert.Equal(t, []float64{7, 0, 0}, in.WorldSlice.Point)
	assert.Equal(t, []float64{0.5, 0, 0}, in.WorldSlice.MarginLeft)
	assert.Equal(t, []int{0, 2}, in.Displayed())
	assert.Equal(t, []int{1}, in.NotDisplayed())

	again := slicing.MakeSliceInput(d, 3)
	assert.True(t, in.Equal(again))

	require.NoError(t, d.SetPoint(1, 8))
	assert.False(t, in.Equal(slicing.MakeSliceInput(d, 3)))
}

func TestMakeSliceInputPadsShortWorld(t *testing.T) {
	d := slicing.NewDims(2)
	in := slicing.MakeSliceInput(d, 3)
	assert.Equal(t, []int{0, 1, 2}, in.Order)
	assert.Len(t, in.WorldSlice.Point, 3)
}

func TestDataSlice(t *testing.T) {
	phys := transform.NewComposite(3, "data2physical")
	require.NoError(t, phys.SetScale([]float64{2, 1, 1}))
	require.NoError(t, phys.SetTranslate([]float64{10, 0, 0}))
	inv, err := phys.Affine().Inverse()
	require.NoError(t, err)

	in := slicing.SliceInput{
		NDisplay: 2,
		Order:    []int{0, 1, 2},
		WorldSlice: slicing.ThickNDSlice{
			Point:       []float64{14, 3, 3},
			MarginLeft:  []float64{2, 0, 0},
			MarginRight: []float64{4, 0, 0},
		},
	}
	ds := in.DataSlice(inv)
	assert.InDelta(t, 2.0, ds.Point[0], 1e-12)
	assert.InDelta(t, 1.0, ds.MarginLeft[0], 1e-12)
	assert.InDelta(t, 2.0, ds.MarginRight[0], 1e-12)
	assert.True(t, math.IsNaN(ds.Point[1]))
	assert.True(t, math.IsNaN(ds.Point[2]))
}

func TestDimsSetNDim(t *testing.T) {
	d := slicing.NewDims(2)
	require.NoError(t, d.SetOrder([]int{1, 0}))
	d.SetNDim(4)
	assert.Equal(t, []int{0, 1, 3, 2}, d.Order())
	assert.Len(t, d.Point(), 4)

	d.SetNDim(3)
	assert.Equal(t, []int{0, 2, 1}, d.Order())
	assert.Equal(t, []int{2, 1}, d.Displayed())
	assert.Equal(t, []int{0}, d.NotDisplayed())
}

func TestDimsValidation(t *testing.T) {
	d := slicing.NewDims(3)
	assert.Error(t, d.SetNDisplay(4))
	assert.Error(t, d.SetOrder([]int{0, 0, 1}))
	assert.Error(t, d.SetOrder([]int{0, 1}))
	assert.Error(t, d.SetPoint(5, 1))
	assert.Error(t, d.SetMargins(0, -1, 0))
	require.NoError(t, d.SetNDisplay(3))
	assert.Equal(t, []int{0, 1, 2}, d.Displayed())
}

func TestThickSliceLast(t *testing.T) {
	s := slicing.ThickNDSlice{
		Point:       []float64{1, 2, 3},
		MarginLeft:  []float64{0, 0, 1},
		MarginRight: []float64{0, 1, 0},
	}
	last := s.Last(2)
	assert.Equal(t, []float64{2, 3}, last.Point)
	last.Point[0] = 99
	assert.Equal(t, 2.0, s.Point[1], "Last must copy")

	padded := s.Last(4)
	assert.Equal(t, []float64{0, 1, 2, 3}, padded.Point)
}
