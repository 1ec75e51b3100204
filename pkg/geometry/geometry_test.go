package geometry_test

import (
	"testing"

	"github.com/chazu/ndview/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

var unitBox = r3.Box{Min: r3.Vec{}, Max: r3.Vec{X: 1, Y: 1, Z: 1}}

func TestIntersectRayBox(t *testing.T) {
	tests := []struct {
		name       string
		origin     r3.Vec
		dir        r3.Vec
		ok         bool
		start, end r3.Vec
	}{
		{
			name:   "through center along z",
			origin: r3.Vec{X: 0.5, Y: 0.5, Z: -5},
			dir:    r3.Vec{Z: 1},
			ok:     true,
			start:  r3.Vec{X: 0.5, Y: 0.5, Z: 0},
			end:    r3.Vec{X: 0.5, Y: 0.5, Z: 1},
		},
		{
			name:   "reversed direction swaps faces",
			origin: r3.Vec{X: 0.25, Y: 0.75, Z: 10},
			dir:    r3.Vec{Z: -1},
			ok:     true,
			start:  r3.Vec{X: 0.25, Y: 0.75, Z: 1},
			end:    r3.Vec{X: 0.25, Y: 0.75, Z: 0},
		},
		{
			name:   "along x",
			origin: r3.Vec{X: -3, Y: 0.5, Z: 0.5},
			dir:    r3.Vec{X: 1},
			ok:     true,
			start:  r3.Vec{X: 0, Y: 0.5, Z: 0.5},
			end:    r3.Vec{X: 1, Y: 0.5, Z: 0.5},
		},
		{
			name:   "line misses box",
			origin: r3.Vec{X: 10, Y: 10, Z: 10},
			dir:    r3.Vec{Z: 1},
			ok:     false,
		},
		{
			name:   "parallel offset line misses",
			origin: r3.Vec{X: 5, Y: 0.5, Z: 0.5},
			dir:    r3.Vec{Y: 1},
			ok:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := geometry.IntersectRayBox(tt.origin, tt.dir, unitBox)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.InDeltaSlice(t, geometry.Slice(tt.start), geometry.Slice(start), 1e-12)
			assert.InDeltaSlice(t, geometry.Slice(tt.end), geometry.Slice(end), 1e-12)
		})
	}
}

func TestFrontBackFacesDiagonal(t *testing.T) {
	dir := r3.Unit(r3.Vec{X: 1, Y: 1, Z: 1})
	front, back, ok := geometry.FrontBackFaces(r3.Vec{X: -1, Y: -1, Z: -1}, dir, unitBox)
	require.True(t, ok)
	assert.Equal(t, -1, front.Sign)
	assert.Equal(t, 1, back.Sign)
}

func TestIntersectRayTriangle(t *testing.T) {
	a := r3.Vec{}
	b := r3.Vec{X: 1}
	c := r3.Vec{Y: 1}
	tHit, ok := geometry.IntersectRayTriangle(r3.Vec{X: 0.2, Y: 0.2, Z: 3}, r3.Vec{Z: -1}, a, b, c)
	require.True(t, ok)
	assert.InDelta(t, 3.0, tHit, 1e-12)

	_, ok = geometry.IntersectRayTriangle(r3.Vec{X: 0.9, Y: 0.9, Z: 3}, r3.Vec{Z: -1}, a, b, c)
	assert.False(t, ok)
}

func TestFindPlanarAxis(t *testing.T) {
	pts := [][]float64{{1, 5, 2}, {3, 5, 4}, {0, 5, 1}}
	proj, axis, value, planar := geometry.FindPlanarAxis(pts)
	require.True(t, planar)
	assert.Equal(t, 1, axis)
	assert.Equal(t, 5.0, value)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}, {0, 1}}, proj)
	assert.Equal(t, pts, geometry.InsertAxis(proj, axis, value))

	_, axis, _, planar = geometry.FindPlanarAxis([][]float64{{0, 0, 0}, {1, 0, 1}, {0, 1, 2}, {1, 1, 0}})
	assert.False(t, planar)
	assert.Equal(t, -1, axis)

	_, axis, _, planar = geometry.FindPlanarAxis([][]float64{{0, 0}, {1, 2}})
	assert.True(t, planar)
	assert.Equal(t, -1, axis)
}

func TestIsCollinear(t *testing.T) {
	tests := []struct {
		name string
		pts  [][]float64
		want bool
	}{
		{"two points", [][]float64{{0, 0}, {1, 1}}, true},
		{"on a line", [][]float64{{0, 0}, {1, 1}, {3, 3}, {-2, -2}}, true},
		{"repeated first", [][]float64{{0, 0}, {0, 0}, {2, 0}, {5, 0}}, true},
		{"triangle", [][]float64{{0, 0}, {1, 0}, {0, 1}}, false},
		{"all equal", [][]float64{{1, 1}, {1, 1}, {1, 1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, geometry.IsCollinear(tt.pts))
		})
	}
}

func TestRemovePathDuplicates(t *testing.T) {
	data := [][]float64{{0, 0}, {0, 0}, {1, 0}, {1, 1}, {1, 1}, {0, 0}}
	assert.Equal(t, [][]float64{{0, 0}, {1, 0}, {1, 1}}, geometry.RemovePathDuplicates(data, true))
	assert.Equal(t, [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 0}}, geometry.RemovePathDuplicates(data, false))
	assert.Nil(t, geometry.RemovePathDuplicates(nil, true))
}

func TestPolygonPredicates(t *testing.T) {
	square := [][]float64{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	assert.InDelta(t, 4.0, geometry.PolygonArea(square), 1e-12)
	assert.True(t, geometry.PointInPolygon([]float64{1, 1}, square))
	assert.False(t, geometry.PointInPolygon([]float64{3, 1}, square))
	assert.True(t, geometry.PointInTriangle([]float64{0.5, 0.5}, square[0], square[1], square[2]))
	assert.InDelta(t, 2.0, geometry.TriangleArea(square[0], square[1], square[2]), 1e-12)

	n := geometry.NewellNormal([][]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}})
	assert.Equal(t, 0.0, n[0])
	assert.Equal(t, 0.0, n[1])
	assert.InDelta(t, 2.0, n[2], 1e-12)
}
