package backends_test

import (
	"math"
	"testing"

	"github.com/chazu/ndview/pkg/geometry"
	"github.com/chazu/ndview/pkg/triangulate"
	"github.com/chazu/ndview/pkg/triangulate/backends"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func available(t *testing.T) []triangulate.Backend {
	t.Helper()
	var out []triangulate.Backend
	for _, s := range backends.Available() {
		if s.Available {
			out = append(out, backends.Select(s.Kind))
		}
	}
	require.NotEmpty(t, out)
	return out
}

func regularPolygon(n int, r float64) [][]float64 {
	pts := make([][]float64, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = []float64{r * math.Cos(a), r * math.Sin(a)}
	}
	return pts
}

func TestBackendsAgreeOnConvexArea(t *testing.T) {
	polys := map[string][][]float64{
		"triangle": {{0, 0}, {3, 0}, {0, 4}},
		"square":   {{0, 0}, {10, 0}, {10, 10}, {0, 10}},
		"pentagon": regularPolygon(5, 2),
		"40-gon":   regularPolygon(40, 7.5),
		"cw quad":  {{0, 0}, {0, 2}, {3, 3}, {4, 0}},
	}
	for _, b := range available(t) {
		for name, poly := range polys {
			t.Run(string(b.Name())+"/"+name, func(t *testing.T) {
				m, err := triangulate.Run(b, poly, true, true, false)
				require.NoError(t, err)
				assert.True(t, m.Face.Valid())
				want := math.Abs(geometry.PolygonArea(poly))
				assert.InDelta(t, want, m.Face.Area(), 0.01*want)
			})
		}
	}
}

func TestBackendsNonPlanar3D(t *testing.T) {
	data := [][]float64{{0, 0, 0}, {1, 0, 1}, {1, 1, 0}, {0, 1, 1}}
	for _, b := range available(t) {
		t.Run(string(b.Name()), func(t *testing.T) {
			m, err := triangulate.Run(b, data, true, true, true)
			require.NoError(t, err)
			assert.Empty(t, m.Face.Triangles)
			assert.NotEmpty(t, m.Edge.Triangles)
			assert.True(t, m.Edge.Valid())
		})
	}
}

func TestSelectFastestPrefersFirstAvailable(t *testing.T) {
	var first triangulate.Kind
	for _, s := range backends.Available() {
		if s.Available {
			first = s.Kind
			break
		}
	}
	assert.Equal(t, first, backends.Select(triangulate.KindFastest).Name())
}

func TestSelectFallsBackToPure(t *testing.T) {
	for _, s := range backends.Available() {
		got := backends.Select(s.Kind).Name()
		if s.Available {
			assert.Equal(t, s.Kind, got)
		} else {
			assert.Equal(t, triangulate.KindPure, got)
			assert.NotEmpty(t, s.Reason)
		}
	}
	assert.Equal(t, triangulate.KindPure, backends.Select("nonsense").Name())
}

func TestSelectName(t *testing.T) {
	b, err := backends.SelectName("pure_python")
	require.NoError(t, err)
	assert.Equal(t, triangulate.KindPure, b.Name())

	b, err = backends.SelectName("triangle")
	require.NoError(t, err)
	assert.Equal(t, triangulate.KindTriangle, b.Name())

	_, err = backends.SelectName("gpu")
	assert.ErrorIs(t, err, triangulate.ErrUnknownKind)
}
