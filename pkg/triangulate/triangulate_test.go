package triangulate_test

import (
	"errors"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/chazu/ndview/pkg/triangulate"
	"github.com/chazu/ndview/pkg/triangulate/pure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want triangulate.Kind
		err  bool
	}{
		{"", triangulate.KindFastest, false},
		{"pure", triangulate.KindPure, false},
		{"pure_python", triangulate.KindPure, false},
		{"Bermuda", triangulate.KindBermuda, false},
		{"partsegcore", triangulate.KindPartSeg, false},
		{"triangle", triangulate.KindTriangle, false},
		{"fastest_available", triangulate.KindFastest, false},
		{"earcut", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := triangulate.ParseKind(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, triangulate.ErrUnknownKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func rendered(e triangulate.Edge, width float64) [][]float64 {
	out := make([][]float64, len(e.Centers))
	for i := range e.Centers {
		p := make([]float64, len(e.Centers[i]))
		for j := range p {
			p[j] = e.Centers[i][j] + width*e.Offsets[i][j]
		}
		out[i] = p
	}
	return out
}

func TestEdgeRibbonStraightSegment(t *testing.T) {
	e, err := triangulate.EdgeRibbon([][]float64{{0, 0}, {0, 4}}, false)
	require.NoError(t, err)
	require.Len(t, e.Centers, 4)
	require.Len(t, e.Triangles, 2)
	assert.True(t, e.Valid())

	for w := 1.0; w <= 4; w *= 2 {
		for _, p := range rendered(e, w) {
			assert.InDelta(t, w/2, math.Abs(p[0]), 1e-12, "half width across the segment")
		}
	}
}

func TestEdgeRibbonMiterKeepsWidth(t *testing.T) {
	// right-angle corner at (1, 0)
	e, err := triangulate.EdgeRibbon([][]float64{{0, 0}, {1, 0}, {1, 1}}, false)
	require.NoError(t, err)
	require.Len(t, e.Centers, 6, "no bevel at 90 degrees")
	off := e.Offsets[2]
	assert.InDelta(t, 0.5, math.Abs(off[0]), 1e-12)
	assert.InDelta(t, 0.5, math.Abs(off[1]), 1e-12)
}

func TestEdgeRibbonBevelsSharpJoins(t *testing.T) {
	// hairpin
	e, err := triangulate.EdgeRibbon([][]float64{{0, 0}, {1, 0}, {0, 0.01}}, false)
	require.NoError(t, err)
	assert.Len(t, e.Centers, 2+5+2)
	assert.Len(t, e.Triangles, 2*2+2)
	for _, o := range e.Offsets {
		assert.LessOrEqual(t, math.Hypot(o[0], o[1]), triangulate.MiterLimit/2+1e-12)
	}
}

func TestEdgeRibbonClosedSquare(t *testing.T) {
	e, err := triangulate.EdgeRibbon([][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, true)
	require.NoError(t, err)
	assert.Len(t, e.Centers, 8)
	assert.Len(t, e.Triangles, 8)
}

func TestEdgeRibbon3D(t *testing.T) {
	straight, err := triangulate.EdgeRibbon([][]float64{{0, 0, 0}, {0, 0, 5}}, false)
	require.NoError(t, err)
	for _, o := range straight.Offsets {
		assert.InDelta(t, 0, o[2], 1e-12)
		assert.InDelta(t, 0.5, math.Sqrt(o[0]*o[0]+o[1]*o[1]), 1e-12)
	}

	bent, err := triangulate.EdgeRibbon([][]float64{{0, 0, 0}, {1, 0, 1}, {1, 1, 0}, {0, 1, 1}}, true)
	require.NoError(t, err)
	assert.True(t, bent.Valid())
	assert.GreaterOrEqual(t, len(bent.Triangles), 8)
}

func TestEdgeRibbonTooShort(t *testing.T) {
	e, err := triangulate.EdgeRibbon([][]float64{{1, 1}}, true)
	require.NoError(t, err)
	assert.Empty(t, e.Triangles)

	_, err = triangulate.EdgeRibbon([][]float64{{1, 1, 1, 1}, {2, 2, 2, 2}}, false)
	assert.Error(t, err)
}

func TestMeshesGenericCollinearFaceIsEmpty(t *testing.T) {
	m, err := pure.New().Meshes([][]float64{{0, 0}, {1, 1}, {2, 2}}, true, true, true)
	require.NoError(t, err)
	assert.Empty(t, m.Face.Triangles)
	assert.NotEmpty(t, m.Edge.Triangles)
}

type failing struct{ panics bool }

func (failing) Name() triangulate.Kind { return "failing" }
func (failing) EdgeMesh([][]float64, bool) (triangulate.Edge, error) {
	return triangulate.Edge{}, nil
}
func (failing) FaceMesh([][]float64) (triangulate.Face, error) { return triangulate.Face{}, nil }
func (f failing) Meshes([][]float64, bool, bool, bool) (triangulate.Mesh, error) {
	if f.panics {
		panic("index out of range")
	}
	return triangulate.Mesh{}, errors.New("degenerate input")
}

func TestRunDumpsFailure(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	data := [][]float64{{0, 0}, {1.5, 2}, {3, -1}}

	for _, f := range []failing{{false}, {true}} {
		_, err := triangulate.Run(f, data, true, true, true)
		require.Error(t, err)

		var fe *triangulate.FailureError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, triangulate.Kind("failing"), fe.Backend)
		assert.True(t, strings.HasPrefix(err.Error(), "Triangulation failed. Data saved to "))
		assert.Contains(t, err.Error(), fe.BinPath)
		assert.Contains(t, err.Error(), fe.TxtPath)
		assert.Contains(t, fe.BinPath, "ndview_failed_triangulation_failing_")

		got, err := triangulate.ReadDump(fe.BinPath)
		require.NoError(t, err)
		assert.Equal(t, data, got)

		txt, err := os.ReadFile(fe.TxtPath)
		require.NoError(t, err)
		assert.Contains(t, string(txt), "1.5 2")
	}
}

func TestRunWrapsBackendError(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())
	_, err := triangulate.Run(pure.New(), [][]float64{{0, 0}, {math.Inf(1), 1}, {1, 0}}, true, true, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, pure.ErrNonFinite)
}
