package ndview

import (
	"math"
	"os"
	"testing"

	"github.com/chazu/ndview/pkg/config"
	"github.com/chazu/ndview/pkg/render"
)

func evalFile(t *testing.T, app *App, path string) EvalResult {
	t.Helper()
	source, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	result := app.Evaluate(string(source))
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d, layer %q): %s", e.Line, e.Layer, e.Message)
		}
		t.FailNow()
	}
	return result
}

// TestE2EShapesExample runs the full pipeline: script, engine, scene,
// viewer, fit and tessellation.
func TestE2EShapesExample(t *testing.T) {
	result := evalFile(t, NewApp(), "examples/shapes.ndv")

	// triangle and regions give a face and an edge mesh each, centers one
	// points mesh; the image gives none.
	if len(result.Meshes) != 5 {
		t.Fatalf("expected 5 meshes, got %d", len(result.Meshes))
	}
	want := map[string][]render.Part{
		"triangle": {render.PartFace, render.PartEdge},
		"regions":  {render.PartFace, render.PartEdge},
		"centers":  {render.PartPoints},
	}
	got := map[string][]render.Part{}
	for _, m := range result.Meshes {
		got[m.Layer] = append(got[m.Layer], m.Part)
		if len(m.Vertices) == 0 || len(m.Normals) == 0 || len(m.Indices) == 0 {
			t.Errorf("layer %q %s: empty geometry", m.Layer, m.Part)
		}
		if m.Color == "" {
			t.Errorf("layer %q: no color assigned", m.Layer)
		}
	}
	for name, parts := range want {
		if len(got[name]) != len(parts) {
			t.Errorf("layer %q: got parts %v, want %v", name, got[name], parts)
		}
	}

	if result.Camera == nil {
		t.Fatal("expected a camera")
	}
	if result.NDisplay != 2 || result.Canvas != [2]float64{600, 800} {
		t.Errorf("ndisplay %d canvas %v", result.NDisplay, result.Canvas)
	}
	// The ramp image spans [-0.5, 99.5] on both axes.
	if math.Abs(result.Camera.Center[0]-49.5) > 1e-9 || math.Abs(result.Camera.Center[1]-49.5) > 1e-9 {
		t.Errorf("center = %v, want [49.5 49.5]", result.Camera.Center)
	}
	if want := 0.95 * 600 / 100; math.Abs(result.Camera.Zoom-want) > 1e-9 {
		t.Errorf("zoom = %g, want %g", result.Camera.Zoom, want)
	}
}

func TestE2EVolumeExample(t *testing.T) {
	result := evalFile(t, NewApp(), "examples/volume.ndv")

	var iso, markers bool
	for _, m := range result.Meshes {
		switch m.Layer {
		case "iso":
			iso = m.Part == render.PartSurface && m.TriangleCount() > 0
		case "markers":
			// two octahedra
			markers = m.TriangleCount() == 16
		}
	}
	if !iso || !markers {
		t.Fatalf("missing meshes: iso %v markers %v (%d meshes)", iso, markers, len(result.Meshes))
	}
	if result.NDisplay != 3 {
		t.Errorf("ndisplay = %d, want 3", result.NDisplay)
	}
	if result.Camera.Angles != [3]float64{0, 30, 60} {
		t.Errorf("angles = %v", result.Camera.Angles)
	}
	if len(result.Camera.Center) != 3 {
		t.Errorf("center = %v, want 3 components", result.Camera.Center)
	}
}

func TestE2ETracksExample(t *testing.T) {
	result := evalFile(t, NewApp(), "examples/tracks.ndv")
	if len(result.Meshes) == 0 {
		t.Fatal("expected meshes")
	}
}

func TestE2EEmptySource(t *testing.T) {
	result := NewApp().Evaluate("")
	if len(result.Errors) > 0 {
		t.Errorf("unexpected errors for empty source: %v", result.Errors)
	}
	if result.Meshes == nil || len(result.Meshes) != 0 {
		t.Errorf("expected an empty, non-nil mesh list, got %v", result.Meshes)
	}
	if result.Camera == nil {
		t.Fatal("empty scene should still produce a camera")
	}
	// An empty viewer fits the default [-0.5, 511.5] box.
	if result.Camera.Center[0] != 255.5 {
		t.Errorf("center = %v", result.Camera.Center)
	}
}

func TestE2ESyntaxError(t *testing.T) {
	result := NewApp().Evaluate(`(points "p" (list (list 1 2))`)
	if len(result.Errors) == 0 {
		t.Fatal("expected errors for syntax error")
	}
	if len(result.Meshes) != 0 || result.Camera != nil {
		t.Error("expected no meshes and no camera on error")
	}
}

func TestE2ESinglePolygon(t *testing.T) {
	result := NewApp().Evaluate(`(polygon "sq" (list (list 0 0) (list 0 10) (list 10 10) (list 10 0)))`)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != 2 {
		t.Fatalf("expected face and edge meshes, got %d", len(result.Meshes))
	}
	face := result.Meshes[0]
	if face.Part != render.PartFace || face.TriangleCount() != 2 {
		t.Errorf("face: part %s, %d triangles", face.Part, face.TriangleCount())
	}
	lo, hi := face.Bounds()
	if lo.X != 0 || lo.Y != 0 || hi.X != 10 || hi.Y != 10 {
		t.Errorf("face bounds %v %v", lo, hi)
	}
}

func TestNewAppWithConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Triangulation.Backend = "pure"
	app, err := NewAppWithConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.Backend().Name() != "pure" {
		t.Errorf("backend = %s, want pure", app.Backend().Name())
	}

	cfg.Triangulation.Backend = "magic"
	if _, err := NewAppWithConfig(cfg); err == nil {
		t.Error("expected an error for an unknown backend")
	}
}
