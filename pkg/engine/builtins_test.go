package engine

import (
	"strings"
	"testing"

	"github.com/chazu/ndview/pkg/layer"
	"github.com/chazu/ndview/pkg/scene"
	"github.com/chazu/ndview/pkg/shapes"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"simple keyword", `(image :pattern "ramp")`, `(image "__kw_pattern" "ramp")`},
		{"multiple keywords", `(canvas :height 400 :width 200)`, `(canvas "__kw_height" 400 "__kw_width" 200)`},
		{"keyword in string preserved", `"thing with :keyword inside"`, `"thing with :keyword inside"`},
		{"escaped quote in string", `"a \" :b"`, `"a \" :b"`},
		{"backtick string preserved", "`raw :kw`", "`raw :kw`"},
		{"assignment operator preserved", `(def x := 10)`, `(def x := 10)`},
		{"kebab-case identifier", `(def slice-depth :edge-width)`, `(def slice_depth "__kw_edge-width")`},
		{"minus operator preserved", `(- 10 5)`, `(- 10 5)`},
		{"negative number preserved", `(list -1 -2)`, `(list -1 -2)`},
		{"comment converted to // style", `;; comment with :keyword`, `// comment with :keyword`},
		{"single semicolon comment", `; simple comment`, `// simple comment`},
		{"comment ends at newline", "; c\n:k", "// c\n\"__kw_k\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preprocessSource(tt.input); got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Scene forms
// ---------------------------------------------------------------------------

func mustEvaluate(t *testing.T, source string) *scene.Scene {
	t.Helper()
	s, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("unexpected eval errors: %v", evalErrs)
	}
	return s
}

func mustFail(t *testing.T, source, substr string) {
	t.Helper()
	s, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if s != nil {
		t.Fatal("expected nil scene")
	}
	for _, e := range evalErrs {
		if strings.Contains(e.Error(), substr) {
			return
		}
	}
	t.Fatalf("no error contains %q: %v", substr, evalErrs)
}

func TestImageForm(t *testing.T) {
	s := mustEvaluate(t, `
; a volume and its labels
(def depth 5)
(image "vol" :shape (list depth 20 30) :pattern :ramp :scale (list 2 1 1) :multiscale 2)
(labels "seg" :shape (list 2 2) :data (list 0 1 2 3) :translate (list 10 10) :hidden true)
`)
	if s.Len() != 2 {
		t.Fatalf("expected 2 layers, got %d", s.Len())
	}
	vol := s.Lookup("vol")
	if vol.Kind != layer.KindImage || vol.Pattern != "ramp" || vol.Levels != 2 {
		t.Errorf("unexpected image spec %+v", vol)
	}
	if len(vol.Shape) != 3 || vol.Shape[0] != 5 {
		t.Errorf("shape = %v, want [5 20 30]", vol.Shape)
	}
	if vol.Transform.Scale[0] != 2 {
		t.Errorf("scale = %v", vol.Transform.Scale)
	}
	seg := s.Lookup("seg")
	if seg.Kind != layer.KindLabels || !seg.Hidden || len(seg.Data) != 4 {
		t.Errorf("unexpected labels spec %+v", seg)
	}
}

func TestPointsForm(t *testing.T) {
	s := mustEvaluate(t, `(points "p" (list (list 1 2) (list 3.5 4)) :size 6 :rotate 30 :units (list :um "um"))`)
	p := s.Lookup("p")
	if p == nil || len(p.Points) != 2 || p.Points[1][0] != 3.5 {
		t.Fatalf("unexpected points spec %+v", p)
	}
	if p.Size != 6 || p.Transform.Rotate != 30 {
		t.Errorf("size %g rotate %g", p.Size, p.Transform.Rotate)
	}
	if len(p.Transform.Units) != 2 || p.Transform.Units[0] != "um" {
		t.Errorf("units = %v", p.Transform.Units)
	}
}

func TestShapeForms(t *testing.T) {
	s := mustEvaluate(t, `
(polygon "tri" (list (list 0 0) (list 0 10) (list 10 0)) :edge-width 2)
(shapes "boxes"
  (rectangle (list (list 0 0) (list 5 5)))
  (list (ellipse (list (list 10 10) (list 14 20)) :z-index 3)
        (line (list (list 0 0) (list 9 9))))
  :ndim 2)
`)
	tri := s.Lookup("tri")
	if tri.Kind != layer.KindShapes || len(tri.Shapes) != 1 {
		t.Fatalf("unexpected spec %+v", tri)
	}
	if tri.Shapes[0].Kind != shapes.Polygon || tri.Shapes[0].EdgeWidth != 2 {
		t.Errorf("unexpected shape %+v", tri.Shapes[0])
	}
	boxes := s.Lookup("boxes")
	if len(boxes.Shapes) != 3 || boxes.NDim != 2 {
		t.Fatalf("unexpected spec %+v", boxes)
	}
	if boxes.Shapes[0].EdgeWidth != 1 {
		t.Errorf("default edge width = %g, want 1", boxes.Shapes[0].EdgeWidth)
	}
	if boxes.Shapes[1].Kind != shapes.Ellipse || boxes.Shapes[1].ZIndex != 3 {
		t.Errorf("unexpected shape %+v", boxes.Shapes[1])
	}
	if boxes.Shapes[2].Kind != shapes.Line {
		t.Errorf("unexpected shape %+v", boxes.Shapes[2])
	}
}

func TestSurfaceForms(t *testing.T) {
	s := mustEvaluate(t, `
(def vol (image "vol" :shape (list 8 8 8) :pattern :ball))
(surface "iso" :volume vol :level 0.5)
(surface "tri" :vertices (list (list 0 0 0) (list 0 1 0) (list 0 0 1)) :faces (list (list 0 1 2)) :values (list 1 2 3))
`)
	iso := s.Lookup("iso")
	if iso.Volume != "vol" || iso.Level != 0.5 {
		t.Errorf("unexpected isosurface spec %+v", iso)
	}
	tri := s.Lookup("tri")
	if len(tri.Faces) != 1 || tri.Faces[0] != [3]int{0, 1, 2} || len(tri.Values) != 3 {
		t.Errorf("unexpected surface spec %+v", tri)
	}
}

func TestVectorsAndTracksForms(t *testing.T) {
	s := mustEvaluate(t, `
(vectors "v" (list (list (list 0 0) (list 1 2))) :length 3)
(tracks "t" (list (list 1 0 5 5) (list 1 1 6 6)) :tail 4 :head 1)
`)
	v := s.Lookup("v")
	if len(v.Vectors) != 1 || v.Vectors[0][1][1] != 2 || v.Length != 3 {
		t.Errorf("unexpected vectors spec %+v", v)
	}
	tr := s.Lookup("t")
	if len(tr.Tracks) != 2 || tr.Tail != 4 || tr.Head != 1 {
		t.Errorf("unexpected tracks spec %+v", tr)
	}
}

func TestSettingsForms(t *testing.T) {
	s := mustEvaluate(t, `
(image "im" :shape (list 4 10 10))
(dims :ndisplay 3 :order (list 0 2 1) :point (list (list 0 2)) :margins (list (list 0 1 0.5)))
(camera :angles (list 0 30 60) :zoom 2 :center (list 1 2 3))
(grid :shape (list -1 2) :spacing 0.1)
(canvas 300 400)
`)
	if s.Dims.NDisplay != 3 || len(s.Dims.Order) != 3 || s.Dims.Point[0] != 2 {
		t.Errorf("unexpected dims %+v", s.Dims)
	}
	if m := s.Dims.Margins[0]; m.Left != 1 || m.Right != 0.5 {
		t.Errorf("margins = %+v", m)
	}
	if s.Camera.Angles == nil || s.Camera.Angles[2] != 60 || s.Camera.Zoom == nil || *s.Camera.Zoom != 2 {
		t.Errorf("unexpected camera %+v", s.Camera)
	}
	if s.Grid == nil || !s.Grid.Enabled || s.Grid.Shape != [2]int{-1, 2} || s.Grid.Stride != 1 {
		t.Errorf("unexpected grid %+v", s.Grid)
	}
	if s.Canvas != [2]float64{300, 400} {
		t.Errorf("canvas = %v", s.Canvas)
	}
}

func TestAutoNames(t *testing.T) {
	s := mustEvaluate(t, `(points (list (list 1 1))) (points (list (list 2 2)))`)
	if s.Len() != 2 || s.Layers[0].Name != "points-0" || s.Layers[1].Name != "points-1" {
		t.Fatalf("unexpected names %q %q", s.Layers[0].Name, s.Layers[1].Name)
	}
}

func TestFormErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		substr string
	}{
		{"duplicate name", `(points "p" (list (list 1 1))) (points "p" (list (list 2 2)))`, "duplicate"},
		{"unknown keyword", `(image "im" :shape (list 2 2) :colour 1)`, "unknown keyword :colour"},
		{"bad number", `(points "p" :size "big")`, "expected number"},
		{"fractional int", `(image "im" :shape (list 2.5 2))`, "expected integer"},
		{"bad face", `(surface "s" :vertices (list (list 0 0 0)) :faces (list (list 0 1)))`, "want 3"},
		{"shape without vertices", `(polygon "p")`, "missing vertex list"},
		{"bad member", `(shapes "s" 5)`, "expected shape"},
		{"bad angles", `(camera :angles (list 1 2))`, "want 3 values"},
		{"bad point row", `(dims :point (list (list 0)))`, "want (axis value)"},
		{"canvas arity", `(canvas 300)`, "want height and width"},
		{"unknown volume", `(surface "s" :volume "nope")`, "no such layer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mustFail(t, tt.source, tt.substr)
		})
	}
}
