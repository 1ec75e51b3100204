package scene

import (
	"fmt"
	"math"

	"github.com/chazu/ndview/pkg/geometry"
	"github.com/chazu/ndview/pkg/layer"
	"github.com/chazu/ndview/pkg/shapes"
)

// validateGeometry runs the geometric checks and returns blocking errors
// and advisory warnings separately.
func validateGeometry(s *Scene) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warnings []ValidationWarning

	maxNDim := 0
	for _, l := range s.Layers {
		ndim := l.LayerNDim()
		maxNDim = max(maxNDim, ndim)
		errs = append(errs, validateTransform(l, ndim)...)
		errs = append(errs, validateLayerData(l, ndim)...)
		warnings = append(warnings, layerWarnings(l)...)
	}
	if s.Dims.NDisplay == 3 && len(s.Layers) > 0 && maxNDim < 3 {
		warnings = append(warnings, ValidationWarning{
			Message: "3D display requested but every layer has fewer than 3 axes",
		})
	}
	if n := len(s.Dims.Order); n > 0 && maxNDim > 0 && n != max(maxNDim, 2) {
		errs = append(errs, errorf("", "dims order has %d axes, layers have %d", n, max(maxNDim, 2)))
	}
	return errs, warnings
}

func validateTransform(l *LayerSpec, ndim int) []ValidationError {
	var errs []ValidationError
	t := l.Transform
	for i, v := range t.Scale {
		if v == 0 {
			errs = append(errs, errorf(l.Name, "scale component %d is zero", i))
		}
	}
	if ndim == 0 {
		return errs
	}
	if t.Scale != nil && len(t.Scale) != ndim {
		errs = append(errs, errorf(l.Name, "scale has %d components, layer has %d axes", len(t.Scale), ndim))
	}
	if t.Translate != nil && len(t.Translate) != ndim {
		errs = append(errs, errorf(l.Name, "translate has %d components, layer has %d axes", len(t.Translate), ndim))
	}
	if want := ndim * (ndim - 1) / 2; t.Shear != nil && len(t.Shear) != want {
		errs = append(errs, errorf(l.Name, "shear has %d coefficients, want %d", len(t.Shear), want))
	}
	return errs
}

func validateLayerData(l *LayerSpec, ndim int) []ValidationError {
	var errs []ValidationError
	switch l.Kind {
	case layer.KindImage, layer.KindLabels:
		n := 1
		for _, v := range l.Shape {
			if v < 0 {
				return append(errs, errorf(l.Name, "negative axis size in shape %v", l.Shape))
			}
			n *= v
		}
		if l.Data != nil && len(l.Data) != n {
			errs = append(errs, errorf(l.Name, "%d samples for shape %v", len(l.Data), l.Shape))
		}
	case layer.KindPoints:
		errs = append(errs, validateRows(l.Name, "point", l.Points, ndim)...)
	case layer.KindShapes:
		for i, sh := range l.Shapes {
			errs = append(errs, validateShape(l.Name, i, sh, ndim)...)
		}
	case layer.KindSurface:
		errs = append(errs, validateRows(l.Name, "vertex", l.Vertices, ndim)...)
		for i, f := range l.Faces {
			for _, v := range f {
				if v < 0 || v >= len(l.Vertices) {
					errs = append(errs, errorf(l.Name, "face %d refers to vertex %d of %d", i, v, len(l.Vertices)))
					break
				}
			}
		}
		if l.Values != nil && len(l.Values) != len(l.Vertices) {
			errs = append(errs, errorf(l.Name, "%d values for %d vertices", len(l.Values), len(l.Vertices)))
		}
	case layer.KindVectors:
		for i, v := range l.Vectors {
			if len(v[0]) != ndim || len(v[1]) != ndim {
				errs = append(errs, errorf(l.Name, "vector %d is not %d-dimensional", i, ndim))
			}
		}
	case layer.KindTracks:
		errs = append(errs, validateRows(l.Name, "track row", l.Tracks, ndim+1)...)
		if ndim < 3 {
			errs = append(errs, errorf(l.Name, "track rows need id, t and at least 2 coordinates"))
		}
	}
	return errs
}

func validateRows(name, what string, rows [][]float64, width int) []ValidationError {
	var errs []ValidationError
	for i, r := range rows {
		if len(r) != width {
			errs = append(errs, errorf(name, "%s %d has %d coordinates, want %d", what, i, len(r), width))
			continue
		}
		if !finite(r) {
			errs = append(errs, errorf(name, "%s %d is not finite", what, i))
		}
	}
	return errs
}

func validateShape(name string, i int, sh ShapeSpec, ndim int) []ValidationError {
	var errs []ValidationError
	for j, v := range sh.Data {
		if len(v) != ndim {
			errs = append(errs, errorf(name, "shape %d vertex %d has %d coordinates, want %d", i, j, len(v), ndim))
			return errs
		}
		if !finite(v) {
			errs = append(errs, errorf(name, "shape %d vertex %d is not finite", i, j))
		}
	}
	n := len(sh.Data)
	switch sh.Kind {
	case shapes.Polygon:
		if n < 3 {
			errs = append(errs, errorf(name, "polygon %d has %d vertices, want at least 3", i, n))
		}
	case shapes.Path:
		if n < 2 {
			errs = append(errs, errorf(name, "path %d has %d vertices, want at least 2", i, n))
		}
	case shapes.Line:
		if n != 2 {
			errs = append(errs, errorf(name, "line %d has %d vertices, want 2", i, n))
		}
	case shapes.Rectangle, shapes.Ellipse:
		if n != 4 && !(n == 2 && ndim == 2) {
			errs = append(errs, errorf(name, "%s %d needs 4 corners or 2 opposite corners, got %d", sh.Kind, i, n))
		}
	}
	if sh.EdgeWidth < 0 {
		errs = append(errs, errorf(name, "shape %d edge width %g is negative", i, sh.EdgeWidth))
	}
	return errs
}

func layerWarnings(l *LayerSpec) []ValidationWarning {
	var warnings []ValidationWarning
	warn := func(msg string) {
		warnings = append(warnings, ValidationWarning{Layer: l.Name, Message: msg})
	}
	if l.Kind == layer.KindPoints && l.Size < 0 {
		warn("negative point size, the default is used")
	}
	if l.Kind == layer.KindPoints && len(l.Points) == 0 {
		warn("points layer is empty")
	}
	for i, sh := range l.Shapes {
		if sh.Kind != shapes.Polygon || len(sh.Data) < 3 || len(sh.Data[0]) != 2 {
			continue
		}
		if geometry.IsCollinear(sh.Data) {
			warn(fmt.Sprintf("polygon %d is degenerate: all vertices are collinear", i))
		}
	}
	return warnings
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
