package scene

import (
	"fmt"
	"slices"

	"github.com/chazu/ndview/pkg/layer"
	"github.com/chazu/ndview/pkg/shapes"
)

// ValidationSeverity indicates whether a finding blocks building the
// scene or is only advisory.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // blocks building
	SeverityWarning                           // advisory
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError is a single finding. Layer is empty for scene-level
// findings.
type ValidationError struct {
	Layer    string
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	if e.Layer == "" {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] layer %q: %s", e.Severity, e.Layer, e.Message)
}

// ValidationWarning is a non-blocking finding.
type ValidationWarning struct {
	Layer   string
	Message string
}

// ValidationResult holds the findings of every tier.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// OK reports whether there are no blocking findings.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

var layerKinds = []layer.Kind{
	layer.KindImage, layer.KindLabels, layer.KindPoints, layer.KindShapes,
	layer.KindSurface, layer.KindVectors, layer.KindTracks,
}

// Validate runs the structural checks: names, kinds, required data,
// references between layers and the dims, grid and canvas settings. It
// never mutates the scene.
func Validate(s *Scene) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateNames(s)...)
	errs = append(errs, validateRequired(s)...)
	errs = append(errs, validateVolumes(s)...)
	errs = append(errs, validateSettings(s)...)
	return errs
}

// ValidateAll runs the structural tier and, when it passes, the geometric
// tier.
func ValidateAll(s *Scene) ValidationResult {
	var result ValidationResult
	result.Errors = append(result.Errors, Validate(s)...)
	if len(result.Errors) > 0 {
		return result
	}
	errs, warnings := validateGeometry(s)
	result.Errors = append(result.Errors, errs...)
	result.Warnings = append(result.Warnings, warnings...)
	return result
}

func errorf(name, format string, args ...any) ValidationError {
	return ValidationError{Layer: name, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func validateNames(s *Scene) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for i, l := range s.Layers {
		if l.Name == "" {
			errs = append(errs, errorf("", "layer %d has no name", i))
			continue
		}
		if seen[l.Name] {
			errs = append(errs, errorf(l.Name, "duplicate layer name"))
		}
		seen[l.Name] = true
		if !slices.Contains(layerKinds, l.Kind) {
			errs = append(errs, errorf(l.Name, "unknown layer kind %q", l.Kind))
		}
	}
	return errs
}

func validateRequired(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, l := range s.Layers {
		switch l.Kind {
		case layer.KindImage, layer.KindLabels:
			if len(l.Shape) < 2 {
				errs = append(errs, errorf(l.Name, "image needs a shape with at least 2 axes, got %v", l.Shape))
			}
			if l.Data != nil && l.Pattern != "" {
				errs = append(errs, errorf(l.Name, "image has both data and pattern %q", l.Pattern))
			}
			if l.Pattern != "" && !slices.Contains(Patterns, l.Pattern) {
				errs = append(errs, errorf(l.Name, "unknown pattern %q", l.Pattern))
			}
		case layer.KindPoints, layer.KindShapes, layer.KindVectors:
			if l.LayerNDim() == 0 {
				errs = append(errs, errorf(l.Name, "%s layer has no data and no ndim", l.Kind))
			}
		case layer.KindSurface:
			if l.Volume == "" && len(l.Vertices) == 0 {
				errs = append(errs, errorf(l.Name, "surface needs vertices or a volume"))
			}
			if l.Volume != "" && len(l.Vertices) > 0 {
				errs = append(errs, errorf(l.Name, "surface has both vertices and volume %q", l.Volume))
			}
		case layer.KindTracks:
			if len(l.Tracks) == 0 {
				errs = append(errs, errorf(l.Name, "tracks layer has no rows"))
			}
		}
		for i, sh := range l.Shapes {
			if _, err := shapes.ParseKind(string(sh.Kind)); err != nil {
				errs = append(errs, errorf(l.Name, "shape %d: %v", i, err))
			}
		}
	}
	return errs
}

// validateVolumes checks that isosurface layers name an earlier 3D image.
func validateVolumes(s *Scene) []ValidationError {
	var errs []ValidationError
	for i, l := range s.Layers {
		if l.Kind != layer.KindSurface || l.Volume == "" {
			continue
		}
		j := slices.IndexFunc(s.Layers, func(o *LayerSpec) bool { return o.Name == l.Volume })
		switch {
		case j < 0:
			errs = append(errs, errorf(l.Name, "volume %q: no such layer", l.Volume))
		case j >= i:
			errs = append(errs, errorf(l.Name, "volume %q must be defined before the surface", l.Volume))
		case s.Layers[j].Kind != layer.KindImage:
			errs = append(errs, errorf(l.Name, "volume %q is a %s layer, want image", l.Volume, s.Layers[j].Kind))
		case len(s.Layers[j].Shape) != 3:
			errs = append(errs, errorf(l.Name, "volume %q has %d axes, want 3", l.Volume, len(s.Layers[j].Shape)))
		}
	}
	return errs
}

func validateSettings(s *Scene) []ValidationError {
	var errs []ValidationError
	if n := s.Dims.NDisplay; n != 0 && n != 2 && n != 3 {
		errs = append(errs, errorf("", "ndisplay must be 2 or 3, got %d", n))
	}
	if o := s.Dims.Order; o != nil {
		sorted := slices.Sorted(slices.Values(o))
		for i, v := range sorted {
			if v != i {
				errs = append(errs, errorf("", "dims order %v is not a permutation", o))
				break
			}
		}
	}
	for ax, m := range s.Dims.Margins {
		if m.Left < 0 || m.Right < 0 {
			errs = append(errs, errorf("", "axis %d margins must be non-negative", ax))
		}
	}
	if s.Canvas[0] < 0 || s.Canvas[1] < 0 {
		errs = append(errs, errorf("", "canvas size %v must be positive", s.Canvas))
	}
	if g := s.Grid; g != nil {
		if g.Stride == 0 {
			errs = append(errs, errorf("", "grid stride must be non-zero"))
		}
		if g.Spacing < 0 {
			errs = append(errs, errorf("", "grid spacing must be non-negative"))
		}
	}
	return errs
}
