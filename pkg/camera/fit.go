package camera

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrInvalidMargin is returned for a margin outside [0, 1).
var ErrInvalidMargin = errors.New("camera: margin must be in [0, 1)")

// FitInput is everything a view fit depends on. Extent is the world
// extent over the displayed axes; Canvas is (height, width) in pixels.
type FitInput struct {
	Extent   [2][]float64
	NDisplay int
	Canvas   [2]float64
	Grid     Grid
	NLayers  int
	Margin   float64
	Angles   [3]float64
}

// FitResult is the camera state a fit produces.
type FitResult struct {
	Center []float64  `json:"center"`
	Zoom   float64    `json:"zoom"`
	Angles [3]float64 `json:"angles"`
}

// ScaleFactor is 1 - margin.
func ScaleFactor(margin float64) (float64, error) {
	if margin < 0 || margin >= 1 || math.IsNaN(margin) {
		return 0, fmt.Errorf("camera: margin %g: %w", margin, ErrInvalidMargin)
	}
	return 1 - margin, nil
}

// FitToView centers the extent and picks the zoom that makes it fill the
// viewbox less the margin. In 3D the extent is projected onto the camera's
// up and right directions first.
func FitToView(in FitInput) (FitResult, error) {
	sf, err := ScaleFactor(in.Margin)
	if err != nil {
		return FitResult{}, err
	}
	n := len(in.Extent[0])
	size := make([]float64, n)
	center := make([]float64, n)
	for i := range size {
		size[i] = in.Extent[1][i] - in.Extent[0][i]
		center[i] = in.Extent[0][i] + size[i]/2
	}

	res := FitResult{Center: viewCenter(center, in.NDisplay), Angles: in.Angles}
	viewbox := in.Grid.ViewboxSize(in.Canvas, in.NLayers)
	switch {
	case slices.Max(append(size, 0)) == 0:
		res.Zoom = sf * math.Min(in.Canvas[0], in.Canvas[1])
	case in.NDisplay == 2:
		res.Zoom = sf * zoom2D(size, viewbox)
	default:
		cam := Camera{Angles: in.Angles}
		h, w := ProjectedSize(size, cam.ViewDirection(), cam.UpDirection())
		res.Zoom = sf * math.Min(viewbox[0]/h, viewbox[1]/w)
	}
	return res, nil
}

// viewCenter keeps the last ndisplay entries, left-padding with zeros
// when fewer are available.
func viewCenter(c []float64, ndisplay int) []float64 {
	if len(c) >= ndisplay {
		return slices.Clone(c[len(c)-ndisplay:])
	}
	out := make([]float64, ndisplay)
	copy(out[ndisplay-len(c):], c)
	return out
}

func zoom2D(size []float64, viewbox [2]float64) float64 {
	scale := [2]float64{1, 1}
	if len(size) >= 2 {
		copy(scale[:], size[len(size)-2:])
	} else if len(size) == 1 {
		scale[1] = size[0]
	}
	for i, s := range scale {
		if math.Abs(s) < 1e-8 {
			scale[i] = 1
		}
	}
	return math.Min(viewbox[0]/scale[0], viewbox[1]/scale[1])
}

// ProjectedSize returns the displayed height and width of a box of the
// given (z, y, x) size seen along view with up pointing up. A 2D size gets
// a negligible z thickness.
func ProjectedSize(size []float64, view, up r3.Vec) (float64, float64) {
	s := slices.Clone(size)
	for len(s) < 3 {
		s = append([]float64{1e-10}, s...)
	}
	sv := r3.Vec{X: s[len(s)-3], Y: s[len(s)-2], Z: s[len(s)-1]}
	right := r3.Cross(view, up)
	h := r3.Dot(absVec(up), sv)
	w := r3.Dot(absVec(right), sv)
	return h, w
}

func absVec(v r3.Vec) r3.Vec {
	return r3.Vec{X: math.Abs(v.X), Y: math.Abs(v.Y), Z: math.Abs(v.Z)}
}
