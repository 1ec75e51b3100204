package scene

import (
	"errors"
	"fmt"
	"math"
)

var ErrPattern = errors.New("scene: unknown pattern")

// Patterns lists the generated image fills.
var Patterns = []string{"zeros", "ramp", "ball", "checker"}

// Fill generates row-major image data for a named pattern:
//
//	zeros    all zero
//	ramp     the flat index scaled into [0, 1)
//	ball     1 at the center falling linearly to 0 at a third of the
//	         smallest axis, negative outside
//	checker  alternating 0 and 1 over unit cells
func Fill(pattern string, shape []int) ([]float64, error) {
	n := 1
	for _, s := range shape {
		n *= s
	}
	out := make([]float64, n)
	switch pattern {
	case "", "zeros":
	case "ramp":
		for i := range out {
			out[i] = float64(i) / float64(n)
		}
	case "ball":
		radius := math.Inf(1)
		for _, s := range shape {
			radius = math.Min(radius, float64(s)/3)
		}
		for i := range out {
			var d2 float64
			for ax, c := range unravel(i, shape) {
				off := float64(c) - float64(shape[ax]-1)/2
				d2 += off * off
			}
			out[i] = 1 - math.Sqrt(d2)/radius
		}
	case "checker":
		for i := range out {
			sum := 0
			for _, c := range unravel(i, shape) {
				sum += c
			}
			out[i] = float64(sum % 2)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrPattern, pattern)
	}
	return out, nil
}

func unravel(i int, shape []int) []int {
	idx := make([]int, len(shape))
	for ax := len(shape) - 1; ax >= 0; ax-- {
		if shape[ax] == 0 {
			return idx
		}
		idx[ax] = i % shape[ax]
		i /= shape[ax]
	}
	return idx
}
