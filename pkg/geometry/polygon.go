package geometry

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// FindPlanarAxis looks for an axis along which every 3D point has the same
// coordinate. When one exists it returns the points projected onto the
// remaining two axes, the constant axis and its value. 2D input is returned
// unchanged with axis -1 and planar true. Non-planar 3D input returns planar
// false.
func FindPlanarAxis(points [][]float64) (proj [][]float64, axis int, value float64, planar bool) {
	if len(points) == 0 {
		return nil, -1, 0, true
	}
	d := len(points[0])
	if d == 2 {
		return points, -1, 0, true
	}
	for ax := 0; ax < d; ax++ {
		v := points[0][ax]
		constant := true
		for _, p := range points[1:] {
			if p[ax] != v {
				constant = false
				break
			}
		}
		if !constant {
			continue
		}
		proj = make([][]float64, len(points))
		for i, p := range points {
			q := make([]float64, 0, d-1)
			q = append(q, p[:ax]...)
			proj[i] = append(q, p[ax+1:]...)
		}
		return proj, ax, v, true
	}
	return nil, -1, 0, false
}

// InsertAxis re-inserts a constant coordinate at position axis into each
// 2D point, undoing FindPlanarAxis.
func InsertAxis(points [][]float64, axis int, value float64) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		q := make([]float64, 0, len(p)+1)
		q = append(q, p[:axis]...)
		q = append(q, value)
		out[i] = append(q, p[axis:]...)
	}
	return out
}

// Orientation returns the signed doubled area of triangle abc: positive for
// counter-clockwise in (x, y), negative for clockwise, zero when collinear.
func Orientation(a, b, c []float64) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// IsCollinear reports whether all 2D points lie on one line. Fewer than
// three points are collinear.
func IsCollinear(points [][]float64) bool {
	if len(points) < 3 {
		return true
	}
	a := points[0]
	var b []float64
	for _, p := range points[1:] {
		if p[0] != a[0] || p[1] != a[1] {
			b = p
			break
		}
	}
	if b == nil {
		return true
	}
	scale := math.Hypot(b[0]-a[0], b[1]-a[1])
	for _, p := range points[1:] {
		tol := 1e-12 * scale * math.Max(1, math.Hypot(p[0]-a[0], p[1]-a[1]))
		if math.Abs(Orientation(a, b, p)) > tol {
			return false
		}
	}
	return true
}

// RemovePathDuplicates drops consecutive repeated vertices. For a closed
// path a final vertex equal to the first is dropped too.
func RemovePathDuplicates(data [][]float64, closed bool) [][]float64 {
	if len(data) == 0 {
		return nil
	}
	out := [][]float64{data[0]}
	for _, p := range data[1:] {
		if !floats.Equal(p, out[len(out)-1]) {
			out = append(out, p)
		}
	}
	if closed && len(out) > 1 && floats.Equal(out[0], out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

// PolygonArea is the signed shoelace area of a 2D polygon.
func PolygonArea(poly [][]float64) float64 {
	var s float64
	n := len(poly)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		s += poly[i][0]*poly[j][1] - poly[j][0]*poly[i][1]
	}
	return s / 2
}

// TriangleArea is the unsigned area of a 2D triangle.
func TriangleArea(a, b, c []float64) float64 {
	return math.Abs(Orientation(a, b, c)) / 2
}

// PointInPolygon is the even-odd crossing test.
func PointInPolygon(p []float64, poly [][]float64) bool {
	in := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a[1] > p[1]) != (b[1] > p[1]) {
			x := (b[0]-a[0])*(p[1]-a[1])/(b[1]-a[1]) + a[0]
			if p[0] < x {
				in = !in
			}
		}
	}
	return in
}

// PointInTriangle reports whether 2D point p lies inside or on triangle abc.
func PointInTriangle(p, a, b, c []float64) bool {
	d1 := Orientation(a, b, p)
	d2 := Orientation(b, c, p)
	d3 := Orientation(c, a, p)
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

// NewellNormal returns the unnormalized Newell normal of a 3D polygon; it
// is zero for degenerate input.
func NewellNormal(poly [][]float64) [3]float64 {
	var n [3]float64
	for i := range poly {
		a := poly[i]
		b := poly[(i+1)%len(poly)]
		n[0] += (a[1] - b[1]) * (a[2] + b[2])
		n[1] += (a[2] - b[2]) * (a[0] + b[0])
		n[2] += (a[0] - b[0]) * (a[1] + b[1])
	}
	return n
}
