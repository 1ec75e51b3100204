package shapes

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/vector"
)

// Mask is a row-major boolean array.
type Mask struct {
	Shape []int
	Data  []bool
}

// NewMask allocates an all-false mask.
func NewMask(shape ...int) *Mask {
	n := 1
	for _, s := range shape {
		n *= max(s, 0)
	}
	return &Mask{Shape: append([]int(nil), shape...), Data: make([]bool, n)}
}

func (m *Mask) offset(idx []int) (int, bool) {
	if len(idx) != len(m.Shape) {
		return 0, false
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= m.Shape[i] {
			return 0, false
		}
		off = off*m.Shape[i] + v
	}
	return off, true
}

// At reports the value at idx; out of range reads false.
func (m *Mask) At(idx ...int) bool {
	off, ok := m.offset(idx)
	return ok && m.Data[off]
}

// Set stores v at idx and ignores out of range writes.
func (m *Mask) Set(v bool, idx ...int) {
	if off, ok := m.offset(idx); ok {
		m.Data[off] = v
	}
}

// Count returns the number of true elements.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Data {
		if v {
			n++
		}
	}
	return n
}

// ToMask rasterizes the shape. maskShape may name just the displayed plane
// (length 2) or every dim of the shape, in which case the plane is copied
// across the shape's slice key range in the non-displayed dims. A nil
// maskShape uses the rounded maximum of the displayed data. Vertices are
// mapped as (p - offset) * zoom before rasterizing.
func (s *Shape) ToMask(maskShape []int, zoom float64, offset [2]float64) (*Mask, error) {
	if s.ndisplay != 2 {
		return nil, ErrNDisplay
	}
	dd := s.DimsDisplayed()
	disp := s.DataDisplayed()
	if maskShape == nil {
		b := dataBounds(disp)
		maskShape = []int{int(math.Round(b[1][0])), int(math.Round(b[1][1]))}
	}

	var plane [2]int
	embedded := false
	switch len(maskShape) {
	case 2:
		plane = [2]int{maskShape[0], maskShape[1]}
	case s.NDim():
		plane = [2]int{maskShape[dd[0]], maskShape[dd[1]]}
		embedded = true
	default:
		return nil, fmt.Errorf("%w: got %d for a %d-D shape", ErrMaskShape, len(maskShape), s.NDim())
	}

	src := disp
	if s.useFaceVertices {
		src = s.faceVertices[1:]
	}
	pts := make([][2]float64, len(src))
	for i, p := range src {
		q := p[len(p)-2:]
		pts[i] = [2]float64{(q[0] - offset[0]) * zoom, (q[1] - offset[1]) * zoom}
	}

	var m2 *Mask
	if s.filled {
		m2 = polyToMask(plane, pts)
	} else {
		m2 = pathToMask(plane, pts, s.closed)
	}
	if !embedded {
		return m2, nil
	}
	if s.sliceKey == nil {
		return nil, fmt.Errorf("%w: slice key not set", ErrInternal)
	}
	return s.embed(m2, maskShape, dd), nil
}

// embed copies the plane mask into every index of the full mask whose
// non-displayed coordinates fall inside the slice key.
func (s *Shape) embed(plane *Mask, shape []int, dd []int) *Mask {
	out := NewMask(shape...)
	if len(out.Data) == 0 {
		return out
	}
	key := s.sliceKey
	idx := make([]int, len(shape))
	for off := range out.Data {
		r := off
		for i := len(shape) - 1; i >= 0; i-- {
			idx[i] = r % shape[i]
			r /= shape[i]
		}
		inside := true
		for i := range idx {
			if i == dd[0] || i == dd[1] {
				continue
			}
			if idx[i] < key[0][i] || idx[i] > key[1][i] {
				inside = false
				break
			}
		}
		if inside {
			out.Data[off] = plane.At(idx[dd[0]], idx[dd[1]])
		}
	}
	return out
}

// polyToMask marks every pixel whose center lies inside the polygon, plus
// the pixels on its outline so thin polygons are not lost.
func polyToMask(shape [2]int, pts [][2]float64) *Mask {
	m := pathToMask(shape, pts, true)
	h, w := shape[0], shape[1]
	if h <= 0 || w <= 0 || len(pts) < 3 {
		return m
	}
	r := vector.NewRasterizer(w, h)
	// pixel (row, col) is centered on the rasterizer point (col+0.5, row+0.5)
	r.MoveTo(float32(pts[0][1]+0.5), float32(pts[0][0]+0.5))
	for _, p := range pts[1:] {
		r.LineTo(float32(p[1]+0.5), float32(p[0]+0.5))
	}
	r.ClosePath()
	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			if dst.AlphaAt(col, row).A >= 128 {
				m.Data[row*w+col] = true
			}
		}
	}
	return m
}

// pathToMask marks the pixels of the polyline through the rounded
// vertices.
func pathToMask(shape [2]int, pts [][2]float64, closed bool) *Mask {
	m := NewMask(shape[0], shape[1])
	if len(pts) == 0 {
		return m
	}
	round := func(p [2]float64) (int, int) {
		return int(math.Round(p[0])), int(math.Round(p[1]))
	}
	if len(pts) == 1 {
		r, c := round(pts[0])
		m.Set(true, r, c)
		return m
	}
	n := len(pts) - 1
	if closed {
		n = len(pts)
	}
	for i := 0; i < n; i++ {
		r0, c0 := round(pts[i])
		r1, c1 := round(pts[(i+1)%len(pts)])
		line(r0, c0, r1, c1, func(r, c int) { m.Set(true, r, c) })
	}
	return m
}

// line visits the Bresenham pixels from (r0, c0) to (r1, c1) inclusive.
func line(r0, c0, r1, c1 int, visit func(r, c int)) {
	dr, dc := abs(r1-r0), -abs(c1-c0)
	sr, sc := 1, 1
	if r0 > r1 {
		sr = -1
	}
	if c0 > c1 {
		sc = -1
	}
	e := dr + dc
	for {
		visit(r0, c0)
		if r0 == r1 && c0 == c1 {
			return
		}
		e2 := 2 * e
		if e2 >= dc {
			e += dc
			r0 += sr
		}
		if e2 <= dr {
			e += dr
			c0 += sc
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
