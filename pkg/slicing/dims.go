package slicing

import (
	"fmt"
	"math"
	"slices"
)

// Range is the world-space sampling range of one axis.
type Range struct {
	Start, Stop, Step float64
}

// DefaultRange is assigned to axes that have no layer extent yet.
var DefaultRange = Range{Start: 0, Stop: 2, Step: 1}

// Dims is the global dimension model: how many world axes exist, which are
// displayed, in what order, and where the slicing point sits.
type Dims struct {
	ndisplay    int
	order       []int
	point       []float64
	marginLeft  []float64
	marginRight []float64
	ranges      []Range
	axisLabels  []string
}

// NewDims returns a dims model with ndim axes, 2D display and natural order.
func NewDims(ndim int) *Dims {
	d := &Dims{ndisplay: 2}
	d.SetNDim(ndim)
	return d
}

var _ DimsSource = (*Dims)(nil)

func (d *Dims) NDim() int { return len(d.order) }
func (d *Dims) NDisplay() int { return d.ndisplay }
func (d *Dims) Order() []int { return slices.Clone(d.order) }
func (d *Dims) Point() []float64 { return slices.Clone(d.point) }
func (d *Dims) Ranges() []Range { return slices.Clone(d.ranges) }
func (d *Dims) AxisLabels() []string { return slices.Clone(d.axisLabels) }

// Displayed returns the last NDisplay entries of the order.
func (d *Dims) Displayed() []int {
	n := min(d.ndisplay, len(d.order))
	return slices.Clone(d.order[len(d.order)-n:])
}

// NotDisplayed returns the leading entries of the order.
func (d *Dims) NotDisplayed() []int {
	n := min(d.ndisplay, len(d.order))
	return slices.Clone(d.order[:len(d.order)-n])
}

// WorldSlice returns the current thick slice over all world axes.
func (d *Dims) WorldSlice() ThickNDSlice {
	return ThickNDSlice{
		Point:       slices.Clone(d.point),
		MarginLeft:  slices.Clone(d.marginLeft),
		MarginRight: slices.Clone(d.marginRight),
	}
}

// SetNDim grows or shrinks the model. New axes are added at the front;
// removed axes are taken from the front. The order is remapped so shared
// axes keep their relative order.
func (d *Dims) SetNDim(ndim int) {
	old := len(d.order)
	d.order = WorldToLayerDims(d.order, old, ndim)
	d.point = resizeFront(d.point, ndim, 0)
	d.marginLeft = resizeFront(d.marginLeft, ndim, 0)
	d.marginRight = resizeFront(d.marginRight, ndim, 0)

	ranges := make([]Range, ndim)
	labels := make([]string, ndim)
	for i := 0; i < ndim; i++ {
		src := i - (ndim - old)
		if src >= 0 && src < old {
			ranges[i] = d.ranges[src]
			labels[i] = d.axisLabels[src]
		} else {
			ranges[i] = DefaultRange
			labels[i] = fmt.Sprintf("%d", i-ndim)
		}
	}
	d.ranges = ranges
	d.axisLabels = labels
}

func resizeFront(v []float64, n int, fill float64) []float64 {
	out := make([]float64, n)
	if len(v) >= n {
		copy(out, v[len(v)-n:])
		return out
	}
	pad := n - len(v)
	for i := 0; i < pad; i++ {
		out[i] = fill
	}
	copy(out[pad:], v)
	return out
}

// SetNDisplay sets the number of displayed axes, 2 or 3.
func (d *Dims) SetNDisplay(n int) error {
	if n != 2 && n != 3 {
		return fmt.Errorf("slicing: ndisplay must be 2 or 3, got %d", n)
	}
	d.ndisplay = n
	return nil
}

// SetOrder replaces the axis order with a permutation of 0..ndim-1.
func (d *Dims) SetOrder(order []int) error {
	if len(order) != len(d.order) {
		return fmt.Errorf("slicing: order has %d axes, want %d", len(order), len(d.order))
	}
	seen := make([]bool, len(order))
	for _, o := range order {
		if o < 0 || o >= len(order) || seen[o] {
			return fmt.Errorf("slicing: order %v is not a permutation", order)
		}
		seen[o] = true
	}
	d.order = slices.Clone(order)
	return nil
}

// SetPoint moves the slicing point on one axis, clamped to the axis range.
func (d *Dims) SetPoint(axis int, value float64) error {
	if axis < 0 || axis >= len(d.point) {
		return fmt.Errorf("slicing: axis %d out of range for %d dims", axis, len(d.point))
	}
	r := d.ranges[axis]
	d.point[axis] = math.Min(math.Max(value, r.Start), r.Stop)
	return nil
}

// SetMargins sets the thick-slice margins on one axis.
func (d *Dims) SetMargins(axis int, left, right float64) error {
	if axis < 0 || axis >= len(d.point) {
		return fmt.Errorf("slicing: axis %d out of range for %d dims", axis, len(d.point))
	}
	if left < 0 || right < 0 {
		return fmt.Errorf("slicing: margins must be non-negative, got %g and %g", left, right)
	}
	d.marginLeft[axis] = left
	d.marginRight[axis] = right
	return nil
}

// SetRanges replaces the per-axis ranges and clamps the point into them.
func (d *Dims) SetRanges(ranges []Range) error {
	if len(ranges) != len(d.ranges) {
		return fmt.Errorf("slicing: %d ranges for %d dims", len(ranges), len(d.ranges))
	}
	d.ranges = slices.Clone(ranges)
	for i, r := range d.ranges {
		d.point[i] = math.Min(math.Max(d.point[i], r.Start), r.Stop)
	}
	return nil
}

// SetAxisLabels replaces the axis labels.
func (d *Dims) SetAxisLabels(labels []string) error {
	if len(labels) != len(d.axisLabels) {
		return fmt.Errorf("slicing: %d labels for %d dims", len(labels), len(d.axisLabels))
	}
	d.axisLabels = slices.Clone(labels)
	return nil
}

// RollOrder cycles the order by one, the way a "roll dims" action does.
func (d *Dims) RollOrder() {
	if len(d.order) < 2 {
		return
	}
	d.order = append([]int{d.order[len(d.order)-1]}, d.order[:len(d.order)-1]...)
}

// Transpose swaps the last two displayed axes.
func (d *Dims) Transpose() {
	n := len(d.order)
	if n < 2 {
		return
	}
	d.order[n-1], d.order[n-2] = d.order[n-2], d.order[n-1]
}
