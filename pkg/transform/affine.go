// Package transform implements N-dimensional affine transforms and the
// ordered chain of transforms that maps a layer's data coordinates into
// world coordinates.
package transform

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrZeroScale is returned when a scale component is zero, which would make
// the transform non-invertible.
var ErrZeroScale = errors.New("transform: scale components must be nonzero")

// ErrDimMismatch is returned when component lengths disagree with the
// transform dimensionality.
var ErrDimMismatch = errors.New("transform: dimension mismatch")

// DefaultUnit is the unit assigned to axes that were given none.
const DefaultUnit = "pixel"

// Affine is an N-dimensional affine transform: p' = Linear·p + Translate.
// The zero value is not usable; construct with Identity or NewAffine.
type Affine struct {
	Name       string
	Linear     *mat.Dense
	Translate  []float64
	AxisLabels []string
	Units      []string
}

// DefaultAxisLabels returns labels "axis -n" ... "axis -1", counting from the
// last axis so that labels survive dimension expansion at the front.
func DefaultAxisLabels(ndim int) []string {
	labels := make([]string, ndim)
	for i := range labels {
		labels[i] = fmt.Sprintf("axis %d", i-ndim)
	}
	return labels
}

func defaultUnits(ndim int) []string {
	units := make([]string, ndim)
	for i := range units {
		units[i] = DefaultUnit
	}
	return units
}

func eye(n int) *mat.Dense {
	if n == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Identity returns the identity transform of the given dimensionality.
func Identity(ndim int, name string) *Affine {
	return &Affine{
		Name:       name,
		Linear:     eye(ndim),
		Translate:  make([]float64, ndim),
		AxisLabels: DefaultAxisLabels(ndim),
		Units:      defaultUnits(ndim),
	}
}

// NewAffine builds a transform from a square linear matrix and a translation.
// A nil translate means no translation.
func NewAffine(linear *mat.Dense, translate []float64, name string) (*Affine, error) {
	r, c := linear.Dims()
	if r != c {
		return nil, fmt.Errorf("transform: linear part must be square, got %dx%d: %w", r, c, ErrDimMismatch)
	}
	if translate == nil {
		translate = make([]float64, r)
	}
	if len(translate) != r {
		return nil, fmt.Errorf("transform: translate has %d entries for %d dims: %w", len(translate), r, ErrDimMismatch)
	}
	return &Affine{
		Name:       name,
		Linear:     mat.DenseCopyOf(linear),
		Translate:  append([]float64(nil), translate...),
		AxisLabels: DefaultAxisLabels(r),
		Units:      defaultUnits(r),
	}, nil
}

// FromMatrix builds a transform from an (N+1)×(N+1) homogeneous matrix.
func FromMatrix(m *mat.Dense, name string) (*Affine, error) {
	r, c := m.Dims()
	if r != c || r < 2 {
		return nil, fmt.Errorf("transform: homogeneous matrix must be square and at least 2x2, got %dx%d: %w", r, c, ErrDimMismatch)
	}
	n := r - 1
	linear := mat.DenseCopyOf(m.Slice(0, n, 0, n))
	translate := make([]float64, n)
	for i := 0; i < n; i++ {
		translate[i] = m.At(i, n)
	}
	return NewAffine(linear, translate, name)
}

// NDim returns the dimensionality of the transform.
func (a *Affine) NDim() int {
	return len(a.Translate)
}

// Clone returns a deep copy.
func (a *Affine) Clone() *Affine {
	return &Affine{
		Name:       a.Name,
		Linear:     mat.DenseCopyOf(a.Linear),
		Translate:  append([]float64(nil), a.Translate...),
		AxisLabels: append([]string(nil), a.AxisLabels...),
		Units:      append([]string(nil), a.Units...),
	}
}

// Matrix returns the (N+1)×(N+1) homogeneous matrix.
func (a *Affine) Matrix() *mat.Dense {
	n := a.NDim()
	m := eye(n + 1)
	m.Slice(0, n, 0, n).(*mat.Dense).Copy(a.Linear)
	for i := 0; i < n; i++ {
		m.Set(i, n, a.Translate[i])
	}
	return m
}

// Apply maps a single point. The point must have NDim coordinates.
func (a *Affine) Apply(p []float64) []float64 {
	n := a.NDim()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		s := a.Translate[i]
		for j := 0; j < n; j++ {
			s += a.Linear.At(i, j) * p[j]
		}
		out[i] = s
	}
	return out
}

// ApplyAll maps every row of pts.
func (a *Affine) ApplyAll(pts [][]float64) [][]float64 {
	out := make([][]float64, len(pts))
	for i, p := range pts {
		out[i] = a.Apply(p)
	}
	return out
}

// Compose returns the transform that applies a first and then next.
func (a *Affine) Compose(next *Affine) *Affine {
	n := a.NDim()
	var linear mat.Dense
	linear.Mul(next.Linear, a.Linear)
	translate := next.Apply(a.Translate)
	out := &Affine{
		Name:       a.Name + "+" + next.Name,
		Linear:     &linear,
		Translate:  translate,
		AxisLabels: append([]string(nil), next.AxisLabels...),
		Units:      append([]string(nil), next.Units...),
	}
	if len(out.AxisLabels) != n {
		out.AxisLabels = DefaultAxisLabels(n)
	}
	if len(out.Units) != n {
		out.Units = defaultUnits(n)
	}
	return out
}

// Inverse returns the inverse transform, or an error when the linear part
// is singular.
func (a *Affine) Inverse() (*Affine, error) {
	var inv mat.Dense
	if err := inv.Inverse(a.Linear); err != nil {
		return nil, fmt.Errorf("transform: %s is not invertible: %w", a.Name, err)
	}
	n := a.NDim()
	translate := make([]float64, n)
	for i := 0; i < n; i++ {
		s := 0.0
		for j := 0; j < n; j++ {
			s -= inv.At(i, j) * a.Translate[j]
		}
		translate[i] = s
	}
	return &Affine{
		Name:       a.Name,
		Linear:     &inv,
		Translate:  translate,
		AxisLabels: append([]string(nil), a.AxisLabels...),
		Units:      append([]string(nil), a.Units...),
	}, nil
}

// SetSlice returns the transform restricted to the given axes, in the
// given order.
func (a *Affine) SetSlice(axes []int) *Affine {
	k := len(axes)
	linear := eye(k)
	translate := make([]float64, k)
	labels := make([]string, k)
	units := make([]string, k)
	for i, ai := range axes {
		for j, aj := range axes {
			linear.Set(i, j, a.Linear.At(ai, aj))
		}
		translate[i] = a.Translate[ai]
		labels[i] = a.AxisLabels[ai]
		units[i] = a.Units[ai]
	}
	return &Affine{Name: a.Name, Linear: linear, Translate: translate, AxisLabels: labels, Units: units}
}

// ExpandDims returns a transform with identity axes inserted at the given
// positions of the expanded space. Existing axes keep their relative order.
func (a *Affine) ExpandDims(axes []int) *Affine {
	n := a.NDim() + len(axes)
	isNew := make([]bool, n)
	for _, ax := range axes {
		isNew[ax] = true
	}
	old := make([]int, 0, a.NDim())
	for i := 0; i < n; i++ {
		if !isNew[i] {
			old = append(old, i)
		}
	}
	linear := eye(n)
	translate := make([]float64, n)
	labels := DefaultAxisLabels(n)
	units := defaultUnits(n)
	for i, oi := range old {
		for j, oj := range old {
			linear.Set(oi, oj, a.Linear.At(i, j))
		}
		translate[oi] = a.Translate[i]
		labels[oi] = a.AxisLabels[i]
		units[oi] = a.Units[i]
	}
	return &Affine{Name: a.Name, Linear: linear, Translate: translate, AxisLabels: labels, Units: units}
}

// IsDiagonal reports whether every off-diagonal entry of the linear part is
// within tol of zero.
func (a *Affine) IsDiagonal(tol float64) bool {
	n := a.NDim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && math.Abs(a.Linear.At(i, j)) > tol {
				return false
			}
		}
	}
	return true
}

// Scale returns the signed per-axis scale recovered by decomposition.
func (a *Affine) Scale() []float64 {
	scale, _, _ := Decompose(a.Linear)
	return scale
}
