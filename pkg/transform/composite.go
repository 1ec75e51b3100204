package transform

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// CompositeAffine keeps the scale, rotate, shear and translate components
// of a data-to-physical transform separately so each can be replaced on its
// own. Its linear part is rotate · shear · diag(scale).
type CompositeAffine struct {
	Name string

	scale      []float64
	translate  []float64
	rotate     *mat.Dense
	shear      []float64
	axisLabels []string
	units      []string
	version    uint64
}

// NewComposite returns the identity composite of the given dimensionality.
func NewComposite(ndim int, name string) *CompositeAffine {
	scale := make([]float64, ndim)
	for i := range scale {
		scale[i] = 1
	}
	return &CompositeAffine{
		Name:       name,
		scale:      scale,
		translate:  make([]float64, ndim),
		rotate:     eye(ndim),
		shear:      make([]float64, ndim*(ndim-1)/2),
		axisLabels: DefaultAxisLabels(ndim),
		units:      defaultUnits(ndim),
	}
}

// NDim returns the dimensionality.
func (c *CompositeAffine) NDim() int { return len(c.scale) }

// Version increments on every setter.
func (c *CompositeAffine) Version() uint64 { return c.version }

func (c *CompositeAffine) Scale() []float64 { return append([]float64(nil), c.scale...) }
func (c *CompositeAffine) Translate() []float64 { return append([]float64(nil), c.translate...) }
func (c *CompositeAffine) Shear() []float64 { return append([]float64(nil), c.shear...) }
func (c *CompositeAffine) Rotate() *mat.Dense { return mat.DenseCopyOf(c.rotate) }
func (c *CompositeAffine) AxisLabels() []string { return append([]string(nil), c.axisLabels...) }
func (c *CompositeAffine) Units() []string { return append([]string(nil), c.units...) }

// SetScale replaces the scale. Zero components are rejected.
func (c *CompositeAffine) SetScale(scale []float64) error {
	if len(scale) != c.NDim() {
		return fmt.Errorf("transform: scale has %d entries for %d dims: %w", len(scale), c.NDim(), ErrDimMismatch)
	}
	for i, s := range scale {
		if s == 0 {
			return fmt.Errorf("transform: scale[%d]: %w", i, ErrZeroScale)
		}
	}
	c.scale = append([]float64(nil), scale...)
	c.version++
	return nil
}

// SetTranslate replaces the translation.
func (c *CompositeAffine) SetTranslate(translate []float64) error {
	if len(translate) != c.NDim() {
		return fmt.Errorf("transform: translate has %d entries for %d dims: %w", len(translate), c.NDim(), ErrDimMismatch)
	}
	c.translate = append([]float64(nil), translate...)
	c.version++
	return nil
}

// SetRotate replaces the rotation matrix.
func (c *CompositeAffine) SetRotate(rotate mat.Matrix) error {
	r, cols := rotate.Dims()
	if r != c.NDim() || cols != c.NDim() {
		return fmt.Errorf("transform: rotate is %dx%d for %d dims: %w", r, cols, c.NDim(), ErrDimMismatch)
	}
	c.rotate = mat.DenseCopyOf(rotate)
	c.version++
	return nil
}

// SetShear replaces the shear, given as strictly-upper coefficients or a
// full row-major matrix.
func (c *CompositeAffine) SetShear(shear []float64) error {
	m, err := ShearMatrix(c.NDim(), shear)
	if err != nil {
		return fmt.Errorf("transform: shear has %d entries for %d dims: %w", len(shear), c.NDim(), err)
	}
	n := c.NDim()
	coeffs := make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			coeffs = append(coeffs, m.At(i, j))
		}
	}
	c.shear = coeffs
	c.version++
	return nil
}

// SetLinear decomposes a full linear matrix into the components.
func (c *CompositeAffine) SetLinear(linear mat.Matrix) error {
	r, cols := linear.Dims()
	if r != c.NDim() || cols != c.NDim() {
		return fmt.Errorf("transform: linear is %dx%d for %d dims: %w", r, cols, c.NDim(), ErrDimMismatch)
	}
	scale, rotate, shear := Decompose(linear)
	for i, s := range scale {
		if s == 0 {
			return fmt.Errorf("transform: linear scale[%d]: %w", i, ErrZeroScale)
		}
	}
	c.scale, c.rotate, c.shear = scale, rotate, shear
	c.version++
	return nil
}

// SetAxisLabels replaces the axis labels.
func (c *CompositeAffine) SetAxisLabels(labels []string) error {
	if len(labels) != c.NDim() {
		return fmt.Errorf("transform: %d axis labels for %d dims: %w", len(labels), c.NDim(), ErrDimMismatch)
	}
	c.axisLabels = append([]string(nil), labels...)
	c.version++
	return nil
}

// SetUnits replaces the axis units. Empty entries become DefaultUnit.
func (c *CompositeAffine) SetUnits(units []string) error {
	if len(units) != c.NDim() {
		return fmt.Errorf("transform: %d units for %d dims: %w", len(units), c.NDim(), ErrDimMismatch)
	}
	c.units = make([]string, len(units))
	for i, u := range units {
		if u == "" {
			u = DefaultUnit
		}
		c.units[i] = u
	}
	c.version++
	return nil
}

// Linear returns rotate · shear · diag(scale).
func (c *CompositeAffine) Linear() *mat.Dense {
	n := c.NDim()
	sh, _ := ShearMatrix(n, c.shear)
	var rs, out mat.Dense
	rs.Mul(c.rotate, sh)
	diag := mat.NewDiagDense(n, append([]float64(nil), c.scale...))
	out.Mul(&rs, diag)
	return &out
}

// Affine flattens the components into a plain transform.
func (c *CompositeAffine) Affine() *Affine {
	return &Affine{
		Name:       c.Name,
		Linear:     c.Linear(),
		Translate:  append([]float64(nil), c.translate...),
		AxisLabels: append([]string(nil), c.axisLabels...),
		Units:      append([]string(nil), c.units...),
	}
}

// SetSlice returns the composite restricted to the given axes.
func (c *CompositeAffine) SetSlice(axes []int) *CompositeAffine {
	out := NewComposite(len(axes), c.Name)
	sh, _ := ShearMatrix(c.NDim(), c.shear)
	k := 0
	for i, ai := range axes {
		out.scale[i] = c.scale[ai]
		out.translate[i] = c.translate[ai]
		out.axisLabels[i] = c.axisLabels[ai]
		out.units[i] = c.units[ai]
		for j, aj := range axes {
			out.rotate.Set(i, j, c.rotate.At(ai, aj))
			if j > i {
				out.shear[k] = sh.At(ai, aj)
				k++
			}
		}
	}
	out.version = c.version + 1
	return out
}

// ExpandDims returns the composite with identity axes inserted at the given
// positions of the expanded space.
func (c *CompositeAffine) ExpandDims(axes []int) *CompositeAffine {
	n := c.NDim() + len(axes)
	out := NewComposite(n, c.Name)
	isNew := make([]bool, n)
	for _, ax := range axes {
		isNew[ax] = true
	}
	old := make([]int, 0, c.NDim())
	for i := 0; i < n; i++ {
		if !isNew[i] {
			old = append(old, i)
		}
	}
	sh, _ := ShearMatrix(c.NDim(), c.shear)
	full := eye(n)
	for i, oi := range old {
		out.scale[oi] = c.scale[i]
		out.translate[oi] = c.translate[i]
		out.axisLabels[oi] = c.axisLabels[i]
		out.units[oi] = c.units[i]
		for j, oj := range old {
			out.rotate.Set(oi, oj, c.rotate.At(i, j))
			full.Set(oi, oj, sh.At(i, j))
		}
	}
	k := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out.shear[k] = full.At(i, j)
			k++
		}
	}
	out.version = c.version + 1
	return out
}
