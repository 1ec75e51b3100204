package transform

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Decompose splits a square linear matrix into rotate · shear · diag(scale),
// where shear is upper triangular with a unit diagonal. The returned shear
// holds the strictly-upper coefficients in row-major order. A reflection is
// carried by negating the first scale component so that rotate always has a
// positive determinant.
func Decompose(linear mat.Matrix) (scale []float64, rotate *mat.Dense, shear []float64) {
	n, _ := linear.Dims()
	m := mat.DenseCopyOf(linear)

	var qr mat.QR
	qr.Factorize(m)
	var q, r mat.Dense
	qr.QTo(&q)
	qr.RTo(&r)

	scale = make([]float64, n)
	for i := 0; i < n; i++ {
		d := r.At(i, i)
		scale[i] = math.Abs(d)
		sign := 1.0
		if d < 0 {
			sign = -1
		}
		// Flip row i of R and column i of Q together; Q·R is unchanged.
		for j := 0; j < n; j++ {
			r.Set(i, j, r.At(i, j)*sign)
			q.Set(j, i, q.At(j, i)*sign)
		}
	}

	if mat.Det(&q) < 0 {
		scale[0] = -scale[0]
		for j := 0; j < n; j++ {
			r.Set(0, j, -r.At(0, j))
		}
		var rInv mat.Dense
		if err := rInv.Inverse(&r); err == nil {
			q.Mul(m, &rInv)
		}
	}

	shear = make([]float64, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if scale[j] == 0 {
				shear = append(shear, 0)
				continue
			}
			shear = append(shear, r.At(i, j)/scale[j])
		}
	}
	return scale, &q, shear
}

// ShearMatrix expands strictly-upper coefficients into a unit upper
// triangular matrix. A full n×n row-major matrix is also accepted.
func ShearMatrix(n int, shear []float64) (*mat.Dense, error) {
	if len(shear) == n*n {
		return mat.NewDense(n, n, append([]float64(nil), shear...)), nil
	}
	if len(shear) != n*(n-1)/2 {
		return nil, ErrDimMismatch
	}
	m := eye(n)
	k := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.Set(i, j, shear[k])
			k++
		}
	}
	return m, nil
}

// RotationMatrix2D returns the counter-clockwise rotation by deg degrees.
func RotationMatrix2D(deg float64) *mat.Dense {
	t := deg * math.Pi / 180
	c, s := math.Cos(t), math.Sin(t)
	return mat.NewDense(2, 2, []float64{c, -s, s, c})
}

// RotationMatrix3D returns the rotation for extrinsic x, y, z angles in
// degrees, applied in that order.
func RotationMatrix3D(deg [3]float64) *mat.Dense {
	rx := deg[0] * math.Pi / 180
	ry := deg[1] * math.Pi / 180
	rz := deg[2] * math.Pi / 180
	x := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, math.Cos(rx), -math.Sin(rx),
		0, math.Sin(rx), math.Cos(rx),
	})
	y := mat.NewDense(3, 3, []float64{
		math.Cos(ry), 0, math.Sin(ry),
		0, 1, 0,
		-math.Sin(ry), 0, math.Cos(ry),
	})
	z := mat.NewDense(3, 3, []float64{
		math.Cos(rz), -math.Sin(rz), 0,
		math.Sin(rz), math.Cos(rz), 0,
		0, 0, 1,
	})
	var zy, out mat.Dense
	zy.Mul(z, y)
	out.Mul(&zy, x)
	return &out
}
