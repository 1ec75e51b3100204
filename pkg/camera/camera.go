// Package camera holds the viewer camera and grid layout and computes the
// camera that fits a world extent onto the canvas.
package camera

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultAngles is the 3D orientation a view reset returns to.
var DefaultAngles = [3]float64{0, 0, 90}

// Camera is the view state written by a fit. Zoom is canvas pixels per
// world unit and Angles are Euler angles in degrees.
type Camera struct {
	Center      []float64  `json:"center"`
	Zoom        float64    `json:"zoom"`
	Angles      [3]float64 `json:"angles"`
	Perspective float64    `json:"perspective"`
}

// New returns a camera at the origin with unit zoom.
func New() *Camera {
	return &Camera{Center: []float64{0, 0}, Zoom: 1}
}

// ViewDirection is the unit vector the 3D camera looks along. Components
// follow world axis order: X is axis 0 (depth), Z is axis 2.
func (c *Camera) ViewDirection() r3.Vec {
	a1 := c.Angles[1] * math.Pi / 180
	a2 := c.Angles[2] * math.Pi / 180
	return r3.Vec{
		X: math.Sin(a2) * math.Cos(a1),
		Y: math.Cos(a2) * math.Cos(a1),
		Z: -math.Sin(a1),
	}
}

// UpDirection is the world vector pointing up on the canvas, in world
// axis order. It is the third column of the extrinsic y, z, x rotation
// Rx(a2)·Rz(a1)·Ry(a0), reversed.
func (c *Camera) UpDirection() r3.Vec {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	var xz, m mat.Dense
	xz.Mul(rotX(rad(c.Angles[2])), rotZ(rad(c.Angles[1])))
	m.Mul(&xz, rotY(rad(c.Angles[0])))
	return r3.Vec{X: m.At(2, 2), Y: m.At(1, 2), Z: m.At(0, 2)}
}

// RightDirection is ViewDirection × UpDirection.
func (c *Camera) RightDirection() r3.Vec {
	return r3.Cross(c.ViewDirection(), c.UpDirection())
}

func rotX(a float64) *mat.Dense {
	s, co := math.Sincos(a)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, co, -s,
		0, s, co,
	})
}

func rotY(a float64) *mat.Dense {
	s, co := math.Sincos(a)
	return mat.NewDense(3, 3, []float64{
		co, 0, s,
		0, 1, 0,
		-s, 0, co,
	})
}

func rotZ(a float64) *mat.Dense {
	s, co := math.Sincos(a)
	return mat.NewDense(3, 3, []float64{
		co, -s, 0,
		s, co, 0,
		0, 0, 1,
	})
}
