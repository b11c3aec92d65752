// Package transform implements the 2D affine placement algebra used to
// position cells during layout resolution.
//
// A Transform describes how a referenced cell is placed inside its parent:
// uniform magnification, rotation about the z-axis, an optional mirror across
// the x-axis, and a translation (origin). Transforms are immutable values;
// Compose returns a new Transform and never mutates its operands.
//
// # Composition
//
// Compose(outer, inner) means "apply inner in local coordinates, then place
// the result using outer in the parent frame":
//
//   - magnifications multiply
//   - rotations add
//   - mirror flags combine by XOR
//   - origin = outer.Origin + outer.Linear() applied to inner.Origin
//
// Composition is associative but not commutative. The linear part is the
// fixed product scale · (rotation · mirror); changing that order changes the
// geometry, so all matrix helpers derive from the same Linear().
package transform

import "math"

// Vec2 is a point or displacement in the layout plane.
type Vec2 struct {
	X float64
	Y float64
}

// Add returns the component-wise sum v + w.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

// Sub returns the component-wise difference v - w.
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{X: v.X - w.X, Y: v.Y - w.Y}
}

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

// Mat4 is a row-major 4x4 matrix.
type Mat4 [4][4]float64

// Mul returns the matrix product m * n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += m[i][k] * n[k][j]
			}
		}
	}
	return out
}

// Quaternion is a rotation quaternion in (x, y, z, w) order.
type Quaternion struct {
	X float64
	Y float64
	Z float64
	W float64
}

// Transform is a 2D affine placement: scale, rotate, mirror, translate.
// The zero value is NOT the identity; use Identity() or set Magnification.
type Transform struct {
	Magnification float64 // uniform scale factor, expected > 0
	Rotation      float64 // counterclockwise rotation in radians
	XReflection   bool    // mirror across the x-axis before rotating
	Origin        Vec2    // translation in parent coordinates
}

// Identity returns the neutral placement: no scale, rotation, mirror or
// translation.
func Identity() Transform {
	return Transform{Magnification: 1.0}
}

// Compose combines two placements: inner is applied first in local
// coordinates, then the result is placed using outer. The inner origin is
// mapped through outer's linear part before translating by outer's origin.
func Compose(outer, inner Transform) Transform {
	return Transform{
		Magnification: outer.Magnification * inner.Magnification,
		Rotation:      outer.Rotation + inner.Rotation,
		XReflection:   outer.XReflection != inner.XReflection,
		Origin:        outer.Origin.Add(outer.ApplyLinear(inner.Origin)),
	}
}

// ApplyLinear maps a point through the linear part only (no translation).
func (t Transform) ApplyLinear(p Vec2) Vec2 {
	m := t.Linear()
	return Vec2{
		X: m[0][0]*p.X + m[0][1]*p.Y,
		Y: m[1][0]*p.X + m[1][1]*p.Y,
	}
}

// Apply maps a point through the full placement: linear part then origin.
func (t Transform) Apply(p Vec2) Vec2 {
	return t.Origin.Add(t.ApplyLinear(p))
}

// Linear returns the 3x3 linear part, the product scale · (rotation · mirror).
// The order is load-bearing: mirroring happens in local coordinates before
// the rotation is applied.
func (t Transform) Linear() Mat3 {
	sin, cos := math.Sincos(t.Rotation)
	rotation := Mat3{
		{cos, -sin, 0},
		{sin, cos, 0},
		{0, 0, 1},
	}
	mirror := Mat3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	if t.XReflection {
		mirror[0][0] = -1
	}
	scale := Mat3{
		{t.Magnification, 0, 0},
		{0, t.Magnification, 0},
		{0, 0, t.Magnification},
	}
	return scale.Mul(rotation.Mul(mirror))
}

// Matrix returns the homogeneous 4x4 form with the linear part in the
// top-left block. When withTranslation is true the origin occupies the
// translation column; z-translation is always zero.
func (t Transform) Matrix(withTranslation bool) Mat4 {
	linear := t.Linear()
	var out Mat4
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = linear[i][j]
		}
	}
	out[3][3] = 1
	if withTranslation {
		out[0][3] = t.Origin.X
		out[1][3] = t.Origin.Y
	}
	return out
}

// Quaternion returns the rotation as a quaternion about the z-axis.
func (t Transform) Quaternion() Quaternion {
	sin, cos := math.Sincos(t.Rotation / 2)
	return Quaternion{X: 0, Y: 0, Z: sin, W: cos}
}
