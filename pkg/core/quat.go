package core

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quat is a unit rotation quaternion stored as (W, X, Y, Z)
type Quat struct {
	W, X, Y, Z float64
}

// IdentityQuat returns the rotation that leaves vectors unchanged
func IdentityQuat() Quat {
	return Quat{W: 1}
}

// NewQuat creates a normalized quaternion.
// A zero or non-finite quaternion becomes the identity.
func NewQuat(w, x, y, z float64) Quat {
	n := quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z}
	norm := quat.Abs(n)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return IdentityQuat()
	}
	return fromNumber(quat.Scale(1/norm, n))
}

// QuatFromAxisAngle builds the rotation of angle radians around axis
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	a := axis.Normalize()
	s := math.Sin(angle / 2)
	return NewQuat(math.Cos(angle/2), a.X*s, a.Y*s, a.Z*s)
}

func fromNumber(n quat.Number) Quat {
	return Quat{W: n.Real, X: n.Imag, Y: n.Jmag, Z: n.Kmag}
}

func (q Quat) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

// Rotate applies the rotation to v as q·v·q*
func (q Quat) Rotate(v Vec3) Vec3 {
	n := q.number()
	raised := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(n, raised), quat.Conj(n))
	return Vec3{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// Inverse returns the opposite rotation
func (q Quat) Inverse() Quat {
	return fromNumber(quat.Conj(q.number()))
}

// Mul composes two rotations, applying other first
func (q Quat) Mul(other Quat) Quat {
	return fromNumber(quat.Mul(q.number(), other.number()))
}
