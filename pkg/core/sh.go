package core

import "math"

// MaxSHOrder is the highest spherical harmonic order supported
const MaxSHOrder = 3

// SHCount returns the number of coefficients for an order, (order+1)^2
func SHCount(order int) int {
	return (order + 1) * (order + 1)
}

// SHOrderForChannels returns the order whose coefficient count equals channels
func SHOrderForChannels(channels int) (int, bool) {
	if channels <= 0 {
		return 0, false
	}
	order := int(math.Sqrt(float64(channels))) - 1
	if SHCount(order) != channels {
		return 0, false
	}
	return order, true
}

var (
	sqrt3    = math.Sqrt(3)
	sqrt5    = math.Sqrt(5)
	sqrt7    = math.Sqrt(7)
	sqrt15   = math.Sqrt(15)
	sqrt105  = math.Sqrt(105)
	sqrt35_8 = math.Sqrt(35.0 / 8.0)
	sqrt21_8 = math.Sqrt(21.0 / 8.0)
)

// EvalSH writes real N3D spherical harmonics in ACN order for the unit
// direction (x front, y left, z up) into out, which must hold SHCount(order)
// values. Orders above MaxSHOrder are clamped.
func EvalSH(order int, dir Vec3, out []float64) {
	if order > MaxSHOrder {
		order = MaxSHOrder
	}
	x, y, z := dir.X, dir.Y, dir.Z
	out[0] = 1
	if order < 1 {
		return
	}
	out[1] = sqrt3 * y
	out[2] = sqrt3 * z
	out[3] = sqrt3 * x
	if order < 2 {
		return
	}
	out[4] = sqrt15 * x * y
	out[5] = sqrt15 * y * z
	out[6] = sqrt5 / 2 * (3*z*z - 1)
	out[7] = sqrt15 * x * z
	out[8] = sqrt15 / 2 * (x*x - y*y)
	if order < 3 {
		return
	}
	out[9] = sqrt35_8 * y * (3*x*x - y*y)
	out[10] = sqrt105 * x * y * z
	out[11] = sqrt21_8 * y * (5*z*z - 1)
	out[12] = sqrt7 / 2 * z * (5*z*z - 3)
	out[13] = sqrt21_8 * x * (5*z*z - 1)
	out[14] = sqrt105 / 2 * z * (x*x - y*y)
	out[15] = sqrt35_8 * x * (x*x - 3*y*y)
}
