package core

import (
	"math"
	"math/rand"
)

// Vec2 holds a pair of sample values
type Vec2 struct {
	X, Y float64
}

// NewVec2 creates a new Vec2
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Sampler provides random sampling for the ray estimators.
// Can be swapped out for deterministic testing.
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates an independent stream for one unit of work.
// The same (seed, stream) pair always yields the same sequence.
func NewSeededSampler(seed int64, stream int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(MixSeed(seed, stream))))
}

// MixSeed combines a run seed with a stream id into a well-spread seed
func MixSeed(seed int64, stream int64) int64 {
	z := uint64(seed) + uint64(stream)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// SampleCosineHemisphere generates a cosine-weighted random direction in hemisphere around normal
func SampleCosineHemisphere(normal Vec3, sample Vec2) Vec3 {
	a := 2.0 * math.Pi * sample.X
	r := math.Sqrt(sample.Y)
	x := r * math.Cos(a)
	y := r * math.Sin(a)
	z := math.Sqrt(1.0 - sample.Y)

	tangent, bitangent := normal.Basis()
	return tangent.Multiply(x).Add(bitangent.Multiply(y)).Add(normal.Multiply(z))
}

// SampleCone samples a direction uniformly within a cone around a unit direction
func SampleCone(direction Vec3, cosTotalWidth float64, sample Vec2) Vec3 {
	u, v := direction.Basis()

	cosTheta := 1.0 - sample.X*(1.0-cosTotalWidth)
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))
	phi := 2.0 * math.Pi * sample.Y

	x := sinTheta * math.Cos(phi)
	y := sinTheta * math.Sin(phi)
	return u.Multiply(x).Add(v.Multiply(y)).Add(direction.Multiply(cosTheta))
}

// SampleOnUnitSphere generates a uniform random direction on the unit sphere
func SampleOnUnitSphere(sample Vec2) Vec3 {
	z := 1.0 - 2.0*sample.X
	r := math.Sqrt(math.Max(0, 1.0-z*z))
	phi := 2.0 * math.Pi * sample.Y
	return NewVec3(r*math.Cos(phi), r*math.Sin(phi), z)
}

// SphereCone returns the cosine of the half angle subtended by a sphere of
// the given radius at distance d, and its solid angle in steradians.
// Points inside the sphere see the full sphere of directions.
func SphereCone(radius, distance float64) (cosHalfAngle, solidAngle float64) {
	if radius <= 0 || distance <= 0 {
		return 1, 0
	}
	if radius >= distance {
		return -1, 4 * math.Pi
	}
	sinTheta := radius / distance
	cosHalfAngle = math.Sqrt(1 - sinTheta*sinTheta)
	return cosHalfAngle, 2 * math.Pi * (1 - cosHalfAngle)
}
