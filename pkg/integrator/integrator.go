// Package integrator holds the sound-path estimators: direct line of sight,
// bidirectional indirect reflection and edge diffraction.
package integrator

import (
	"math"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/geometry"
	"github.com/df07/go-audio-propagation/pkg/scene"
)

// Tracer is the ray query surface the estimators need
type Tracer interface {
	AnyHit(ray core.Ray, tMin, tMax float64) bool
	FirstHit(ray core.Ray, tMin, tMax float64, rec *geometry.HitRecord) bool
	Edges() []geometry.Edge
}

// Settings holds the per-run parameters shared by every estimator
type Settings struct {
	Centers      []float64 // band center frequencies in Hz
	SampleRate   float64
	MaxIRLength  float64 // seconds
	UnitScale    float64 // metres per scene unit
	SpeedOfSound float64 // m/s
	Basis        scene.Basis

	DirectRays      int
	DirectSHOrder   int
	IndirectSHOrder int
	IndirectRays    int
	IndirectDepth   int
	SourceRays      int
	SourceDepth     int
	MaxDiffraction  int
	Transmission    bool
	Seed            int64
}

// Bands returns the number of frequency bands
func (s Settings) Bands() int {
	return len(s.Centers)
}

// Bins returns the number of histogram bins covering MaxIRLength
func (s Settings) Bins() int {
	return max(1, int(math.Ceil(s.MaxIRLength*s.SampleRate)))
}

// Delay converts a path length in scene units to seconds
func (s Settings) Delay(length float64) float64 {
	return length * s.UnitScale / s.SpeedOfSound
}

// Arrival is one discrete sound path reaching a listener
type Arrival struct {
	Delay     float64      // seconds
	Direction core.Vec3    // canonical listener frame, pointing toward where the sound comes from
	Energy    core.Bands   // omnidirectional energy per band
	SH        []core.Bands // energy projected on N3D spherical harmonics, ACN order
}

// Gain returns the SH gain of coefficient k relative to the omni energy
func (a Arrival) Gain(k, band int) float64 {
	if k >= len(a.SH) || a.SH[0][band] == 0 {
		return 0
	}
	return a.SH[k][band] / a.SH[0][band]
}

const (
	// rayEpsilon offsets secondary rays from the surface they leave
	rayEpsilon = 1e-4

	// minDistance floors connection distances in metres
	minDistance = 0.1

	// throughputCutoff ends a path once every band is 60 dB down
	throughputCutoff = 1e-6

	maxInterfaces = 64
)

// projectSH accumulates energy·Y_k(dir) into sh for each coefficient
func projectSH(sh []core.Bands, order int, ambisonicDir core.Vec3, energy core.Bands, weight float64) {
	coeffs := make([]float64, len(sh))
	core.EvalSH(order, ambisonicDir, coeffs)
	for k, y := range coeffs {
		sh[k].AddScaled(energy, y*weight)
	}
}

func newSH(order, bands int) []core.Bands {
	sh := make([]core.Bands, core.SHCount(order))
	for k := range sh {
		sh[k] = core.NewBands(bands, 0)
	}
	return sh
}

// transmit walks ray through every surface up to tMax. It returns the
// per-band energy factor, or nil if the path is blocked, together with
// whether any surface was crossed.
func transmit(tracer Tracer, ray core.Ray, tMax float64, settings Settings) (core.Bands, bool) {
	factor := core.NewBands(settings.Bands(), 1)
	var rec geometry.HitRecord
	tMin, entry := rayEpsilon, -1.0
	for i := 0; i < maxInterfaces; i++ {
		if !tracer.FirstHit(ray, tMin, tMax, &rec) {
			return factor, i > 0
		}
		if !settings.Transmission {
			return nil, true
		}
		m := rec.Material()
		factor = factor.Mul(m.Transmittance())
		if rec.FrontFace {
			entry = rec.T
		} else if entry >= 0 {
			factor = factor.Mul(m.Attenuation((rec.T - entry) * ray.Direction.Length() * settings.UnitScale))
			entry = -1
		}
		if factor.Max() < throughputCutoff {
			return nil, true
		}
		tMin = rec.T + rayEpsilon
	}
	return nil, true
}

// sphereEntry returns the first ray parameter in (tMin, tMax) at which a ray
// with unit direction enters the sphere, or false if it misses
func sphereEntry(ray core.Ray, center core.Vec3, radius, tMin, tMax float64) (float64, bool) {
	if radius <= 0 {
		return 0, false
	}
	oc := ray.Origin.Subtract(center)
	b := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	for _, t := range [2]float64{-b - sq, -b + sq} {
		if t > tMin && t < tMax {
			return t, true
		}
	}
	return 0, false
}
