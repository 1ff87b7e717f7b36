package integrator

import (
	"math"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/scene"
)

// DirectResult is the line-of-sight estimate for one pair
type DirectResult struct {
	Arrival  Arrival
	Rays     int
	Occluded float64 // fraction of rays that crossed or stopped at geometry
}

// DirectEstimator samples the cone a source subtends at the listener
type DirectEstimator struct {
	settings Settings
}

// NewDirectEstimator creates a direct sound estimator
func NewDirectEstimator(settings Settings) *DirectEstimator {
	return &DirectEstimator{settings: settings}
}

// RayCount returns clamp(ceil(DirectRays·Ω/2π), 1, DirectRays) for a source
// subtending solid angle Ω. Point sources get a single ray.
func (d *DirectEstimator) RayCount(solidAngle float64) int {
	if d.settings.DirectRays <= 0 {
		return 0
	}
	n := int(math.Ceil(float64(d.settings.DirectRays) * solidAngle / (2 * math.Pi)))
	return max(1, min(n, d.settings.DirectRays))
}

// Estimate traces the direct path from listener to source
func (d *DirectEstimator) Estimate(tracer Tracer, listener *scene.Listener, source *scene.Source, sampler core.Sampler) DirectResult {
	s := d.settings
	toSource := source.Position.Subtract(listener.Position)
	dist := toSource.Length()
	axis := toSource.Normalize()
	if dist == 0 {
		axis = core.NewVec3(0, 0, -1)
	}

	cosHalf, solidAngle := core.SphereCone(source.Radius, dist)
	n := d.RayCount(solidAngle)
	result := DirectResult{
		Rays: n,
		Arrival: Arrival{
			Delay:     s.Delay(dist),
			Direction: listener.Frame(s.Basis, axis),
			Energy:    core.NewBands(s.Bands(), 0),
			SH:        newSH(s.DirectSHOrder, s.Bands()),
		},
	}
	if n == 0 {
		return result
	}

	occluded := 0
	weight := 1 / float64(n)
	for i := 0; i < n; i++ {
		dir, tMax := axis, dist
		if n > 1 {
			dir = core.SampleCone(axis, cosHalf, sampler.Get2D())
			if t, ok := sphereEntry(core.NewRay(listener.Position, dir), source.Position, source.Radius, 0, math.Inf(1)); ok {
				tMax = t
			}
		}
		factor, crossed := transmit(tracer, core.NewRay(listener.Position, dir), tMax, s)
		if crossed {
			occluded++
		}
		if factor == nil {
			continue
		}
		result.Arrival.Energy.AddScaled(factor, weight)
		projectSH(result.Arrival.SH, s.DirectSHOrder, scene.AmbisonicAxes(listener.Frame(s.Basis, dir)), factor, weight)
	}
	result.Occluded = float64(occluded) / float64(n)

	metres := math.Max(dist*s.UnitScale, minDistance)
	spread := 1 / (metres * metres)
	result.Arrival.Energy = result.Arrival.Energy.Scale(spread)
	for k := range result.Arrival.SH {
		result.Arrival.SH[k] = result.Arrival.SH[k].Scale(spread)
	}
	return result
}
