package integrator

import (
	"math"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/geometry"
	"github.com/df07/go-audio-propagation/pkg/material"
	"github.com/df07/go-audio-propagation/pkg/scene"
)

// PathVertex is one surface interaction of a subpath
type PathVertex struct {
	Point      core.Vec3
	Normal     core.Vec3 // unit, facing the side the path arrived from
	Material   *material.Material
	Throughput core.Bands // energy arriving at the vertex
	Length     float64    // scene units from the subpath origin
	Depth      int        // 1 for the first surface hit
	Diffuse    bool       // continuation sampled from the diffuse lobe
}

// Segment is a stretch of a subpath whose interactions so far were all
// specular reflections or transmissions
type Segment struct {
	Ray        core.Ray // unit direction
	TMax       float64  // +Inf once the path left the scene
	Length     float64  // scene units before Ray.Origin
	Throughput core.Bands
	Depth      int // interactions before this segment
}

// Subpath is a random walk from a listener or source
type Subpath struct {
	Direction core.Vec3 // initial unit direction
	Vertices  []PathVertex
	Specular  []Segment
}

// Hit reports whether the subpath struck any geometry
func (p *Subpath) Hit() bool {
	return len(p.Vertices) > 0
}

// firstDiffuse reports whether the interaction nearest the origin was diffuse
func (p *Subpath) firstDiffuse() bool {
	return len(p.Vertices) > 0 && p.Vertices[0].Diffuse
}

// IndirectEstimator traces and connects listener and source subpaths
type IndirectEstimator struct {
	settings Settings
}

// NewIndirectEstimator creates an indirect sound estimator
func NewIndirectEstimator(settings Settings) *IndirectEstimator {
	return &IndirectEstimator{settings: settings}
}

// TraceSubpath walks one uniformly distributed ray from origin through up
// to maxDepth interactions. The walk ends early when it leaves the scene,
// when every band is 60 dB down or when it is later than MaxIRLength.
func (ix *IndirectEstimator) TraceSubpath(tracer Tracer, origin core.Vec3, maxDepth int, sampler core.Sampler) Subpath {
	s := ix.settings
	dir := core.SampleOnUnitSphere(sampler.Get2D())
	path := Subpath{Direction: dir}
	if maxDepth <= 0 {
		return path
	}

	ray := core.NewRay(origin, dir)
	throughput := core.NewBands(s.Bands(), 1)
	length := 0.0
	specular := true
	var inside *material.Material
	var rec geometry.HitRecord

	for depth := 0; ; depth++ {
		hit := tracer.FirstHit(ray, rayEpsilon, math.Inf(1), &rec)
		if specular && depth > 0 {
			tMax := math.Inf(1)
			if hit {
				tMax = rec.T
			}
			path.Specular = append(path.Specular, Segment{
				Ray: ray, TMax: tMax, Length: length, Throughput: throughput, Depth: depth,
			})
		}
		if !hit || depth == maxDepth {
			break
		}

		length += rec.T
		if inside != nil {
			throughput = throughput.Mul(inside.Attenuation(rec.T * s.UnitScale))
		}
		if s.Delay(length) > s.MaxIRLength {
			break
		}

		m := rec.Material()
		normal := rec.UnitNormal()
		vertex := PathVertex{
			Point:      rec.Point,
			Normal:     normal,
			Material:   m,
			Throughput: throughput,
			Length:     length,
			Depth:      depth + 1,
		}

		reflectance := m.Reflectance(s.Transmission)
		pTransmit := 0.0
		var transmittance core.Bands
		if s.Transmission {
			transmittance = m.Transmittance()
			if total := transmittance.Mean() + reflectance.Mean(); total > 0 {
				pTransmit = transmittance.Mean() / total
			}
		}

		var next core.Vec3
		if sampler.Get1D() < pTransmit {
			throughput = throughput.Mul(transmittance).Scale(1 / pTransmit)
			next = ray.Direction
			if rec.FrontFace {
				inside = m
			} else {
				inside = nil
			}
		} else {
			reflectance = reflectance.Scale(1 / (1 - pTransmit))
			pDiffuse := math.Max(0, math.Min(1, m.Scattering.Mean()))
			if sampler.Get1D() < pDiffuse {
				vertex.Diffuse = true
				specular = false
				throughput = throughput.Mul(reflectance).Mul(m.Scattering).Scale(1 / pDiffuse)
				next = core.SampleCosineHemisphere(normal, sampler.Get2D())
			} else {
				throughput = throughput.Mul(reflectance).Mul(m.Scattering.OneMinus()).Scale(1 / (1 - pDiffuse))
				next = ray.Direction.Subtract(normal.Multiply(2 * ray.Direction.Dot(normal)))
			}
		}
		path.Vertices = append(path.Vertices, vertex)

		if throughput.Max() < throughputCutoff {
			break
		}
		ray = core.NewRay(rec.Point, next.Normalize())
	}
	return path
}

// IndirectResult is the reflected energy estimate for one pair
type IndirectResult struct {
	Histogram *Histogram
	Rays      int // listener and source subpaths considered
	HitRays   int // subpaths with at least one surface hit
}

// Efficiency returns the fraction of subpaths that hit geometry
func (r IndirectResult) Efficiency() float64 {
	if r.Rays == 0 {
		return 0
	}
	return float64(r.HitRays) / float64(r.Rays)
}

// pathWeights splits each path between the listener-side and source-side
// estimators in proportion to their sample counts wherever both can
// produce it
type pathWeights struct {
	nL, nS         int
	depthL, depthS int
}

func (w pathWeights) share(own, other int, coveredByOther bool) float64 {
	if !coveredByOther || other == 0 {
		return 1
	}
	return float64(own) / float64(own+other)
}

// Estimate connects the listener's subpaths to the source and the source's
// subpaths to the listener, accumulating into a fresh histogram
func (ix *IndirectEstimator) Estimate(tracer Tracer, listener *scene.Listener, source *scene.Source, listenerPaths, sourcePaths []Subpath) IndirectResult {
	s := ix.settings
	coeffs := core.SHCount(s.IndirectSHOrder)
	result := IndirectResult{
		Histogram: NewHistogram(coeffs, s.Bands(), s.Bins(), s.SampleRate),
		Rays:      len(listenerPaths) + len(sourcePaths),
	}
	w := pathWeights{
		nL: len(listenerPaths), nS: len(sourcePaths),
		depthL: s.IndirectDepth, depthS: s.SourceDepth,
	}

	sh := make([]float64, coeffs)
	for i := range listenerPaths {
		p := &listenerPaths[i]
		if !p.Hit() {
			continue
		}
		result.HitRays++
		core.EvalSH(s.IndirectSHOrder, scene.AmbisonicAxes(listener.Frame(s.Basis, p.Direction)), sh)
		ix.connectListenerPath(tracer, result.Histogram, p, source, w, sh)
	}
	for i := range sourcePaths {
		p := &sourcePaths[i]
		if !p.Hit() {
			continue
		}
		result.HitRays++
		ix.connectSourcePath(tracer, result.Histogram, p, listener, w, sh)
	}
	return result
}

func (ix *IndirectEstimator) connectListenerPath(tracer Tracer, h *Histogram, p *Subpath, source *scene.Source, w pathWeights, sh []float64) {
	s := ix.settings
	perRay := 4 / float64(w.nL)

	for _, v := range p.Vertices {
		energy, r, ok := ix.lambert(tracer, v, source.Position, source.Radius)
		if !ok {
			continue
		}
		both := (v.Depth == 1 || p.firstDiffuse()) && v.Depth <= w.depthS
		energy = energy.Scale(perRay * w.share(w.nL, w.nS, both))
		h.Add(s.Delay(v.Length+r), sh, energy)
	}

	if source.Radius <= 0 {
		return
	}
	rm := source.Radius * s.UnitScale
	for _, seg := range p.Specular {
		t, ok := sphereEntry(seg.Ray, source.Position, source.Radius, rayEpsilon, seg.TMax)
		if !ok {
			continue
		}
		weight := w.share(w.nL, w.nS, seg.Depth <= w.depthS)
		h.Add(s.Delay(seg.Length+t), sh, seg.Throughput.Scale(perRay*weight/(rm*rm)))
	}
}

func (ix *IndirectEstimator) connectSourcePath(tracer Tracer, h *Histogram, p *Subpath, listener *scene.Listener, w pathWeights, sh []float64) {
	s := ix.settings
	perRay := 4 / float64(w.nS)

	for _, v := range p.Vertices {
		energy, r, ok := ix.lambert(tracer, v, listener.Position, listener.Radius)
		if !ok {
			continue
		}
		both := (v.Depth == 1 || p.firstDiffuse()) && v.Depth <= w.depthL
		energy = energy.Scale(perRay * w.share(w.nS, w.nL, both))
		dir := listener.Frame(s.Basis, v.Point.Subtract(listener.Position))
		core.EvalSH(s.IndirectSHOrder, scene.AmbisonicAxes(dir), sh)
		h.Add(s.Delay(v.Length+r), sh, energy)
	}

	if listener.Radius <= 0 {
		return
	}
	rm := listener.Radius * s.UnitScale
	for _, seg := range p.Specular {
		t, ok := sphereEntry(seg.Ray, listener.Position, listener.Radius, rayEpsilon, seg.TMax)
		if !ok {
			continue
		}
		weight := w.share(w.nS, w.nL, seg.Depth <= w.depthL)
		dir := listener.Frame(s.Basis, seg.Ray.Direction.Negate())
		core.EvalSH(s.IndirectSHOrder, scene.AmbisonicAxes(dir), sh)
		h.Add(s.Delay(seg.Length+t), sh, seg.Throughput.Scale(perRay*weight/(rm*rm)))
	}
}

// lambert evaluates the diffuse next-event connection from a vertex to a
// target: the Lambert term T·ρ·s·cosθ/(π r²) with r in metres, times the π
// that remains after the 4π/N per-ray solid angle. It returns the energy
// before the 4/N normalisation and the distance in scene units.
func (ix *IndirectEstimator) lambert(tracer Tracer, v PathVertex, target core.Vec3, radius float64) (core.Bands, float64, bool) {
	s := ix.settings
	to := target.Subtract(v.Point)
	r := to.Length()
	if r == 0 {
		return nil, 0, false
	}
	dir := to.Multiply(1 / r)
	cosine := dir.Dot(v.Normal)
	if cosine <= 0 {
		return nil, 0, false
	}
	if tMax := r - radius - rayEpsilon; tMax > rayEpsilon && tracer.AnyHit(core.NewRay(v.Point, dir), rayEpsilon, tMax) {
		return nil, 0, false
	}

	rm := math.Max(r*s.UnitScale, minDistance)
	diffuse := v.Material.Reflectance(s.Transmission).Mul(v.Material.Scattering)
	return v.Throughput.Mul(diffuse).Scale(cosine / (rm * rm)), r, true
}
