package integrator

import (
	"math"
	"sort"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/geometry"
	"github.com/df07/go-audio-propagation/pkg/scene"
)

// maxFrontier bounds the partial paths kept per diffraction order
const maxFrontier = 32

// DiffractionEstimator finds paths that bend around edges when the direct
// path is blocked
type DiffractionEstimator struct {
	settings Settings
}

// NewDiffractionEstimator creates a diffraction estimator
func NewDiffractionEstimator(settings Settings) *DiffractionEstimator {
	return &DiffractionEstimator{settings: settings}
}

type edgePath struct {
	points []core.Vec3 // diffraction points, source side first
	edges  []int
	length float64 // scene units from the source to the last point
}

func (p edgePath) uses(edge int) bool {
	for _, e := range p.edges {
		if e == edge {
			return true
		}
	}
	return false
}

// Estimate searches source → e1 … ek → listener paths breadth first, one
// order at a time. Each order only expands edges visible from the previous
// frontier and the search stops at the first order that reaches the
// listener. Energy is scaled by the occluded fraction of direct rays.
func (d *DiffractionEstimator) Estimate(tracer Tracer, listener *scene.Listener, source *scene.Source, occluded float64) []Arrival {
	edges := tracer.Edges()
	if occluded <= 0 || d.settings.MaxDiffraction <= 0 || len(edges) == 0 {
		return nil
	}

	frontier := []edgePath{{}}
	for order := 1; order <= d.settings.MaxDiffraction; order++ {
		var next []edgePath
		var found []edgePath
		for _, path := range frontier {
			from := source.Position
			if len(path.points) > 0 {
				from = path.points[len(path.points)-1]
			}
			for ei, e := range edges {
				if path.uses(ei) || e.Length() <= rayEpsilon {
					continue
				}
				q := d.edgePoint(e, from, listener.Position)
				step := q.Distance(from)
				if step <= rayEpsilon || blocked(tracer, from, q) {
					continue
				}
				extended := edgePath{
					points: append(append([]core.Vec3(nil), path.points...), q),
					edges:  append(append([]int(nil), path.edges...), ei),
					length: path.length + step,
				}
				if !blocked(tracer, q, listener.Position) {
					found = append(found, extended)
				}
				next = append(next, extended)
			}
		}

		if len(found) > 0 {
			return d.arrivals(found, listener, source, occluded)
		}
		if len(next) == 0 {
			return nil
		}
		sort.SliceStable(next, func(i, j int) bool {
			return next[i].remaining(listener.Position) < next[j].remaining(listener.Position)
		})
		if len(next) > maxFrontier {
			next = next[:maxFrontier]
		}
		frontier = next
	}
	return nil
}

func (p edgePath) remaining(listener core.Vec3) float64 {
	return p.length + p.points[len(p.points)-1].Distance(listener)
}

// edgePoint finds the point on e minimising |from-q| + |q-to| by ternary
// search; the sum is convex along the edge
func (d *DiffractionEstimator) edgePoint(e geometry.Edge, from, to core.Vec3) core.Vec3 {
	lo, hi := 0.0, 1.0
	cost := func(s float64) float64 {
		q := e.PointAt(s)
		return q.Distance(from) + q.Distance(to)
	}
	for i := 0; i < 40; i++ {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		if cost(m1) < cost(m2) {
			hi = m2
		} else {
			lo = m1
		}
	}
	return e.PointAt((lo + hi) / 2)
}

func (d *DiffractionEstimator) arrivals(paths []edgePath, listener *scene.Listener, source *scene.Source, occluded float64) []Arrival {
	s := d.settings
	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].remaining(listener.Position) < paths[j].remaining(listener.Position)
	})
	if len(paths) > maxFrontier {
		paths = paths[:maxFrontier]
	}

	out := make([]Arrival, 0, len(paths))
	for _, p := range paths {
		total := p.remaining(listener.Position)
		metres := math.Max(total*s.UnitScale, minDistance)
		energy := d.Attenuation(p.points, source.Position, listener.Position).Scale(occluded / (metres * metres))

		last := p.points[len(p.points)-1]
		dir := listener.Frame(s.Basis, last.Subtract(listener.Position))
		a := Arrival{
			Delay:     s.Delay(total),
			Direction: dir,
			Energy:    energy,
			SH:        newSH(s.DirectSHOrder, s.Bands()),
		}
		projectSH(a.SH, s.DirectSHOrder, scene.AmbisonicAxes(dir), energy, 1)
		out = append(out, a)
	}
	return out
}

// Attenuation returns the per-band energy factor of a diffracted path,
// multiplying Maekawa's 10·log10(3 + 20N) dB for every edge. N = 2δ/λ is
// the Fresnel number of the detour δ the edge adds between its neighbours.
func (d *DiffractionEstimator) Attenuation(points []core.Vec3, source, listener core.Vec3) core.Bands {
	s := d.settings
	factor := core.NewBands(s.Bands(), 1)
	for i, q := range points {
		prev, next := source, listener
		if i > 0 {
			prev = points[i-1]
		}
		if i+1 < len(points) {
			next = points[i+1]
		}
		detour := (prev.Distance(q) + q.Distance(next) - prev.Distance(next)) * s.UnitScale
		for b, f := range s.Centers {
			fresnel := 2 * math.Max(0, detour) * f / s.SpeedOfSound
			factor[b] /= 3 + 20*fresnel
		}
	}
	return factor
}

func blocked(tracer Tracer, from, to core.Vec3) bool {
	d := to.Subtract(from)
	dist := d.Length()
	if dist <= 2*rayEpsilon {
		return false
	}
	return tracer.AnyHit(core.NewRay(from, d.Multiply(1/dist)), rayEpsilon, dist-rayEpsilon)
}
