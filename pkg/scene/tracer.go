package scene

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/geometry"
)

// BuildOptions controls tracer construction
type BuildOptions struct {
	Threads   int     // parallel object transforms, 0 means runtime.NumCPU
	Edges     bool    // extract diffraction edges
	EdgeAngle float64 // minimum dihedral crease in radians for a shared edge
}

// Tracer answers ray queries over the world-space geometry of a scene.
// It is immutable after Build and safe for concurrent use.
type Tracer struct {
	bvh       *geometry.BVH
	triangles []*geometry.Triangle
	edges     []geometry.Edge
}

// Build transforms every object to world space in parallel and builds the
// acceleration structure over the result.
func Build(ctx context.Context, s *Scene, resolve Resolver, opts BuildOptions) (*Tracer, error) {
	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	perObject := make([][]*geometry.Triangle, len(s.Objects))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i, obj := range s.Objects {
		i, obj := i, obj
		g.Go(func() error {
			perObject[i] = obj.WorldTriangles(i, resolve)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var triangles []*geometry.Triangle
	for _, tris := range perObject {
		triangles = append(triangles, tris...)
	}

	t := &Tracer{bvh: geometry.NewBVH(triangles), triangles: triangles}
	if opts.Edges && len(triangles) > 0 {
		angle := opts.EdgeAngle
		if angle <= 0 {
			angle = math.Pi / 180
		}
		weld := t.bvh.BoundingBox().Diagonal() * 1e-7
		t.edges = geometry.ExtractEdges(triangles, angle, weld)
	}
	return t, nil
}

// AnyHit reports whether anything blocks the ray within [tMin, tMax]
func (t *Tracer) AnyHit(ray core.Ray, tMin, tMax float64) bool {
	return t.bvh.AnyHit(ray, tMin, tMax)
}

// FirstHit finds the closest intersection within [tMin, tMax]
func (t *Tracer) FirstHit(ray core.Ray, tMin, tMax float64, rec *geometry.HitRecord) bool {
	return t.bvh.FirstHit(ray, tMin, tMax, rec)
}

// Edges returns the diffraction edges found at build time
func (t *Tracer) Edges() []geometry.Edge {
	return t.edges
}

// Triangles returns every world-space triangle
func (t *Tracer) Triangles() []*geometry.Triangle {
	return t.triangles
}

// Bounds returns the bounding box of all geometry
func (t *Tracer) Bounds() core.AABB {
	return t.bvh.BoundingBox()
}
