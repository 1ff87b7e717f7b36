package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// randomSoup scatters small triangles through a cube so rays cross several
func randomSoup(n int, seed int64) []*Triangle {
	sampler := core.NewSeededSampler(seed, 0)
	tris := make([]*Triangle, n)
	for i := range tris {
		c := core.NewVec3(sampler.Get1D()*20-10, sampler.Get1D()*20-10, sampler.Get1D()*20-10)
		p := func() core.Vec3 {
			return c.Add(core.NewVec3(sampler.Get1D()*2-1, sampler.Get1D()*2-1, sampler.Get1D()*2-1))
		}
		tris[i] = NewTriangle(p(), p(), p(), nil, i)
	}
	return tris
}

func bruteForce(tris []*Triangle, ray core.Ray, tMin, tMax float64) (float64, bool) {
	best, found := tMax, false
	var rec HitRecord
	for _, tri := range tris {
		if tri.Hit(ray, tMin, best, &rec) {
			best, found = rec.T, true
		}
	}
	return best, found
}

func TestBVH_FirstHitMatchesBruteForce(t *testing.T) {
	tris := randomSoup(500, 11)
	bvh := NewBVH(tris)
	sampler := core.NewSeededSampler(12, 0)

	hits := 0
	for i := 0; i < 2000; i++ {
		origin := core.NewVec3(sampler.Get1D()*30-15, sampler.Get1D()*30-15, sampler.Get1D()*30-15)
		dir := core.SampleOnUnitSphere(sampler.Get2D()).Multiply(0.5 + sampler.Get1D())
		ray := core.NewRay(origin, dir)

		wantT, wantHit := bruteForce(tris, ray, 1e-6, 100)
		var rec HitRecord
		gotHit := bvh.FirstHit(ray, 1e-6, 100, &rec)
		if gotHit != wantHit {
			t.Fatalf("ray %d: expected hit=%v, got %v", i, wantHit, gotHit)
		}
		if gotHit {
			hits++
			if math.Abs(rec.T-wantT) > 1e-9 {
				t.Fatalf("ray %d: expected closest t=%f, got %f", i, wantT, rec.T)
			}
		}
		if any := bvh.AnyHit(ray, 1e-6, 100); any != wantHit {
			t.Fatalf("ray %d: AnyHit=%v disagrees with brute force %v", i, any, wantHit)
		}
	}
	if hits == 0 {
		t.Fatal("test rays never hit anything")
	}
}

// FirstHit distance is the minimum over intersections AnyHit can detect:
// nothing is detectable strictly before it and it is detectable itself.
func TestBVH_FirstHitIsMinimumOfAnyHit(t *testing.T) {
	bvh := NewBVH(randomSoup(300, 5))
	sampler := core.NewSeededSampler(6, 0)

	for i := 0; i < 500; i++ {
		ray := core.NewRay(core.Vec3{}, core.SampleOnUnitSphere(sampler.Get2D()))
		var rec HitRecord
		if !bvh.FirstHit(ray, 0, 50, &rec) {
			continue
		}
		if bvh.AnyHit(ray, 0, rec.T*(1-1e-9)) {
			t.Fatalf("ray %d: AnyHit found an intersection before FirstHit t=%f", i, rec.T)
		}
		if !bvh.AnyHit(ray, 0, rec.T*(1+1e-9)) {
			t.Fatalf("ray %d: AnyHit missed the FirstHit intersection", i)
		}
	}
}

func TestBVH_Structure(t *testing.T) {
	tris := randomSoup(1000, 3)
	bvh := NewBVH(tris)
	stats := bvh.getStats()

	if stats.totalTriangles != len(tris) {
		t.Errorf("expected %d triangles in leaves, got %d", len(tris), stats.totalTriangles)
	}
	if stats.leafNodes < 2 {
		t.Errorf("expected the hierarchy to split, got %d leaves", stats.leafNodes)
	}
	if bvh.Len() != len(tris) {
		t.Errorf("expected Len %d, got %d", len(tris), bvh.Len())
	}
}

func TestBVH_Empty(t *testing.T) {
	bvh := NewBVH(nil)
	ray := core.NewRay(core.Vec3{}, core.NewVec3(1, 0, 0))
	if bvh.AnyHit(ray, 0, 1e9) || bvh.FirstHit(ray, 0, 1e9, &HitRecord{}) {
		t.Error("empty BVH reported a hit")
	}
}
