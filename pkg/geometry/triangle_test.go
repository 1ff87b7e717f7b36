package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-audio-propagation/pkg/core"
)

func TestTriangle_Hit(t *testing.T) {
	tri := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0), nil, 0)

	tests := []struct {
		name      string
		ray       core.Ray
		tMax      float64
		shouldHit bool
		expectedT float64
		frontFace bool
	}{
		{"front face hit", core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, -1)), 10, true, 1, true},
		{"back face hit", core.NewRay(core.NewVec3(0.25, 0.25, -2), core.NewVec3(0, 0, 1)), 10, true, 2, false},
		{"unnormalized direction", core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, -4)), 10, true, 0.25, true},
		{"outside triangle", core.NewRay(core.NewVec3(0.9, 0.9, 1), core.NewVec3(0, 0, -1)), 10, false, 0, false},
		{"beyond tMax", core.NewRay(core.NewVec3(0.25, 0.25, 5), core.NewVec3(0, 0, -1)), 1, false, 0, false},
		{"parallel", core.NewRay(core.NewVec3(0, 0, 1), core.NewVec3(1, 0, 0)), 10, false, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec HitRecord
			hit := tri.Hit(tt.ray, 1e-9, tt.tMax, &rec)
			if hit != tt.shouldHit {
				t.Fatalf("expected hit=%v, got %v", tt.shouldHit, hit)
			}
			if !hit {
				return
			}
			if math.Abs(rec.T-tt.expectedT) > 1e-9 {
				t.Errorf("expected t=%f, got %f", tt.expectedT, rec.T)
			}
			if rec.FrontFace != tt.frontFace {
				t.Errorf("expected frontFace=%v, got %v", tt.frontFace, rec.FrontFace)
			}
			if rec.Triangle != tri {
				t.Error("hit record does not reference the triangle")
			}
		})
	}
}

func TestTriangle_NormalIsUnnormalized(t *testing.T) {
	tri := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(2, 0, 0), core.NewVec3(0, 3, 0), nil, 0)
	if tri.Normal() != core.NewVec3(0, 0, 6) {
		t.Errorf("expected cross product (0,0,6), got %v", tri.Normal())
	}
	if tri.Area() != 3 {
		t.Errorf("expected area 3, got %f", tri.Area())
	}
}
