package scene

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/geometry"
	"github.com/df07/go-audio-propagation/pkg/material"
)

func TestNewChannelLayout(t *testing.T) {
	tests := []struct {
		name     string
		typ      ChannelLayoutType
		channels int
		want     int
		wantErr  error
	}{
		{"mono default", LayoutMono, 0, 1, nil},
		{"binaural", LayoutBinaural, 2, 2, nil},
		{"first order ambisonics", LayoutAmbisonics, 4, 4, nil},
		{"third order ambisonics", LayoutAmbisonics, 16, 16, nil},
		{"fourth order ambisonics", LayoutAmbisonics, 25, 0, core.ErrUnsupportedFeature},
		{"ambisonics bad count", LayoutAmbisonics, 5, 0, core.ErrInvalidParam},
		{"stereo mono", LayoutMono, 2, 0, core.ErrInvalidParam},
		{"unknown", LayoutUnknown, 1, 0, core.ErrInvalidParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := NewChannelLayout(tt.typ, tt.channels)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if layout.ChannelCount != tt.want {
				t.Errorf("expected %d channels, got %d", tt.want, layout.ChannelCount)
			}
		})
	}
}

func TestScene_PairsAndIndices(t *testing.T) {
	s := New()
	mono, _ := NewChannelLayout(LayoutMono, 1)
	for i := 0; i < 2; i++ {
		s.AddListener(mono)
	}
	for i := 0; i < 3; i++ {
		s.AddSource()
	}

	pairs := s.Pairs()
	if len(pairs) != 6 {
		t.Fatalf("expected 6 pairs, got %d", len(pairs))
	}
	for i, p := range pairs {
		if s.PairIndex(p.Listener, p.Source) != i {
			t.Errorf("pair %d has index %d", i, s.PairIndex(p.Listener, p.Source))
		}
	}

	if _, err := s.Source(3); !errors.Is(err, core.ErrInvalidParam) {
		t.Errorf("expected ErrInvalidParam for out of range source, got %v", err)
	}
	if l, err := s.Listener(1); err != nil || l.Radius != DefaultListenerRadius {
		t.Errorf("unexpected listener %+v, err %v", l, err)
	}

	s.ClearSources()
	if len(s.Pairs()) != 0 {
		t.Error("pairs remain after clearing sources")
	}
}

func TestObject_ToWorld(t *testing.T) {
	o := NewObject()
	o.Position = core.NewVec3(10, 0, 0)
	o.Orientation = core.QuatFromAxisAngle(core.NewVec3(0, 1, 0), math.Pi/2)

	got := o.ToWorld(core.NewVec3(1, 0, 0))
	want := core.NewVec3(10, 0, -1)
	if got.Subtract(want).Length() > 1e-9 {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBuild_Tracer(t *testing.T) {
	s := New()
	idx := s.AddObject()
	obj, _ := s.Object(idx)
	obj.Mesh = geometry.NewBoxMesh(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1), [6]string{})
	obj.Position = core.NewVec3(0, 0, 5)
	s.AddObject() // objects without a mesh contribute nothing

	db := material.NewDatabase(4)
	tracer, err := Build(context.Background(), s, db, BuildOptions{Threads: 2, Edges: true})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(tracer.Triangles()) != 12 {
		t.Errorf("expected 12 triangles, got %d", len(tracer.Triangles()))
	}
	if len(tracer.Edges()) != 12 {
		t.Errorf("expected 12 edges, got %d", len(tracer.Edges()))
	}

	ray := core.NewRay(core.NewVec3(0.1, 0.2, 0), core.NewVec3(0, 0, 2))
	var rec geometry.HitRecord
	if !tracer.FirstHit(ray, 0, math.Inf(1), &rec) {
		t.Fatal("expected a hit on the box")
	}
	if math.Abs(rec.T-2) > 1e-9 {
		t.Errorf("expected t=2 with a direction of length 2, got %f", rec.T)
	}
	if rec.Normal.Normalize().Dot(core.NewVec3(0, 0, -1)) < 0.999 {
		t.Errorf("expected normal facing -Z, got %v", rec.Normal)
	}
	if rec.Material() != db.Default() {
		t.Error("expected the default material for an unlabelled face")
	}
	if tracer.AnyHit(ray, 0, 1.9) {
		t.Error("AnyHit reported a hit before the box")
	}
}

func TestScene_Clone(t *testing.T) {
	s := New()
	s.AddSource()
	c := s.Clone()
	c.Sources[0].Position = core.NewVec3(1, 2, 3)
	if s.Sources[0].Position != (core.Vec3{}) {
		t.Error("mutating the clone changed the original")
	}
}

func TestListener_Frame(t *testing.T) {
	mono, _ := NewChannelLayout(LayoutMono, 1)
	l := NewListener(mono)
	basis := DefaultBasis()

	// Straight ahead is -Z in the default basis and +X on the ambisonic axes
	front := AmbisonicAxes(l.Frame(basis, core.NewVec3(0, 0, -1)))
	if front.Subtract(core.NewVec3(1, 0, 0)).Length() > 1e-12 {
		t.Errorf("expected front on +X, got %v", front)
	}

	// Turning the listener left by 90 degrees puts world -X in front
	l.Orientation = core.QuatFromAxisAngle(core.NewVec3(0, 1, 0), math.Pi/2)
	front = AmbisonicAxes(l.Frame(basis, core.NewVec3(-1, 0, 0)))
	if front.Subtract(core.NewVec3(1, 0, 0)).Length() > 1e-9 {
		t.Errorf("expected rotated front on +X, got %v", front)
	}

	v := core.NewVec3(0.2, -0.5, 0.7)
	if back := CanonicalAxes(AmbisonicAxes(v)); back.Subtract(v).Length() > 1e-12 {
		t.Errorf("axis round trip: expected %v, got %v", v, back)
	}
}
