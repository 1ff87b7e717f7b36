package hrtf

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-audio-propagation/pkg/core"
)

func TestSphericalHead_Lateralization(t *testing.T) {
	head := NewSphericalHead()
	centers := []float64{250, 1000, 4000}

	right := head.Response(core.NewVec3(1, 0, 0), centers)
	if right.Delay[Right] >= right.Delay[Left] {
		t.Errorf("right ear should lead for a source on the right: %v", right.Delay)
	}
	for i := range centers {
		if right.Gain[Right][i] <= right.Gain[Left][i] {
			t.Errorf("band %d: near ear gain %f should exceed far ear %f", i, right.Gain[Right][i], right.Gain[Left][i])
		}
	}
	// Head shadow grows with frequency
	if right.Gain[Left][2] >= right.Gain[Left][0] {
		t.Errorf("far ear shadow should deepen with frequency: %v", right.Gain[Left])
	}

	// Maximum Woodworth ITD is a/c (pi/2 + 1)
	itd := right.Delay[Left] - right.Delay[Right]
	want := head.Radius / head.SpeedOfSound * (math.Pi/2 + 1)
	if math.Abs(itd-want) > 1e-9 {
		t.Errorf("expected ITD %g, got %g", want, itd)
	}

	front := head.Response(core.NewVec3(0, 0, -1), centers)
	if front.Delay[Left] != front.Delay[Right] {
		t.Errorf("frontal source should have zero ITD: %v", front.Delay)
	}
	for i := range centers {
		if math.Abs(front.Gain[Left][i]-front.Gain[Right][i]) > 1e-12 {
			t.Errorf("frontal source should be symmetric in band %d", i)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "table.yaml")
	data := `name: coarse
directions:
  - azimuth: 90
    elevation: 0
    itd: 0.0006
    left: [500, -6, 4000, -12]
    right: [500, 3]
  - azimuth: -90
    elevation: 0
    itd: -0.0006
    left: [500, 3]
    right: [500, -6, 4000, -12]
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if table.Name() != "coarse" {
		t.Errorf("expected name coarse, got %q", table.Name())
	}

	r := table.Response(core.NewVec3(0.9, 0.1, -0.1), []float64{500})
	if math.Abs(r.Gain[Left][0]-math.Pow(10, -0.6)) > 1e-9 {
		t.Errorf("expected -6 dB on the left ear, got %f", r.Gain[Left][0])
	}
	if r.Delay[Left] <= r.Delay[Right] {
		t.Errorf("left ear should lag for a right-side source: %v", r.Delay)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("directions: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); !errors.Is(err, core.ErrInvalidParam) {
		t.Errorf("expected ErrInvalidParam, got %v", err)
	}
}
