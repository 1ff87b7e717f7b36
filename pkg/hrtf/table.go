package hrtf

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// Measurement is one direction of a tabulated HRTF
type Measurement struct {
	Azimuth   float64   `yaml:"azimuth"`   // degrees, positive towards the right ear
	Elevation float64   `yaml:"elevation"` // degrees, positive up
	ITD       float64   `yaml:"itd"`       // seconds, positive when the left ear lags
	Left      []float64 `yaml:"left"`      // [freq, dB, freq, dB, ...]
	Right     []float64 `yaml:"right"`
}

// Table is a sparse measured HRTF read from a YAML file.
// Lookups use the nearest measured direction.
type Table struct {
	TableName    string        `yaml:"name"`
	Measurements []Measurement `yaml:"directions"`

	dirs []core.Vec3
}

// LoadFile reads and validates a YAML HRTF table
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading hrtf %s: %v: %w", path, err, core.ErrInvalidParam)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing hrtf %s: %v: %w", path, err, core.ErrInvalidParam)
	}
	if len(t.Measurements) == 0 {
		return nil, fmt.Errorf("hrtf %s has no directions: %w", path, core.ErrInvalidParam)
	}
	probe := []float64{1000}
	for i, m := range t.Measurements {
		for _, pairs := range [][]float64{m.Left, m.Right} {
			if _, err := core.InterpolateBands(pairs, probe); err != nil {
				return nil, fmt.Errorf("hrtf %s direction %d: %w", path, i, err)
			}
		}
		t.dirs = append(t.dirs, directionOf(m.Azimuth, m.Elevation))
	}
	if t.TableName == "" {
		t.TableName = path
	}
	return &t, nil
}

// directionOf converts azimuth/elevation to listener coordinates
// (x right, y up, z back) with azimuth 0 straight ahead
func directionOf(azimuth, elevation float64) core.Vec3 {
	az := azimuth * math.Pi / 180
	el := elevation * math.Pi / 180
	return core.NewVec3(math.Sin(az)*math.Cos(el), math.Sin(el), -math.Cos(az)*math.Cos(el))
}

// Name identifies the table in logs and exports
func (t *Table) Name() string {
	return t.TableName
}

// Response implements HRTF
func (t *Table) Response(dir core.Vec3, centers []float64) Response {
	dir = dir.Normalize()
	best, bestDot := 0, math.Inf(-1)
	for i, d := range t.dirs {
		if dot := d.Dot(dir); dot > bestDot {
			best, bestDot = i, dot
		}
	}
	m := t.Measurements[best]

	var r Response
	r.Delay = [2]float64{m.ITD / 2, -m.ITD / 2}
	for ear, pairs := range [2][]float64{m.Left, m.Right} {
		db, _ := core.InterpolateBands(pairs, centers)
		gains := make(core.Bands, len(db))
		for i, v := range db {
			gains[i] = math.Pow(10, v/10)
		}
		r.Gain[ear] = gains
	}
	return r
}
