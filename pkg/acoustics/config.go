package acoustics

import (
	"fmt"
	"runtime"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/integrator"
	"github.com/df07/go-audio-propagation/pkg/scene"
)

// Configuration holds every simulation parameter of a Context. It is copied
// at NewContext and Reset and never changed afterwards.
type Configuration struct {
	FrequencyBands      int     `yaml:"frequency_bands"`
	DirectSHOrder       int     `yaml:"direct_sh_order"`
	IndirectSHOrder     int     `yaml:"indirect_sh_order"`
	DirectRayCount      int     `yaml:"direct_ray_count"`
	IndirectRayCount    int     `yaml:"indirect_ray_count"`
	IndirectRayDepth    int     `yaml:"indirect_ray_depth"`
	SourceRayCount      int     `yaml:"source_ray_count"`
	SourceRayDepth      int     `yaml:"source_ray_depth"`
	MaxDiffractionOrder int     `yaml:"max_diffraction_order"`
	ThreadCount         int     `yaml:"thread_count"` // 0 uses every CPU
	SampleRate          float64 `yaml:"sample_rate"`
	MaxIRLength         float64 `yaml:"max_ir_length"` // seconds
	UnitScale           float64 `yaml:"unit_scale"`    // metres per scene unit
	GlobalVolume        float64 `yaml:"global_volume"`

	// Listener-local axes that define the HRTF orientation
	HRTFRight core.Vec3 `yaml:"hrtf_right"`
	HRTFUp    core.Vec3 `yaml:"hrtf_up"`
	HRTFBack  core.Vec3 `yaml:"hrtf_back"`

	Direct             bool `yaml:"direct"`
	Indirect           bool `yaml:"indirect"`
	Diffraction        bool `yaml:"diffraction"`
	Transmission       bool `yaml:"transmission"`
	MeshSimplification bool `yaml:"mesh_simplification"`
	TemporalCoherence  bool `yaml:"temporal_coherence"`

	Seed               int64   `yaml:"seed"`
	TemporalSmoothing  float64 `yaml:"temporal_smoothing"` // weight of the previous histogram
	SpeedOfSound       float64 `yaml:"speed_of_sound"`     // m/s
	MaxSimulationBytes int64   `yaml:"max_simulation_bytes"`
}

// DefaultConfiguration returns the recommended settings
func DefaultConfiguration() Configuration {
	return Configuration{
		FrequencyBands:      4,
		DirectSHOrder:       3,
		IndirectSHOrder:     1,
		DirectRayCount:      500,
		IndirectRayCount:    5000,
		IndirectRayDepth:    200,
		SourceRayCount:      200,
		SourceRayDepth:      10,
		MaxDiffractionOrder: 10,
		ThreadCount:         1,
		SampleRate:          44100,
		MaxIRLength:         4,
		UnitScale:           1,
		GlobalVolume:        1,
		HRTFRight:           core.NewVec3(1, 0, 0),
		HRTFUp:              core.NewVec3(0, 1, 0),
		HRTFBack:            core.NewVec3(0, 0, 1),
		Direct:              true,
		Indirect:            true,
		Diffraction:         true,
		Transmission:        true,
		Seed:                1,
		TemporalSmoothing:   0.9,
		SpeedOfSound:        343,
		MaxSimulationBytes:  1 << 32,
	}
}

// Validate checks every field and reports the first problem
func (c *Configuration) Validate() error {
	if !(c.SampleRate > 0) {
		return fmt.Errorf("sample rate %g: %w", c.SampleRate, ErrBadSampleRate)
	}
	if c.FrequencyBands < 1 {
		return fmt.Errorf("frequency bands %d: %w", c.FrequencyBands, ErrInvalidParam)
	}
	for _, f := range []struct {
		name  string
		value int
	}{
		{"direct ray count", c.DirectRayCount},
		{"indirect ray count", c.IndirectRayCount},
		{"indirect ray depth", c.IndirectRayDepth},
		{"source ray count", c.SourceRayCount},
		{"source ray depth", c.SourceRayDepth},
		{"max diffraction order", c.MaxDiffractionOrder},
		{"thread count", c.ThreadCount},
		{"direct SH order", c.DirectSHOrder},
		{"indirect SH order", c.IndirectSHOrder},
	} {
		if f.value < 0 {
			return fmt.Errorf("%s %d: %w", f.name, f.value, ErrInvalidParam)
		}
	}
	if c.DirectSHOrder > core.MaxSHOrder || c.IndirectSHOrder > core.MaxSHOrder {
		return fmt.Errorf("SH orders %d/%d above %d: %w", c.DirectSHOrder, c.IndirectSHOrder, core.MaxSHOrder, ErrUnsupportedFeature)
	}
	if !(c.MaxIRLength > 0) || !(c.UnitScale > 0) || !(c.SpeedOfSound > 0) {
		return fmt.Errorf("IR length %g, unit scale %g and speed of sound %g must be positive: %w",
			c.MaxIRLength, c.UnitScale, c.SpeedOfSound, ErrInvalidParam)
	}
	if c.GlobalVolume < 0 {
		return fmt.Errorf("global volume %g: %w", c.GlobalVolume, ErrInvalidParam)
	}
	if c.TemporalSmoothing < 0 || c.TemporalSmoothing >= 1 {
		return fmt.Errorf("temporal smoothing %g outside [0,1): %w", c.TemporalSmoothing, ErrInvalidParam)
	}
	if c.MaxSimulationBytes < 0 {
		return fmt.Errorf("max simulation bytes %d: %w", c.MaxSimulationBytes, ErrInvalidParam)
	}
	for _, v := range []core.Vec3{c.HRTFRight, c.HRTFUp, c.HRTFBack} {
		if !v.IsFinite() || v.Length() == 0 {
			return fmt.Errorf("HRTF axis %v: %w", v, ErrInvalidParam)
		}
	}
	return nil
}

// threads resolves a zero thread count to the CPU count
func (c *Configuration) threads() int {
	if c.ThreadCount <= 0 {
		return runtime.NumCPU()
	}
	return c.ThreadCount
}

// centers returns the band center frequencies
func (c *Configuration) centers() []float64 {
	return core.BandCenters(c.FrequencyBands, c.SampleRate)
}

// settings converts the configuration into estimator settings
func (c *Configuration) settings() integrator.Settings {
	return integrator.Settings{
		Centers:      c.centers(),
		SampleRate:   c.SampleRate,
		MaxIRLength:  c.MaxIRLength,
		UnitScale:    c.UnitScale,
		SpeedOfSound: c.SpeedOfSound,
		Basis: scene.Basis{
			Right: c.HRTFRight.Normalize(),
			Up:    c.HRTFUp.Normalize(),
			Back:  c.HRTFBack.Normalize(),
		},
		DirectRays:      c.DirectRayCount,
		DirectSHOrder:   c.DirectSHOrder,
		IndirectSHOrder: c.IndirectSHOrder,
		IndirectRays:    c.IndirectRayCount,
		IndirectDepth:   c.IndirectRayDepth,
		SourceRays:      c.SourceRayCount,
		SourceDepth:     c.SourceRayDepth,
		MaxDiffraction:  c.MaxDiffractionOrder,
		Transmission:    c.Transmission,
		Seed:            c.Seed,
	}
}
