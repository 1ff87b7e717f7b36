package material

import (
	"math"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// Default coefficients used for unmatched categories and missing fields
const (
	DefaultAbsorption   = 0.1
	DefaultScattering   = 0.5
	DefaultTransmission = 0.0
	DefaultDamping      = 0.0
	DefaultSpeed        = 343.0
)

// Material holds the banded acoustic response of one surface category
type Material struct {
	Name         string
	Labels       []string
	Absorption   core.Bands // fraction of incident energy absorbed per band
	Scattering   core.Bands // fraction of reflected energy scattered diffusely
	Transmission core.Bands // fraction of non-absorbed energy passing through
	Damping      core.Bands // attenuation inside the material in dB per metre
	Speed        float64    // speed of sound inside the material in m/s
}

// NewDefault returns the material used when no label matches
func NewDefault(bands int) *Material {
	return &Material{
		Name:         "default",
		Absorption:   core.NewBands(bands, DefaultAbsorption),
		Scattering:   core.NewBands(bands, DefaultScattering),
		Transmission: core.NewBands(bands, DefaultTransmission),
		Damping:      core.NewBands(bands, DefaultDamping),
		Speed:        DefaultSpeed,
	}
}

// Reflectance returns the per-band energy kept by a reflection: (1-a)(1-t)
func (m *Material) Reflectance(transmission bool) core.Bands {
	r := m.Absorption.OneMinus()
	if transmission {
		r = r.Mul(m.Transmission.OneMinus())
	}
	return r
}

// Transmittance returns the per-band energy passing the interface: (1-a)t
func (m *Material) Transmittance() core.Bands {
	return m.Absorption.OneMinus().Mul(m.Transmission)
}

// Attenuation returns the per-band linear energy factor for travelling
// metres inside the material
func (m *Material) Attenuation(metres float64) core.Bands {
	out := make(core.Bands, len(m.Damping))
	for i, db := range m.Damping {
		out[i] = math.Pow(10, -db*metres/10)
	}
	return out
}

// CheckBands validates every banded field against the simulation band count
func (m *Material) CheckBands(n int) error {
	for name, b := range map[string]core.Bands{
		"absorption":   m.Absorption,
		"scattering":   m.Scattering,
		"transmission": m.Transmission,
		"damping":      m.Damping,
	} {
		if err := core.CheckBands(m.Name+" "+name, b, n); err != nil {
			return err
		}
	}
	return nil
}
