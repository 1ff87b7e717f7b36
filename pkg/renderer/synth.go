package renderer

import (
	"math"

	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/hrtf"
	"github.com/df07/go-audio-propagation/pkg/integrator"
	"github.com/df07/go-audio-propagation/pkg/scene"
)

// normLength is the number of samples used to measure filter energy
const normLength = 1 << 15

// Synthesizer turns arrivals and energy histograms into band-limited,
// multichannel impulse responses
type Synthesizer struct {
	settings integrator.Settings
	volume   float64
	filters  []Coefficients
	norms    []float64 // per band gain giving the filter unit energy
}

// NewSynthesizer designs the band filters for the run settings
func NewSynthesizer(settings integrator.Settings, volume float64) *Synthesizer {
	edges := core.BandEdges(settings.Bands(), settings.SampleRate)
	sy := &Synthesizer{
		settings: settings,
		volume:   volume,
		filters:  BandFilters(edges, settings.SampleRate),
	}
	impulse := make([]float64, normLength)
	for _, f := range sy.filters {
		clear(impulse)
		impulse[0] = 1
		f.Process(impulse)
		energy := 0.0
		for _, v := range impulse {
			energy += v * v
		}
		sy.norms = append(sy.norms, 1/math.Sqrt(energy))
	}
	return sy
}

// IRInput is everything known about one pair before synthesis
type IRInput struct {
	Listener  *scene.Listener
	Arrivals  []integrator.Arrival
	Histogram *integrator.Histogram // nil without indirect sound
}

// Length returns the IR length in samples: up to the last bin holding
// energy, at least one sample and at most MaxIRLength.
func (sy *Synthesizer) Length(in IRInput) int {
	last := -1
	if in.Histogram != nil {
		last = in.Histogram.LastNonZero()
	}
	for _, a := range in.Arrivals {
		if a.Energy.Max() <= 0 {
			continue
		}
		delay := a.Delay
		if in.Listener.Layout.Type == scene.LayoutBinaural {
			delay += maxEarDelay
		}
		last = max(last, int(math.Round(delay*sy.settings.SampleRate)))
	}
	return max(1, min(last+1, sy.settings.Bins()))
}

// maxEarDelay bounds the interaural offset added to binaural arrivals
const maxEarDelay = 0.001

// Synthesize returns the channel-major IR for one pair. The histogram is
// rendered as random-sign noise with amplitude √energy per bin, arrivals as
// signed impulses; each band is band-pass filtered before the bands are summed.
func (sy *Synthesizer) Synthesize(in IRInput, sampler core.Sampler) [][]float32 {
	n := sy.Length(in)
	layout := in.Listener.Layout
	channels := layout.ChannelCount

	out := make([][]float64, channels)
	band := make([][]float64, channels)
	for c := range out {
		out[c] = make([]float64, n)
		band[c] = make([]float64, n)
	}

	signs := make([]float64, n)
	for i := range signs {
		if sampler.Get1D() < 0.5 {
			signs[i] = -1
		} else {
			signs[i] = 1
		}
	}

	for b := range sy.filters {
		for c := range band {
			clear(band[c])
		}
		for _, a := range in.Arrivals {
			sy.addArrival(band, in.Listener, a, b)
		}
		if in.Histogram != nil {
			sy.addHistogram(band, in.Listener, in.Histogram, b, signs)
		}
		for c := range band {
			sy.filters[b].Process(band[c])
			for i, v := range band[c] {
				out[c][i] += v * sy.norms[b]
			}
		}
	}

	result := make([][]float32, channels)
	for c := range out {
		result[c] = make([]float32, n)
		for i, v := range out[c] {
			result[c][i] = float32(v * sy.volume)
		}
	}
	return result
}

func (sy *Synthesizer) addArrival(band [][]float64, l *scene.Listener, a integrator.Arrival, b int) {
	if a.Energy[b] <= 0 {
		return
	}
	amp := math.Sqrt(a.Energy[b])
	sr := sy.settings.SampleRate
	place := func(c int, delay, gain float64) {
		if i := int(math.Round(delay * sr)); i >= 0 && i < len(band[c]) {
			band[c][i] += amp * gain
		}
	}

	switch l.Layout.Type {
	case scene.LayoutAmbisonics:
		for c := range band {
			place(c, a.Delay, a.Gain(c, b))
		}
	case scene.LayoutBinaural:
		r := headModel(l).Response(a.Direction, sy.settings.Centers)
		for ear := range band {
			place(ear, a.Delay+r.Delay[ear], math.Sqrt(r.Gain[ear][b]))
		}
	default:
		place(0, a.Delay, 1)
	}
}

func (sy *Synthesizer) addHistogram(band [][]float64, l *scene.Listener, h *integrator.Histogram, b int, signs []float64) {
	omni := h.Curve(0, b)
	n := min(len(omni), len(band[0]))

	switch l.Layout.Type {
	case scene.LayoutAmbisonics:
		for c := range band {
			if c >= h.Coefficients {
				break
			}
			curve := h.Curve(c, b)
			for i := 0; i < n; i++ {
				if omni[i] > 0 {
					band[c][i] += signs[i] * math.Sqrt(omni[i]) * curve[i] / omni[i]
				}
			}
		}
	case scene.LayoutBinaural:
		gains := sy.diffuseGains(headModel(l), h, b)
		for ear := range band {
			for i := 0; i < n; i++ {
				if omni[i] > 0 {
					band[ear][i] += signs[i] * math.Sqrt(omni[i]) * gains[ear]
				}
			}
		}
	default:
		for i := 0; i < n; i++ {
			if omni[i] > 0 {
				band[0][i] += signs[i] * math.Sqrt(omni[i])
			}
		}
	}
}

func headModel(l *scene.Listener) hrtf.HRTF {
	if l.HRTF == nil {
		return hrtf.NewSphericalHead()
	}
	return l.HRTF
}

// diffuseGains returns per-ear amplitude gains for reverberant energy from
// the mean first-order direction of the band. Without a dominant direction
// both ears get unit gain.
func (sy *Synthesizer) diffuseGains(model hrtf.HRTF, h *integrator.Histogram, b int) [2]float64 {
	unit := [2]float64{1, 1}
	if h.Coefficients < 4 {
		return unit
	}
	sum := func(k int) float64 {
		total := 0.0
		for _, v := range h.Curve(k, b) {
			total += v
		}
		return total
	}
	omni := sum(0)
	// ACN 1, 2, 3 are Y (left), Z (up), X (front)
	mean := core.NewVec3(sum(3), sum(1), sum(2))
	if omni <= 0 || mean.Length() < 1e-6*omni {
		return unit
	}
	r := model.Response(scene.CanonicalAxes(mean.Normalize()), sy.settings.Centers)
	return [2]float64{math.Sqrt(r.Gain[hrtf.Left][b]), math.Sqrt(r.Gain[hrtf.Right][b])}
}

// EnergyCurve returns the omnidirectional energy of one band per sample
// with every arrival deposited at its bin, truncated to n samples.
func EnergyCurve(arrivals []integrator.Arrival, h *integrator.Histogram, b, n int, sampleRate float64) []float64 {
	curve := make([]float64, n)
	if h != nil {
		copy(curve, h.Curve(0, b))
	}
	for _, a := range arrivals {
		if i := int(math.Round(a.Delay * sampleRate)); i >= 0 && i < n {
			curve[i] += a.Energy[b]
		}
	}
	return curve
}
