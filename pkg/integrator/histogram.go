package integrator

import (
	"fmt"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// Histogram is an energy-time curve per SH coefficient and band, binned
// at the sample rate. Coefficient 0 is the omnidirectional energy.
type Histogram struct {
	Coefficients int
	Bands        int
	Bins         int
	SampleRate   float64
	data         []float64
}

// HistogramBytes is the allocation size of a histogram with these dimensions
func HistogramBytes(coefficients, bands, bins int) int64 {
	return int64(coefficients) * int64(bands) * int64(bins) * 8
}

// NewHistogram allocates an empty histogram
func NewHistogram(coefficients, bands, bins int, sampleRate float64) *Histogram {
	return &Histogram{
		Coefficients: coefficients,
		Bands:        bands,
		Bins:         bins,
		SampleRate:   sampleRate,
		data:         make([]float64, coefficients*bands*bins),
	}
}

// Curve returns the bins of one coefficient and band. The slice aliases the histogram.
func (h *Histogram) Curve(coefficient, band int) []float64 {
	start := (coefficient*h.Bands + band) * h.Bins
	return h.data[start : start+h.Bins]
}

// Bin returns the bin index for a delay in seconds, or -1 if out of range
func (h *Histogram) Bin(delay float64) int {
	if delay < 0 {
		return -1
	}
	bin := int(delay * h.SampleRate)
	if bin >= h.Bins {
		return -1
	}
	return bin
}

// Add deposits energy at a delay. sh holds the spherical harmonic values of
// the arrival direction and must start with Y_0 = 1.
func (h *Histogram) Add(delay float64, sh []float64, energy core.Bands) bool {
	bin := h.Bin(delay)
	if bin < 0 {
		return false
	}
	for k := 0; k < h.Coefficients && k < len(sh); k++ {
		for b := 0; b < h.Bands; b++ {
			h.data[(k*h.Bands+b)*h.Bins+bin] += energy[b] * sh[k]
		}
	}
	return true
}

// Scale multiplies every bin by s
func (h *Histogram) Scale(s float64) {
	for i := range h.data {
		h.data[i] *= s
	}
}

// Accumulate adds other*s into h. Shapes must match.
func (h *Histogram) Accumulate(other *Histogram, s float64) error {
	if !h.SameShape(other) {
		return fmt.Errorf("histogram shape %s vs %s: %w", h.shape(), other.shape(), core.ErrInvalidParam)
	}
	for i, v := range other.data {
		h.data[i] += v * s
	}
	return nil
}

// Blend replaces h with lambda·prev + (1-lambda)·h. A nil or differently
// shaped previous histogram leaves h unchanged and returns false.
func (h *Histogram) Blend(prev *Histogram, lambda float64) bool {
	if prev == nil || !h.SameShape(prev) {
		return false
	}
	h.Scale(1 - lambda)
	return h.Accumulate(prev, lambda) == nil
}

// SameShape reports whether both histograms have identical dimensions
func (h *Histogram) SameShape(o *Histogram) bool {
	return o != nil && h.Coefficients == o.Coefficients && h.Bands == o.Bands &&
		h.Bins == o.Bins && h.SampleRate == o.SampleRate
}

// LastNonZero returns the last bin holding omnidirectional energy, or -1
func (h *Histogram) LastNonZero() int {
	last := -1
	for b := 0; b < h.Bands; b++ {
		curve := h.Curve(0, b)
		for i := len(curve) - 1; i > last; i-- {
			if curve[i] != 0 {
				last = i
				break
			}
		}
	}
	return last
}

// Total returns the omnidirectional energy per band
func (h *Histogram) Total() core.Bands {
	out := core.NewBands(h.Bands, 0)
	for b := range out {
		for _, v := range h.Curve(0, b) {
			out[b] += v
		}
	}
	return out
}

// Clone returns an independent copy
func (h *Histogram) Clone() *Histogram {
	c := *h
	c.data = append([]float64(nil), h.data...)
	return &c
}

func (h *Histogram) shape() string {
	return fmt.Sprintf("%dx%dx%d@%g", h.Coefficients, h.Bands, h.Bins, h.SampleRate)
}
