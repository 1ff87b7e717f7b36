package core

import (
	"fmt"
	"math"
)

const (
	// LowestBandFrequency is the lower edge of the first frequency band in Hz
	LowestBandFrequency = 20.0
	// HighestBandFrequency is the upper edge of the last band unless Nyquist is lower
	HighestBandFrequency = 20000.0
)

// Bands is a fixed-length vector with one value per frequency band
type Bands []float64

// NewBands returns n bands all set to value
func NewBands(n int, value float64) Bands {
	b := make(Bands, n)
	for i := range b {
		b[i] = value
	}
	return b
}

// CheckBands validates that b has exactly n entries
func CheckBands(name string, b Bands, n int) error {
	if len(b) != n {
		return fmt.Errorf("%s has %d bands, expected %d: %w", name, len(b), n, ErrUninitialized)
	}
	return nil
}

// Clone returns an independent copy
func (b Bands) Clone() Bands {
	out := make(Bands, len(b))
	copy(out, b)
	return out
}

// Scale returns b multiplied by s
func (b Bands) Scale(s float64) Bands {
	out := make(Bands, len(b))
	for i, v := range b {
		out[i] = v * s
	}
	return out
}

// Mul returns the band-wise product of b and other
func (b Bands) Mul(other Bands) Bands {
	out := make(Bands, len(b))
	for i, v := range b {
		out[i] = v * other[i]
	}
	return out
}

// AddScaled accumulates other*s into b in place
func (b Bands) AddScaled(other Bands, s float64) {
	for i := range b {
		b[i] += other[i] * s
	}
}

// Sum returns the total over all bands
func (b Bands) Sum() float64 {
	total := 0.0
	for _, v := range b {
		total += v
	}
	return total
}

// Mean returns the average band value
func (b Bands) Mean() float64 {
	if len(b) == 0 {
		return 0
	}
	return b.Sum() / float64(len(b))
}

// Max returns the largest band value
func (b Bands) Max() float64 {
	m := math.Inf(-1)
	for _, v := range b {
		m = math.Max(m, v)
	}
	return m
}

// OneMinus returns 1-b per band
func (b Bands) OneMinus() Bands {
	out := make(Bands, len(b))
	for i, v := range b {
		out[i] = 1 - v
	}
	return out
}

// BandEdges returns the n+1 log-spaced band edges in Hz for the given sample rate
func BandEdges(n int, sampleRate float64) []float64 {
	hi := math.Min(HighestBandFrequency, sampleRate/2)
	lo := math.Min(LowestBandFrequency, hi/2)
	edges := make([]float64, n+1)
	ratio := math.Log(hi / lo)
	for i := range edges {
		edges[i] = lo * math.Exp(ratio*float64(i)/float64(n))
	}
	return edges
}

// BandCenters returns the geometric center frequency of each band
func BandCenters(n int, sampleRate float64) []float64 {
	edges := BandEdges(n, sampleRate)
	centers := make([]float64, n)
	for i := range centers {
		centers[i] = math.Sqrt(edges[i] * edges[i+1])
	}
	return centers
}
