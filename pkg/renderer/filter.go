package renderer

import "math"

// Coefficients are normalized biquad coefficients (a0 = 1)
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Bandpass designs an RBJ band-pass with 0 dB peak gain at center
func Bandpass(center, q, sampleRate float64) Coefficients {
	w0 := 2 * math.Pi * center / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha
	return Coefficients{
		B0: alpha / a0,
		B1: 0,
		B2: -alpha / a0,
		A1: -2 * math.Cos(w0) / a0,
		A2: (1 - alpha) / a0,
	}
}

// BandFilters designs one band-pass per band from log-spaced band edges
func BandFilters(edges []float64, sampleRate float64) []Coefficients {
	filters := make([]Coefficients, len(edges)-1)
	for i := range filters {
		center := math.Sqrt(edges[i] * edges[i+1])
		q := center / (edges[i+1] - edges[i])
		filters[i] = Bandpass(center, q, sampleRate)
	}
	return filters
}

// Process filters x in place with a transposed direct form II section
func (c Coefficients) Process(x []float64) {
	var z1, z2 float64
	for i, in := range x {
		out := c.B0*in + z1
		z1 = c.B1*in - c.A1*out + z2
		z2 = c.B2*in - c.A2*out
		x[i] = out
	}
}

// Response returns the magnitude response at frequency f
func (c Coefficients) Response(f, sampleRate float64) float64 {
	w := 2 * math.Pi * f / sampleRate
	cos1, sin1 := math.Cos(w), math.Sin(w)
	cos2, sin2 := math.Cos(2*w), math.Sin(2*w)
	numRe := c.B0 + c.B1*cos1 + c.B2*cos2
	numIm := -c.B1*sin1 - c.B2*sin2
	denRe := 1 + c.A1*cos1 + c.A2*cos2
	denIm := -c.A1*sin1 - c.A2*sin2
	return math.Hypot(numRe, numIm) / math.Hypot(denRe, denIm)
}
