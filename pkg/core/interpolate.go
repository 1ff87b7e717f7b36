package core

import (
	"fmt"
	"math"
	"sort"

	lin "github.com/sgreben/piecewiselinear"
)

// InterpolateBands maps an interleaved [freq0,val0,freq1,val1,...] array
// onto band center frequencies. Values are linear in log2(frequency)
// between the given points and held constant beyond the first and last.
func InterpolateBands(pairs []float64, centers []float64) (Bands, error) {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return nil, fmt.Errorf("band array has length %d, need frequency/value pairs: %w", len(pairs), ErrInvalidParam)
	}

	type point struct{ freq, value float64 }
	points := make([]point, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		f, v := pairs[i], pairs[i+1]
		if !(f > 0) || math.IsInf(f, 0) || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("band point (%g, %g) is not valid: %w", f, v, ErrInvalidParam)
		}
		points = append(points, point{f, v})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].freq < points[j].freq })

	// Repeated frequencies keep the last value given
	var fn lin.Function
	for _, p := range points {
		x := math.Log2(p.freq)
		if n := len(fn.X); n > 0 && fn.X[n-1] == x {
			fn.Y[n-1] = p.value
			continue
		}
		fn.X = append(fn.X, x)
		fn.Y = append(fn.Y, p.value)
	}

	out := make(Bands, len(centers))
	for i, c := range centers {
		out[i] = evalClamped(fn, math.Log2(c))
	}
	return out, nil
}

func evalClamped(fn lin.Function, x float64) float64 {
	last := len(fn.X) - 1
	switch {
	case x <= fn.X[0]:
		return fn.Y[0]
	case x >= fn.X[last]:
		return fn.Y[last]
	default:
		return fn.At(x)
	}
}

// Clamp limits every band to [lo, hi] in place and returns b
func (b Bands) Clamp(lo, hi float64) Bands {
	for i, v := range b {
		b[i] = math.Max(lo, math.Min(hi, v))
	}
	return b
}
