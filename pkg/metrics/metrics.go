// Package metrics derives room-acoustic parameters from energy decay curves.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// schroederFloor is the dB value used once the remaining energy is zero
const schroederFloor = -200

// Metrics holds the parameters of one frequency band
type Metrics struct {
	RT60 float64 // seconds, from T30 or T20, else the -60 dB crossing
	EDT  float64 // seconds, 0 to -10 dB slope extrapolated
	T20  float64 // seconds, -5 to -25 dB slope extrapolated
	T30  float64 // seconds, -5 to -35 dB slope extrapolated
	DRR  float64 // direct-to-reverberant ratio in dB
	C50  float64 // clarity at 50 ms in dB
	C80  float64 // clarity at 80 ms in dB
	D50  float64 // definition at 50 ms, 0 to 1
	TS   float64 // center time in seconds
}

// Analyzer computes metrics from energy curves sampled at SampleRate
type Analyzer struct {
	SampleRate float64
}

// NewAnalyzer creates an analyzer for the given sample rate
func NewAnalyzer(sampleRate float64) *Analyzer {
	return &Analyzer{SampleRate: sampleRate}
}

// Analyze computes every metric for one band. energy is the squared
// response per sample starting at emission; direct is the part of it that
// belongs to the direct path. Early/late splits are measured from the
// first sample holding energy.
func (a *Analyzer) Analyze(energy []float64, direct float64) (Metrics, error) {
	if a.SampleRate <= 0 {
		return Metrics{}, fmt.Errorf("analyzer sample rate %g: %w", a.SampleRate, core.ErrBadSampleRate)
	}
	if len(energy) == 0 {
		return Metrics{}, fmt.Errorf("empty energy curve: %w", core.ErrInvalidParam)
	}

	onset := 0
	for onset < len(energy) && energy[onset] <= 0 {
		onset++
	}
	if onset == len(energy) {
		return Metrics{}, nil
	}
	curve := energy[onset:]
	schroeder := a.Schroeder(curve)

	m := Metrics{
		EDT: a.reverbTime(schroeder, 0, -10),
		T20: a.reverbTime(schroeder, -5, -25),
		T30: a.reverbTime(schroeder, -5, -35),
		C50: a.clarity(curve, 50),
		C80: a.clarity(curve, 80),
		D50: a.definition(curve, 50),
		TS:  a.centerTime(curve),
		DRR: drr(curve, direct),
	}
	switch {
	case m.T30 > 0:
		m.RT60 = m.T30
	case m.T20 > 0:
		m.RT60 = m.T20
	default:
		m.RT60 = a.crossing(a.Schroeder(energy), -60)
	}
	return m, nil
}

// Schroeder returns the backward-integrated energy in dB relative to the total
func (a *Analyzer) Schroeder(energy []float64) []float64 {
	out := make([]float64, len(energy))
	sum := 0.0
	for i := len(energy) - 1; i >= 0; i-- {
		sum += energy[i]
		out[i] = sum
	}
	total := out[0]
	for i, v := range out {
		if total <= 0 || v <= 0 {
			out[i] = schroederFloor
			continue
		}
		out[i] = 10 * math.Log10(v/total)
	}
	return out
}

// reverbTime fits a line to the Schroeder curve between startDB and endDB
// and extrapolates it to -60 dB
func (a *Analyzer) reverbTime(schroeder []float64, startDB, endDB float64) float64 {
	start, end := -1, -1
	for i, v := range schroeder {
		if start < 0 && v <= startDB {
			start = i
		}
		if start >= 0 && v <= endDB {
			end = i
			break
		}
	}
	if start < 0 || end < 0 || end-start < 2 || schroeder[end] <= schroederFloor {
		return 0
	}

	xs := make([]float64, 0, end-start+1)
	ys := make([]float64, 0, end-start+1)
	for i := start; i <= end; i++ {
		xs = append(xs, float64(i)/a.SampleRate)
		ys = append(ys, schroeder[i])
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	if !(slope < 0) {
		return 0
	}
	return -60 / slope
}

// crossing returns the time at which the curve first falls to level dB
func (a *Analyzer) crossing(schroeder []float64, level float64) float64 {
	for i, v := range schroeder {
		if v <= level {
			return float64(i) / a.SampleRate
		}
	}
	return float64(len(schroeder)) / a.SampleRate
}

func (a *Analyzer) split(energy []float64, ms float64) (early, late float64) {
	boundary := int(math.Round(ms * 0.001 * a.SampleRate))
	for i, e := range energy {
		if i < boundary {
			early += e
		} else {
			late += e
		}
	}
	return early, late
}

func (a *Analyzer) clarity(energy []float64, ms float64) float64 {
	early, late := a.split(energy, ms)
	return ratioDB(early, late)
}

func (a *Analyzer) definition(energy []float64, ms float64) float64 {
	early, late := a.split(energy, ms)
	if early+late <= 0 {
		return 0
	}
	return early / (early + late)
}

func (a *Analyzer) centerTime(energy []float64) float64 {
	var num, den float64
	for i, e := range energy {
		num += float64(i) / a.SampleRate * e
		den += e
	}
	if den <= 0 {
		return 0
	}
	return num / den
}

func drr(energy []float64, direct float64) float64 {
	total := 0.0
	for _, e := range energy {
		total += e
	}
	return ratioDB(direct, math.Max(0, total-direct))
}

// ratioDB returns 10·log10(num/den) with infinities for empty sides
func ratioDB(num, den float64) float64 {
	switch {
	case den <= 0 && num <= 0:
		return 0
	case den <= 0:
		return math.Inf(1)
	case num <= 0:
		return math.Inf(-1)
	}
	return 10 * math.Log10(num/den)
}
