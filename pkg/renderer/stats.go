package renderer

import "time"

// SimulationStats contains statistics about one simulation run
type SimulationStats struct {
	Pairs        int           // listener-source pairs simulated
	ListenerRays int           // indirect subpaths traced from listeners
	SourceRays   int           // indirect subpaths traced from sources
	HitRays      int           // subpaths that struck geometry
	DirectRays   int           // direct rays over all pairs
	Arrivals     int           // direct and diffracted arrivals
	Samples      int           // IR samples over all pairs and channels
	Duration     time.Duration // wall time of the run
}

// Efficiency returns the fraction of traced subpaths that hit geometry
func (s SimulationStats) Efficiency() float64 {
	total := s.ListenerRays + s.SourceRays
	if total == 0 {
		return 0
	}
	return float64(s.HitRays) / float64(total)
}
