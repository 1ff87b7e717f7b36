// Package hrtf models the per-ear filtering applied to sound arriving at a
// binaural listener.
package hrtf

import (
	"math"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// Ear indices into a Response
const (
	Left = iota
	Right
)

// Response is the per-ear energy gain and arrival delay for one direction
type Response struct {
	Gain  [2]core.Bands // linear energy gain per band
	Delay [2]float64    // seconds, relative to the head center
}

// HRTF returns the ear responses for a unit direction given in listener
// coordinates (x right, y up, z back) at the given band centers.
type HRTF interface {
	Name() string
	Response(dir core.Vec3, centers []float64) Response
}

// SphericalHead is the analytic rigid-sphere model: Woodworth ITD and a
// single-pole head shadow per ear (Brown and Duda).
type SphericalHead struct {
	Radius       float64 // metres
	SpeedOfSound float64 // m/s
}

// NewSphericalHead returns a head of average adult size
func NewSphericalHead() *SphericalHead {
	return &SphericalHead{Radius: 0.0875, SpeedOfSound: 343}
}

// Name identifies the model in logs and exports
func (h *SphericalHead) Name() string {
	return "spherical-head"
}

// Response implements HRTF
func (h *SphericalHead) Response(dir core.Vec3, centers []float64) Response {
	dir = dir.Normalize()
	lateral := math.Max(-1, math.Min(1, dir.X))

	// Woodworth: ITD = a/c (theta + sin theta) for lateral angle theta
	theta := math.Asin(math.Abs(lateral))
	itd := h.Radius / h.SpeedOfSound * (theta + math.Sin(theta))

	var r Response
	if lateral >= 0 {
		r.Delay = [2]float64{itd / 2, -itd / 2}
	} else {
		r.Delay = [2]float64{-itd / 2, itd / 2}
	}

	ears := [2]core.Vec3{core.NewVec3(-1, 0, 0), core.NewVec3(1, 0, 0)}
	w0 := h.SpeedOfSound / h.Radius
	for ear, axis := range ears {
		// Angle of incidence measured from the ear axis, in degrees
		incidence := math.Acos(math.Max(-1, math.Min(1, dir.Dot(axis)))) * 180 / math.Pi
		alpha := 1.05 + 0.95*math.Cos(incidence/150*math.Pi)
		gains := make(core.Bands, len(centers))
		for i, f := range centers {
			w := 2 * math.Pi * f
			num := 1 + math.Pow(alpha*w/(2*w0), 2)
			den := 1 + math.Pow(w/(2*w0), 2)
			gains[i] = num / den
		}
		r.Gain[ear] = gains
	}
	return r
}
