package scene

import (
	"github.com/df07/go-audio-propagation/pkg/core"
	"github.com/df07/go-audio-propagation/pkg/hrtf"
)

// DefaultListenerRadius is the detection radius of a new listener in scene units
const DefaultListenerRadius = 0.1

// Source is a point (radius 0) or spherical emitter
type Source struct {
	Position core.Vec3
	Radius   float64
}

// Listener is a receiver with an orientation and an output channel layout
type Listener struct {
	Position    core.Vec3
	Orientation core.Quat
	Radius      float64
	Layout      ChannelLayout
	HRTF        hrtf.HRTF // used by binaural layouts
}

// NewListener creates a listener at the origin facing the default direction
func NewListener(layout ChannelLayout) *Listener {
	return &Listener{
		Orientation: core.IdentityQuat(),
		Radius:      DefaultListenerRadius,
		Layout:      layout,
		HRTF:        hrtf.NewSphericalHead(),
	}
}

// ToLocal rotates a world-space direction into the listener's frame
func (l *Listener) ToLocal(dir core.Vec3) core.Vec3 {
	return l.Orientation.Inverse().Rotate(dir)
}

// Basis names the application axes that correspond to the listener's
// right, up and back directions.
type Basis struct {
	Right, Up, Back core.Vec3
}

// DefaultBasis is the right-handed y-up convention
func DefaultBasis() Basis {
	return Basis{
		Right: core.NewVec3(1, 0, 0),
		Up:    core.NewVec3(0, 1, 0),
		Back:  core.NewVec3(0, 0, 1),
	}
}

// Canonical expresses v in the canonical frame (x right, y up, z back)
func (b Basis) Canonical(v core.Vec3) core.Vec3 {
	return core.NewVec3(v.Dot(b.Right), v.Dot(b.Up), v.Dot(b.Back))
}

// Frame returns the canonical listener-relative direction for a world direction
func (l *Listener) Frame(b Basis, worldDir core.Vec3) core.Vec3 {
	return b.Canonical(l.ToLocal(worldDir)).Normalize()
}

// AmbisonicAxes converts a canonical direction to x front, y left, z up
func AmbisonicAxes(v core.Vec3) core.Vec3 {
	return core.NewVec3(-v.Z, -v.X, v.Y)
}

// CanonicalAxes is the inverse of AmbisonicAxes
func CanonicalAxes(v core.Vec3) core.Vec3 {
	return core.NewVec3(-v.Y, v.Z, -v.X)
}
