package scene

import (
	"fmt"

	"github.com/df07/go-audio-propagation/pkg/core"
)

// ChannelLayoutType selects how a listener's IR channels are encoded
type ChannelLayoutType int

// Layout type values match the numeric codes used by the file formats
const (
	LayoutUnknown    ChannelLayoutType = 0
	LayoutMono       ChannelLayoutType = 1
	LayoutBinaural   ChannelLayoutType = 3
	LayoutAmbisonics ChannelLayoutType = 7
)

func (t ChannelLayoutType) String() string {
	switch t {
	case LayoutMono:
		return "mono"
	case LayoutBinaural:
		return "binaural"
	case LayoutAmbisonics:
		return "ambisonics"
	default:
		return "unknown"
	}
}

// ParseLayoutType maps a layout name to its type
func ParseLayoutType(name string) (ChannelLayoutType, error) {
	for _, t := range []ChannelLayoutType{LayoutMono, LayoutBinaural, LayoutAmbisonics} {
		if t.String() == name {
			return t, nil
		}
	}
	return LayoutUnknown, fmt.Errorf("channel layout %q: %w", name, core.ErrInvalidParam)
}

// ChannelLayout is a layout type with its channel count
type ChannelLayout struct {
	Type         ChannelLayoutType
	ChannelCount int
}

// NewChannelLayout validates a layout. A zero channel count picks the
// default for the type: 1 for mono, 2 for binaural, 4 for ambisonics.
func NewChannelLayout(t ChannelLayoutType, channels int) (ChannelLayout, error) {
	switch t {
	case LayoutMono:
		if channels == 0 {
			channels = 1
		}
		if channels != 1 {
			return ChannelLayout{}, fmt.Errorf("mono layout with %d channels: %w", channels, core.ErrInvalidParam)
		}
	case LayoutBinaural:
		if channels == 0 {
			channels = 2
		}
		if channels != 2 {
			return ChannelLayout{}, fmt.Errorf("binaural layout with %d channels: %w", channels, core.ErrInvalidParam)
		}
	case LayoutAmbisonics:
		if channels == 0 {
			channels = 4
		}
		order, ok := core.SHOrderForChannels(channels)
		if !ok {
			return ChannelLayout{}, fmt.Errorf("ambisonics layout with %d channels: %w", channels, core.ErrInvalidParam)
		}
		if order > core.MaxSHOrder {
			return ChannelLayout{}, fmt.Errorf("ambisonics order %d: %w", order, core.ErrUnsupportedFeature)
		}
	default:
		return ChannelLayout{}, fmt.Errorf("channel layout type %d: %w", int(t), core.ErrInvalidParam)
	}
	return ChannelLayout{Type: t, ChannelCount: channels}, nil
}

// SHOrder returns the ambisonic order, or 0 for non-ambisonic layouts
func (l ChannelLayout) SHOrder() int {
	if l.Type != LayoutAmbisonics {
		return 0
	}
	order, _ := core.SHOrderForChannels(l.ChannelCount)
	return order
}

func (l ChannelLayout) String() string {
	return fmt.Sprintf("%s/%d", l.Type, l.ChannelCount)
}
