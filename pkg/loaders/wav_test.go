package loaders

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/df07/go-audio-propagation/pkg/core"
)

func testChannels(n, frames int) [][]float32 {
	channels := make([][]float32, n)
	for c := range channels {
		channels[c] = make([]float32, frames)
		for i := range channels[c] {
			channels[c][i] = float32(c+1) * float32(i) / float32(frames)
		}
	}
	return channels
}

func TestWAV_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		format   uint16
	}{
		{"mono", 1, wavFormatFloat},
		{"stereo", 2, wavFormatFloat},
		{"first order ambisonics", 4, wavFormatExtensible},
		{"third order ambisonics", 16, wavFormatExtensible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ir.wav")
			in := testChannels(tt.channels, 100)
			if err := WriteWAV(path, in, 48000); err != nil {
				t.Fatalf("write failed: %v", err)
			}

			out, rate, err := ReadWAV(path)
			if err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if rate != 48000 {
				t.Errorf("expected 48000 Hz, got %d", rate)
			}
			if len(out) != tt.channels {
				t.Fatalf("expected %d channels, got %d", tt.channels, len(out))
			}
			for c := range in {
				if len(out[c]) != len(in[c]) {
					t.Fatalf("channel %d: expected %d samples, got %d", c, len(in[c]), len(out[c]))
				}
				for i := range in[c] {
					if out[c][i] != in[c][i] {
						t.Fatalf("channel %d sample %d: expected %f, got %f", c, i, in[c][i], out[c][i])
					}
				}
			}
		})
	}
}

func TestEncodeWAV_Header(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeWAV(&buf, testChannels(4, 10), 44100); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	if got := binary.LittleEndian.Uint32(data[4:]); int(got) != len(data)-8 {
		t.Errorf("RIFF size %d does not match stream length %d", got, len(data)-8)
	}
	if got := binary.LittleEndian.Uint16(data[20:]); got != wavFormatExtensible {
		t.Errorf("expected extensible format tag, got %#x", got)
	}
	if len(data) != 12+8+40+8+4*4*10 {
		t.Errorf("unexpected stream length %d", len(data))
	}
}

func TestEncodeWAV_Errors(t *testing.T) {
	tests := []struct {
		name     string
		channels [][]float32
		rate     int
		expected error
	}{
		{"no channels", nil, 44100, core.ErrInvalidParam},
		{"zero rate", testChannels(1, 4), 0, core.ErrBadSampleRate},
		{"ragged channels", [][]float32{make([]float32, 4), make([]float32, 3)}, 44100, core.ErrBadAlignment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EncodeWAV(&bytes.Buffer{}, tt.channels, tt.rate)
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestDecodeWAV_Rejects(t *testing.T) {
	var pcm bytes.Buffer
	EncodeWAV(&pcm, testChannels(1, 4), 8000)
	data := pcm.Bytes()
	binary.LittleEndian.PutUint16(data[20:], 1) // claim integer PCM

	if _, _, err := DecodeWAV(bytes.NewReader(data)); !errors.Is(err, core.ErrUnsupportedFeature) {
		t.Errorf("expected ErrUnsupportedFeature for PCM, got %v", err)
	}
	if _, _, err := DecodeWAV(bytes.NewReader([]byte("RIFX0000WAVE"))); !errors.Is(err, core.ErrInvalidParam) {
		t.Errorf("expected ErrInvalidParam for a bad magic, got %v", err)
	}
}
