package loaders

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/df07/go-audio-propagation/pkg/core"
)

const (
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

// ieeeFloatGUID is KSDATAFORMAT_SUBTYPE_IEEE_FLOAT in its on-disk byte order
var ieeeFloatGUID = [16]byte{
	0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0xaa, 0x00, 0x38, 0x9b, 0x71,
}

// WriteWAV writes channel-major float samples as a 32-bit IEEE float WAVE
// file. More than two channels use WAVE_FORMAT_EXTENSIBLE.
func WriteWAV(path string, channels [][]float32, sampleRate int) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := EncodeWAV(file, channels, sampleRate); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// EncodeWAV writes the WAVE stream to w
func EncodeWAV(w io.Writer, channels [][]float32, sampleRate int) error {
	if len(channels) == 0 || len(channels) > 0xFFFF {
		return fmt.Errorf("wav with %d channels: %w", len(channels), core.ErrInvalidParam)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("wav sample rate %d: %w", sampleRate, core.ErrBadSampleRate)
	}
	frames := len(channels[0])
	for c, ch := range channels {
		if len(ch) != frames {
			return fmt.Errorf("channel %d has %d samples, expected %d: %w", c, len(ch), frames, core.ErrBadAlignment)
		}
	}

	numChannels := len(channels)
	blockAlign := 4 * numChannels
	dataLen := uint32(frames * blockAlign)

	fmtChunk := make([]byte, 18)
	format := uint16(wavFormatFloat)
	if numChannels > 2 {
		fmtChunk = make([]byte, 40)
		format = wavFormatExtensible
	}
	binary.LittleEndian.PutUint16(fmtChunk[0:], format)
	binary.LittleEndian.PutUint16(fmtChunk[2:], uint16(numChannels))
	binary.LittleEndian.PutUint32(fmtChunk[4:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(fmtChunk[8:], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(fmtChunk[12:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(fmtChunk[14:], 32)
	if format == wavFormatExtensible {
		binary.LittleEndian.PutUint16(fmtChunk[16:], 22) // extension size
		binary.LittleEndian.PutUint16(fmtChunk[18:], 32) // valid bits
		binary.LittleEndian.PutUint32(fmtChunk[20:], 0)  // no speaker mask
		copy(fmtChunk[24:], ieeeFloatGUID[:])
	}

	bw := bufio.NewWriter(w)
	header := make([]byte, 12)
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(4+8+len(fmtChunk)+8)+dataLen)
	copy(header[8:], "WAVE")
	bw.Write(header)
	writeChunkHeader(bw, "fmt ", uint32(len(fmtChunk)))
	bw.Write(fmtChunk)
	writeChunkHeader(bw, "data", dataLen)

	sample := make([]byte, 4)
	for i := 0; i < frames; i++ {
		for _, ch := range channels {
			binary.LittleEndian.PutUint32(sample, math.Float32bits(ch[i]))
			bw.Write(sample)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing wav: %w", err)
	}
	return nil
}

func writeChunkHeader(w io.Writer, id string, size uint32) {
	var h [8]byte
	copy(h[:4], id)
	binary.LittleEndian.PutUint32(h[4:], size)
	w.Write(h[:])
}

// ReadWAV reads a 32-bit float WAVE file into channel-major samples
func ReadWAV(path string) ([][]float32, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %v: %w", path, err, core.ErrInvalidParam)
	}
	return DecodeWAV(bytes.NewReader(data))
}

// DecodeWAV parses a WAVE stream written by EncodeWAV or any other float32 writer
func DecodeWAV(r io.Reader) ([][]float32, int, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil || string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE stream: %w", core.ErrInvalidParam)
	}

	var numChannels, sampleRate int
	haveFormat := false
	for {
		var h [8]byte
		if _, err := io.ReadFull(r, h[:]); err != nil {
			return nil, 0, fmt.Errorf("wav has no data chunk: %w", core.ErrInvalidParam)
		}
		id, size := string(h[:4]), binary.LittleEndian.Uint32(h[4:])
		body := make([]byte, size+size%2)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, 0, fmt.Errorf("truncated %q chunk: %w", id, core.ErrInvalidParam)
		}
		body = body[:size]

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("short fmt chunk: %w", core.ErrInvalidParam)
			}
			format := binary.LittleEndian.Uint16(body[0:])
			bits := binary.LittleEndian.Uint16(body[14:])
			if format == wavFormatExtensible {
				if size < 40 || !bytes.Equal(body[24:40], ieeeFloatGUID[:]) {
					return nil, 0, fmt.Errorf("extensible wav is not IEEE float: %w", core.ErrUnsupportedFeature)
				}
			} else if format != wavFormatFloat {
				return nil, 0, fmt.Errorf("wav format %d: %w", format, core.ErrUnsupportedFeature)
			}
			if bits != 32 {
				return nil, 0, fmt.Errorf("wav with %d bits per sample: %w", bits, core.ErrUnsupportedFeature)
			}
			numChannels = int(binary.LittleEndian.Uint16(body[2:]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:]))
			haveFormat = numChannels > 0
		case "data":
			if !haveFormat {
				return nil, 0, fmt.Errorf("data chunk before fmt: %w", core.ErrInvalidParam)
			}
			frames := len(body) / (4 * numChannels)
			channels := make([][]float32, numChannels)
			for c := range channels {
				channels[c] = make([]float32, frames)
			}
			for i := 0; i < frames; i++ {
				for c := range channels {
					off := 4 * (i*numChannels + c)
					channels[c][i] = math.Float32frombits(binary.LittleEndian.Uint32(body[off:]))
				}
			}
			return channels, sampleRate, nil
		}
	}
}
