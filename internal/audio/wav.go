// Package audio extracts technical facts from audio file headers.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Info holds the facts the pipeline needs from an audio header.
type Info struct {
	SampleRate      int32
	SampleCount     int64
	DurationSeconds float64
}

var (
	// ErrNotWAV means the bytes do not start with a RIFF/WAVE header.
	ErrNotWAV = errors.New("not a RIFF/WAVE file")
	// ErrCorruptHeader means the container looked like WAV but its
	// chunks could not be walked.
	ErrCorruptHeader = errors.New("corrupt WAVE header")
)

const riffHeaderSize = 12 // "RIFF" + size + "WAVE"

// ParseWAV reads the RIFF chunk list of a WAV file and returns its
// sample rate and duration. Only the fmt and data chunk headers are
// examined; sample data is never decoded.
func ParseWAV(data []byte) (Info, error) {
	if len(data) < riffHeaderSize ||
		string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Info{}, ErrNotWAV
	}

	var (
		sampleRate uint32
		blockAlign uint16
		dataSize   int64
		haveFmt    bool
		haveData   bool
	)

	// Walk the chunk list: 4-byte id, 4-byte little-endian size, payload.
	offset := int64(riffHeaderSize)
	for offset+8 <= int64(len(data)) {
		id := string(data[offset : offset+4])
		size := int64(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > int64(len(data)) {
				return Info{}, fmt.Errorf("%w: fmt chunk truncated", ErrCorruptHeader)
			}
			sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			blockAlign = binary.LittleEndian.Uint16(data[body+12 : body+14])
			haveFmt = true
		case "data":
			dataSize = size
			haveData = true
		}

		// Chunks are word-aligned; odd sizes carry a padding byte.
		offset = body + size
		if size%2 == 1 {
			offset++
		}
	}

	if !haveFmt || !haveData {
		return Info{}, fmt.Errorf("%w: missing fmt or data chunk", ErrCorruptHeader)
	}
	if sampleRate == 0 || blockAlign == 0 {
		return Info{}, fmt.Errorf("%w: zero sample rate or block align", ErrCorruptHeader)
	}

	sampleCount := dataSize / int64(blockAlign)
	return Info{
		SampleRate:      int32(sampleRate),
		SampleCount:     sampleCount,
		DurationSeconds: float64(sampleCount) / float64(sampleRate),
	}, nil
}
