// Package testutil provides shared fakes and fixture builders for tests.
package testutil

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"sync"

	"github.com/audios-to-dataset/builder/internal/models"
)

// MockSink records every chunk handed to it, for pipeline tests that
// should not touch a real artifact format.
type MockSink struct {
	mu     sync.Mutex
	chunks map[int][]*models.AudioRecord

	// FailChunks lists chunk indices whose write should fail.
	FailChunks map[int]bool
}

// NewMockSink returns an empty mock.
func NewMockSink() *MockSink {
	return &MockSink{
		chunks:     make(map[int][]*models.AudioRecord),
		FailChunks: make(map[int]bool),
	}
}

// WriteChunk stores the batch, or fails if the index is marked.
func (m *MockSink) WriteChunk(_ context.Context, chunkIndex int, records []*models.AudioRecord) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailChunks[chunkIndex] {
		return 0, fmt.Errorf("mock failure for chunk %d", chunkIndex)
	}
	m.chunks[chunkIndex] = records
	return len(records), nil
}

// ArtifactPath returns a fake path for the chunk.
func (m *MockSink) ArtifactPath(chunkIndex int) string {
	return filepath.Join("mock", fmt.Sprintf("%d.mock", chunkIndex))
}

// Chunk returns the records written for a chunk index.
func (m *MockSink) Chunk(index int) []*models.AudioRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chunks[index]
}

// Len returns the number of chunks written.
func (m *MockSink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks)
}

// MakeWAV builds a minimal mono 16-bit PCM WAV file carrying a 440 Hz
// sine, for tests that need a parseable audio header.
func MakeWAV(sampleRate int, samples int) []byte {
	const (
		channels      = 1
		bitsPerSample = 16
	)
	blockAlign := channels * bitsPerSample / 8
	dataSize := samples * blockAlign

	buf := make([]byte, 0, 44+dataSize)
	le := binary.LittleEndian

	u32 := func(v uint32) []byte { b := make([]byte, 4); le.PutUint32(b, v); return b }
	u16 := func(v uint16) []byte { b := make([]byte, 2); le.PutUint16(b, v); return b }

	buf = append(buf, []byte("RIFF")...)
	buf = append(buf, u32(uint32(36+dataSize))...)
	buf = append(buf, []byte("WAVE")...)

	buf = append(buf, []byte("fmt ")...)
	buf = append(buf, u32(16)...)
	buf = append(buf, u16(1)...) // PCM
	buf = append(buf, u16(channels)...)
	buf = append(buf, u32(uint32(sampleRate))...)
	buf = append(buf, u32(uint32(sampleRate*blockAlign))...)
	buf = append(buf, u16(uint16(blockAlign))...)
	buf = append(buf, u16(bitsPerSample)...)

	buf = append(buf, []byte("data")...)
	buf = append(buf, u32(uint32(dataSize))...)
	for i := 0; i < samples; i++ {
		angle := float64(i) / float64(sampleRate) * 2 * math.Pi * 440
		sample := int16(math.Sin(angle) * math.MaxInt16)
		buf = append(buf, u16(uint16(sample))...)
	}
	return buf
}
