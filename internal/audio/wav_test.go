package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audios-to-dataset/builder/internal/testutil"
)

func TestParseWAV(t *testing.T) {
	t.Run("one second at 16kHz", func(t *testing.T) {
		data := testutil.MakeWAV(16000, 16000)

		info, err := ParseWAV(data)
		require.NoError(t, err)
		assert.Equal(t, int32(16000), info.SampleRate)
		assert.Equal(t, int64(16000), info.SampleCount)
		assert.InDelta(t, 1.0, info.DurationSeconds, 1e-6)
	})

	t.Run("half second at 44.1kHz", func(t *testing.T) {
		data := testutil.MakeWAV(44100, 22050)

		info, err := ParseWAV(data)
		require.NoError(t, err)
		assert.Equal(t, int32(44100), info.SampleRate)
		assert.InDelta(t, 0.5, info.DurationSeconds, 1e-6)
	})

	t.Run("not a wav", func(t *testing.T) {
		_, err := ParseWAV([]byte("this is definitely not audio data at all"))
		assert.ErrorIs(t, err, ErrNotWAV)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := ParseWAV([]byte("RIFF"))
		assert.ErrorIs(t, err, ErrNotWAV)
	})

	t.Run("riff without chunks", func(t *testing.T) {
		data := append([]byte("RIFF"), 0, 0, 0, 0)
		data = append(data, []byte("WAVE")...)
		_, err := ParseWAV(data)
		assert.ErrorIs(t, err, ErrCorruptHeader)
	})

	t.Run("truncated fmt chunk", func(t *testing.T) {
		data := testutil.MakeWAV(16000, 16000)
		_, err := ParseWAV(data[:30])
		assert.ErrorIs(t, err, ErrCorruptHeader)
	})
}
