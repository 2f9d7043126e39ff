package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audios-to-dataset/builder/internal/meta"
	"github.com/audios-to-dataset/builder/internal/models"
	"github.com/audios-to-dataset/builder/internal/testutil"
)

func TestRecordBuilder(t *testing.T) {
	t.Run("builds a complete record", func(t *testing.T) {
		root := t.TempDir()
		wav := testutil.MakeWAV(16000, 16000)
		path := filepath.Join(root, "sub", "sample.wav")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, wav, 0644))

		b := NewRecordBuilder(root, meta.NewStore())
		rec, err := b.Build(path)
		require.NoError(t, err)

		assert.Equal(t, "sub/sample.wav", rec.RelativeIdentity)
		assert.Equal(t, int32(16000), rec.SamplingRateHz)
		assert.InDelta(t, 1.0, rec.DurationSeconds, 1e-6)
		assert.Equal(t, wav, rec.RawBytes)
		assert.Equal(t, models.DefaultTranscription, rec.Metadata[models.TranscriptionColumn])
	})

	t.Run("unparseable audio is a soft failure", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(root, "noise.bin")
		require.NoError(t, os.WriteFile(path, []byte("not audio at all, just bytes"), 0644))

		b := NewRecordBuilder(root, meta.NewStore())
		rec, err := b.Build(path)
		require.NoError(t, err)

		assert.Equal(t, float64(0), rec.DurationSeconds)
		assert.Equal(t, int32(0), rec.SamplingRateHz)
		assert.NotEmpty(t, rec.RawBytes)
	})

	t.Run("unreadable file drops the record", func(t *testing.T) {
		root := t.TempDir()
		b := NewRecordBuilder(root, meta.NewStore())

		_, err := b.Build(filepath.Join(root, "missing.wav"))
		assert.Error(t, err)
	})

	t.Run("metadata joined by relative path", func(t *testing.T) {
		root := t.TempDir()
		wav := testutil.MakeWAV(16000, 160)
		path := filepath.Join(root, "sample.wav")
		require.NoError(t, os.WriteFile(path, wav, 0644))

		metaPath := filepath.Join(root, "metadata.csv")
		require.NoError(t, os.WriteFile(metaPath,
			[]byte("file_name,transcription,relative_path\nsample.wav,test transcription,sample.wav\n"), 0644))

		store := meta.NewStore()
		require.NoError(t, store.Load(metaPath))

		b := NewRecordBuilder(root, store)
		rec, err := b.Build(path)
		require.NoError(t, err)
		assert.Equal(t, "test transcription", rec.Metadata[models.TranscriptionColumn])
	})
}
