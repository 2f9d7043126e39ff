package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audios-to-dataset/builder/internal/testutil"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, content, 0644))
}

func TestDiscover(t *testing.T) {
	t.Run("finds files, skips directories", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.wav"), testutil.MakeWAV(16000, 160))
		writeFile(t, filepath.Join(root, "sub", "b.wav"), testutil.MakeWAV(16000, 160))

		files, err := Discover(root, Options{MaxDepth: 50})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(root, "a.wav"),
			filepath.Join(root, "sub", "b.wav"),
		}, files)
	})

	t.Run("missing root is fatal", func(t *testing.T) {
		_, err := Discover(filepath.Join(t.TempDir(), "nope"), Options{MaxDepth: 1})
		assert.Error(t, err)
	})

	t.Run("depth bound", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "top.wav"), testutil.MakeWAV(16000, 160))
		writeFile(t, filepath.Join(root, "one", "mid.wav"), testutil.MakeWAV(16000, 160))
		writeFile(t, filepath.Join(root, "one", "two", "deep.wav"), testutil.MakeWAV(16000, 160))

		files, err := Discover(root, Options{MaxDepth: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(root, "one", "mid.wav"),
			filepath.Join(root, "top.wav"),
		}, files)
	})

	t.Run("symlinks are skipped", func(t *testing.T) {
		root := t.TempDir()
		target := filepath.Join(root, "real.wav")
		writeFile(t, target, testutil.MakeWAV(16000, 160))
		require.NoError(t, os.Symlink(target, filepath.Join(root, "link.wav")))

		files, err := Discover(root, Options{MaxDepth: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{target}, files)
	})

	t.Run("metadata file excluded by relative path", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.wav"), testutil.MakeWAV(16000, 160))
		metaPath := filepath.Join(root, "metadata.csv")
		writeFile(t, metaPath, []byte("file_name,transcription\n"))

		files, err := Discover(root, Options{MaxDepth: 1, MetadataPath: metaPath})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(root, "a.wav")}, files)
	})

	t.Run("metadata file excluded by absolute path", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.wav"), testutil.MakeWAV(16000, 160))
		metaPath := filepath.Join(root, "sub", "metadata.csv")
		writeFile(t, metaPath, []byte("file_name,transcription\n"))

		// Referenced through a non-clean path; the absolute match catches it.
		files, err := Discover(root, Options{
			MaxDepth:     5,
			MetadataPath: filepath.Join(root, "sub", "..", "sub", "metadata.csv"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(root, "a.wav")}, files)
	})

	t.Run("mime filter drops non-audio", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.wav"), testutil.MakeWAV(16000, 160))
		writeFile(t, filepath.Join(root, "notes.txt"), []byte("plain text, not audio"))

		files, err := Discover(root, Options{MaxDepth: 1, CheckMIME: true})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(root, "a.wav")}, files)
	})

	t.Run("mime filter off keeps everything", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.wav"), testutil.MakeWAV(16000, 160))
		writeFile(t, filepath.Join(root, "notes.txt"), []byte("plain text"))

		files, err := Discover(root, Options{MaxDepth: 1})
		require.NoError(t, err)
		assert.Len(t, files, 2)
	})

	t.Run("stable order across runs", func(t *testing.T) {
		root := t.TempDir()
		for _, name := range []string{"c.wav", "a.wav", "b.wav"} {
			writeFile(t, filepath.Join(root, name), testutil.MakeWAV(16000, 160))
		}

		first, err := Discover(root, Options{MaxDepth: 1})
		require.NoError(t, err)
		second, err := Discover(root, Options{MaxDepth: 1})
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("empty tree yields no files", func(t *testing.T) {
		files, err := Discover(t.TempDir(), Options{MaxDepth: 1})
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}
