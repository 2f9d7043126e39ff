package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitChunks(t *testing.T) {
	files := []string{"a", "b", "c", "d", "e"}

	t.Run("even split with remainder", func(t *testing.T) {
		chunks := SplitChunks(files, 2)
		assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, chunks)
	})

	t.Run("chunk larger than input", func(t *testing.T) {
		chunks := SplitChunks(files, 10)
		assert.Equal(t, [][]string{{"a", "b", "c", "d", "e"}}, chunks)
	})

	t.Run("chunk of one", func(t *testing.T) {
		chunks := SplitChunks(files, 1)
		assert.Len(t, chunks, 5)
		assert.Equal(t, []string{"a"}, chunks[0])
		assert.Equal(t, []string{"e"}, chunks[4])
	})

	t.Run("empty input yields no chunks", func(t *testing.T) {
		assert.Nil(t, SplitChunks(nil, 3))
		assert.Nil(t, SplitChunks([]string{}, 3))
	})

	t.Run("non-positive size yields no chunks", func(t *testing.T) {
		assert.Nil(t, SplitChunks(files, 0))
	})

	t.Run("exact multiple", func(t *testing.T) {
		chunks := SplitChunks([]string{"a", "b", "c", "d"}, 2)
		assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, chunks)
	})
}
