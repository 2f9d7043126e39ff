// Package pipeline partitions discovered files into chunks and drives
// the parallel materialization of output artifacts.
package pipeline

// SplitChunks partitions the ordered file list into contiguous groups of
// at most size files. The last group may be shorter; an empty input
// yields no groups. A group's position in the result is its chunk index
// and names its output artifact.
func SplitChunks(files []string, size int) [][]string {
	if size <= 0 || len(files) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(files)+size-1)/size)
	for start := 0; start < len(files); start += size {
		end := start + size
		if end > len(files) {
			end = len(files)
		}
		chunks = append(chunks, files[start:end])
	}
	return chunks
}
