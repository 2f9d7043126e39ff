package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/audios-to-dataset/builder/internal/audio"
	"github.com/audios-to-dataset/builder/internal/meta"
	"github.com/audios-to-dataset/builder/internal/models"
)

// RecordBuilder turns one discovered file into an AudioRecord: load the
// bytes, derive the relative identity, extract audio facts, and join the
// metadata. Shared read-only across chunk workers.
type RecordBuilder struct {
	root  string
	store *meta.Store
}

// NewRecordBuilder builds records relative to the discovery root.
func NewRecordBuilder(root string, store *meta.Store) *RecordBuilder {
	return &RecordBuilder{root: root, store: store}
}

// Build produces the record for one file. Errors mean the file is
// dropped from its chunk; an unparseable audio header is not an error
// and yields zero duration and sampling rate.
func (b *RecordBuilder) Build(path string) (*models.AudioRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	fileName := filepath.Base(path)
	if fileName == "." || fileName == string(filepath.Separator) {
		return nil, fmt.Errorf("no representable filename for %q", path)
	}

	identity := b.relativeIdentity(path, fileName)

	rec := &models.AudioRecord{
		RelativeIdentity: identity,
		RawBytes:         data,
		Metadata:         b.store.Lookup(identity, fileName),
	}

	info, err := audio.ParseWAV(data)
	if err == nil {
		rec.DurationSeconds = info.DurationSeconds
		rec.SamplingRateHz = info.SampleRate
	} else {
		// Soft failure: the record still ships, with zeroed audio facts.
		fmt.Printf("[RecordBuilder] No audio header for %s: %v\n", path, err)
	}

	return rec, nil
}

// relativeIdentity derives the normalized path relative to the scan
// root, falling back to the bare filename, then the raw path.
func (b *RecordBuilder) relativeIdentity(path, fileName string) string {
	rel, err := filepath.Rel(b.root, path)
	if err != nil || rel == "" || rel == "." {
		if fileName != "" {
			return meta.NormalizeRelPath(fileName)
		}
		return meta.NormalizeRelPath(path)
	}
	return meta.NormalizeRelPath(rel)
}
