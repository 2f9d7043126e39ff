// Package discovery enumerates candidate audio files under the input root.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/audios-to-dataset/builder/internal/meta"
)

// audioMIMETypes is the allow-list applied when media-type filtering is
// enabled. Files whose detected type matches none of these are dropped.
var audioMIMETypes = []string{
	"audio/mpeg",
	"audio/wav",
	"audio/ogg",
	"audio/flac",
	"audio/vnd.wave",
	"audio/x-wav",
	"audio/x-flac",
	"audio/x-mpeg",
	"audio/x-aiff",
	"audio/aiff",
	"audio/x-aac",
	"audio/aac",
}

// Options controls a discovery pass.
type Options struct {
	// MaxDepth bounds how many directory levels below the root are
	// entered. 0 means only the root itself.
	MaxDepth int
	// CheckMIME enables the media-type allow-list filter.
	CheckMIME bool
	// MetadataPath is excluded from the results; the metadata file
	// commonly lives inside the scanned tree.
	MetadataPath string
}

// Discover walks the input tree and returns the ordered list of candidate
// file paths. Symbolic links and directories are skipped, as is the
// metadata source file (matched by normalized relative path and by
// absolute path). filepath.WalkDir yields lexically sorted entries per
// directory, so chunk membership is stable across filesystems.
func Discover(root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input root %s: not a directory", root)
	}

	metaRel, metaAbs := metadataIdentity(root, opts.MetadataPath)

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = meta.NormalizeRelPath(rel)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if depthOf(rel) > opts.MaxDepth {
				fmt.Printf("[Discovery] Skipping directory beyond depth %d: %s\n", opts.MaxDepth, path)
				return fs.SkipDir
			}
			return nil
		}

		// WalkDir does not follow symlinks but still lists them.
		if d.Type()&fs.ModeSymlink != 0 {
			fmt.Printf("[Discovery] Skipping symlink: %s\n", path)
			return nil
		}

		if isMetadataFile(path, rel, metaRel, metaAbs) {
			fmt.Printf("[Discovery] Skipping metadata file: %s\n", path)
			return nil
		}

		if opts.CheckMIME && !isAudioFile(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	fmt.Printf("[Discovery] Found %d files under %s\n", len(files), root)
	return files, nil
}

// metadataIdentity resolves the two keys the metadata file is matched by.
func metadataIdentity(root, metadataPath string) (rel string, abs string) {
	if metadataPath == "" {
		return "", ""
	}
	if r, err := filepath.Rel(root, metadataPath); err == nil {
		rel = meta.NormalizeRelPath(r)
	}
	if a, err := filepath.Abs(metadataPath); err == nil {
		if resolved, err := filepath.EvalSymlinks(a); err == nil {
			abs = resolved
		} else {
			abs = a
		}
	}
	return rel, abs
}

func isMetadataFile(path, rel, metaRel, metaAbs string) bool {
	if metaRel == "" && metaAbs == "" {
		return false
	}
	if metaRel != "" && rel == metaRel {
		return true
	}
	if metaAbs != "" {
		if a, err := filepath.Abs(path); err == nil {
			if resolved, err := filepath.EvalSymlinks(a); err == nil {
				a = resolved
			}
			if a == metaAbs {
				return true
			}
		}
	}
	return false
}

// isAudioFile sniffs the file content and checks the detected type (and
// its aliases) against the audio allow-list.
func isAudioFile(path string) bool {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		fmt.Printf("[Discovery] No mime type found for %s: %v\n", path, err)
		return false
	}
	for _, allowed := range audioMIMETypes {
		if mtype.Is(allowed) {
			return true
		}
	}
	fmt.Printf("[Discovery] Not an audio file: %s: %s\n", path, mtype.String())
	return false
}

func depthOf(rel string) int {
	if rel == "" || rel == "." {
		return 0
	}
	return strings.Count(rel, "/") + 1
}
