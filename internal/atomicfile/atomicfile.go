// Package atomicfile provides crash-safe file replacement.
//
// A write is visible to readers either as the file's previous content or as
// the complete new content, never as a partial write. The atomicity boundary
// is a rename within a single directory; callers must not rely on atomicity
// across filesystems.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// WriteFile atomically replaces the file at path with data.
//
// The data is first written to a uniquely named temp file in the same
// directory, then renamed onto path. If anything fails before the rename
// (disk full, permissions), the original file is left untouched and the
// temp file is removed best-effort.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	// Random suffix so concurrent writers to the same logical path never
	// collide on the temp name.
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", base, uuid.NewString()[:8]))

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
