// Package export renders shoot contents into shareable artifacts.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/jackzampolin/darkroom/internal/store"
)

// ContactSheet writes a PDF containing every snapshot image in the shoot,
// one per page: frames in display order (most recent first), snapshots
// within a frame oldest first. Snapshots whose blob is missing are
// skipped. Returns the number of images included.
func ContactSheet(shoot *store.Shoot, blobs *store.BlobStore, outPath string) (int, error) {
	var files []string
	for _, frame := range shoot.Frames {
		for _, snap := range frame.Snapshots {
			path, err := blobs.Path(snap.StorageRef)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return 0, fmt.Errorf("resolve snapshot %s: %w", snap.ID, err)
			}
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("shoot %s has no snapshot images to export", shoot.ID)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return 0, fmt.Errorf("create export dir: %w", err)
	}
	if err := pdfapi.ImportImagesFile(files, outPath, nil, nil); err != nil {
		return 0, fmt.Errorf("assemble contact sheet: %w", err)
	}
	return len(files), nil
}
