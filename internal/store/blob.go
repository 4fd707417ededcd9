package store

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackzampolin/darkroom/internal/atomicfile"
)

// BlobStore persists snapshot image payloads as individual files, keyed by
// (shootID, snapshotID), so large images never bloat the JSON documents
// that describe them.
//
// Layout: <root>/<shootID>/<snapshotID>.<ext> where ext is derived from the
// sniffed content type. Returned storage refs are relative to root and are
// opaque to callers.
type BlobStore struct {
	root string
}

// NewBlobStore creates a BlobStore rooted at the given directory.
// The directory itself is created lazily on first Put.
func NewBlobStore(root string) *BlobStore {
	return &BlobStore{root: root}
}

// extForContentType maps sniffed content types to file extensions.
func extForContentType(ct string) string {
	switch {
	case strings.HasPrefix(ct, "image/jpeg"):
		return "jpg"
	case strings.HasPrefix(ct, "image/png"):
		return "png"
	case strings.HasPrefix(ct, "image/webp"):
		return "webp"
	case strings.HasPrefix(ct, "image/gif"):
		return "gif"
	default:
		return "bin"
	}
}

func contentTypeForExt(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// Put stores a payload under (shootID, snapshotID) and returns its storage
// ref. Overwrite-by-id is allowed; callers mint a new id for each new
// version rather than mutating in place.
func (b *BlobStore) Put(shootID, snapshotID string, data []byte) (string, error) {
	dir := filepath.Join(b.root, shootID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}

	ext := extForContentType(http.DetectContentType(data))
	name := snapshotID + "." + ext
	if err := atomicfile.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}
	return shootID + "/" + name, nil
}

// Get returns the payload and content type for a storage ref previously
// returned by Put.
func (b *BlobStore) Get(ref string) ([]byte, string, error) {
	path, err := b.resolve(ref)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("read blob: %w", err)
	}
	return data, contentTypeForExt(filepath.Ext(path)), nil
}

// GetByID returns the payload and content type for a (shootID, snapshotID)
// pair, without needing the storage ref.
func (b *BlobStore) GetByID(shootID, snapshotID string) ([]byte, string, error) {
	if !validID(shootID) || !validID(snapshotID) {
		return nil, "", ErrNotFound
	}
	matches, err := filepath.Glob(filepath.Join(b.root, shootID, snapshotID+".*"))
	if err != nil || len(matches) == 0 {
		return nil, "", ErrNotFound
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("read blob: %w", err)
	}
	return data, contentTypeForExt(filepath.Ext(matches[0])), nil
}

// Path maps a storage ref to its on-disk file, verifying it exists.
// Used by exports that hand files to external tooling.
func (b *BlobStore) Path(ref string) (string, error) {
	path, err := b.resolve(ref)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("stat blob: %w", err)
	}
	return path, nil
}

// Delete removes the blob for (shootID, snapshotID). Absence is success.
func (b *BlobStore) Delete(shootID, snapshotID string) error {
	if !validID(shootID) || !validID(snapshotID) {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(b.root, shootID, snapshotID+".*"))
	if err != nil {
		return fmt.Errorf("glob blobs: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove blob: %w", err)
		}
	}
	return nil
}

// DeleteAll removes every blob under a Shoot's directory. Absence is
// success so repeated deletes stay idempotent.
func (b *BlobStore) DeleteAll(shootID string) error {
	if !validID(shootID) {
		return nil
	}
	if err := os.RemoveAll(filepath.Join(b.root, shootID)); err != nil {
		return fmt.Errorf("remove blob dir: %w", err)
	}
	return nil
}

// ShootIDs lists the shoot ids that currently have blob directories.
// Used by the reconciliation sweep.
func (b *BlobStore) ShootIDs() ([]string, error) {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read blob root: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// resolve maps a storage ref to an absolute path, rejecting refs that
// escape the blob root.
func (b *BlobStore) resolve(ref string) (string, error) {
	if ref == "" || strings.Contains(ref, "..") || strings.HasPrefix(ref, "/") {
		return "", ErrNotFound
	}
	path := filepath.Join(b.root, filepath.FromSlash(ref))
	if !strings.HasPrefix(path, filepath.Clean(b.root)+string(os.PathSeparator)) {
		return "", ErrNotFound
	}
	return path, nil
}
