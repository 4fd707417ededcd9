// Package store implements the file-backed hierarchical document store for
// Shoot sessions.
//
// Each Shoot is one JSON document under <root>/shoots/, its snapshot images
// live as individual blobs under <root>/shoots-images/<shootID>/, and a
// denormalized listing index is cached in memory and mirrored to
// <root>/shoots/_index.json. All mutations are funneled through a
// per-instance FIFO write queue so read-modify-write cycles execute in
// submission order.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jackzampolin/darkroom/internal/atomicfile"
)

const (
	// ShootsDirName is the subdirectory holding Shoot documents.
	ShootsDirName = "shoots"

	// ImagesDirName is the subdirectory holding snapshot blobs.
	ImagesDirName = "shoots-images"

	// minSnapshotBytes rejects payloads too short to be a real image.
	minSnapshotBytes = 100

	// writeQueueBuffer bounds how many mutations may wait in line.
	writeQueueBuffer = 64
)

// Store is the CRUD engine over the Shoot → Frame → Snapshot tree. It owns
// the on-disk directory tree for one store root; multi-process access to
// the same root is undefined.
type Store struct {
	dir    string // shoots directory
	blobs  *BlobStore
	index  *IndexCache
	queue  *writeQueue
	logger *slog.Logger
}

// Options tunes Store construction.
type Options struct {
	// IndexTTL overrides the index freshness window.
	IndexTTL time.Duration
	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// New creates a Store rooted at the given directory, creating the layout
// if needed. The persisted index snapshot is loaded if present; otherwise
// the first listing rebuilds it from the documents.
func New(root string, opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")

	dir := filepath.Join(root, ShootsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create shoots dir: %w", err)
	}
	imagesDir := filepath.Join(root, ImagesDirName)
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}

	return &Store{
		dir:    dir,
		blobs:  NewBlobStore(imagesDir),
		index:  NewIndexCache(dir, opts.IndexTTL, logger),
		queue:  newWriteQueue(writeQueueBuffer),
		logger: logger,
	}, nil
}

// Close stops the write queue after draining pending mutations.
func (s *Store) Close() {
	s.queue.close()
}

// Blobs exposes the blob store for read paths (image streaming, exports).
func (s *Store) Blobs() *BlobStore {
	return s.blobs
}

func (s *Store) shootPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// persistShoot stamps UpdatedAt, writes the document atomically, and
// updates the index row. Must only run on the write queue.
func (s *Store) persistShoot(shoot *Shoot) error {
	shoot.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(shoot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal shoot: %w", err)
	}
	if err := atomicfile.WriteFile(s.shootPath(shoot.ID), data, 0o644); err != nil {
		return fmt.Errorf("write shoot document: %w", err)
	}
	s.index.Upsert(EntryOf(shoot))
	return nil
}

// CreateShoot mints a fresh Shoot with no frames and persists it.
func (s *Store) CreateShoot(ctx context.Context, label string) (*Shoot, error) {
	var created *Shoot
	err := s.queue.submit(ctx, func() error {
		id := uuid.NewString()
		if _, err := os.Stat(s.shootPath(id)); err == nil {
			return fmt.Errorf("shoot id collision: %s", id)
		}

		now := time.Now().UTC()
		shoot := &Shoot{
			ID:        id,
			Label:     label,
			CreatedAt: now,
			UpdatedAt: now,
			Frames:    []Frame{},
		}
		if err := s.persistShoot(shoot); err != nil {
			return err
		}
		s.logger.Info("created shoot", "shoot_id", id, "label", label)
		created = shoot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetShoot reads and validates a Shoot document. A parse or validation
// failure surfaces as ErrCorrupt, never as ErrNotFound.
func (s *Store) GetShoot(_ context.Context, id string) (*Shoot, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	shoot, err := loadShoot(s.shootPath(id))
	if err != nil {
		return nil, fmt.Errorf("get shoot %s: %w", id, err)
	}
	return shoot, nil
}

// UpdateShoot merges the patch over the current document and persists it.
// ID and CreatedAt are immutable and always re-asserted from the existing
// document regardless of the patch.
func (s *Store) UpdateShoot(ctx context.Context, id string, patch ShootPatch) (*Shoot, error) {
	var updated *Shoot
	err := s.queue.submit(ctx, func() error {
		shoot, err := s.GetShoot(ctx, id)
		if err != nil {
			return err
		}
		if patch.Label != nil {
			shoot.Label = *patch.Label
		}
		if err := s.persistShoot(shoot); err != nil {
			return err
		}
		updated = shoot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteShoot removes a Shoot and everything under it. Blobs go first: a
// crash mid-delete leaves at worst a document whose frames reference
// missing blobs, which re-running the delete cleans up.
func (s *Store) DeleteShoot(ctx context.Context, id string) error {
	return s.queue.submit(ctx, func() error {
		if !validID(id) {
			return ErrNotFound
		}
		path := s.shootPath(id)
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return ErrNotFound
			}
			return fmt.Errorf("stat shoot document: %w", err)
		}

		if err := s.blobs.DeleteAll(id); err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove shoot document: %w", err)
		}
		s.index.Remove(id)
		s.logger.Info("deleted shoot", "shoot_id", id)
		return nil
	})
}

// AddFrame prepends a new Frame (most-recent-first display order) and
// persists the Shoot.
func (s *Store) AddFrame(ctx context.Context, shootID string, params Params) (*Frame, error) {
	var added *Frame
	err := s.queue.submit(ctx, func() error {
		shoot, err := s.GetShoot(ctx, shootID)
		if err != nil {
			return err
		}

		frame := Frame{
			ID:        uuid.NewString(),
			CreatedAt: time.Now().UTC(),
			Params:    params,
			Snapshots: []Snapshot{},
		}
		shoot.Frames = append([]Frame{frame}, shoot.Frames...)
		if err := s.persistShoot(shoot); err != nil {
			return err
		}
		added = &shoot.Frames[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// DeleteFrame removes a Frame and its snapshots' blobs.
func (s *Store) DeleteFrame(ctx context.Context, shootID, frameID string) error {
	return s.queue.submit(ctx, func() error {
		shoot, err := s.GetShoot(ctx, shootID)
		if err != nil {
			return err
		}

		idx := -1
		for i := range shoot.Frames {
			if shoot.Frames[i].ID == frameID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("frame %s: %w", frameID, ErrNotFound)
		}

		for _, snap := range shoot.Frames[idx].Snapshots {
			if err := s.blobs.Delete(shootID, snap.ID); err != nil {
				return err
			}
		}
		shoot.Frames = append(shoot.Frames[:idx], shoot.Frames[idx+1:]...)
		return s.persistShoot(shoot)
	})
}

// AddSnapshot validates the payload, stores its blob, appends a Snapshot to
// the Frame (oldest-first timeline order), and persists the Shoot.
func (s *Store) AddSnapshot(ctx context.Context, shootID, frameID string, data []byte, meta map[string]any) (*Snapshot, error) {
	if len(data) < minSnapshotBytes {
		return nil, fmt.Errorf("%w: payload is %d bytes, need at least %d", ErrInvalidPayload, len(data), minSnapshotBytes)
	}

	var added *Snapshot
	err := s.queue.submit(ctx, func() error {
		shoot, err := s.GetShoot(ctx, shootID)
		if err != nil {
			return err
		}
		frame := shoot.FindFrame(frameID)
		if frame == nil {
			return fmt.Errorf("frame %s: %w", frameID, ErrNotFound)
		}

		snapID := uuid.NewString()
		ref, err := s.blobs.Put(shootID, snapID, data)
		if err != nil {
			return err
		}

		snap := Snapshot{
			ID:         snapID,
			CreatedAt:  time.Now().UTC(),
			Meta:       meta,
			StorageRef: ref,
		}
		frame.Snapshots = append(frame.Snapshots, snap)
		if err := s.persistShoot(shoot); err != nil {
			return err
		}
		added = &frame.Snapshots[len(frame.Snapshots)-1]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// DeleteSnapshot removes one Snapshot and its blob.
func (s *Store) DeleteSnapshot(ctx context.Context, shootID, frameID, snapshotID string) error {
	return s.queue.submit(ctx, func() error {
		shoot, err := s.GetShoot(ctx, shootID)
		if err != nil {
			return err
		}
		frame := shoot.FindFrame(frameID)
		if frame == nil {
			return fmt.Errorf("frame %s: %w", frameID, ErrNotFound)
		}

		idx := -1
		for i := range frame.Snapshots {
			if frame.Snapshots[i].ID == snapshotID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("snapshot %s: %w", snapshotID, ErrNotFound)
		}

		if err := s.blobs.Delete(shootID, snapshotID); err != nil {
			return err
		}
		frame.Snapshots = append(frame.Snapshots[:idx], frame.Snapshots[idx+1:]...)
		return s.persistShoot(shoot)
	})
}

// ListShoots returns the catalog listing from the index cache.
func (s *Store) ListShoots(_ context.Context) ([]IndexEntry, error) {
	entries, err := s.index.Read()
	if err != nil {
		return nil, fmt.Errorf("list shoots: %w", err)
	}
	return entries, nil
}

// RebuildIndex forces a full index rebuild from the documents on disk.
func (s *Store) RebuildIndex(_ context.Context) ([]IndexEntry, error) {
	return s.index.Rebuild()
}

// Reconcile removes blob directories whose shoot document no longer exists
// (possible after a crash between blob deletion and document deletion).
// Purely disk hygiene: orphaned blob dirs are wasted space, not dangling
// references. Returns the shoot ids whose directories were reclaimed.
func (s *Store) Reconcile(ctx context.Context) ([]string, error) {
	var removed []string
	err := s.queue.submit(ctx, func() error {
		ids, err := s.blobs.ShootIDs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, err := os.Stat(s.shootPath(id)); os.IsNotExist(err) {
				if err := s.blobs.DeleteAll(id); err != nil {
					return err
				}
				s.logger.Info("reclaimed orphaned blob dir", "shoot_id", id)
				removed = append(removed, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
