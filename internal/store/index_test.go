package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestIndexRebuildMatchesDocuments(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	a, _ := s.CreateShoot(ctx, "alpha")
	b, _ := s.CreateShoot(ctx, "beta")
	fa, _ := s.AddFrame(ctx, a.ID, nil)
	if _, err := s.AddSnapshot(ctx, a.ID, fa.ID, jpegPayload(256), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddFrame(ctx, b.ID, nil); err != nil {
		t.Fatal(err)
	}

	shootsDir := filepath.Join(root, ShootsDirName)

	// Delete the persisted snapshot and rebuild from scratch.
	if err := os.Remove(filepath.Join(shootsDir, IndexFileName)); err != nil {
		t.Fatal(err)
	}

	cache := NewIndexCache(shootsDir, DefaultIndexTTL, testLogger())
	entries, err := cache.Rebuild()
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	want := map[string][2]int{
		a.ID: {1, 1},
		b.ID: {1, 0},
	}
	if len(entries) != len(want) {
		t.Fatalf("entry count = %d, want %d", len(entries), len(want))
	}
	for _, e := range entries {
		counts, ok := want[e.ID]
		if !ok {
			t.Errorf("unexpected entry %s", e.ID)
			continue
		}
		if e.FrameCount != counts[0] || e.SnapshotCount != counts[1] {
			t.Errorf("entry %s counts = (%d,%d), want (%d,%d)",
				e.ID, e.FrameCount, e.SnapshotCount, counts[0], counts[1])
		}
	}

	// Snapshot persisted again.
	if _, err := os.Stat(filepath.Join(shootsDir, IndexFileName)); err != nil {
		t.Errorf("index snapshot not persisted: %v", err)
	}
}

func TestIndexRebuildSkipsCorruptDocuments(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	good, _ := s.CreateShoot(ctx, "good")
	shootsDir := filepath.Join(root, ShootsDirName)
	if err := os.WriteFile(filepath.Join(shootsDir, "bad.json"), []byte("][nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	cache := NewIndexCache(shootsDir, DefaultIndexTTL, testLogger())
	entries, err := cache.Rebuild()
	if err != nil {
		t.Fatalf("Rebuild() error = %v (corruption must not abort rebuild)", err)
	}
	if len(entries) != 1 || entries[0].ID != good.ID {
		t.Errorf("entries = %+v, want just %s", entries, good.ID)
	}
}

func TestIndexColdStartWithUnreadableSnapshot(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	shoot, _ := s.CreateShoot(ctx, "survivor")
	shootsDir := filepath.Join(root, ShootsDirName)

	// Clobber the persisted snapshot; a fresh cache must fall back to a
	// full rebuild before serving its first read.
	if err := os.WriteFile(filepath.Join(shootsDir, IndexFileName), []byte("%%%"), 0o644); err != nil {
		t.Fatal(err)
	}

	cache := NewIndexCache(shootsDir, DefaultIndexTTL, testLogger())
	entries, err := cache.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(entries) != 1 || entries[0].ID != shoot.ID {
		t.Errorf("entries = %+v, want just %s", entries, shoot.ID)
	}
}

func TestIndexUpsertAvoidsRescan(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shoots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	cache := NewIndexCache(dir, time.Hour, testLogger())
	if _, err := cache.Read(); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	cache.Upsert(IndexEntry{ID: "one", Label: "l1", UpdatedAt: now.Add(-time.Minute)})
	cache.Upsert(IndexEntry{ID: "two", Label: "l2", UpdatedAt: now})

	entries, err := cache.Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entry count = %d, want 2", len(entries))
	}
	if entries[0].ID != "two" {
		t.Errorf("entries[0].ID = %q, want %q (updatedAt desc)", entries[0].ID, "two")
	}

	// Replace by id, not duplicate.
	cache.Upsert(IndexEntry{ID: "one", Label: "renamed", UpdatedAt: now.Add(time.Minute)})
	entries, _ = cache.Read()
	if len(entries) != 2 {
		t.Fatalf("entry count after replace = %d, want 2", len(entries))
	}
	if entries[0].ID != "one" || entries[0].Label != "renamed" {
		t.Errorf("entries[0] = %+v, want replaced row first", entries[0])
	}

	// Persisted snapshot reflects the upserts without any documents on disk.
	data, err := os.ReadFile(filepath.Join(dir, IndexFileName))
	if err != nil {
		t.Fatal(err)
	}
	var persisted []IndexEntry
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("persisted index unparseable: %v", err)
	}
	if len(persisted) != 2 {
		t.Errorf("persisted count = %d, want 2", len(persisted))
	}
}
