package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	s, err := New(root, Options{Logger: testLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s, root
}

// jpegPayload returns n bytes that sniff as image/jpeg.
func jpegPayload(n int) []byte {
	header := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	if n < len(header) {
		n = len(header)
	}
	return append(header, bytes.Repeat([]byte{0xAB}, n-len(header))...)
}

func TestCreateAndGetShoot(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	shoot, err := s.CreateShoot(ctx, "studio session")
	if err != nil {
		t.Fatalf("CreateShoot() error = %v", err)
	}
	if shoot.ID == "" {
		t.Fatal("CreateShoot() returned empty id")
	}
	if len(shoot.Frames) != 0 {
		t.Errorf("new shoot has %d frames, want 0", len(shoot.Frames))
	}

	got, err := s.GetShoot(ctx, shoot.ID)
	if err != nil {
		t.Fatalf("GetShoot() error = %v", err)
	}
	if got.Label != "studio session" {
		t.Errorf("Label = %q, want %q", got.Label, "studio session")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestGetShootNotFoundVsCorrupt(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	t.Run("missing_is_not_found", func(t *testing.T) {
		_, err := s.GetShoot(ctx, "0badid0")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("garbage_is_corrupt", func(t *testing.T) {
		path := filepath.Join(root, ShootsDirName, "broken.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := s.GetShoot(ctx, "broken")
		if !errors.Is(err, ErrCorrupt) {
			t.Errorf("error = %v, want ErrCorrupt", err)
		}
		if errors.Is(err, ErrNotFound) {
			t.Error("corrupt document must not surface as ErrNotFound")
		}
	})

	t.Run("wrong_shape_is_corrupt", func(t *testing.T) {
		path := filepath.Join(root, ShootsDirName, "shaped.json")
		if err := os.WriteFile(path, []byte(`{"label": 42}`), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := s.GetShoot(ctx, "shaped")
		if !errors.Is(err, ErrCorrupt) {
			t.Errorf("error = %v, want ErrCorrupt", err)
		}
	})

	t.Run("traversal_id_is_not_found", func(t *testing.T) {
		_, err := s.GetShoot(ctx, "../escape")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestUpdateShoot(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	shoot, err := s.CreateShoot(ctx, "before")
	if err != nil {
		t.Fatal(err)
	}

	label := "after"
	updated, err := s.UpdateShoot(ctx, shoot.ID, ShootPatch{Label: &label})
	if err != nil {
		t.Fatalf("UpdateShoot() error = %v", err)
	}
	if updated.Label != "after" {
		t.Errorf("Label = %q, want %q", updated.Label, "after")
	}
	if updated.ID != shoot.ID {
		t.Errorf("ID changed: %q -> %q", shoot.ID, updated.ID)
	}
	if !updated.CreatedAt.Equal(shoot.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", shoot.CreatedAt, updated.CreatedAt)
	}
	if updated.UpdatedAt.Before(shoot.UpdatedAt) {
		t.Error("UpdatedAt not bumped")
	}

	t.Run("sequential_updates_last_write_wins_in_order", func(t *testing.T) {
		x, y := "x", "y"
		if _, err := s.UpdateShoot(ctx, shoot.ID, ShootPatch{Label: &x}); err != nil {
			t.Fatal(err)
		}
		if _, err := s.UpdateShoot(ctx, shoot.ID, ShootPatch{Label: &y}); err != nil {
			t.Fatal(err)
		}
		got, err := s.GetShoot(ctx, shoot.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Label != "y" {
			t.Errorf("Label = %q, want %q", got.Label, "y")
		}
	})

	t.Run("missing_shoot", func(t *testing.T) {
		_, err := s.UpdateShoot(ctx, "0missing0", ShootPatch{Label: &label})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestFrameOrdering(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	shoot, err := s.CreateShoot(ctx, "ordering")
	if err != nil {
		t.Fatal(err)
	}

	f1, _ := s.AddFrame(ctx, shoot.ID, Params{"style": "a"})
	f2, _ := s.AddFrame(ctx, shoot.ID, Params{"style": "b"})
	f3, err := s.AddFrame(ctx, shoot.ID, Params{"style": "c"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.GetShoot(ctx, shoot.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Frames) != 3 {
		t.Fatalf("frame count = %d, want 3", len(got.Frames))
	}
	// Most-recent-first
	want := []string{f3.ID, f2.ID, f1.ID}
	for i, id := range want {
		if got.Frames[i].ID != id {
			t.Errorf("frames[%d].ID = %q, want %q", i, got.Frames[i].ID, id)
		}
	}
}

func TestSnapshotOrdering(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	shoot, _ := s.CreateShoot(ctx, "ordering")
	frame, err := s.AddFrame(ctx, shoot.ID, nil)
	if err != nil {
		t.Fatal(err)
	}

	var ids []string
	for i := 0; i < 3; i++ {
		snap, err := s.AddSnapshot(ctx, shoot.ID, frame.ID, jpegPayload(512), nil)
		if err != nil {
			t.Fatalf("AddSnapshot() error = %v", err)
		}
		ids = append(ids, snap.ID)
	}

	got, err := s.GetShoot(ctx, shoot.ID)
	if err != nil {
		t.Fatal(err)
	}
	snaps := got.Frames[0].Snapshots
	if len(snaps) != 3 {
		t.Fatalf("snapshot count = %d, want 3", len(snaps))
	}
	// Oldest-first
	for i, id := range ids {
		if snaps[i].ID != id {
			t.Errorf("snapshots[%d].ID = %q, want %q", i, snaps[i].ID, id)
		}
	}
}

func TestAddSnapshotRejectsShortPayload(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	shoot, _ := s.CreateShoot(ctx, "payloads")
	frame, _ := s.AddFrame(ctx, shoot.ID, nil)

	_, err := s.AddSnapshot(ctx, shoot.ID, frame.ID, []byte("tiny"), nil)
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("error = %v, want ErrInvalidPayload", err)
	}

	// Rejected before any disk write: blob dir must not exist.
	if _, err := os.Stat(filepath.Join(root, ImagesDirName, shoot.ID)); !os.IsNotExist(err) {
		t.Error("blob directory created for rejected payload")
	}
}

func TestCascadeDeleteShoot(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	shoot, _ := s.CreateShoot(ctx, "cascade")
	frame, _ := s.AddFrame(ctx, shoot.ID, nil)
	if _, err := s.AddSnapshot(ctx, shoot.ID, frame.ID, jpegPayload(1024), nil); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteShoot(ctx, shoot.ID); err != nil {
		t.Fatalf("DeleteShoot() error = %v", err)
	}

	if _, err := s.GetShoot(ctx, shoot.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetShoot() after delete = %v, want ErrNotFound", err)
	}
	if _, err := os.Stat(filepath.Join(root, ImagesDirName, shoot.ID)); !os.IsNotExist(err) {
		t.Error("blob directory survived cascade delete")
	}

	entries, err := s.ListShoots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.ID == shoot.ID {
			t.Error("index row survived delete")
		}
	}

	t.Run("second_delete_is_not_found", func(t *testing.T) {
		if err := s.DeleteShoot(ctx, shoot.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("second delete = %v, want ErrNotFound", err)
		}
	})
}

func TestDeleteFrameRemovesBlobs(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	shoot, _ := s.CreateShoot(ctx, "shoot S")
	frame, err := s.AddFrame(ctx, shoot.ID, Params{"style": "a"})
	if err != nil {
		t.Fatal(err)
	}

	snap, err := s.AddSnapshot(ctx, shoot.ID, frame.ID, jpegPayload(17*1024), map[string]any{})
	if err != nil {
		t.Fatal(err)
	}

	// Blob resolvable before delete.
	if data, ct, err := s.Blobs().GetByID(shoot.ID, snap.ID); err != nil {
		t.Fatalf("GetByID() error = %v", err)
	} else {
		if len(data) != 17*1024 {
			t.Errorf("blob size = %d, want %d", len(data), 17*1024)
		}
		if ct != "image/jpeg" {
			t.Errorf("content type = %q, want image/jpeg", ct)
		}
	}

	if err := s.DeleteFrame(ctx, shoot.ID, frame.ID); err != nil {
		t.Fatalf("DeleteFrame() error = %v", err)
	}

	got, err := s.GetShoot(ctx, shoot.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Frames) != 0 {
		t.Errorf("frame count = %d, want 0", len(got.Frames))
	}
	if _, _, err := s.Blobs().GetByID(shoot.ID, snap.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("blob still resolvable after frame delete: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(root, ImagesDirName, shoot.ID, snap.ID+".*"))
	if len(matches) != 0 {
		t.Errorf("blob files left on disk: %v", matches)
	}
}

func TestIdempotentSnapshotDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	shoot, _ := s.CreateShoot(ctx, "idempotent")
	frame, _ := s.AddFrame(ctx, shoot.ID, nil)
	keep, _ := s.AddSnapshot(ctx, shoot.ID, frame.ID, jpegPayload(256), nil)
	gone, _ := s.AddSnapshot(ctx, shoot.ID, frame.ID, jpegPayload(256), nil)

	if err := s.DeleteSnapshot(ctx, shoot.ID, frame.ID, gone.ID); err != nil {
		t.Fatalf("first delete error = %v", err)
	}
	if err := s.DeleteSnapshot(ctx, shoot.ID, frame.ID, gone.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}

	got, err := s.GetShoot(ctx, shoot.ID)
	if err != nil {
		t.Fatal(err)
	}
	snaps := got.Frames[0].Snapshots
	if len(snaps) != 1 || snaps[0].ID != keep.ID {
		t.Errorf("surviving snapshots = %+v, want just %s", snaps, keep.ID)
	}
}

func TestListShoots(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	a, _ := s.CreateShoot(ctx, "first")
	b, _ := s.CreateShoot(ctx, "second")

	frame, _ := s.AddFrame(ctx, b.ID, nil)
	if _, err := s.AddSnapshot(ctx, b.ID, frame.ID, jpegPayload(300), nil); err != nil {
		t.Fatal(err)
	}

	entries, err := s.ListShoots(ctx)
	if err != nil {
		t.Fatalf("ListShoots() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entry count = %d, want 2", len(entries))
	}
	// Sorted by updatedAt desc: b was mutated last.
	if entries[0].ID != b.ID {
		t.Errorf("entries[0].ID = %q, want %q (most recently updated)", entries[0].ID, b.ID)
	}
	if entries[0].FrameCount != 1 || entries[0].SnapshotCount != 1 {
		t.Errorf("counts = (%d,%d), want (1,1)", entries[0].FrameCount, entries[0].SnapshotCount)
	}
	if entries[0].PreviewRef == "" {
		t.Error("preview ref not set for shoot with snapshots")
	}
	if entries[1].ID != a.ID {
		t.Errorf("entries[1].ID = %q, want %q", entries[1].ID, a.ID)
	}
}

func TestReconcile(t *testing.T) {
	s, root := newTestStore(t)
	ctx := context.Background()

	shoot, _ := s.CreateShoot(ctx, "kept")
	frame, _ := s.AddFrame(ctx, shoot.ID, nil)
	if _, err := s.AddSnapshot(ctx, shoot.ID, frame.ID, jpegPayload(200), nil); err != nil {
		t.Fatal(err)
	}

	// Simulate a crash between blob deletion steps: a blob dir with no document.
	orphanDir := filepath.Join(root, ImagesDirName, "0rphan0")
	if err := os.MkdirAll(orphanDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(orphanDir, "x.jpg"), jpegPayload(128), 0o644); err != nil {
		t.Fatal(err)
	}

	removed, err := s.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(removed) != 1 || removed[0] != "0rphan0" {
		t.Errorf("removed = %v, want [0rphan0]", removed)
	}
	if _, err := os.Stat(orphanDir); !os.IsNotExist(err) {
		t.Error("orphan dir survived reconcile")
	}
	// Live shoot untouched.
	if _, err := os.Stat(filepath.Join(root, ImagesDirName, shoot.ID)); err != nil {
		t.Errorf("live blob dir removed: %v", err)
	}
}

func TestConcurrentUpdatesAreOrdered(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	shoot, _ := s.CreateShoot(ctx, "contended")

	// Hammer the same shoot from many goroutines; the write queue must
	// serialize every read-modify-write so no frame add is lost.
	const n = 20
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := s.AddFrame(ctx, shoot.ID, nil)
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("AddFrame() error = %v", err)
		}
	}

	got, err := s.GetShoot(ctx, shoot.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Frames) != n {
		t.Errorf("frame count = %d, want %d (lost updates)", len(got.Frames), n)
	}
}

func TestStoreCloseRejectsWrites(t *testing.T) {
	root := t.TempDir()
	s, err := New(root, Options{Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	if _, err := s.CreateShoot(context.Background(), "late"); !errors.Is(err, ErrClosed) {
		t.Errorf("CreateShoot() after Close = %v, want ErrClosed", err)
	}
}
