package store

import "time"

// Params is the opaque parameter bag attached to a Frame. The store never
// interprets it; it is passed through to the prompt builder by higher layers.
type Params map[string]any

// Snapshot is one concrete generated image within a Frame. The binary
// payload lives in the blob store; StorageRef points at it and callers must
// treat the ref as opaque.
type Snapshot struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"createdAt"`
	Meta       map[string]any `json:"meta,omitempty"`
	StorageRef string         `json:"storageRef"`
}

// Frame is one generation "take" inside a Shoot. Snapshots are kept
// oldest-first so variants read as a left-to-right timeline.
type Frame struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	Params    Params     `json:"params,omitempty"`
	Snapshots []Snapshot `json:"snapshots"`
}

// Shoot is a top-level creative session. Frames are kept most-recent-first.
// ID and CreatedAt are immutable after creation.
type Shoot struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Frames    []Frame   `json:"frames"`
}

// ShootPatch holds the mutable Shoot fields for UpdateShoot. Nil fields are
// left unchanged.
type ShootPatch struct {
	Label *string `json:"label,omitempty"`
}

// IndexEntry is a denormalized summary of one Shoot used for catalog
// listing. It is derived state: always reconstructable from the Shoot
// documents, never authoritative.
type IndexEntry struct {
	ID            string    `json:"id"`
	Label         string    `json:"label"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	FrameCount    int       `json:"frameCount"`
	SnapshotCount int       `json:"snapshotCount"`
	PreviewRef    string    `json:"previewRef,omitempty"`
}

// EntryOf derives the IndexEntry for a Shoot.
func EntryOf(s *Shoot) IndexEntry {
	e := IndexEntry{
		ID:         s.ID,
		Label:      s.Label,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		FrameCount: len(s.Frames),
	}
	for _, f := range s.Frames {
		e.SnapshotCount += len(f.Snapshots)
	}
	if len(s.Frames) > 0 && len(s.Frames[0].Snapshots) > 0 {
		e.PreviewRef = s.Frames[0].Snapshots[0].StorageRef
	}
	return e
}

// FindFrame returns the Frame with the given id, or nil.
func (s *Shoot) FindFrame(frameID string) *Frame {
	for i := range s.Frames {
		if s.Frames[i].ID == frameID {
			return &s.Frames[i]
		}
	}
	return nil
}
