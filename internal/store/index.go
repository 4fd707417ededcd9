package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackzampolin/darkroom/internal/atomicfile"
)

// IndexFileName is the persisted index snapshot inside the shoots directory.
const IndexFileName = "_index.json"

// DefaultIndexTTL is the freshness window for the in-memory index.
const DefaultIndexTTL = 5 * time.Second

// IndexCache answers "list all shoots" without opening every Shoot
// document. It keeps one IndexEntry per Shoot in memory, persists a
// snapshot to _index.json, and rebuilds from the documents whenever the
// cache goes stale. The index is derived state: any inconsistency with the
// documents self-heals on the next rebuild, and document CRUD never fails
// because of index state.
type IndexCache struct {
	dir    string // shoots directory containing the documents and _index.json
	ttl    time.Duration
	logger *slog.Logger

	mu          sync.Mutex
	entries     []IndexEntry
	refreshedAt time.Time
}

// NewIndexCache creates an IndexCache over the given shoots directory.
// If a persisted snapshot exists and is readable it is loaded and trusted
// for one freshness window; otherwise the first Read triggers a rebuild.
func NewIndexCache(dir string, ttl time.Duration, logger *slog.Logger) *IndexCache {
	if ttl <= 0 {
		ttl = DefaultIndexTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &IndexCache{dir: dir, ttl: ttl, logger: logger}

	data, err := os.ReadFile(c.indexPath())
	if err == nil {
		var entries []IndexEntry
		if jsonErr := json.Unmarshal(data, &entries); jsonErr == nil {
			c.entries = entries
			c.refreshedAt = time.Now()
		} else {
			logger.Warn("persisted index unreadable, will rebuild", "error", jsonErr)
		}
	} else if !os.IsNotExist(err) {
		logger.Warn("persisted index unreadable, will rebuild", "error", err)
	}

	return c
}

func (c *IndexCache) indexPath() string {
	return filepath.Join(c.dir, IndexFileName)
}

// Read returns the current entries, rebuilding from disk if the cache has
// gone stale.
func (c *IndexCache) Read() ([]IndexEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Since(c.refreshedAt) < c.ttl && !c.refreshedAt.IsZero() {
		return append([]IndexEntry(nil), c.entries...), nil
	}
	return c.rebuildLocked()
}

// Rebuild forces a full rescan of the Shoot documents.
func (c *IndexCache) Rebuild() ([]IndexEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rebuildLocked()
}

func (c *IndexCache) rebuildLocked() ([]IndexEntry, error) {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			files = nil
		} else {
			return nil, fmt.Errorf("scan shoots dir: %w", err)
		}
	}

	entries := make([]IndexEntry, 0, len(files))
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || name == IndexFileName || !strings.HasSuffix(name, ".json") {
			continue
		}
		shoot, err := loadShoot(filepath.Join(c.dir, name))
		if err != nil {
			// One bad file must never blind the whole catalog.
			if errors.Is(err, ErrCorrupt) {
				c.logger.Warn("skipping corrupt shoot document", "file", name, "error", err)
				continue
			}
			return nil, err
		}
		entries = append(entries, EntryOf(shoot))
	}

	sortEntries(entries)
	c.entries = entries
	c.refreshedAt = time.Now()
	if err := c.persistLocked(); err != nil {
		c.logger.Warn("failed to persist index snapshot", "error", err)
	}
	return append([]IndexEntry(nil), entries...), nil
}

// Upsert replaces the entry matching e.ID or inserts it, re-sorts, persists
// the snapshot, and extends the freshness window. This is the steady-state
// fast path after every successful Shoot mutation.
func (c *IndexCache) Upsert(e IndexEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	replaced := false
	for i := range c.entries {
		if c.entries[i].ID == e.ID {
			c.entries[i] = e
			replaced = true
			break
		}
	}
	if !replaced {
		c.entries = append([]IndexEntry{e}, c.entries...)
	}
	sortEntries(c.entries)
	c.refreshedAt = time.Now()
	if err := c.persistLocked(); err != nil {
		c.logger.Warn("failed to persist index snapshot", "error", err)
	}
}

// Remove drops the entry for id, if present.
func (c *IndexCache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	c.entries = kept
	c.refreshedAt = time.Now()
	if err := c.persistLocked(); err != nil {
		c.logger.Warn("failed to persist index snapshot", "error", err)
	}
}

func (c *IndexCache) persistLocked() error {
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create shoots dir: %w", err)
	}
	return atomicfile.WriteFile(c.indexPath(), data, 0o644)
}

func sortEntries(entries []IndexEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
}
