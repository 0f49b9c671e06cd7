package cachefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/staticfold-labs/notemill-cli/internal/core/domain"
	"github.com/staticfold-labs/notemill-cli/internal/core/ports/driven"
	"github.com/staticfold-labs/notemill-cli/internal/logger"
)

// DefaultFilename is the snapshot filename inside the content directory.
const DefaultFilename = ".notemill-cache.json"

// Ensure Store implements the interface.
var _ driven.CacheStore = (*Store)(nil)

// Store is a JSON-snapshot implementation of driven.CacheStore.
type Store struct {
	mu       sync.RWMutex
	path     string
	lastSync *time.Time
	posts    map[string]string
	media    map[string]mediaRecord
}

// mediaRecord is one persisted media entry.
type mediaRecord struct {
	Path           string `json:"path"`
	LastEditedTime string `json:"last_edited_time,omitempty"`
}

// UnmarshalJSON tolerates records written by earlier releases, which were
// bare path strings rather than objects.
func (r *mediaRecord) UnmarshalJSON(data []byte) error {
	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		r.Path = legacy
		r.LastEditedTime = ""
		return nil
	}

	type plain mediaRecord
	var rec plain
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*r = mediaRecord(rec)
	return nil
}

// snapshot is the on-disk shape of the whole store.
type snapshot struct {
	LastSync *string                `json:"last_sync"`
	Posts    map[string]string      `json:"posts"`
	Media    map[string]mediaRecord `json:"media"`
}

// NewStore creates a store backed by the given snapshot path.
// The store starts empty; call Load to read persisted state.
func NewStore(path string) *Store {
	return &Store{
		path:  path,
		posts: make(map[string]string),
		media: make(map[string]mediaRecord),
	}
}

// Load reads the persisted snapshot. A missing file is a normal first
// run; an unreadable or corrupt one is logged and leaves the store
// empty. Load never aborts the process, so a damaged cache costs a full
// reconversion rather than a failed run.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSync = nil
	s.posts = make(map[string]string)
	s.media = make(map[string]mediaRecord)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Cache unreadable, starting empty: %v", err)
		}
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.Warn("Cache corrupt, starting empty: %v", err)
		return
	}

	if snap.LastSync != nil {
		ts, err := parseWatermark(*snap.LastSync)
		if err != nil {
			logger.Warn("Cache has malformed last_sync %q, ignoring", *snap.LastSync)
		} else {
			s.lastSync = &ts
		}
	}
	if snap.Posts != nil {
		s.posts = snap.Posts
	}
	if snap.Media != nil {
		s.media = snap.Media
	}
}

// ShouldUpdate reports whether a post needs reprocessing: true when no
// watermark is recorded, or when lastEdited is strictly newer than the
// recorded one.
func (s *Store) ShouldUpdate(id string, lastEdited time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.posts[id]
	if !ok {
		return true, nil
	}

	cached, err := parseWatermark(raw)
	if err != nil {
		return false, fmt.Errorf("%w: post %s: %q", domain.ErrCorruptWatermark, id, raw)
	}
	return lastEdited.After(cached), nil
}

// RecordPost unconditionally overwrites the watermark for a post.
func (s *Store) RecordPost(id string, lastEdited time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[id] = lastEdited.UTC().Format(time.RFC3339Nano)
}

// LookupMedia resolves a raw reference to its recorded local path.
// A non-empty watermark that disagrees with the recorded one makes the
// entry stale: the lookup misses even though a record exists.
func (s *Store) LookupMedia(reference, watermark string) (string, bool) {
	key := domain.NormaliseMediaKey(reference)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.media[key]
	if !ok {
		return "", false
	}
	if watermark != "" && rec.LastEditedTime != watermark {
		return "", false
	}
	return rec.Path, true
}

// RecordMedia unconditionally overwrites the record for a reference,
// keyed by its normalised form.
func (s *Store) RecordMedia(reference, path, watermark string) {
	key := domain.NormaliseMediaKey(reference)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.media[key] = mediaRecord{Path: path, LastEditedTime: watermark}
}

// TouchSyncTime sets the last-sync marker to the current time.
func (s *Store) TouchSyncTime() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	s.lastSync = &now
}

// LastSync returns the recorded last-sync time, nil before the first run.
func (s *Store) LastSync() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastSync == nil {
		return nil
	}
	t := *s.lastSync
	return &t
}

// Persist writes the whole snapshot atomically: marshalled to a temp
// file next to the target, then renamed over it.
func (s *Store) Persist() error {
	data, err := s.encode()
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.path
}

// encode marshals the snapshot under the read lock.
func (s *Store) encode() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		Posts: s.posts,
		Media: s.media,
	}
	if s.lastSync != nil {
		ts := s.lastSync.Format(time.RFC3339Nano)
		snap.LastSync = &ts
	}
	return json.MarshalIndent(snap, "", "  ")
}

// watermarkLayouts are the accepted timestamp shapes: RFC 3339 with or
// without fractional seconds, and the offset-less form older snapshots
// carried (taken as UTC).
var watermarkLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func parseWatermark(raw string) (time.Time, error) {
	for _, layout := range watermarkLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", raw)
}
