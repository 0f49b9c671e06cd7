package driven

import "time"

// CacheStore is the persistent record of what previous runs already
// produced: a last-modified watermark per post and a local path per media
// asset. It governs every skip/refresh decision.
//
// All mutations are in-memory until Persist is called. The orchestrator
// alone persists, at the end of a run, so there is exactly one writer of
// the snapshot. Implementations must serialise access internally; media
// acquisition may run from multiple goroutines.
type CacheStore interface {
	// ShouldUpdate reports whether a post needs reprocessing: true when
	// no watermark is recorded, or when lastEdited is strictly newer
	// than the recorded one. A recorded watermark that cannot be parsed
	// returns an error wrapping domain.ErrCorruptWatermark rather than
	// being treated as a miss.
	ShouldUpdate(id string, lastEdited time.Time) (bool, error)

	// RecordPost unconditionally overwrites the watermark for a post.
	RecordPost(id string, lastEdited time.Time)

	// LookupMedia resolves a raw media reference to its recorded local
	// path. The reference is normalised internally. When watermark is
	// non-empty and disagrees with the recorded one, the entry is stale
	// and the lookup misses even though a record exists.
	LookupMedia(reference, watermark string) (string, bool)

	// RecordMedia unconditionally overwrites the record for a reference,
	// keyed by its normalised form.
	RecordMedia(reference, path, watermark string)

	// TouchSyncTime sets the last-sync marker to the current time.
	TouchSyncTime()

	// LastSync returns the recorded last-sync time, nil when no run has
	// completed yet.
	LastSync() *time.Time

	// Load reads the persisted snapshot. Missing or corrupt state is not
	// an error: the store starts empty and the condition is logged.
	Load()

	// Persist writes the whole snapshot atomically.
	Persist() error
}
