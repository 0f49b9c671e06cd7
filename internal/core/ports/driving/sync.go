package driving

import "context"

// SyncOrchestrator drives one mirroring pass over all published posts.
type SyncOrchestrator interface {
	// Sync runs a full pass: query, skip-or-convert each post, persist
	// the cache. The returned report is non-nil whenever the pass ran,
	// even if some posts failed.
	Sync(ctx context.Context, opts SyncOptions) (*SyncReport, error)

	// Status returns a snapshot of the in-flight pass, safe to call
	// concurrently from a progress display.
	Status(ctx context.Context) *SyncStatus
}

// SyncOptions tune a single pass.
type SyncOptions struct {
	// Force reconverts every post even when the cache says it is fresh.
	Force bool

	// DryRun reports what would be converted without fetching block
	// trees, writing files, or mutating the cache.
	DryRun bool
}

// SyncStatus represents the current state of a sync pass.
type SyncStatus struct {
	// Running indicates if a pass is currently in progress.
	Running bool

	// Total is the number of published posts found.
	Total int

	// Converted is the count of posts fully processed so far.
	Converted int

	// Skipped is the count of posts the cache proved fresh.
	Skipped int

	// Failed is the count of posts that could not be converted.
	Failed int

	// Current is the title of the post being processed.
	Current string
}

// SyncReport summarises a finished pass.
type SyncReport struct {
	// Total is the number of published posts found.
	Total int

	// Converted is the count of posts fully processed.
	Converted int

	// Skipped is the count of posts the cache proved fresh.
	Skipped int

	// Failures lists the posts that could not be converted. The cache
	// keeps no record for these, so the next pass retries them.
	Failures []SyncFailure
}

// SyncFailure identifies one post that failed to convert.
type SyncFailure struct {
	// PostID is the source-assigned identifier.
	PostID string

	// Title is the post title, for reporting.
	Title string

	// Err is the underlying failure.
	Err error
}
