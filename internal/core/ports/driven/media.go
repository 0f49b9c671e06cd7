package driven

import (
	"context"

	"github.com/staticfold-labs/notemill-cli/internal/core/domain"
)

// MediaFetcher resolves remote media references to local, site-relative
// paths, deduplicating downloads through the cache store.
type MediaFetcher interface {
	// Acquire localises one media reference. The watermark, when
	// non-empty, is the source's last-edited marker for the enclosing
	// block and invalidates older cached copies.
	//
	// Acquire never fails for a single asset: unknown kinds pass the
	// reference through unchanged, and download failures degrade to the
	// original remote reference. Inspect MediaResult.Degraded to report
	// fallbacks after the fact.
	Acquire(ctx context.Context, reference string, kind domain.MediaKind, watermark string) domain.MediaResult
}
