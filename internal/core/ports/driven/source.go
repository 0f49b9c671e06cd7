package driven

import (
	"context"

	"github.com/staticfold-labs/notemill-cli/internal/core/domain"
)

// ContentSource fetches published documents from the remote source.
// The source is treated as a black box exposing "query documents with a
// filter" and "list children of a container", both cursor-paginated.
type ContentSource interface {
	// Validate checks the source is reachable with the configured
	// credentials. Makes a lightweight test call.
	// Returns nil if ready to sync, an error describing the problem otherwise.
	Validate(ctx context.Context) error

	// QueryPublished returns all published posts, in source order,
	// following pagination to exhaustion. Posts carry metadata only;
	// block trees are fetched separately for the posts that need work.
	QueryPublished(ctx context.Context) ([]domain.Post, error)

	// FetchBlockTree materialises the full block hierarchy under the
	// given container, including unbounded-depth children, preserving
	// source order at every level.
	//
	// Retrieval is failure-tolerant: a failed subtree leaves that node
	// with empty children, and a failed page ends that container's
	// collection early with a partial result. The returned error is
	// non-nil only when the context is cancelled.
	FetchBlockTree(ctx context.Context, rootID string) ([]domain.Block, error)
}
