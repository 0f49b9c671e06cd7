package driven

import (
	"context"

	"github.com/staticfold-labs/notemill-cli/internal/core/domain"
)

// Renderer turns a populated post into site-ready files.
// The block tree handed to RenderPost is owned by the retriever and must
// be treated as read-only.
type Renderer interface {
	// Prime gives the renderer the full set of posts before any
	// rendering starts, so links between posts can be rewritten to
	// local slugs.
	Prime(posts []domain.Post)

	// RenderPost writes the site files for one post. Media references
	// inside the block tree are resolved during rendering.
	RenderPost(ctx context.Context, post *domain.Post) error

	// CleanAll removes all previously generated post files.
	CleanAll() error
}
