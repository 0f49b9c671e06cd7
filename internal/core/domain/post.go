package domain

import "time"

// Post represents a published document queried from the remote source.
// It is the canonical representation handed to the renderer once its
// block tree has been materialised.
type Post struct {
	// ID is the source-assigned identifier (opaque, hyphenated UUID form).
	ID string

	// Title is the human-readable title.
	Title string

	// Slug is the URL slug for the generated page.
	// Defaults to the ID without hyphens when the source has none.
	Slug string

	// Date is the publication date property as supplied by the source.
	Date string

	// Tags are the post's tag names, in source order.
	Tags []string

	// CoverURL is the remote cover image reference, empty when absent.
	CoverURL string

	// LastEdited is the source-supplied modification watermark.
	// It is never computed locally and decides whether cached output
	// for this post is still fresh.
	LastEdited time.Time

	// Blocks is the ordered content tree, populated by tree retrieval.
	Blocks []Block
}

// Block is a node in a post's retrieved content tree. The payload is kept
// opaque so the retriever stays independent of individual block schemas;
// the renderer digs into Payload by Type.
type Block struct {
	// ID is the source-assigned block identifier.
	ID string

	// Type names the block variant (paragraph, heading_1, image, ...).
	Type string

	// HasChildren reports that the source declares nested blocks.
	HasChildren bool

	// Payload is the raw block object as returned by the source.
	Payload map[string]any

	// Children are the nested blocks in source order. Populated by the
	// tree retriever; empty when retrieval of this subtree failed.
	Children []Block
}

// MediaKind is the category of an embedded media reference.
// Kinds outside the known set are passed through unlocalised.
type MediaKind string

const (
	// MediaImage is a raster image reference.
	MediaImage MediaKind = "image"

	// MediaVideo is a video file reference.
	MediaVideo MediaKind = "video"

	// MediaAudio is an audio file reference.
	MediaAudio MediaKind = "audio"
)

// MediaResult is the outcome of acquiring one media asset.
// Acquisition never fails outright: a broken asset degrades to its
// original remote reference so one asset cannot sink a whole post.
type MediaResult struct {
	// Path is the site-root-relative path of the localised asset,
	// or the original remote reference when acquisition degraded.
	Path string

	// Degraded reports that the original reference was returned
	// instead of a local copy.
	Degraded bool

	// Reason is the failure behind a degraded result, nil otherwise.
	Reason error
}
