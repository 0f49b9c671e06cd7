// Package hugo renders populated posts into a Hugo content tree.
//
// The renderer consumes a post whose block tree has already been
// materialised and writes content/posts/<slug>.md: YAML front matter
// followed by the blocks converted to Markdown with embedded HTML where
// Markdown cannot express the structure (figures, toggles, column
// layouts). Media references inside blocks are resolved through the
// media pipeline during conversion, so a rendered post only ever links
// local copies unless acquisition degraded.
//
// # Link Rewriting
//
// Posts link each other through source URLs carrying page identifiers.
// Prime hands the renderer every published post before rendering starts
// so those links can be rewritten to local /posts/<slug>/ permalinks,
// with block-id fragments normalised to the compact anchors the heading
// converter emits. Links whose target is not a published post are left
// untouched.
//
// # Front Matter
//
// Title, date, lastmod, slug, tags and draft are always emitted. The
// math and mermaid flags are set when the block tree contains equations
// or Mermaid diagrams, so the site only loads the heavy renderers on
// pages that need them. A cover image is acquired and referenced when
// the post carries one.
package hugo
