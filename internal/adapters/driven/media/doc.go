// Package media localises remote media assets into the static directory.
//
// The fetcher implements [driven.MediaFetcher]. One asset is acquired in
// seven steps: cache lookup (watermark-aware, with a file-existence
// check), unknown-kind passthrough, stable filename derivation, on-disk
// short-circuit with cache backfill, streamed download, image
// optimisation, and cache record.
//
// Acquisition never fails outright. Any failure degrades the result to
// the original remote reference, so one broken asset cannot sink the
// post that embeds it.
//
// # Filenames
//
// Target filenames are derived from the reference alone, before any file
// is written, so the same asset lands on the same path across runs even
// after the cache file is lost:
//
//   - hosted references use the last embedded UUID segment (the file
//     identifier) plus the URL path's extension
//   - external references use an eight-character digest of the URL
//   - a missing extension falls back to .jpg
//
// Assets are stored under kind-specific subdirectories (images, videos,
// audio) and returned as site-root-relative paths ("/images/<name>").
//
// # Optimisation
//
// Downloaded images are downscaled to a configurable maximum width with
// a Lanczos filter and re-encoded per format: JPEG at quality 85, PNG
// losslessly with transparency intact, WebP at quality 85. GIFs and
// animated WebP files are never touched, and unknown formats are left
// as downloaded. Optimisation failures are logged and swallowed.
package media
