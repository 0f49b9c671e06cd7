package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingConfig indicates required configuration is absent.
	// Fatal at startup, before any work begins.
	ErrMissingConfig = errors.New("missing configuration")

	// ErrCorruptWatermark indicates a cached timestamp string could not
	// be parsed. This is a data-corruption signal, not a normal cache
	// miss, and propagates instead of being treated as stale.
	ErrCorruptWatermark = errors.New("corrupt watermark")

	// ErrSourceValidation indicates the remote source rejected the
	// configured credentials or container.
	ErrSourceValidation = errors.New("source validation failed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
