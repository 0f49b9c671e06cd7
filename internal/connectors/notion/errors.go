package notion

import (
	"errors"
	"fmt"
	"time"
)

// Notion-specific errors.
var (
	// ErrNoDataSource indicates the database exposes no data sources.
	ErrNoDataSource = errors.New("notion: database has no data source")

	// ErrAmbiguousDataSource indicates the database exposes several data
	// sources and the policy forbids picking one silently.
	ErrAmbiguousDataSource = errors.New("notion: database has multiple data sources")
)

// RateLimitError represents an exhausted retry budget against 429 responses.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("notion: rate limited, retry after %s", e.RetryAfter)
}

// APIError represents a Notion API error response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("notion: API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("notion: API error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound checks if the error indicates a missing database, page or block.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404 || apiErr.Code == "object_not_found"
	}
	return false
}

// IsUnauthorized checks if the error indicates a rejected token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401
	}
	return false
}

// IsForbidden checks if the error indicates the integration lacks access.
func IsForbidden(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 403
	}
	return false
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}
