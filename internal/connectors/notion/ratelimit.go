package notion

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// ProactiveRate is the proactive throttle rate, matching the
	// documented average of three requests per second per integration.
	ProactiveRate = 3.0

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"
)

// RateLimiter paces requests against the Notion API.
//
// It combines a proactive token bucket with a reactive shared resume
// time: a 429 response pushes the resume time forward, and every request
// waits it out before dispatch.
type RateLimiter struct {
	mu       sync.Mutex
	resumeAt time.Time
	bucket   *rate.Limiter
}

// NewRateLimiter creates a new rate limiter with proactive throttling.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Limit(ProactiveRate), 1),
	}
}

// Wait blocks until it's safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	// 1. Check token bucket (proactive throttling)
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	// 2. Honour a server-imposed pause (reactive)
	r.mu.Lock()
	resumeAt := r.resumeAt
	r.mu.Unlock()

	if wait := time.Until(resumeAt); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil
}

// Backoff records a server-imposed pause. The resume time only ever
// moves forward, so overlapping 429s keep the longest pause.
func (r *RateLimiter) Backoff(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = time.Second
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	until := time.Now().Add(retryAfter)
	if until.After(r.resumeAt) {
		r.resumeAt = until
	}
}

// ResumeAt returns the current server-imposed resume time.
func (r *RateLimiter) ResumeAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resumeAt
}
