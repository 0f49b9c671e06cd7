package media

import (
	"context"
	"crypto/md5" //nolint:gosec // filename derivation, not security
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/staticfold-labs/notemill-cli/internal/core/domain"
	"github.com/staticfold-labs/notemill-cli/internal/core/ports/driven"
	"github.com/staticfold-labs/notemill-cli/internal/logger"
)

const (
	// DefaultMaxWidth is the image downscale bound when none is configured.
	DefaultMaxWidth = 1920

	// DownloadTimeout is the per-request timeout for asset downloads.
	DownloadTimeout = 30 * time.Second

	// MaxRetries is the maximum number of retries for transient errors.
	MaxRetries = 2

	// RetryBaseDelay is the initial delay between download retries.
	RetryBaseDelay = 500 * time.Millisecond

	// fallbackExt is used when no extension is recoverable from the URL.
	fallbackExt = ".jpg"
)

// kindSubdirs maps media kinds to their subdirectory under the static
// root. Kinds outside this map are passed through unlocalised.
var kindSubdirs = map[domain.MediaKind]string{
	domain.MediaImage: "images",
	domain.MediaVideo: "videos",
	domain.MediaAudio: "audio",
}

// Ensure Fetcher implements the interface.
var _ driven.MediaFetcher = (*Fetcher)(nil)

// FetcherOptions tune a Fetcher. The zero value uses defaults.
type FetcherOptions struct {
	// MaxWidth bounds image width after optimisation. Zero means
	// DefaultMaxWidth; negative disables downscaling.
	MaxWidth int

	// HTTPClient overrides the download client.
	HTTPClient *http.Client

	// MaxRetries overrides the retry budget. Negative disables retries.
	MaxRetries int

	// BaseDelay overrides the initial retry delay.
	BaseDelay time.Duration
}

// Fetcher downloads media assets into the static directory and keeps
// the cache store's media records up to date.
type Fetcher struct {
	staticDir  string
	cache      driven.CacheStore
	client     *http.Client
	maxWidth   int
	maxRetries int
	baseDelay  time.Duration
}

// NewFetcher creates a fetcher writing below staticDir.
func NewFetcher(staticDir string, cache driven.CacheStore, opts FetcherOptions) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DownloadTimeout}
	}
	maxWidth := opts.MaxWidth
	if maxWidth == 0 {
		maxWidth = DefaultMaxWidth
	}
	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = MaxRetries
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = RetryBaseDelay
	}
	return &Fetcher{
		staticDir:  staticDir,
		cache:      cache,
		client:     client,
		maxWidth:   maxWidth,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
}

// Acquire localises one asset and returns its site-relative path. The
// result degrades to the original reference on failure; it never
// carries an error for the caller to branch on beyond reporting.
func (f *Fetcher) Acquire(ctx context.Context, reference string, kind domain.MediaKind, watermark string) domain.MediaResult {
	// 1. Cache lookup, trusted only while the file is still on disk.
	if cached, ok := f.cache.LookupMedia(reference, watermark); ok {
		if fileExists(f.abs(cached)) {
			logger.Debug("Media cache hit: %s -> %s", reference, cached)
			return domain.MediaResult{Path: cached}
		}
		// The record survived but the file is gone: re-download onto
		// the same target so links in already-rendered posts stay valid.
		logger.Debug("Media cache entry has no file, re-fetching: %s", cached)
		return f.fetch(ctx, reference, kind, cached, watermark)
	}

	// 2. Unknown kinds pass through unlocalised.
	subdir, ok := kindSubdirs[kind]
	if !ok {
		return domain.MediaResult{Path: reference}
	}

	// 3. Stable target, computed before any side effect.
	relPath := "/" + subdir + "/" + stableFilename(reference)

	// 4. An existing file short-circuits the network; refresh the record
	// so a lost cache file rebuilds itself.
	if fileExists(f.abs(relPath)) {
		f.cache.RecordMedia(reference, relPath, watermark)
		logger.Debug("Media file already present: %s", relPath)
		return domain.MediaResult{Path: relPath}
	}

	return f.fetch(ctx, reference, kind, relPath, watermark)
}

// fetch performs steps 5 to 7: download, optimise, record.
func (f *Fetcher) fetch(ctx context.Context, reference string, kind domain.MediaKind, relPath, watermark string) domain.MediaResult {
	dest := f.abs(relPath)

	if err := f.download(ctx, reference, dest); err != nil {
		logger.Warn("Media download failed, keeping remote reference %s: %v", reference, err)
		return domain.MediaResult{Path: reference, Degraded: true, Reason: err}
	}

	if kind == domain.MediaImage {
		if err := OptimiseImage(dest, f.maxWidth); err != nil {
			logger.Warn("Image optimisation failed for %s: %v", relPath, err)
		}
	}

	f.cache.RecordMedia(reference, relPath, watermark)
	logger.Info("Downloaded %s: %s", kind, path.Base(relPath))
	return domain.MediaResult{Path: relPath}
}

// download streams the asset to dest, retrying transient failures.
// The write is atomic: a temp file in the target directory, renamed
// into place only once the body is fully copied.
func (f *Fetcher) download(ctx context.Context, reference, dest string) error {
	for attempt := 0; ; attempt++ {
		err := f.fetchOnce(ctx, reference, dest)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isTransient(err) || attempt >= f.maxRetries {
			return err
		}
		if waitErr := sleepContext(ctx, f.baseDelay<<attempt); waitErr != nil {
			return waitErr
		}
	}
}

func (f *Fetcher) fetchOnce(ctx context.Context, reference, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reference, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{code: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("stream body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

// abs resolves a site-relative path below the static root.
func (f *Fetcher) abs(relPath string) string {
	return filepath.Join(f.staticDir, strings.TrimPrefix(relPath, "/"))
}

// stableFilename derives a reproducible filename for a reference.
// Hosted references use the last embedded UUID segment, the file
// identifier, so a re-uploaded asset gets a fresh name while the same
// asset always maps to the same one. External references hash the URL.
func stableFilename(reference string) string {
	ext := referenceExt(reference)

	if segments := domain.HostedSegments(reference); len(segments) > 0 {
		return segments[len(segments)-1] + ext
	}

	sum := md5.Sum([]byte(reference)) //nolint:gosec // filename derivation, not security
	return hex.EncodeToString(sum[:])[:8] + ext
}

// referenceExt recovers the extension from the URL path, falling back
// to .jpg when there is none.
func referenceExt(reference string) string {
	parsed, err := url.Parse(reference)
	if err != nil {
		return fallbackExt
	}
	unescaped, err := url.PathUnescape(parsed.Path)
	if err != nil {
		unescaped = parsed.Path
	}
	if ext := path.Ext(unescaped); ext != "" && ext != "." {
		return ext
	}
	return fallbackExt
}

// statusError marks a non-2xx download response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// isTransient reports whether a download error is worth retrying:
// rate limits, server errors and transport failures. Client errors
// such as 403 or 404 are permanent for a given signed URL.
func isTransient(err error) bool {
	var status *statusError
	if errors.As(err, &status) {
		return status.code == http.StatusTooManyRequests || status.code >= 500
	}
	return true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
