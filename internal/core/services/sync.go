package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/staticfold-labs/notemill-cli/internal/core/domain"
	"github.com/staticfold-labs/notemill-cli/internal/core/ports/driven"
	"github.com/staticfold-labs/notemill-cli/internal/core/ports/driving"
	"github.com/staticfold-labs/notemill-cli/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator drives one mirroring pass: query published posts,
// skip the ones the cache proves fresh, fetch and render the rest, and
// persist the cache at the end. It is the only caller of Persist, so
// the snapshot has exactly one writer.
type SyncOrchestrator struct {
	source   driven.ContentSource
	cache    driven.CacheStore
	renderer driven.Renderer

	mu     sync.RWMutex
	status driving.SyncStatus
}

// NewSyncOrchestrator creates a new sync orchestrator.
func NewSyncOrchestrator(
	source driven.ContentSource,
	cache driven.CacheStore,
	renderer driven.Renderer,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		source:   source,
		cache:    cache,
		renderer: renderer,
	}
}

// Sync runs one full pass. Per-post failures are collected in the
// report rather than aborting the pass; the cache records only posts
// that converted fully, so the next pass retries the failures. A
// corrupt cache watermark aborts the pass, before anything is
// persisted, because it signals damaged state rather than a stale post.
func (o *SyncOrchestrator) Sync(ctx context.Context, opts driving.SyncOptions) (*driving.SyncReport, error) {
	posts, err := o.source.QueryPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("query published posts: %w", err)
	}
	logger.Info("Found %d published posts", len(posts))

	o.setStatus(driving.SyncStatus{Running: true, Total: len(posts)})
	defer o.setStatus(driving.SyncStatus{})

	// The renderer sees every post up front so links between posts can
	// be rewritten to local slugs regardless of conversion order.
	o.renderer.Prime(posts)

	report := &driving.SyncReport{Total: len(posts)}
	for i := range posts {
		post := &posts[i]
		o.updateStatus(func(s *driving.SyncStatus) { s.Current = post.Title })

		if !opts.Force {
			needed, err := o.cache.ShouldUpdate(post.ID, post.LastEdited)
			if err != nil {
				return nil, fmt.Errorf("check post %q: %w", post.ID, err)
			}
			if !needed {
				logger.Debug("Skipping unchanged post: %s", post.Title)
				report.Skipped++
				o.updateStatus(func(s *driving.SyncStatus) { s.Skipped++ })
				continue
			}
		}

		if opts.DryRun {
			logger.Info("Would convert: %s", post.Title)
			report.Converted++
			o.updateStatus(func(s *driving.SyncStatus) { s.Converted++ })
			continue
		}

		if err := o.convert(ctx, post); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Error("Failed to convert %s: %v", post.Title, err)
			report.Failures = append(report.Failures, driving.SyncFailure{
				PostID: post.ID,
				Title:  post.Title,
				Err:    err,
			})
			o.updateStatus(func(s *driving.SyncStatus) { s.Failed++ })
			continue
		}

		o.cache.RecordPost(post.ID, post.LastEdited)
		report.Converted++
		o.updateStatus(func(s *driving.SyncStatus) { s.Converted++ })
	}

	if !opts.DryRun {
		o.cache.TouchSyncTime()
		if err := o.cache.Persist(); err != nil {
			return report, fmt.Errorf("persist cache: %w", err)
		}
	}

	logger.Info("Converted %d/%d posts (%d skipped, %d failed)",
		report.Converted, report.Total, report.Skipped, len(report.Failures))
	for _, f := range report.Failures {
		logger.Error("Unconverted: %s (%s): %v", f.Title, f.PostID, f.Err)
	}
	return report, nil
}

// convert fetches the block tree for one post and renders it. The tree
// may be partial when the source degraded some subtrees; rendering
// proceeds with whatever was retrieved.
func (o *SyncOrchestrator) convert(ctx context.Context, post *domain.Post) error {
	blocks, err := o.source.FetchBlockTree(ctx, post.ID)
	if err != nil {
		return fmt.Errorf("fetch block tree: %w", err)
	}
	post.Blocks = blocks

	if err := o.renderer.RenderPost(ctx, post); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// Status returns a copy of the in-flight pass state.
func (o *SyncOrchestrator) Status(_ context.Context) *driving.SyncStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	status := o.status
	return &status
}

func (o *SyncOrchestrator) setStatus(status driving.SyncStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = status
}

func (o *SyncOrchestrator) updateStatus(apply func(*driving.SyncStatus)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	apply(&o.status)
}
