package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staticfold-labs/notemill-cli/internal/core/domain"
	"github.com/staticfold-labs/notemill-cli/internal/core/ports/driving"
)

// mockSource implements driven.ContentSource with canned posts.
type mockSource struct {
	posts     []domain.Post
	queryErr  error
	trees     map[string][]domain.Block
	treeErr   map[string]error
	treeCalls []string
}

func (m *mockSource) Validate(_ context.Context) error { return nil }

func (m *mockSource) QueryPublished(_ context.Context) ([]domain.Post, error) {
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.posts, nil
}

func (m *mockSource) FetchBlockTree(_ context.Context, rootID string) ([]domain.Block, error) {
	m.treeCalls = append(m.treeCalls, rootID)
	if err, ok := m.treeErr[rootID]; ok {
		return nil, err
	}
	return m.trees[rootID], nil
}

// mockCache implements driven.CacheStore in memory.
type mockCache struct {
	posts        map[string]time.Time
	corrupt      map[string]bool
	recorded     []string
	persisted    bool
	touched      bool
	persistErr   error
	shouldCalls  int
	recordCalls  int
	persistCalls int
}

func newMockCache() *mockCache {
	return &mockCache{
		posts:   make(map[string]time.Time),
		corrupt: make(map[string]bool),
	}
}

func (m *mockCache) ShouldUpdate(id string, lastEdited time.Time) (bool, error) {
	m.shouldCalls++
	if m.corrupt[id] {
		return false, fmt.Errorf("%w: post %s", domain.ErrCorruptWatermark, id)
	}
	cached, ok := m.posts[id]
	if !ok {
		return true, nil
	}
	return lastEdited.After(cached), nil
}

func (m *mockCache) RecordPost(id string, lastEdited time.Time) {
	m.recordCalls++
	m.posts[id] = lastEdited
	m.recorded = append(m.recorded, id)
}

func (m *mockCache) LookupMedia(_, _ string) (string, bool) { return "", false }
func (m *mockCache) RecordMedia(_, _, _ string)             {}
func (m *mockCache) TouchSyncTime()                         { m.touched = true }
func (m *mockCache) LastSync() *time.Time                   { return nil }
func (m *mockCache) Load()                                  {}

func (m *mockCache) Persist() error {
	m.persistCalls++
	if m.persistErr != nil {
		return m.persistErr
	}
	m.persisted = true
	return nil
}

// mockRenderer implements driven.Renderer, recording calls.
type mockRenderer struct {
	primed    []domain.Post
	rendered  []string
	renderErr map[string]error
}

func newMockRenderer() *mockRenderer {
	return &mockRenderer{renderErr: make(map[string]error)}
}

func (m *mockRenderer) Prime(posts []domain.Post) { m.primed = posts }

func (m *mockRenderer) RenderPost(_ context.Context, post *domain.Post) error {
	if err, ok := m.renderErr[post.ID]; ok {
		return err
	}
	m.rendered = append(m.rendered, post.ID)
	return nil
}

func (m *mockRenderer) CleanAll() error { return nil }

func testPost(id string, edited time.Time) domain.Post {
	return domain.Post{
		ID:         id,
		Title:      "Post " + id,
		Slug:       "post-" + id,
		LastEdited: edited,
	}
}

func TestSyncOrchestrator_Sync_ConvertsAllNewPosts(t *testing.T) {
	edited := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &mockSource{
		posts: []domain.Post{testPost("a", edited), testPost("b", edited)},
		trees: map[string][]domain.Block{
			"a": {{ID: "blk-1", Type: "paragraph"}},
			"b": {{ID: "blk-2", Type: "paragraph"}},
		},
	}
	cache := newMockCache()
	renderer := newMockRenderer()

	report, err := NewSyncOrchestrator(source, cache, renderer).Sync(context.Background(), driving.SyncOptions{})

	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Converted)
	assert.Empty(t, report.Failures)
	assert.Equal(t, []string{"a", "b"}, renderer.rendered)
	assert.Equal(t, []string{"a", "b"}, cache.recorded)
	assert.True(t, cache.touched)
	assert.True(t, cache.persisted)
}

func TestSyncOrchestrator_Sync_SkipsFreshPosts(t *testing.T) {
	edited := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &mockSource{
		posts: []domain.Post{testPost("a", edited), testPost("b", edited)},
		trees: map[string][]domain.Block{"b": nil},
	}
	cache := newMockCache()
	cache.posts["a"] = edited // already converted at this watermark
	renderer := newMockRenderer()

	report, err := NewSyncOrchestrator(source, cache, renderer).Sync(context.Background(), driving.SyncOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.Converted)
	assert.Equal(t, []string{"b"}, renderer.rendered)
	assert.NotContains(t, source.treeCalls, "a", "fresh posts must not hit the network")
}

func TestSyncOrchestrator_Sync_ForceReconvertsFreshPosts(t *testing.T) {
	edited := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &mockSource{
		posts: []domain.Post{testPost("a", edited)},
		trees: map[string][]domain.Block{"a": nil},
	}
	cache := newMockCache()
	cache.posts["a"] = edited
	renderer := newMockRenderer()

	report, err := NewSyncOrchestrator(source, cache, renderer).Sync(context.Background(), driving.SyncOptions{Force: true})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Converted)
	assert.Zero(t, report.Skipped)
	assert.Zero(t, cache.shouldCalls, "force must bypass the freshness check")
}

func TestSyncOrchestrator_Sync_FailedPostNotRecorded(t *testing.T) {
	edited := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &mockSource{
		posts: []domain.Post{testPost("a", edited), testPost("b", edited)},
		trees: map[string][]domain.Block{"a": nil, "b": nil},
	}
	cache := newMockCache()
	renderer := newMockRenderer()
	renderer.renderErr["a"] = errors.New("disk full")

	report, err := NewSyncOrchestrator(source, cache, renderer).Sync(context.Background(), driving.SyncOptions{})

	require.NoError(t, err, "a per-post failure must not abort the pass")
	assert.Equal(t, 1, report.Converted)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "a", report.Failures[0].PostID)
	assert.NotContains(t, cache.recorded, "a", "failed posts stay out of the cache so the next run retries them")
	assert.Contains(t, cache.recorded, "b")
	assert.True(t, cache.persisted, "the cache still persists the successes")
}

func TestSyncOrchestrator_Sync_TreeFailureIsPerPost(t *testing.T) {
	edited := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &mockSource{
		posts:   []domain.Post{testPost("a", edited), testPost("b", edited)},
		trees:   map[string][]domain.Block{"b": nil},
		treeErr: map[string]error{"a": errors.New("connection reset")},
	}
	cache := newMockCache()
	renderer := newMockRenderer()

	report, err := NewSyncOrchestrator(source, cache, renderer).Sync(context.Background(), driving.SyncOptions{})

	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "a", report.Failures[0].PostID)
	assert.Equal(t, []string{"b"}, renderer.rendered)
}

func TestSyncOrchestrator_Sync_CorruptWatermarkAborts(t *testing.T) {
	edited := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &mockSource{posts: []domain.Post{testPost("a", edited)}}
	cache := newMockCache()
	cache.corrupt["a"] = true
	renderer := newMockRenderer()

	report, err := NewSyncOrchestrator(source, cache, renderer).Sync(context.Background(), driving.SyncOptions{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorruptWatermark))
	assert.Nil(t, report)
	assert.Zero(t, cache.persistCalls, "nothing persists when the pass aborts")
}

func TestSyncOrchestrator_Sync_DryRunTouchesNothing(t *testing.T) {
	edited := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &mockSource{posts: []domain.Post{testPost("a", edited)}}
	cache := newMockCache()
	renderer := newMockRenderer()

	report, err := NewSyncOrchestrator(source, cache, renderer).Sync(context.Background(), driving.SyncOptions{DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Converted)
	assert.Empty(t, source.treeCalls, "dry run must not fetch block trees")
	assert.Empty(t, renderer.rendered)
	assert.Zero(t, cache.recordCalls)
	assert.Zero(t, cache.persistCalls)
	assert.False(t, cache.touched)
}

func TestSyncOrchestrator_Sync_QueryFailureAborts(t *testing.T) {
	source := &mockSource{queryErr: errors.New("401 unauthorized")}
	cache := newMockCache()

	report, err := NewSyncOrchestrator(source, cache, newMockRenderer()).Sync(context.Background(), driving.SyncOptions{})

	require.Error(t, err)
	assert.Nil(t, report)
	assert.Zero(t, cache.persistCalls)
}

func TestSyncOrchestrator_Sync_PrimesRendererWithAllPosts(t *testing.T) {
	edited := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &mockSource{
		posts: []domain.Post{testPost("a", edited), testPost("b", edited)},
		trees: map[string][]domain.Block{"a": nil, "b": nil},
	}
	cache := newMockCache()
	cache.posts["a"] = edited // skipped, but still primed for link rewriting
	renderer := newMockRenderer()

	_, err := NewSyncOrchestrator(source, cache, renderer).Sync(context.Background(), driving.SyncOptions{})

	require.NoError(t, err)
	assert.Len(t, renderer.primed, 2)
}

func TestSyncOrchestrator_Status_IdleByDefault(t *testing.T) {
	orch := NewSyncOrchestrator(&mockSource{}, newMockCache(), newMockRenderer())

	status := orch.Status(context.Background())

	require.NotNil(t, status)
	assert.False(t, status.Running)
	assert.Zero(t, status.Total)
}

func TestSyncOrchestrator_Sync_PersistFailureSurfaces(t *testing.T) {
	edited := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	source := &mockSource{
		posts: []domain.Post{testPost("a", edited)},
		trees: map[string][]domain.Block{"a": nil},
	}
	cache := newMockCache()
	cache.persistErr = errors.New("read-only filesystem")
	renderer := newMockRenderer()

	report, err := NewSyncOrchestrator(source, cache, renderer).Sync(context.Background(), driving.SyncOptions{})

	require.Error(t, err)
	require.NotNil(t, report, "the report survives so the caller can still tally")
	assert.Equal(t, 1, report.Converted)
}
