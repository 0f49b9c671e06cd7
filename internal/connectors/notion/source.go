package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/staticfold-labs/notemill-cli/internal/core/domain"
	"github.com/staticfold-labs/notemill-cli/internal/core/ports/driven"
	"github.com/staticfold-labs/notemill-cli/internal/logger"
)

// QueryPageSize is the page size used for query and block pagination.
const QueryPageSize = 100

// DataSourcePolicy selects the behaviour when a database exposes more
// than one data source.
type DataSourcePolicy string

const (
	// DataSourceFirst takes the first listed data source with a warning.
	DataSourceFirst DataSourcePolicy = "first"

	// DataSourceFail refuses to guess and fails discovery.
	DataSourceFail DataSourcePolicy = "fail"
)

// Config holds the settings for a Notion source.
type Config struct {
	// Token is the integration token.
	Token string

	// DatabaseID identifies the database holding the posts.
	DatabaseID string

	// DataSourcePolicy picks the behaviour for multi-source databases.
	// Empty means DataSourceFirst.
	DataSourcePolicy DataSourcePolicy

	// BaseURL overrides the API origin. Empty means the public API.
	BaseURL string
}

// Ensure Source implements the interface.
var _ driven.ContentSource = (*Source)(nil)

// Source reads published posts from one Notion database.
type Source struct {
	client     *Client
	databaseID string
	policy     DataSourcePolicy

	mu           sync.Mutex
	dataSourceID string
}

// New creates a Notion source from the given configuration.
func New(cfg Config) *Source {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	policy := cfg.DataSourcePolicy
	if policy == "" {
		policy = DataSourceFirst
	}
	return &Source{
		client:     NewClientWithBaseURL(cfg.Token, baseURL),
		databaseID: cfg.DatabaseID,
		policy:     policy,
	}
}

// Validate checks the token, database access and query permission with
// lightweight calls: whoami, database retrieval (which also resolves the
// data source) and a single-result query.
func (s *Source) Validate(ctx context.Context) error {
	if _, err := s.client.get(ctx, "/v1/users/me"); err != nil {
		if IsUnauthorized(err) {
			return fmt.Errorf("%w: token rejected: %w", domain.ErrSourceValidation, err)
		}
		return fmt.Errorf("%w: %w", domain.ErrSourceValidation, err)
	}

	if _, err := s.resolveDataSource(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSourceValidation, err)
	}

	if _, err := s.queryPage(ctx, queryRequest{PageSize: 1}); err != nil {
		return fmt.Errorf("%w: query refused: %w", domain.ErrSourceValidation, err)
	}

	return nil
}

// QueryPublished returns all posts whose Published checkbox is set,
// following pagination to exhaustion. Result entries that fail to parse
// are skipped with a warning. Block trees are not fetched here.
func (s *Source) QueryPublished(ctx context.Context) ([]domain.Post, error) {
	var posts []domain.Post
	cursor := ""

	for {
		req := queryRequest{
			Filter:   publishedFilter(),
			PageSize: QueryPageSize,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		page, err := s.queryPage(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("query published posts: %w", err)
		}

		for _, raw := range page.Results {
			post, err := parsePage(raw)
			if err != nil {
				logger.Warn("Skipping unparseable page: %v", err)
				continue
			}
			posts = append(posts, post)
		}

		if !page.HasMore || page.NextCursor == "" {
			return posts, nil
		}
		cursor = page.NextCursor
	}
}

// resolveDataSource discovers and caches the data source ID backing the
// configured database.
func (s *Source) resolveDataSource(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dataSourceID != "" {
		return s.dataSourceID, nil
	}

	body, err := s.client.get(ctx, "/v1/databases/"+s.databaseID)
	if err != nil {
		return "", fmt.Errorf("retrieve database: %w", err)
	}

	var database struct {
		DataSources []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"data_sources"`
	}
	if err := json.Unmarshal(body, &database); err != nil {
		return "", fmt.Errorf("decode database: %w", err)
	}

	switch {
	case len(database.DataSources) == 0:
		return "", ErrNoDataSource
	case len(database.DataSources) > 1 && s.policy == DataSourceFail:
		return "", fmt.Errorf("%w: found %d", ErrAmbiguousDataSource, len(database.DataSources))
	case len(database.DataSources) > 1:
		name := database.DataSources[0].Name
		if name == "" {
			name = database.DataSources[0].ID
		}
		logger.Warn("Database has %d data sources, using the first: %s", len(database.DataSources), name)
	}

	s.dataSourceID = database.DataSources[0].ID
	return s.dataSourceID, nil
}

// queryRequest is the body of POST /v1/data_sources/{id}/query.
type queryRequest struct {
	Filter      map[string]any `json:"filter,omitempty"`
	PageSize    int            `json:"page_size,omitempty"`
	StartCursor string         `json:"start_cursor,omitempty"`
}

// queryResponse is one page of query results.
type queryResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor string            `json:"next_cursor"`
}

// queryPage runs one query request against the resolved data source.
func (s *Source) queryPage(ctx context.Context, req queryRequest) (*queryResponse, error) {
	dataSourceID, err := s.resolveDataSource(ctx)
	if err != nil {
		return nil, err
	}

	body, err := s.client.post(ctx, "/v1/data_sources/"+dataSourceID+"/query", req)
	if err != nil {
		return nil, err
	}

	var page queryResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	return &page, nil
}

func publishedFilter() map[string]any {
	return map[string]any{
		"property": "Published",
		"checkbox": map[string]any{"equals": true},
	}
}

// pageObject is the subset of a page envelope the source reads.
type pageObject struct {
	ID             string                    `json:"id"`
	LastEditedTime string                    `json:"last_edited_time"`
	Cover          *coverObject              `json:"cover"`
	Properties     map[string]propertyObject `json:"properties"`
}

type coverObject struct {
	Type     string     `json:"type"`
	External *urlObject `json:"external"`
	File     *urlObject `json:"file"`
}

type urlObject struct {
	URL string `json:"url"`
}

// propertyObject is a union of the property shapes the source reads.
// The API sets exactly one of the value fields per property.
type propertyObject struct {
	Type        string         `json:"type"`
	Title       []richTextItem `json:"title"`
	RichText    []richTextItem `json:"rich_text"`
	Date        *dateObject    `json:"date"`
	MultiSelect []selectOption `json:"multi_select"`
}

type richTextItem struct {
	PlainText string `json:"plain_text"`
}

type dateObject struct {
	Start string `json:"start"`
}

type selectOption struct {
	Name string `json:"name"`
}

// parsePage converts one query result into a Post. Absent Title and Slug
// properties fall back to "Untitled" and the hyphen-less page ID; a
// missing or malformed last_edited_time is an error, because the
// watermark drives staleness decisions downstream.
func parsePage(raw json.RawMessage) (domain.Post, error) {
	var page pageObject
	if err := json.Unmarshal(raw, &page); err != nil {
		return domain.Post{}, fmt.Errorf("decode page: %w", err)
	}
	if page.ID == "" {
		return domain.Post{}, fmt.Errorf("page has no id")
	}

	lastEdited, err := time.Parse(time.RFC3339, page.LastEditedTime)
	if err != nil {
		return domain.Post{}, fmt.Errorf("page %s: bad last_edited_time %q: %w", page.ID, page.LastEditedTime, err)
	}

	post := domain.Post{
		ID:         page.ID,
		Title:      "Untitled",
		Slug:       strings.ReplaceAll(page.ID, "-", ""),
		LastEdited: lastEdited,
	}

	if prop, ok := page.Properties["Title"]; ok && len(prop.Title) > 0 {
		post.Title = prop.Title[0].PlainText
	}
	if prop, ok := page.Properties["Slug"]; ok && len(prop.RichText) > 0 && prop.RichText[0].PlainText != "" {
		post.Slug = prop.RichText[0].PlainText
	}
	if prop, ok := page.Properties["Date"]; ok && prop.Date != nil {
		post.Date = prop.Date.Start
	}
	if prop, ok := page.Properties["Tags"]; ok {
		for _, tag := range prop.MultiSelect {
			post.Tags = append(post.Tags, tag.Name)
		}
	}

	if page.Cover != nil {
		switch {
		case page.Cover.External != nil:
			post.CoverURL = page.Cover.External.URL
		case page.Cover.File != nil:
			post.CoverURL = page.Cover.File.URL
		}
	}

	return post, nil
}
