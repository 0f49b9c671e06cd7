package hugo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/staticfold-labs/notemill-cli/internal/core/domain"
	"github.com/staticfold-labs/notemill-cli/internal/core/ports/driven"
	"github.com/staticfold-labs/notemill-cli/internal/logger"
)

// Ensure Renderer implements the interface.
var _ driven.Renderer = (*Renderer)(nil)

// Renderer writes posts as Markdown files under contentDir/posts.
type Renderer struct {
	postsDir string
	media    driven.MediaFetcher

	mu       sync.RWMutex
	idToSlug map[string]string
}

// New creates a renderer writing below contentDir.
func New(contentDir string, media driven.MediaFetcher) *Renderer {
	return &Renderer{
		postsDir: filepath.Join(contentDir, "posts"),
		media:    media,
		idToSlug: make(map[string]string),
	}
}

// Prime indexes every published post by ID, under both the hyphenated
// and compact forms, so links between posts resolve to local slugs no
// matter which form the source embeds.
func (r *Renderer) Prime(posts []domain.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.idToSlug = make(map[string]string, len(posts)*2)
	for _, post := range posts {
		if post.ID == "" || post.Slug == "" {
			continue
		}
		r.idToSlug[post.ID] = post.Slug
		r.idToSlug[strings.ReplaceAll(post.ID, "-", "")] = post.Slug
	}
}

// frontMatter is the YAML header of a generated post.
type frontMatter struct {
	Title   string       `yaml:"title"`
	Date    string       `yaml:"date"`
	Lastmod string       `yaml:"lastmod"`
	Slug    string       `yaml:"slug"`
	Tags    []string     `yaml:"tags"`
	Draft   bool         `yaml:"draft"`
	Math    bool         `yaml:"math"`
	Mermaid bool         `yaml:"mermaid,omitempty"`
	Cover   *coverMatter `yaml:"cover,omitempty"`
}

type coverMatter struct {
	Image string `yaml:"image"`
	Alt   string `yaml:"alt"`
}

// RenderPost converts one post and writes contentDir/posts/<slug>.md.
func (r *Renderer) RenderPost(ctx context.Context, post *domain.Post) error {
	content := r.blocksToMarkdown(ctx, post.Blocks)

	fm := frontMatter{
		Title:   post.Title,
		Date:    post.Date,
		Lastmod: post.LastEdited.Format("2006-01-02T15:04:05Z07:00"),
		Slug:    post.Slug,
		Tags:    post.Tags,
		Math:    hasMath(post.Blocks),
		Mermaid: hasMermaid(post.Blocks),
	}
	if fm.Date == "" {
		fm.Date = post.LastEdited.Format("2006-01-02")
	}
	if fm.Tags == nil {
		fm.Tags = []string{}
	}

	if post.CoverURL != "" {
		result := r.media.Acquire(ctx, post.CoverURL, domain.MediaImage, "")
		fm.Cover = &coverMatter{Image: result.Path, Alt: post.Title}
		if result.Degraded {
			logger.Warn("Cover for %s kept remote: %v", post.Title, result.Reason)
		}
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return fmt.Errorf("marshal front matter: %w", err)
	}

	var file strings.Builder
	file.WriteString("---\n")
	file.Write(header)
	file.WriteString("---\n\n")
	file.WriteString(content)
	file.WriteString("\n")

	if err := os.MkdirAll(r.postsDir, 0o755); err != nil {
		return fmt.Errorf("create posts dir: %w", err)
	}
	path := filepath.Join(r.postsDir, post.Slug+".md")
	if err := os.WriteFile(path, []byte(file.String()), 0o644); err != nil {
		return fmt.Errorf("write post: %w", err)
	}

	logger.Debug("Rendered %s -> %s", post.Title, path)
	return nil
}

// CleanAll removes every generated post file.
func (r *Renderer) CleanAll() error {
	if err := os.RemoveAll(r.postsDir); err != nil {
		return fmt.Errorf("clean posts dir: %w", err)
	}
	return os.MkdirAll(r.postsDir, 0o755)
}

// slugFor resolves a page identifier to a local slug, in either
// hyphenated or compact form.
func (r *Renderer) slugFor(pageID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if slug, ok := r.idToSlug[pageID]; ok {
		return slug, true
	}
	slug, ok := r.idToSlug[strings.ReplaceAll(pageID, "-", "")]
	return slug, ok
}

// hasMath reports whether the tree contains equation blocks or inline
// TeX delimiters, so the front matter can enable the math renderer.
func hasMath(blocks []domain.Block) bool {
	for i := range blocks {
		b := &blocks[i]
		if b.Type == "equation" {
			return true
		}
		switch b.Type {
		case "paragraph", "bulleted_list_item", "numbered_list_item":
			text := plainText(richTextOf(b))
			if strings.Contains(text, "$") || strings.Contains(text, `\(`) || strings.Contains(text, `\[`) {
				return true
			}
		}
		if hasMath(b.Children) {
			return true
		}
	}
	return false
}

// hasMermaid reports whether the tree contains a Mermaid diagram,
// declared as such or recognisable from the code text.
func hasMermaid(blocks []domain.Block) bool {
	for i := range blocks {
		b := &blocks[i]
		if b.Type == "code" {
			data := blockData(b)
			if language(data) == "mermaid" || looksLikeMermaid(plainText(listField(data, "rich_text"))) {
				return true
			}
		}
		if hasMermaid(b.Children) {
			return true
		}
	}
	return false
}

func looksLikeMermaid(code string) bool {
	return strings.Contains(code, "graph TD") ||
		strings.Contains(code, "flowchart") ||
		strings.Contains(code, "sequenceDiagram")
}
