package hugo

import (
	"context"
	"fmt"
	"strings"

	"github.com/staticfold-labs/notemill-cli/internal/core/domain"
	"github.com/staticfold-labs/notemill-cli/internal/logger"
)

// blocksToMarkdown converts an ordered block sequence, joining the
// non-empty results with blank lines.
func (r *Renderer) blocksToMarkdown(ctx context.Context, blocks []domain.Block) string {
	var parts []string
	for i := range blocks {
		if md := r.convertBlock(ctx, &blocks[i]); md != "" {
			parts = append(parts, md)
		}
	}
	return strings.Join(parts, "\n\n")
}

// convertBlock dispatches one block by type. Unknown types are skipped
// with a debug log; a skipped block never fails the post.
func (r *Renderer) convertBlock(ctx context.Context, b *domain.Block) string {
	switch b.Type {
	case "paragraph":
		return r.inlineMarkup(richTextOf(b))
	case "heading_1", "heading_2", "heading_3":
		return r.convertHeading(b)
	case "bulleted_list_item":
		return r.convertListItem(ctx, b, "- ")
	case "numbered_list_item":
		return r.convertListItem(ctx, b, "1. ")
	case "code":
		return r.convertCode(b)
	case "quote":
		return quoteLines(r.inlineMarkup(richTextOf(b)))
	case "divider":
		return "---"
	case "image":
		return r.convertImage(ctx, b)
	case "video":
		return r.convertVideo(ctx, b)
	case "audio":
		return r.convertAudio(ctx, b)
	case "equation":
		return convertEquation(b)
	case "toggle":
		return r.convertToggle(ctx, b)
	case "callout":
		return r.convertCallout(ctx, b)
	case "bookmark":
		return r.convertBookmark(b)
	case "embed":
		return convertEmbed(b)
	case "table":
		return r.convertTable(b)
	case "column_list":
		return r.convertColumnList(ctx, b)
	case "link_preview":
		return convertLinkPreview(b)
	case "pdf":
		return fileLink(b, "📄", "PDF Document")
	case "file":
		return fileLink(b, "📎", "")
	case "table_of_contents":
		return "{{< toc >}}"
	case "synced_block":
		return r.blocksToMarkdown(ctx, b.Children)
	case "column", "child_page", "unsupported":
		return ""
	default:
		logger.Debug("Skipping unsupported block type: %s", b.Type)
		return ""
	}
}

// convertHeading emits a Markdown heading with the block ID as a stable
// anchor, compact lowercase so intra-post links can target it.
func (r *Renderer) convertHeading(b *domain.Block) string {
	level := 1 + int(b.Type[len(b.Type)-1]-'1')
	text := r.inlineMarkup(richTextOf(b))

	anchor := strings.ToLower(strings.ReplaceAll(b.ID, "-", ""))
	if anchor == "" {
		return strings.Repeat("#", level) + " " + text
	}
	return fmt.Sprintf("%s %s {#%s}", strings.Repeat("#", level), text, anchor)
}

// convertListItem emits one list entry. Child blocks are indented four
// spaces so the Markdown engine keeps them inside the same item and
// ordered lists keep their numbering.
func (r *Renderer) convertListItem(ctx context.Context, b *domain.Block, prefix string) string {
	text := r.inlineMarkup(richTextOf(b))

	var nested []string
	for i := range b.Children {
		child := r.convertBlock(ctx, &b.Children[i])
		if child == "" {
			continue
		}
		lines := strings.Split(child, "\n")
		for j, line := range lines {
			lines[j] = "    " + line
		}
		nested = append(nested, strings.Join(lines, "\n"))
	}
	if len(nested) > 0 {
		text += "\n" + strings.Join(nested, "\n")
	}
	return prefix + text
}

func (r *Renderer) convertCode(b *domain.Block) string {
	data := blockData(b)
	code := plainText(listField(data, "rich_text"))

	lang := language(data)
	if lang == "" && looksLikeMermaid(code) {
		lang = "mermaid"
	}
	return "```" + lang + "\n" + code + "\n```"
}

func (r *Renderer) convertImage(ctx context.Context, b *domain.Block) string {
	data := blockData(b)
	url := mediaURL(data)
	if url == "" {
		return ""
	}

	result := r.media.Acquire(ctx, url, domain.MediaImage, watermarkOf(b))

	caption := listField(data, "caption")
	alt := escapeHTML(plainText(caption))
	figure := fmt.Sprintf("<img src=%q alt=%q>", result.Path, alt)
	if md := r.inlineMarkup(caption); md != "" {
		figure += "<figcaption>" + md + "</figcaption>"
	}
	return "<figure>" + figure + "</figure>"
}

func (r *Renderer) convertVideo(ctx context.Context, b *domain.Block) string {
	data := blockData(b)

	if stringField(data, "type") == "external" {
		url := stringField(data, "external", "url")
		switch {
		case url == "":
			return ""
		case strings.Contains(url, "youtube.com"), strings.Contains(url, "youtu.be"):
			if id := extractYouTubeID(url); id != "" {
				return fmt.Sprintf("{{< youtube %q >}}", id)
			}
			return videoTag(url)
		case strings.Contains(url, "vimeo.com"):
			parts := strings.Split(strings.TrimRight(url, "/"), "/")
			return fmt.Sprintf("{{< vimeo %q >}}", parts[len(parts)-1])
		default:
			return videoTag(url)
		}
	}

	url := stringField(data, "file", "url")
	if url == "" {
		return ""
	}
	result := r.media.Acquire(ctx, url, domain.MediaVideo, watermarkOf(b))
	return videoTag(result.Path)
}

func (r *Renderer) convertAudio(ctx context.Context, b *domain.Block) string {
	data := blockData(b)

	url := stringField(data, "external", "url")
	if url == "" {
		hosted := stringField(data, "file", "url")
		if hosted == "" {
			return ""
		}
		result := r.media.Acquire(ctx, hosted, domain.MediaAudio, watermarkOf(b))
		url = result.Path
	}
	return fmt.Sprintf("<audio controls preload=\"none\" style=\"width: 100%%;\">\n  <source src=%q>\n</audio>", url)
}

func convertEquation(b *domain.Block) string {
	expr := stringField(blockData(b), "expression")
	if expr == "" {
		return ""
	}
	return "$$\n" + expr + "\n$$"
}

func (r *Renderer) convertToggle(ctx context.Context, b *domain.Block) string {
	summary := r.inlineMarkup(richTextOf(b))
	body := r.blocksToMarkdown(ctx, b.Children)
	// Hugo has no native toggle; details/summary degrades gracefully.
	return "<details>\n<summary>" + summary + "</summary>\n\n" + body + "\n</details>"
}

func (r *Renderer) convertCallout(ctx context.Context, b *domain.Block) string {
	data := blockData(b)

	icon := "💡"
	if emoji := stringField(data, "icon", "emoji"); emoji != "" {
		icon = emoji
	}

	text := r.inlineMarkup(listField(data, "rich_text"))
	if body := r.blocksToMarkdown(ctx, b.Children); body != "" {
		text += "\n\n" + body
	}

	lines := []string{"> " + icon + " "}
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, "> "+line)
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) convertBookmark(b *domain.Block) string {
	data := blockData(b)
	url := stringField(data, "url")
	if url == "" {
		return ""
	}

	text := plainText(listField(data, "caption"))
	if text == "" {
		text = url
	}
	return fmt.Sprintf("- <a href=%q target=\"_blank\" rel=\"noopener noreferrer\">%s</a>", url, escapeHTML(text))
}

func convertEmbed(b *domain.Block) string {
	url := stringField(blockData(b), "url")
	if url == "" {
		return ""
	}

	switch {
	case strings.Contains(url, "twitter.com"), strings.Contains(url, "x.com"):
		if m := tweetIDPattern.FindStringSubmatch(url); m != nil {
			return fmt.Sprintf("{{< tweet user=\"user\" id=%q >}}", m[1])
		}
	case strings.Contains(url, "youtube.com"), strings.Contains(url, "youtu.be"):
		if id := extractYouTubeID(url); id != "" {
			return fmt.Sprintf("{{< youtube %q >}}", id)
		}
	case strings.Contains(url, "gist.github.com"):
		return fmt.Sprintf("{{< gist url=%q >}}", url)
	}
	return fmt.Sprintf("<iframe src=%q style=\"width:100%%; height:400px;\"></iframe>", url)
}

// convertTable emits a Markdown table from table_row children. Tables
// without a header row get an empty one, since Markdown requires it.
func (r *Renderer) convertTable(b *domain.Block) string {
	data := blockData(b)
	hasHeader, _ := data["has_column_header"].(bool)

	var rows [][]string
	for i := range b.Children {
		child := &b.Children[i]
		if child.Type != "table_row" {
			continue
		}
		cells, _ := blockData(child)["cells"].([]any)
		var row []string
		for _, cell := range cells {
			items, _ := cell.([]any)
			row = append(row, r.inlineMarkup(items))
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return ""
	}

	width := len(rows[0])
	var lines []string
	if hasHeader {
		lines = append(lines, tableRow(rows[0]), tableSeparator(width))
		rows = rows[1:]
	} else {
		lines = append(lines, tableRow(make([]string, width)), tableSeparator(width))
	}
	for _, row := range rows {
		lines = append(lines, tableRow(row))
	}
	return strings.Join(lines, "\n")
}

// convertColumnList flattens a column layout. Columns holding only
// images become a responsive grid of figures; anything else falls back
// to a flex row of converted column content.
func (r *Renderer) convertColumnList(ctx context.Context, b *domain.Block) string {
	var rendered []string
	images := 0

	for i := range b.Children {
		column := &b.Children[i]
		if column.Type != "column" {
			continue
		}

		if len(column.Children) > 0 && onlyImages(column.Children) {
			for j := range column.Children {
				if figure := r.columnFigure(ctx, &column.Children[j]); figure != "" {
					rendered = append(rendered, figure)
					images++
				}
			}
			continue
		}

		if content := r.blocksToMarkdown(ctx, column.Children); content != "" {
			rendered = append(rendered, "<div style=\"flex: 1;\">\n\n"+content+"\n\n</div>")
		}
	}
	if len(rendered) == 0 {
		return ""
	}

	body := strings.Join(rendered, "\n")
	if images == len(rendered) {
		return "<div style=\"display: grid; grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); gap: 20px; margin: 20px 0;\">\n" +
			body + "\n</div>"
	}
	return "<div style=\"display: flex; gap: 20px; flex-wrap: wrap;\">\n" + body + "\n</div>"
}

// columnFigure renders one image inside a column grid as bare HTML, so
// Markdown syntax is never nested inside the surrounding div.
func (r *Renderer) columnFigure(ctx context.Context, b *domain.Block) string {
	data := blockData(b)
	url := mediaURL(data)
	if url == "" {
		return ""
	}

	result := r.media.Acquire(ctx, url, domain.MediaImage, watermarkOf(b))
	caption := escapeHTML(plainText(listField(data, "caption")))

	figure := fmt.Sprintf("<figure style=\"margin:0;\">\n  <img src=%q alt=%q style=\"width:100%%;height:auto;\">", result.Path, caption)
	if caption != "" {
		figure += "\n  <figcaption>" + caption + "</figcaption>"
	}
	return figure + "\n</figure>"
}

func convertLinkPreview(b *domain.Block) string {
	url := stringField(blockData(b), "url")
	if url == "" {
		return ""
	}
	return fmt.Sprintf("- <a href=%q target=\"_blank\" rel=\"noopener noreferrer\">%s</a>", url, escapeHTML(url))
}

// fileLink emits a download link for file-like blocks. The asset stays
// remote; hosted file URLs expire, but localising arbitrary attachments
// is out of scope for the media pipeline's kind set.
func fileLink(b *domain.Block, marker, fallbackTitle string) string {
	data := blockData(b)
	url := mediaURL(data)
	if url == "" {
		return ""
	}

	title := plainText(listField(data, "caption"))
	if title == "" {
		title = fallbackTitle
	}
	if title == "" {
		parts := strings.Split(url, "/")
		title = parts[len(parts)-1]
	}
	return fmt.Sprintf("%s [%s](%s)", marker, title, url)
}

func videoTag(src string) string {
	return fmt.Sprintf("<video controls style=\"width: 100%%; max-width: 800px;\">\n  <source src=%q>\n</video>", src)
}

func quoteLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

func tableRow(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}

func tableSeparator(width int) string {
	cells := make([]string, width)
	for i := range cells {
		cells[i] = "---"
	}
	return tableRow(cells)
}

func onlyImages(blocks []domain.Block) bool {
	for i := range blocks {
		if blocks[i].Type != "image" {
			return false
		}
	}
	return true
}

// blockData returns the type-specific object of a block's payload.
func blockData(b *domain.Block) map[string]any {
	data, _ := b.Payload[b.Type].(map[string]any)
	return data
}

// richTextOf returns the block's own rich text items.
func richTextOf(b *domain.Block) []any {
	return listField(blockData(b), "rich_text")
}

// watermarkOf returns the block's last-edited marker, empty when the
// source omitted it.
func watermarkOf(b *domain.Block) string {
	marker, _ := b.Payload["last_edited_time"].(string)
	return marker
}

// mediaURL resolves the URL of a file-bearing object, which carries
// either an external or a source-hosted variant.
func mediaURL(data map[string]any) string {
	if url := stringField(data, "external", "url"); url != "" {
		return url
	}
	return stringField(data, "file", "url")
}

// language returns the declared code language, lowercased.
func language(data map[string]any) string {
	return strings.ToLower(stringField(data, "language"))
}

// stringField walks nested objects by key and returns the terminal
// string, empty when any step is missing or mistyped.
func stringField(data map[string]any, keys ...string) string {
	current := any(data)
	for _, key := range keys {
		obj, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current = obj[key]
	}
	s, _ := current.(string)
	return s
}

// listField returns a list-valued field, nil when absent.
func listField(data map[string]any, key string) []any {
	items, _ := data[key].([]any)
	return items
}
