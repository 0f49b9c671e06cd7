package hugo

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	tweetIDPattern = regexp.MustCompile(`/status/(\d+)`)

	youtubePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#]+)`),
		regexp.MustCompile(`youtube\.com/embed/([^&\n?#]+)`),
	}

	// Page links end in either a compact 32-hex identifier or a
	// hyphenated UUID, optionally followed by a query string.
	pageIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`),
		regexp.MustCompile(`(?i)([0-9a-f]{32})(?:\?.*)?$`),
	}

	fragmentIDPattern = regexp.MustCompile(`(?i)^(?:[0-9a-f-]{36}|[0-9a-f]{32})$`)
)

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// inlineMarkup converts rich text items to inline HTML. HTML rather
// than Markdown markers, so the output stays valid when it ends up
// nested inside HTML the block converters emit.
func (r *Renderer) inlineMarkup(items []any) string {
	var out strings.Builder
	for _, item := range items {
		rt, ok := item.(map[string]any)
		if !ok {
			continue
		}

		text, _ := rt["plain_text"].(string)
		annotations, _ := rt["annotations"].(map[string]any)

		if flag(annotations, "code") {
			text = "<code>" + escapeHTML(text) + "</code>"
		} else {
			if flag(annotations, "bold") {
				text = "<strong>" + text + "</strong>"
			}
			if flag(annotations, "italic") {
				text = "<em>" + text + "</em>"
			}
			if flag(annotations, "strikethrough") {
				text = "<del>" + text + "</del>"
			}
			if flag(annotations, "underline") {
				text = "<u>" + text + "</u>"
			}
		}

		if colour, _ := annotations["color"].(string); colour != "" && colour != "default" {
			text = fmt.Sprintf("<span style=\"color: %s\">%s</span>", colour, text)
		}

		if href, _ := rt["href"].(string); href != "" {
			text = r.anchor(r.rewriteLink(href), text)
		}

		out.WriteString(text)
	}
	return out.String()
}

// anchor wraps text in a link, sending external targets to a new tab.
func (r *Renderer) anchor(href, text string) string {
	external := strings.HasPrefix(href, "http://") ||
		strings.HasPrefix(href, "https://") ||
		strings.HasPrefix(href, "//")
	if external {
		return fmt.Sprintf("<a href=%q target=\"_blank\" rel=\"noopener noreferrer\">%s</a>", href, text)
	}
	return fmt.Sprintf("<a href=%q>%s</a>", href, text)
}

// plainText concatenates the plain text of rich text items.
func plainText(items []any) string {
	var out strings.Builder
	for _, item := range items {
		if rt, ok := item.(map[string]any); ok {
			if text, ok := rt["plain_text"].(string); ok {
				out.WriteString(text)
			}
		}
	}
	return out.String()
}

// rewriteLink turns links that target a published post into local
// /posts/<slug>/ permalinks, keeping any fragment so anchor jumps
// still land. Fragments carrying a block identifier are normalised to
// the compact lowercase form the heading anchors use. Links to pages
// outside the published set are returned unchanged.
func (r *Renderer) rewriteLink(href string) string {
	base, fragment, _ := strings.Cut(href, "#")

	// Pure same-page anchors only need fragment normalisation.
	if base == "" && fragment != "" {
		return "#" + normaliseFragment(fragment)
	}

	for _, pattern := range pageIDPatterns {
		m := pattern.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		slug, ok := r.slugFor(strings.ToLower(m[1]))
		if !ok {
			break
		}
		local := "/posts/" + slug + "/"
		if fragment != "" {
			local += "#" + normaliseFragment(fragment)
		}
		return local
	}
	return href
}

func normaliseFragment(fragment string) string {
	if fragmentIDPattern.MatchString(fragment) {
		return strings.ToLower(strings.ReplaceAll(fragment, "-", ""))
	}
	return fragment
}

// extractYouTubeID pulls the video identifier out of a watch, short or
// embed URL. Empty when the URL matches none of the known shapes.
func extractYouTubeID(url string) string {
	for _, pattern := range youtubePatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

func flag(annotations map[string]any, key string) bool {
	v, _ := annotations[key].(bool)
	return v
}
