package fetch

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/dealsource/internal/render"
)

var blankLines = regexp.MustCompile(`\n{3,}`)

// Normalize converts a rendered page into title-prefixed plain text suitable
// for classification and extraction.
func Normalize(page *render.Page) string {
	text := page.Text
	title := page.Title

	if text == "" || title == "" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
		if err != nil {
			zap.L().Warn("fetch: html parse failed, using raw text", zap.Error(err))
			if text == "" {
				text = page.HTML
			}
		} else {
			if title == "" {
				title = strings.TrimSpace(doc.Find("title").First().Text())
			}
			if text == "" {
				doc.Find("script, style, noscript").Remove()
				text = doc.Find("body").Text()
			}
		}
	}

	if title == "" {
		title = "Untitled"
	}

	return "# " + title + "\n\n" + collapseWhitespace(text)
}

// collapseWhitespace trims each line and squeezes runs of blank lines.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	out := strings.Join(lines, "\n")
	out = blankLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// ExtractTitle derives the article title from normalized content. Rate-limit
// error pages get a fixed marker title so downstream stages can short-circuit.
func ExtractTitle(content string) string {
	if content == "" {
		return "Unknown Article"
	}

	if IsRateLimitMarker("", content) {
		return "Error 429: Rate Limited"
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return truncate(strings.TrimSpace(strings.TrimPrefix(line, "# ")), 100)
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return truncate(line, 100)
		}
	}

	return "Untitled Article"
}

// IsRateLimitMarker reports whether a title or content carries the literal
// throttle-page markers. This is a heuristic sentinel kept for pages served
// with a 200 status; structural 429/403 detection happens in the fetcher.
func IsRateLimitMarker(title, content string) bool {
	if strings.Contains(title, "Error 429") {
		return true
	}
	lower := strings.ToLower(content)
	return strings.Contains(lower, "error 429") || strings.Contains(lower, "too many requests")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
