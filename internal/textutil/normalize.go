// Package textutil normalizes article and summary text before persistence
// and delivery.
package textutil

import (
	"regexp"
	"strings"
)

var (
	lineBreakExpr   = regexp.MustCompile(`(\\n|\r\n|\n)`)
	multiBreakExpr  = regexp.MustCompile(`\n{2,}`)
	tripleBreakExpr = regexp.MustCompile(`\n{3,}`)
	attributionExpr = regexp.MustCompile(`(?is)\n{3,}.*?источни\S*\s+изображен\S*:.*?\n{3,}`)
	brTagExpr       = regexp.MustCompile(`</?br\s*/?>`)
)

// NormalizeParagraphs folds literal backslash-n sequences, CRLF and runs of
// newlines so that every paragraph break is exactly one blank line. The
// result is idempotent under re-application.
func NormalizeParagraphs(text string) string {
	text = lineBreakExpr.ReplaceAllString(text, "\n")
	text = multiBreakExpr.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// StripAttribution removes image-source credit blocks: runs of three or more
// newlines around a case-insensitive «источник изображения» marker. The
// surrounding paragraphs end up separated by a single blank line.
func StripAttribution(text string) string {
	text = attributionExpr.ReplaceAllString(text, "\n\n")
	text = tripleBreakExpr.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// CleanCaption strips <br> tag variants and truncates to limit runes, the
// channel's documented caption cap. A non-positive limit disables truncation.
func CleanCaption(text string, limit int) string {
	text = brTagExpr.ReplaceAllString(text, "")
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes)
}
