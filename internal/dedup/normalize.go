package dedup

import (
	"regexp"
	"strings"
)

var (
	urlPattern      = regexp.MustCompile(`https?://\S+`)
	nonAlnumPattern = regexp.MustCompile(`[^a-z0-9\s]`)
)

// Normalize lowercases text, strips URLs and punctuation and collapses
// whitespace. The result is only used as a comparison key; the original
// title/summary stay untouched on the record.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = urlPattern.ReplaceAllString(text, " ")
	text = nonAlnumPattern.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}
