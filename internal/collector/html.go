package collector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FlattenHTML reduces an HTML fragment (RSS descriptions frequently carry
// markup, images and tracking links) to plain text with collapsed
// whitespace. On parse failure the input is returned as-is.
func FlattenHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}
