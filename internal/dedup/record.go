// Package dedup detects near-duplicate news headlines across the collected
// feed. It parses the line format produced by the collector, scores every
// pair of records with a bounded sequence-similarity scan and aggregates
// duplication statistics by source, section and origin.
package dedup

import (
	"fmt"
	"regexp"
	"strings"
)

// Record is one parsed news line. Immutable after parsing.
type Record struct {
	Index   int    // stable position in the input, assigned at parse time
	Raw     string // original line, kept for display
	Source  string // publisher display name
	Section string // raw category tag from the collector, e.g. "Yahoo-EURUSD=X"
	Title   string
	Summary string
	Origin  string // logical upstream bucket inferred from Section

	// CompareText is the normalized title+summary blob used for scoring.
	// May be empty, in which case the record never matches anything.
	CompareText string
}

type originRule struct {
	prefix string
	origin string
}

// Section prefixes are tried in order; the first match wins. Every section
// that matches nothing falls into an Unknown bucket that keeps the raw tag
// visible for debugging misconfigured collectors.
var originRules = []originRule{
	{"Yahoo-", "Yahoo Finance"},
	{"Finnhub-", "Finnhub"},
	{"NewsAPI-", "NewsAPI"},
	{"AlphaVantage-", "Alpha Vantage"},
	{"FMP-", "Financial Modeling Prep"},
	{"NewsData-", "NewsData"},
	{"MarketAux-", "MarketAux"},
	{"Bloomberg-", "Bloomberg"},
	{"FXStreet", "FXStreet"},
	{"TradingEconomics-", "Trading Economics"},
}

// InferOrigin maps a section tag to its logical origin bucket. Total: every
// input maps to some origin.
func InferOrigin(section string) string {
	for _, r := range originRules {
		if strings.HasPrefix(section, r.prefix) {
			return r.origin
		}
	}
	return fmt.Sprintf("Unknown (%s)", section)
}

var fieldSeparator = regexp.MustCompile(`\s*\|\s*`)

// ParseLine parses one "key: value | key: value" line into a Record.
// Keys are case-insensitive; unrecognized segments are ignored. A line with
// no recognized fields still yields a usable record with sentinel values,
// so malformed input is never fatal.
func ParseLine(line string, index int) Record {
	fields := map[string]string{}
	for _, part := range fieldSeparator.Split(line, -1) {
		key, value, ok := strings.Cut(part, ": ")
		if !ok {
			continue
		}
		fields[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	source := fields["source"]
	if source == "" {
		source = "Unknown"
	}
	section := fields["section"]
	if section == "" {
		section = "Unknown"
	}
	title := fields["title"]
	summary := fields["summary"]
	if summary == "" {
		summary = fields["description"]
	}

	compare := Normalize(strings.TrimSpace(title + ". " + summary))
	if compare == "" {
		compare = Normalize(title)
	}

	return Record{
		Index:       index,
		Raw:         line,
		Source:      source,
		Section:     section,
		Title:       title,
		Summary:     summary,
		Origin:      InferOrigin(section),
		CompareText: compare,
	}
}

// ParseLines parses a line-delimited feed, skipping blank lines. Indices are
// assigned in input order and stay stable for the rest of the run.
func ParseLines(lines []string) []Record {
	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		records = append(records, ParseLine(line, len(records)))
	}
	return records
}
