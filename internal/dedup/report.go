package dedup

import (
	"fmt"
	"sort"
	"strings"
)

const overlapTopN = 20

// FormatReport renders the analyzer output for operators: buckets ranked by
// duplicate rate, the origin overlap matrix and the top maxExamples scoring
// pairs side by side for manual audit. Pure presentation, no mutation.
func FormatReport(res *Result, maxExamples int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total news items: %d\n", len(res.Records))
	fmt.Fprintf(&b, "Pairs compared: %d\n", res.PairsCompared)
	if res.Truncated {
		b.WriteString("WARNING: pair cap reached, scan truncated; statistics are partial\n")
	}

	writeBuckets(&b, "Per Source Stats", res.BySource)
	writeBuckets(&b, "Per Section Stats", res.BySection)
	writeBuckets(&b, "Per Origin Stats", res.ByOrigin)
	writeOverlap(&b, res.OriginOverlap)
	writeExamples(&b, res, maxExamples)

	return b.String()
}

func writeBuckets(b *strings.Builder, title string, stats map[string]BucketStats) {
	fmt.Fprintf(b, "\n=== %s ===\n", title)
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	// Rank by duplicate rate descending; name breaks ties so output is stable.
	sort.Slice(names, func(i, j int) bool {
		a, z := stats[names[i]], stats[names[j]]
		if a.DuplicateRate != z.DuplicateRate {
			return a.DuplicateRate > z.DuplicateRate
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		s := stats[name]
		fmt.Fprintf(b, "- %-25s | total: %4d | dup: %3d (%.1f%%) | similar+dup: %3d (%.1f%%)\n",
			name, s.Total, s.Duplicates, s.DuplicateRate*100,
			s.Duplicates+s.Similar, s.DuplicateOrSimilarRate*100)
	}
}

func writeOverlap(b *strings.Builder, overlap map[OriginPair]int) {
	fmt.Fprintf(b, "\n=== Origin Overlap (top %d pairs by count) ===\n", overlapTopN)
	pairs := make([]OriginPair, 0, len(overlap))
	for p := range overlap {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if overlap[pairs[i]] != overlap[pairs[j]] {
			return overlap[pairs[i]] > overlap[pairs[j]]
		}
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	if len(pairs) > overlapTopN {
		pairs = pairs[:overlapTopN]
	}
	for _, p := range pairs {
		fmt.Fprintf(b, "- %s  <->  %s : %d similar/dup items\n", p.A, p.B, overlap[p])
	}
}

func writeExamples(b *strings.Builder, res *Result, maxExamples int) {
	if len(res.Hits) == 0 {
		b.WriteString("\nNo similar pairs found above threshold.\n")
		return
	}
	fmt.Fprintf(b, "\n=== Example Duplicate / Similar Pairs (top %d) ===\n", maxExamples)

	hits := make([]Hit, len(res.Hits))
	copy(hits, res.Hits)
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > maxExamples {
		hits = hits[:maxExamples]
	}
	for _, h := range hits {
		a := res.Records[h.I]
		z := res.Records[h.J]
		b.WriteString("\n------------------------\n")
		fmt.Fprintf(b, "[%s] score=%.3f\n", strings.ToUpper(string(h.Kind)), h.Score)
		fmt.Fprintf(b, "A: (%s | %s) Title: %s\n", a.Source, a.Section, a.Title)
		fmt.Fprintf(b, "B: (%s | %s) Title: %s\n", z.Source, z.Section, z.Title)
	}
}
