package dedup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatReportListsBucketsAndExamples(t *testing.T) {
	records := ParseLines([]string{
		"Source: A | Section: Yahoo-EURUSD=X | Title: Fed hikes rates | Summary: Fed raises rates by 25bp",
		"Source: B | Section: Finnhub-general | Title: Fed hikes rates | Summary: Federal Reserve raises rates 25bp",
		"Source: C | Section: FMP-forex | Title: Oil slides on demand concerns out of Asia",
	})
	res, err := Analyze(records, testConfig())
	require.NoError(t, err)

	out := FormatReport(res, 10)
	require.Contains(t, out, "Total news items: 3")
	require.Contains(t, out, "Per Source Stats")
	require.Contains(t, out, "Per Origin Stats")
	require.Contains(t, out, "Finnhub  <->  Yahoo Finance") // overlap pair is order-normalized
	require.Contains(t, out, "[DUPLICATE]")
	require.NotContains(t, out, "WARNING")
}

func TestFormatReportTruncationDiagnostic(t *testing.T) {
	records := ParseLines([]string{
		"Source: A | Section: Finnhub-general | Title: one headline",
		"Source: B | Section: Finnhub-general | Title: two headline",
		"Source: C | Section: Finnhub-general | Title: three headline",
	})
	cfg := testConfig()
	cfg.MaxPairComparisons = 1
	res, err := Analyze(records, cfg)
	require.NoError(t, err)
	require.True(t, res.Truncated)

	out := FormatReport(res, 5)
	require.Contains(t, out, "scan truncated")
}

func TestFormatReportNoHits(t *testing.T) {
	res, err := Analyze(ParseLines([]string{
		"Source: A | Section: Finnhub-general | Title: totally unique headline about copper",
	}), testConfig())
	require.NoError(t, err)

	out := FormatReport(res, 5)
	require.Contains(t, out, "No similar pairs found above threshold.")
}

func TestFormatReportDoesNotMutateResult(t *testing.T) {
	records := ParseLines([]string{
		"Source: A | Section: Finnhub-general | Title: Fed hikes rates by 25 basis points",
		"Source: B | Section: Yahoo-GC=F | Title: Fed hikes rates by 25 basis points",
	})
	res, err := Analyze(records, testConfig())
	require.NoError(t, err)

	before := len(res.Hits)
	firstHit := res.Hits[0]
	_ = FormatReport(res, 1)
	require.Equal(t, before, len(res.Hits))
	require.Equal(t, firstHit, res.Hits[0])

	// Same input renders identically.
	require.Equal(t, strings.TrimSpace(FormatReport(res, 1)), strings.TrimSpace(FormatReport(res, 1)))
}
