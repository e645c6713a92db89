package dedup

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		DuplicateThreshold: 0.80,
		SimilarThreshold:   0.60,
		MaxPairComparisons: 10_000,
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := Config{DuplicateThreshold: 0.5, SimilarThreshold: 0.6, MaxPairComparisons: 10}
	require.Error(t, bad.Validate())

	bad = Config{DuplicateThreshold: 0.8, SimilarThreshold: 0.6, MaxPairComparisons: 0}
	require.Error(t, bad.Validate())

	_, err := Analyze(nil, Config{DuplicateThreshold: 0.6, SimilarThreshold: 0.6, MaxPairComparisons: 1})
	require.Error(t, err, "equal thresholds must be rejected")
}

func TestAnalyzeEmptyInput(t *testing.T) {
	res, err := Analyze(nil, testConfig())
	require.NoError(t, err)
	require.Empty(t, res.Hits)
	require.Empty(t, res.BySource)
	require.Empty(t, res.OriginOverlap)
	require.Zero(t, res.PairsCompared)
	require.False(t, res.Truncated)
}

func TestAnalyzeSyndicatedPair(t *testing.T) {
	records := ParseLines([]string{
		"Source: A | Section: Yahoo-EURUSD=X | Title: Fed hikes rates | Summary: Fed raises rates by 25bp",
		"Source: B | Section: Finnhub-general | Title: Fed hikes rates | Summary: Federal Reserve raises rates 25bp",
	})
	res, err := Analyze(records, testConfig())
	require.NoError(t, err)

	require.Len(t, res.Hits, 1)
	hit := res.Hits[0]
	require.Equal(t, HitDuplicate, hit.Kind)
	require.Greater(t, hit.Score, 0.80)

	// Both records classify as duplicate, each counted exactly once.
	require.Equal(t, 1, res.BySource["A"].Duplicates)
	require.Equal(t, 1, res.BySource["B"].Duplicates)
	require.Equal(t, 1.0, res.BySource["A"].DuplicateRate)

	require.Equal(t, 1, res.OriginOverlap[MakeOriginPair("Yahoo Finance", "Finnhub")])
	// Same entry regardless of argument order.
	require.Equal(t, 1, res.OriginOverlap[MakeOriginPair("Finnhub", "Yahoo Finance")])
}

func TestAnalyzeUnrelatedRecordsProduceNoHits(t *testing.T) {
	records := ParseLines([]string{
		"Source: A | Section: Yahoo-GC=F | Title: Gold rallies to record high on safe haven demand",
		"Source: B | Section: FMP-forex | Title: Japanese yen weakens past key intervention level",
	})
	res, err := Analyze(records, testConfig())
	require.NoError(t, err)
	require.Empty(t, res.Hits)
	require.Empty(t, res.OriginOverlap)
	require.Equal(t, 1, res.PairsCompared)
}

func TestAnalyzeExactDuplicateShortCircuit(t *testing.T) {
	records := ParseLines([]string{
		"Source: A | Section: Finnhub-general | Title: Oil jumps 3% on OPEC supply cut",
		"Source: B | Section: MarketAux-macro-fx | Title: Oil jumps 3% on OPEC supply cut",
	})
	res, err := Analyze(records, testConfig())
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	require.Equal(t, 1.0, res.Hits[0].Score)
	require.Equal(t, HitDuplicate, res.Hits[0].Kind)
}

func TestAnalyzeEmptyCompareTextNeverMatches(t *testing.T) {
	records := ParseLines([]string{
		"Source: A | Section: Finnhub-general",
		"Source: B | Section: Finnhub-general",
		"Source: C | Section: Finnhub-general | Title: Fed hikes rates",
	})
	res, err := Analyze(records, testConfig())
	require.NoError(t, err)
	require.Empty(t, res.Hits, "records with empty comparison text must classify unique")
	require.Equal(t, 3, res.BySource["A"].Total+res.BySource["B"].Total+res.BySource["C"].Total)
	require.Zero(t, res.BySection["Finnhub-general"].Duplicates)
}

func TestAnalyzePairCapTruncates(t *testing.T) {
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = fmt.Sprintf("Source: S%d | Section: Finnhub-general | Title: headline number %d", i, i)
	}
	cfg := testConfig()
	cfg.MaxPairComparisons = 1

	res, err := Analyze(ParseLines(lines), cfg)
	require.NoError(t, err)
	require.Equal(t, 1, res.PairsCompared, "exactly one pair must be scored")
	require.True(t, res.Truncated)
}

func TestAnalyzeNoTruncationWhenCapCoversAllPairs(t *testing.T) {
	records := ParseLines([]string{
		"Source: A | Section: Finnhub-general | Title: one",
		"Source: B | Section: Finnhub-general | Title: two",
	})
	cfg := testConfig()
	cfg.MaxPairComparisons = 1 // n=2 has exactly one pair

	res, err := Analyze(records, cfg)
	require.NoError(t, err)
	require.Equal(t, 1, res.PairsCompared)
	require.False(t, res.Truncated)
}

func TestAnalyzeBucketTotalsSumToRecordCount(t *testing.T) {
	records := ParseLines([]string{
		"Source: A | Section: Yahoo-EURUSD=X | Title: Fed hikes rates | Summary: Fed raises rates by 25bp",
		"Source: B | Section: Finnhub-general | Title: Fed hikes rates | Summary: Federal Reserve raises rates 25bp",
		"Source: A | Section: Finnhub-forex | Title: Yen slides as BOJ stands pat",
		"Source: C | Section: Mystery-feed | Title: Something uncategorised entirely",
	})
	res, err := Analyze(records, testConfig())
	require.NoError(t, err)

	for _, stats := range []map[string]BucketStats{res.BySource, res.BySection, res.ByOrigin} {
		sum := 0
		for _, s := range stats {
			sum += s.Total
			require.LessOrEqual(t, s.DuplicateRate, s.DuplicateOrSimilarRate)
		}
		require.Equal(t, len(records), sum)
	}
	// Unknown origins keep the section tag for diagnosis.
	require.Contains(t, res.ByOrigin, "Unknown (Mystery-feed)")
}

// Statistics derive from the final hit set, so a record matching several
// others is still counted once and the outcome cannot depend on hit order.
func TestAnalyzeRecordMatchingManyOthersCountedOnce(t *testing.T) {
	records := ParseLines([]string{
		"Source: A | Section: Finnhub-general | Title: Fed hikes rates by 25 basis points today",
		"Source: A | Section: Finnhub-general | Title: Fed hikes rates by 25 basis points today",
		"Source: A | Section: Finnhub-general | Title: Fed hikes rates by 25 basis points today",
	})
	res, err := Analyze(records, testConfig())
	require.NoError(t, err)

	require.Len(t, res.Hits, 3) // all pairs are exact duplicates
	require.Equal(t, 3, res.BySource["A"].Total)
	require.Equal(t, 3, res.BySource["A"].Duplicates, "each record counted once despite two hits each")
	require.Equal(t, 1.0, res.BySource["A"].DuplicateRate)
}

func TestFilterDuplicatesKeepsFirstOccurrence(t *testing.T) {
	records := ParseLines([]string{
		"Source: A | Section: Yahoo-EURUSD=X | Title: Fed hikes rates | Summary: Fed raises rates by 25bp",
		"Source: B | Section: Finnhub-general | Title: Fed hikes rates | Summary: Federal Reserve raises rates 25bp",
		"Source: C | Section: FMP-forex | Title: Completely different oil market story",
	})
	res, err := Analyze(records, testConfig())
	require.NoError(t, err)

	kept := FilterDuplicates(res)
	require.Len(t, kept, 2)
	require.Equal(t, 0, kept[0].Index)
	require.Equal(t, 2, kept[1].Index)
}
