package dedup

import "fmt"

// HitKind is the classification tier of a scored pair.
type HitKind string

const (
	HitDuplicate HitKind = "duplicate" // near-identical content
	HitSimilar   HitKind = "similar"   // same topic, reworded
)

// Hit is one scored pair above the similar threshold. I is always the
// higher record index (pairs are scanned ascending i, then ascending j<i).
// Produced once, never mutated.
type Hit struct {
	I     int
	J     int
	Score float64
	Kind  HitKind
}

// Config is the tuning surface of the analyzer. Passed explicitly into
// Analyze so tests can run with tiny thresholds and caps.
type Config struct {
	// DuplicateThreshold marks a pair as duplicate at or above this score.
	// Must be strictly greater than SimilarThreshold.
	DuplicateThreshold float64
	// SimilarThreshold is the floor below which pairs are discarded.
	SimilarThreshold float64
	// MaxPairComparisons caps the O(n^2) scan. Hitting the cap truncates
	// the scan but still returns partial, valid results.
	MaxPairComparisons int
}

// DefaultConfig matches the production tuning.
func DefaultConfig() Config {
	return Config{
		DuplicateThreshold: 0.80,
		SimilarThreshold:   0.60,
		MaxPairComparisons: 300_000,
	}
}

func (c Config) Validate() error {
	if c.DuplicateThreshold <= c.SimilarThreshold {
		return fmt.Errorf("duplicate threshold %.2f must exceed similar threshold %.2f",
			c.DuplicateThreshold, c.SimilarThreshold)
	}
	if c.SimilarThreshold < 0 || c.DuplicateThreshold > 1 {
		return fmt.Errorf("thresholds must stay within [0,1]")
	}
	if c.MaxPairComparisons <= 0 {
		return fmt.Errorf("max pair comparisons must be positive, got %d", c.MaxPairComparisons)
	}
	return nil
}

// BucketStats aggregates classification counts for one source, section or
// origin bucket.
type BucketStats struct {
	Total                  int     `json:"total"`
	Duplicates             int     `json:"duplicate_count"`
	Similar                int     `json:"similar_count"`
	DuplicateRate          float64 `json:"duplicate_rate"`
	DuplicateOrSimilarRate float64 `json:"duplicate_or_similar_rate"`
}

// OriginPair is an unordered pair of origin buckets; A <= B always, so
// (x,y) and (y,x) address the same overlap entry.
type OriginPair struct {
	A string
	B string
}

// MakeOriginPair normalizes the order of an origin pair.
func MakeOriginPair(a, b string) OriginPair {
	if b < a {
		a, b = b, a
	}
	return OriginPair{A: a, B: b}
}

// Result is the full analyzer output for a single run.
type Result struct {
	Records       []Record
	Hits          []Hit
	BySource      map[string]BucketStats
	BySection     map[string]BucketStats
	ByOrigin      map[string]BucketStats
	OriginOverlap map[OriginPair]int
	PairsCompared int
	// Truncated reports that the pair cap stopped the scan early. The
	// statistics are then partial but still valid.
	Truncated bool
}

// Analyze runs the full pipeline over parsed records: bounded pairwise
// scoring, post-pass per-record classification, then one-pass aggregation.
// Statistics are derived from the final hit set, never incremented during
// the scan, so the result is identical regardless of hit iteration order
// and a record that matches many others is still counted exactly once.
func Analyze(records []Record, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dedup config: %w", err)
	}

	res := &Result{
		Records:       records,
		BySource:      map[string]BucketStats{},
		BySection:     map[string]BucketStats{},
		ByOrigin:      map[string]BucketStats{},
		OriginOverlap: map[OriginPair]int{},
	}
	n := len(records)

scan:
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			if res.PairsCompared >= cfg.MaxPairComparisons {
				res.Truncated = true
				break scan
			}
			res.PairsCompared++

			score := Similarity(records[i].CompareText, records[j].CompareText)
			if score < cfg.SimilarThreshold {
				continue
			}
			kind := HitSimilar
			if score >= cfg.DuplicateThreshold {
				kind = HitDuplicate
			}
			res.Hits = append(res.Hits, Hit{I: i, J: j, Score: score, Kind: kind})
		}
	}

	// Classification is per record: duplicate if any duplicate-tier hit
	// touches it, else similar if any similar-tier hit does, else unique.
	isDup := make([]bool, n)
	isSimilar := make([]bool, n)
	for _, h := range res.Hits {
		if h.Kind == HitDuplicate {
			isDup[h.I] = true
			isDup[h.J] = true
		} else {
			isSimilar[h.I] = true
			isSimilar[h.J] = true
		}
		res.OriginOverlap[MakeOriginPair(records[h.I].Origin, records[h.J].Origin)]++
	}

	bump := func(stats map[string]BucketStats, key string, dup, similar bool) {
		s := stats[key]
		s.Total++
		if dup {
			s.Duplicates++
		} else if similar {
			s.Similar++
		}
		stats[key] = s
	}
	for idx, r := range records {
		bump(res.BySource, r.Source, isDup[idx], isSimilar[idx])
		bump(res.BySection, r.Section, isDup[idx], isSimilar[idx])
		bump(res.ByOrigin, r.Origin, isDup[idx], isSimilar[idx])
	}
	finalizeRates(res.BySource)
	finalizeRates(res.BySection)
	finalizeRates(res.ByOrigin)

	return res, nil
}

func finalizeRates(stats map[string]BucketStats) {
	for key, s := range stats {
		if s.Total > 0 {
			s.DuplicateRate = float64(s.Duplicates) / float64(s.Total)
			s.DuplicateOrSimilarRate = float64(s.Duplicates+s.Similar) / float64(s.Total)
		}
		stats[key] = s
	}
}

// FilterDuplicates returns the records that survive deduplication: a record
// is dropped iff it has a duplicate-tier hit against a lower-indexed record,
// so the first occurrence of a syndicated story is the one that is kept.
// Similar-tier records stay in the feed.
func FilterDuplicates(res *Result) []Record {
	drop := make(map[int]bool, len(res.Hits))
	for _, h := range res.Hits {
		if h.Kind == HitDuplicate {
			// I is the later index by scan order.
			drop[h.I] = true
		}
	}
	kept := make([]Record, 0, len(res.Records))
	for _, r := range res.Records {
		if !drop[r.Index] {
			kept = append(kept, r)
		}
	}
	return kept
}
