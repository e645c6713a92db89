// Package collector gathers macro/rates/FX headlines from the configured
// providers into one line-delimited feed. Every line has the form
//
//	Source: <publisher> | Section: <provider tag> | Title: ... | Summary: ...
//
// which is what the duplicate analyzer parses. All providers filter
// strictly on the requested UTC window, so scheduler changes automatically
// adjust the news range. A failing or unconfigured provider is logged and
// skipped, never fatal.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"

	"github.com/macrodesk/macrobrief/internal/config"
	"github.com/macrodesk/macrobrief/internal/logger"
	"github.com/macrodesk/macrobrief/internal/market"
	"github.com/macrodesk/macrobrief/internal/metrics"
	"github.com/macrodesk/macrobrief/internal/ratelimit"
)

// Window is the UTC publication range for one collection run.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow normalizes both ends to UTC.
func NewWindow(start, end time.Time) (Window, error) {
	start, end = start.UTC(), end.UTC()
	if start.After(end) {
		return Window{}, fmt.Errorf("window start %s is after end %s", start, end)
	}
	return Window{Start: start, End: end}, nil
}

func (w Window) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(w.Start) && !t.After(w.End)
}

// Collector fans out to all configured news providers.
type Collector struct {
	cfg        *config.Config
	budget     *ratelimit.Budget
	universe   *market.Universe
	feeds      []Feed
	httpClient *http.Client
	finnhub    *finnhub.DefaultApiService

	// Overridable endpoints for tests.
	yahooBaseURL            string
	newsAPIBaseURL          string
	alphaVantageBaseURL     string
	fmpBaseURL              string
	newsDataBaseURL         string
	marketAuxBaseURL        string
	tradingEconomicsBaseURL string
}

func New(cfg *config.Config, budget *ratelimit.Budget, universe *market.Universe, feeds []Feed) *Collector {
	c := &Collector{
		cfg:        cfg,
		budget:     budget,
		universe:   universe,
		feeds:      feeds,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},

		yahooBaseURL:            "https://query1.finance.yahoo.com",
		newsAPIBaseURL:          "https://newsapi.org",
		alphaVantageBaseURL:     "https://www.alphavantage.co",
		fmpBaseURL:              "https://financialmodelingprep.com",
		newsDataBaseURL:         "https://newsdata.io",
		marketAuxBaseURL:        "https://api.marketaux.com",
		tradingEconomicsBaseURL: "https://api.tradingeconomics.com",
	}
	if cfg.FinnhubAPIKey != "" {
		fhCfg := finnhub.NewConfiguration()
		fhCfg.AddDefaultHeader("X-Finnhub-Token", cfg.FinnhubAPIKey)
		c.finnhub = finnhub.NewAPIClient(fhCfg).DefaultApi
	}
	return c
}

// Collect runs every enabled provider and returns the merged feed lines.
func (c *Collector) Collect(ctx context.Context, w Window) []string {
	seen := newSeenSet()
	var lines []string

	providers := []struct {
		name    string
		enabled bool
		fetch   func(context.Context, Window, *seenSet) ([]string, error)
	}{
		{"yahoo", true, c.fetchYahooNews},
		{"finnhub", c.finnhub != nil, c.fetchFinnhub},
		{"newsapi", c.cfg.NewsAPIKey != "", c.fetchNewsAPI},
		{"alphavantage", c.cfg.AlphaVantageAPIKey != "", c.fetchAlphaVantage},
		{"fmp", c.cfg.FMPAPIKey != "", c.fetchFMP},
		{"newsdata", c.cfg.NewsDataAPIKey != "", c.fetchNewsData},
		{"marketaux", c.cfg.MarketAuxAPIKey != "", c.fetchMarketAux},
		{"tradingeconomics", true, c.fetchTradingEconomics},
		{"rss", len(c.feeds) > 0, c.fetchRSS},
	}

	for _, p := range providers {
		if !p.enabled {
			logger.Debug("provider disabled, skipping", "provider", p.name)
			continue
		}
		got, err := p.fetch(ctx, w, seen)
		if err != nil {
			logger.Warn("provider fetch failed", "provider", p.name, "error", err)
			metrics.Global.IncrementProviderErrors()
			continue
		}
		logger.Info("provider fetch done", "provider", p.name, "lines", len(got))
		lines = append(lines, got...)
	}

	logger.Info("news collection finished",
		"lines", len(lines), "window_start", w.Start, "window_end", w.End)
	metrics.Global.AddLinesCollected(len(lines))
	return lines
}

// seenSet deduplicates on (source, title) across providers, matching stories
// a provider returns twice across categories.
type seenSet struct {
	keys map[[2]string]struct{}
}

func newSeenSet() *seenSet {
	return &seenSet{keys: map[[2]string]struct{}{}}
}

// Add reports true the first time a (source, title) pair is seen.
func (s *seenSet) Add(source, title string) bool {
	key := [2]string{source, title}
	if _, dup := s.keys[key]; dup {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

// FormatLine builds one feed line. Pipes inside fields are softened so the
// line stays parseable by the analyzer.
func FormatLine(source, section, title, summary string) string {
	parts := []string{
		"Source: " + sanitizeField(source),
		"Section: " + sanitizeField(section),
	}
	if title != "" {
		parts = append(parts, "Title: "+sanitizeField(title))
	}
	if summary != "" {
		parts = append(parts, "Summary: "+sanitizeField(summary))
	}
	return strings.Join(parts, " | ")
}

func sanitizeField(s string) string {
	s = strings.ReplaceAll(s, "|", "/")
	return strings.Join(strings.Fields(s), " ")
}

// getJSON fetches a URL and decodes the JSON body into out.
func (c *Collector) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; macrobrief/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseTimestamp handles the ISO-8601 variants the providers emit.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"20060102T150405",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
