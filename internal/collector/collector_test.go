package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/require"

	"github.com/macrodesk/macrobrief/internal/config"
	"github.com/macrodesk/macrobrief/internal/logger"
	"github.com/macrodesk/macrobrief/internal/market"
	"github.com/macrodesk/macrobrief/internal/ratelimit"
)

func TestMain(m *testing.M) {
	logger.InitWithWriter(io.Discard)
	os.Exit(m.Run())
}

func testCollector(cfg *config.Config) *Collector {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	universe := &market.Universe{Categories: []market.Category{
		{Name: "FX", Symbols: []market.Symbol{{Symbol: "EURUSD=X"}}},
	}}
	return New(cfg, ratelimit.NewBudget(nil, 0), universe, nil)
}

func testWindow(t *testing.T) Window {
	t.Helper()
	end := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	w, err := NewWindow(end.Add(-6*time.Hour), end)
	require.NoError(t, err)
	return w
}

func TestNewWindowRejectsInvertedRange(t *testing.T) {
	now := time.Now()
	_, err := NewWindow(now, now.Add(-time.Hour))
	require.Error(t, err)
}

func TestWindowContains(t *testing.T) {
	w := testWindow(t)
	require.True(t, w.Contains(w.Start))
	require.True(t, w.Contains(w.End))
	require.True(t, w.Contains(w.Start.Add(time.Hour)))
	require.False(t, w.Contains(w.Start.Add(-time.Second)))
	require.False(t, w.Contains(w.End.Add(time.Second)))
}

func TestFormatLine(t *testing.T) {
	line := FormatLine("Reuters", "Finnhub-general", "Fed hikes rates", "Fed raises rates by 25bp")
	require.Equal(t,
		"Source: Reuters | Section: Finnhub-general | Title: Fed hikes rates | Summary: Fed raises rates by 25bp",
		line)

	// Empty fields are omitted entirely.
	require.Equal(t, "Source: A | Section: FXStreet", FormatLine("A", "FXStreet", "", ""))

	// Pipes inside fields must not break the line format.
	require.Equal(t,
		"Source: A | Section: FXStreet | Title: EURUSD / levels to watch",
		FormatLine("A", "FXStreet", "EURUSD | levels to watch", ""))
}

func TestSeenSetDeduplicates(t *testing.T) {
	seen := newSeenSet()
	require.True(t, seen.Add("Reuters", "Fed hikes rates"))
	require.False(t, seen.Add("Reuters", "Fed hikes rates"))
	// Same title from another publisher is a different story key.
	require.True(t, seen.Add("Bloomberg", "Fed hikes rates"))
}

func TestParseTimestampVariants(t *testing.T) {
	for _, s := range []string{
		"2026-08-28T09:30:00Z",
		"2026-08-28T09:30:00+00:00",
		"2026-08-28T09:30:00",
		"2026-08-28 09:30:00",
		"20260828T093000",
	} {
		ts, err := parseTimestamp(s)
		require.NoError(t, err, "timestamp %q", s)
		require.Equal(t, time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC), ts)
	}

	_, err := parseTimestamp("not a time")
	require.Error(t, err)
}

func TestFlattenHTML(t *testing.T) {
	require.Equal(t, "plain text stays", FlattenHTML("plain text stays"))
	require.Equal(t, "Fed hikes rates again",
		FlattenHTML(`<p>Fed <b>hikes</b> rates</p><img src="x.png"/> again`))
	require.Equal(t, "A & B", FlattenHTML("A &amp; B"))
	require.Equal(t, "kept", FlattenHTML("<script>alert(1)</script>kept"))
}

func TestFeedLinesFiltersWindowAndDuplicates(t *testing.T) {
	c := testCollector(&config.Config{})
	w := testWindow(t)
	inWindow := w.Start.Add(time.Hour)
	outOfWindow := w.Start.Add(-24 * time.Hour)

	items := []*gofeed.Item{
		{Title: "ECB speech preview", Description: "<p>Lagarde speaks</p>", PublishedParsed: &inWindow},
		{Title: "ECB speech preview", Description: "dup of the above", PublishedParsed: &inWindow},
		{Title: "Old story", PublishedParsed: &outOfWindow},
		{Title: "No timestamp at all"},
	}
	feed := Feed{Name: "FXStreet News", URL: "https://example.com/rss", Section: "FXStreet"}

	lines := c.feedLines(items, feed, w, newSeenSet())
	require.Len(t, lines, 1)
	require.Equal(t,
		"Source: FXStreet News | Section: FXStreet | Title: ECB speech preview | Summary: Lagarde speaks",
		lines[0])
}

func TestFetchNewsAPI(t *testing.T) {
	w := testWindow(t)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/everything", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("apiKey"))
		fmt.Fprintf(rw, `{"articles":[
			{"title":"Fed hikes rates","description":"25bp move","publishedAt":%q,"source":{"name":"Reuters"}},
			{"title":"Stale story","description":"old","publishedAt":%q,"source":{"name":"Reuters"}}
		]}`, w.Start.Add(time.Hour).Format(time.RFC3339), w.Start.Add(-48*time.Hour).Format(time.RFC3339))
	}))
	defer srv.Close()

	c := testCollector(&config.Config{NewsAPIKey: "test-key"})
	c.newsAPIBaseURL = srv.URL

	lines, err := c.fetchNewsAPI(context.Background(), w, newSeenSet())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t,
		"Source: Reuters | Section: NewsAPI-macro-fx | Title: Fed hikes rates | Summary: 25bp move",
		lines[0])
}

func TestFetchTradingEconomics(t *testing.T) {
	w := testWindow(t)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/news", r.URL.Path)
		fmt.Fprintf(rw, `[{"title":"China cuts RRR","description":"PBOC easing","date":%q}]`,
			w.End.Format(time.RFC3339))
	}))
	defer srv.Close()

	c := testCollector(&config.Config{})
	c.tradingEconomicsBaseURL = srv.URL

	lines, err := c.fetchTradingEconomics(context.Background(), w, newSeenSet())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "Section: TradingEconomics-news")
	require.Contains(t, lines[0], "Title: China cuts RRR")
}

func TestFetchYahooNews(t *testing.T) {
	w := testWindow(t)
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/finance/search", r.URL.Path)
		fmt.Fprintf(rw, `{"news":[
			{"title":"Euro climbs","publisher":"Yahoo Finance","providerPublishTime":%d},
			{"title":"No timestamp","publisher":"Yahoo Finance"}
		]}`, w.Start.Add(time.Hour).Unix())
	}))
	defer srv.Close()

	c := testCollector(&config.Config{})
	c.yahooBaseURL = srv.URL

	lines, err := c.fetchYahooNews(context.Background(), w, newSeenSet())
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t,
		"Source: Yahoo Finance | Section: Yahoo-EURUSD=X | Title: Euro climbs",
		lines[0])
}

func TestLoadFeeds(t *testing.T) {
	path := writeTempFile(t, `
feeds:
  - name: Bloomberg Markets
    url: https://feeds.bloomberg.com/markets/news.rss
    section: Bloomberg-newsletter
`)
	feeds, err := LoadFeeds(path)
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	require.Equal(t, "Bloomberg-newsletter", feeds[0].Section)
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "feeds-*.yaml")
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}
