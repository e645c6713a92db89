package collector

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

type yahooSearchResponse struct {
	News []struct {
		Title               string `json:"title"`
		Publisher           string `json:"publisher"`
		Summary             string `json:"summary"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

// fetchYahooNews pulls per-ticker headlines for the whole universe. The
// section tag carries the symbol (Yahoo-EURUSD=X) so origin inference can
// collapse all of them into one Yahoo Finance bucket.
func (c *Collector) fetchYahooNews(ctx context.Context, w Window, seen *seenSet) ([]string, error) {
	var lines []string
	successes, failures := 0, 0

	for _, symbol := range c.universe.AllSymbols() {
		if err := c.budget.Use("yahoo"); err != nil {
			return lines, err
		}

		endpoint := fmt.Sprintf("%s/v1/finance/search?q=%s&newsCount=10",
			c.yahooBaseURL, url.QueryEscape(symbol))

		var parsed yahooSearchResponse
		if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
			failures++
			continue
		}
		successes++

		for _, n := range parsed.News {
			if n.ProviderPublishTime == 0 {
				continue
			}
			published := time.Unix(n.ProviderPublishTime, 0).UTC()
			if !w.Contains(published) {
				continue
			}
			source := n.Publisher
			if source == "" {
				source = "Yahoo Finance"
			}
			if !seen.Add(source, n.Title) {
				continue
			}
			lines = append(lines, FormatLine(source, "Yahoo-"+symbol, n.Title, n.Summary))
		}
	}

	if failures > 0 && successes == 0 {
		return nil, fmt.Errorf("all %d yahoo symbol lookups failed", failures)
	}
	return lines, nil
}
