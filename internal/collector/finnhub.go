package collector

import (
	"context"
	"fmt"
	"time"
)

// fetchFinnhub pulls the general and forex market-news categories through
// the official Finnhub SDK.
func (c *Collector) fetchFinnhub(ctx context.Context, w Window, seen *seenSet) ([]string, error) {
	var lines []string

	for _, category := range []string{"general", "forex"} {
		if err := c.budget.Use("finnhub"); err != nil {
			return lines, err
		}

		news, _, err := c.finnhub.MarketNews(ctx).Category(category).Execute()
		if err != nil {
			return lines, fmt.Errorf("finnhub %s fetch failed: %w", category, err)
		}

		for _, n := range news {
			if n.Datetime == nil {
				continue
			}
			published := time.Unix(*n.Datetime, 0).UTC()
			if !w.Contains(published) {
				continue
			}

			headline, summary, source := "", "", "Finnhub"
			if n.Headline != nil {
				headline = *n.Headline
			}
			if n.Summary != nil {
				summary = *n.Summary
			}
			if n.Source != nil && *n.Source != "" {
				source = *n.Source
			}
			if !seen.Add(source, headline) {
				continue
			}
			lines = append(lines, FormatLine(source, "Finnhub-"+category, headline, summary))
		}
	}

	return lines, nil
}
