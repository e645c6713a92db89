package collector

import (
	"context"
	"fmt"
)

type tradingEconomicsItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// fetchTradingEconomics uses the public guest feed, no API key required.
func (c *Collector) fetchTradingEconomics(ctx context.Context, w Window, seen *seenSet) ([]string, error) {
	if err := c.budget.Use("tradingeconomics"); err != nil {
		return nil, err
	}

	var parsed []tradingEconomicsItem
	if err := c.getJSON(ctx, fmt.Sprintf("%s/news?c=guest:guest&f=json", c.tradingEconomicsBaseURL), &parsed); err != nil {
		return nil, fmt.Errorf("tradingeconomics fetch failed: %w", err)
	}

	const source = "Trading Economics"
	var lines []string
	for _, item := range parsed {
		published, err := parseTimestamp(item.Date)
		if err != nil || !w.Contains(published) {
			continue
		}
		if !seen.Add(source, item.Title) {
			continue
		}
		lines = append(lines, FormatLine(source, "TradingEconomics-news", item.Title, item.Description))
	}
	return lines, nil
}
