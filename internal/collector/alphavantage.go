package collector

import (
	"context"
	"fmt"
	"net/url"
)

type alphaVantageResponse struct {
	Feed []struct {
		Title         string `json:"title"`
		Summary       string `json:"summary"`
		Source        string `json:"source"`
		TimePublished string `json:"time_published"` // 20060102T150405
	} `json:"feed"`
}

func (c *Collector) fetchAlphaVantage(ctx context.Context, w Window, seen *seenSet) ([]string, error) {
	if err := c.budget.Use("alphavantage"); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("function", "NEWS_SENTIMENT")
	params.Set("topics", "forex,financial_markets,economic")
	params.Set("time_from", w.Start.Format("20060102T1504"))
	params.Set("time_to", w.End.Format("20060102T1504"))
	params.Set("apikey", c.cfg.AlphaVantageAPIKey)

	var parsed alphaVantageResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/query?%s", c.alphaVantageBaseURL, params.Encode()), &parsed); err != nil {
		return nil, fmt.Errorf("alphavantage fetch failed: %w", err)
	}

	var lines []string
	for _, item := range parsed.Feed {
		published, err := parseTimestamp(item.TimePublished)
		if err != nil || !w.Contains(published) {
			continue
		}
		source := item.Source
		if source == "" {
			source = "AlphaVantage"
		}
		if !seen.Add(source, item.Title) {
			continue
		}
		lines = append(lines, FormatLine(source, "AlphaVantage-macro-fx", item.Title, item.Summary))
	}
	return lines, nil
}
