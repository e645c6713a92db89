package collector

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

type marketAuxResponse struct {
	Data []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Snippet     string `json:"snippet"`
		Source      string `json:"source"`
		PublishedAt string `json:"published_at"`
	} `json:"data"`
}

func (c *Collector) fetchMarketAux(ctx context.Context, w Window, seen *seenSet) ([]string, error) {
	if err := c.budget.Use("marketaux"); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("api_token", c.cfg.MarketAuxAPIKey)
	params.Set("filter_entities", "forex,macro")
	params.Set("language", "en")
	params.Set("sort", "published_at:desc")
	params.Set("limit", "100")
	params.Set("published_after", w.Start.Format(time.RFC3339))
	params.Set("published_before", w.End.Format(time.RFC3339))

	var parsed marketAuxResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/v1/news/all?%s", c.marketAuxBaseURL, params.Encode()), &parsed); err != nil {
		return nil, fmt.Errorf("marketaux fetch failed: %w", err)
	}

	var lines []string
	for _, a := range parsed.Data {
		published, err := parseTimestamp(a.PublishedAt)
		if err != nil || !w.Contains(published) {
			continue
		}
		description := a.Description
		if description == "" {
			description = a.Snippet
		}
		source := a.Source
		if source == "" {
			source = "MarketAux"
		}
		if !seen.Add(source, a.Title) {
			continue
		}
		lines = append(lines, FormatLine(source, "MarketAux-macro-fx", a.Title, description))
	}
	return lines, nil
}
