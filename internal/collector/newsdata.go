package collector

import (
	"context"
	"fmt"
	"net/url"
)

type newsDataResponse struct {
	Results []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		PubDate     string `json:"pubDate"` // "2006-01-02 15:04:05"
		SourceID    string `json:"source_id"`
	} `json:"results"`
}

func (c *Collector) fetchNewsData(ctx context.Context, w Window, seen *seenSet) ([]string, error) {
	if err := c.budget.Use("newsdata"); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("apikey", c.cfg.NewsDataAPIKey)
	params.Set("q", `(forex OR FX OR currency OR "central bank" OR "interest rate" OR macro)`)
	params.Set("language", "en")
	params.Set("from_date", w.Start.Format("2006-01-02"))
	params.Set("to_date", w.End.Format("2006-01-02"))

	var parsed newsDataResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/api/1/latest?%s", c.newsDataBaseURL, params.Encode()), &parsed); err != nil {
		return nil, fmt.Errorf("newsdata fetch failed: %w", err)
	}

	var lines []string
	for _, a := range parsed.Results {
		published, err := parseTimestamp(a.PubDate)
		if err != nil || !w.Contains(published) {
			continue
		}
		description := a.Description
		if description == "" {
			description = a.Content
		}
		source := a.SourceID
		if source == "" {
			source = "NewsData"
		}
		if !seen.Add(source, a.Title) {
			continue
		}
		lines = append(lines, FormatLine(source, "NewsData-macro-fx", a.Title, description))
	}
	return lines, nil
}
