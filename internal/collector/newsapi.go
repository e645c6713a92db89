package collector

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

const newsAPIQuery = `macroeconomics OR macroeconomic OR "central bank" OR "interest rate" ` +
	`OR forex OR FX OR currency OR "foreign exchange"`

type newsAPIResponse struct {
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (c *Collector) fetchNewsAPI(ctx context.Context, w Window, seen *seenSet) ([]string, error) {
	if err := c.budget.Use("newsapi"); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", newsAPIQuery)
	params.Set("language", "en")
	params.Set("pageSize", "100")
	params.Set("sortBy", "publishedAt")
	params.Set("from", w.Start.Format(time.RFC3339))
	params.Set("to", w.End.Format(time.RFC3339))
	params.Set("apiKey", c.cfg.NewsAPIKey)

	var parsed newsAPIResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/v2/everything?%s", c.newsAPIBaseURL, params.Encode()), &parsed); err != nil {
		return nil, fmt.Errorf("newsapi fetch failed: %w", err)
	}

	var lines []string
	for _, a := range parsed.Articles {
		published, err := parseTimestamp(a.PublishedAt)
		if err != nil || !w.Contains(published) {
			continue
		}
		description := a.Description
		if description == "" {
			description = a.Content
		}
		source := a.Source.Name
		if source == "" {
			source = "NewsAPI"
		}
		if !seen.Add(source, a.Title) {
			continue
		}
		lines = append(lines, FormatLine(source, "NewsAPI-macro-fx", a.Title, description))
	}
	return lines, nil
}
