package collector

import (
	"context"
	"fmt"
	"net/url"
)

type fmpArticle struct {
	Title         string `json:"title"`
	Text          string `json:"text"`
	Site          string `json:"site"`
	Publisher     string `json:"publisher"`
	PublishedDate string `json:"publishedDate"`
}

func (c *Collector) fetchFMP(ctx context.Context, w Window, seen *seenSet) ([]string, error) {
	if err := c.budget.Use("fmp"); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("page", "0")
	params.Set("limit", "100")
	params.Set("apikey", c.cfg.FMPAPIKey)

	var parsed []fmpArticle
	if err := c.getJSON(ctx, fmt.Sprintf("%s/stable/news/forex-latest?%s", c.fmpBaseURL, params.Encode()), &parsed); err != nil {
		return nil, fmt.Errorf("fmp fetch failed: %w", err)
	}

	var lines []string
	for _, a := range parsed {
		published, err := parseTimestamp(a.PublishedDate)
		if err != nil || !w.Contains(published) {
			continue
		}
		source := a.Site
		if source == "" {
			source = a.Publisher
		}
		if source == "" {
			source = "FinancialModelingPrep"
		}
		if !seen.Add(source, a.Title) {
			continue
		}
		lines = append(lines, FormatLine(source, "FMP-forex", a.Title, a.Text))
	}
	return lines, nil
}
