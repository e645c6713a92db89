package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Quote is one instrument's latest level.
type Quote struct {
	Price         float64
	PreviousClose float64
}

// ChangePct is the day move in percent.
func (q Quote) ChangePct() float64 {
	if q.PreviousClose == 0 {
		return 0
	}
	return (q.Price - q.PreviousClose) / q.PreviousClose * 100
}

// Quoter is implemented by the Yahoo client and by test stubs.
type Quoter interface {
	Quotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}

// YahooClient batch-fetches quotes from the Yahoo Finance quote API.
type YahooClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewYahooClient(timeout time.Duration) *YahooClient {
	return &YahooClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    "https://query1.finance.yahoo.com",
	}
}

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol        string  `json:"symbol"`
			Price         float64 `json:"regularMarketPrice"`
			PreviousClose float64 `json:"regularMarketPreviousClose"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

// Quotes fetches all symbols in one request. Symbols Yahoo does not return
// are simply absent from the result map.
func (c *YahooClient) Quotes(ctx context.Context, symbols []string) (map[string]Quote, error) {
	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s",
		c.baseURL, url.QueryEscape(strings.Join(symbols, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; macrobrief/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote API returned status %d", resp.StatusCode)
	}

	var parsed yahooQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	quotes := make(map[string]Quote, len(parsed.QuoteResponse.Result))
	for _, r := range parsed.QuoteResponse.Result {
		quotes[r.Symbol] = Quote{Price: r.Price, PreviousClose: r.PreviousClose}
	}
	return quotes, nil
}
