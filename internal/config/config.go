// Package config loads runtime configuration from the environment. A local
// .env file is honored for development; in Cloud Run the same values arrive
// as plain environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/macrodesk/macrobrief/internal/dedup"
)

type Config struct {
	// Duplicate analysis tuning. Passed into the analyzer explicitly so
	// tests can override thresholds without touching globals.
	DuplicateThreshold float64 `envconfig:"DUP_THRESHOLD" default:"0.80"`
	SimilarThreshold   float64 `envconfig:"SIMILAR_THRESHOLD" default:"0.60"`
	MaxPairComparisons int     `envconfig:"MAX_PAIR_COMPARISONS" default:"300000"`
	ReportExamples     int     `envconfig:"REPORT_EXAMPLES" default:"15"`

	// Each run collects headlines published in [now-NewsLookback, now].
	NewsLookback time.Duration `envconfig:"NEWS_LOOKBACK" default:"6h"`

	// Provider API keys. A missing key disables that provider; it is
	// never an error.
	GeminiAPIKey       string `envconfig:"GEMINI_API_KEY"`
	FinnhubAPIKey      string `envconfig:"FINNHUB_API_KEY"`
	NewsAPIKey         string `envconfig:"NEWS_API_KEY"`
	AlphaVantageAPIKey string `envconfig:"ALPHAVANTAGE_API_KEY"`
	FMPAPIKey          string `envconfig:"FMP_API_KEY"`
	NewsDataAPIKey     string `envconfig:"NEWSDATA_API_KEY"`
	MarketAuxAPIKey    string `envconfig:"MARKET_AUX_API_KEY"`

	SlackWebhookURL  string `envconfig:"SLACK_WEBHOOK_URL"`
	FeishuWebhookURL string `envconfig:"FEISHU_WEBHOOK_URL"`

	// Briefing language: EN, CN or MIXED.
	LanguageMode string `envconfig:"LANGUAGE_MODE" default:"MIXED"`

	TickersConfigPath string `envconfig:"TICKERS_CONFIG_PATH" default:"configs/tickers.yaml"`
	FeedsConfigPath   string `envconfig:"FEEDS_CONFIG_PATH" default:"configs/feeds.yaml"`

	// Cron specs for scheduled runs, comma separated.
	Schedule string `envconfig:"BRIEF_SCHEDULE" default:"0 7 * * *,0 12 * * *,0 16 * * *,0 21 * * *"`
	HTTPPort string `envconfig:"PORT" default:"8080"`

	// Daily request budgets.
	MaxGeminiRequests   int `envconfig:"MAX_GEMINI_REQUESTS" default:"8"`
	MaxFinnhubRequests  int `envconfig:"MAX_FINNHUB_REQUESTS" default:"120"`
	MaxNewsAPIRequests  int `envconfig:"MAX_NEWSAPI_REQUESTS" default:"90"`
	MaxTotalAPIRequests int `envconfig:"MAX_TOTAL_API_REQUESTS" default:"800"`

	// Delivery log keeps briefing hashes so overlapping triggers do not
	// double-post. File backed by default, Postgres when DATABASE_URL set.
	DeliveryLogPath  string `envconfig:"DELIVERY_LOG_PATH" default:"sent_briefs.json"`
	DeliveryTTLHours int    `envconfig:"DELIVERY_TTL_HOURS" default:"48"`
	DatabaseURL      string `envconfig:"DATABASE_URL"`

	Debug          bool          `envconfig:"DEBUG"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	RetryAttempts  int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
	RetryDelay     time.Duration `envconfig:"RETRY_DELAY" default:"5s"`
}

// Load reads .env when present, then the environment, and validates the
// result.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional outside local development

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if err := c.Dedup().Validate(); err != nil {
		return err
	}
	switch c.LanguageMode {
	case "EN", "CN", "MIXED":
	default:
		return fmt.Errorf("LANGUAGE_MODE must be EN, CN or MIXED, got %q", c.LanguageMode)
	}
	if c.NewsLookback <= 0 {
		return fmt.Errorf("NEWS_LOOKBACK must be positive")
	}
	if strings.TrimSpace(c.Schedule) == "" {
		return fmt.Errorf("BRIEF_SCHEDULE must not be empty")
	}
	if c.DeliveryTTLHours <= 0 {
		return fmt.Errorf("DELIVERY_TTL_HOURS must be positive")
	}
	return nil
}

// Dedup exposes the analyzer tuning as the core package's config type.
func (c *Config) Dedup() dedup.Config {
	return dedup.Config{
		DuplicateThreshold: c.DuplicateThreshold,
		SimilarThreshold:   c.SimilarThreshold,
		MaxPairComparisons: c.MaxPairComparisons,
	}
}

// CronSpecs splits the schedule setting into individual cron expressions.
func (c *Config) CronSpecs() []string {
	var specs []string
	for _, s := range strings.Split(c.Schedule, ",") {
		if s = strings.TrimSpace(s); s != "" {
			specs = append(specs, s)
		}
	}
	return specs
}

// HasWebhook reports whether at least one delivery target is configured.
func (c *Config) HasWebhook() bool {
	return c.SlackWebhookURL != "" || c.FeishuWebhookURL != ""
}
