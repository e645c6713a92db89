// Package app wires collection, duplicate analysis, market data, the
// analyst and delivery into one briefing run.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/macrodesk/macrobrief/internal/analyst"
	"github.com/macrodesk/macrobrief/internal/cache"
	"github.com/macrodesk/macrobrief/internal/collector"
	"github.com/macrodesk/macrobrief/internal/config"
	"github.com/macrodesk/macrobrief/internal/dedup"
	"github.com/macrodesk/macrobrief/internal/logger"
	"github.com/macrodesk/macrobrief/internal/market"
	"github.com/macrodesk/macrobrief/internal/metrics"
	"github.com/macrodesk/macrobrief/internal/notify"
	"github.com/macrodesk/macrobrief/internal/ratelimit"
	"github.com/macrodesk/macrobrief/internal/retry"
	"github.com/macrodesk/macrobrief/internal/storage"
)

const (
	cacheKeyBriefing = "latest_briefing"
	cacheKeyReport   = "latest_report"
	cacheTTL         = 24 * time.Hour

	fallbackHeadlines = 10
)

// briefer abstracts the Gemini client so runs work without an API key.
type briefer interface {
	Generate(ctx context.Context, in analyst.Input) (string, error)
	Close()
}

// App holds everything one briefing run needs.
type App struct {
	cfg         *config.Config
	budget      *ratelimit.Budget
	universe    *market.Universe
	quoter      market.Quoter
	collector   *collector.Collector
	analyst     briefer
	senders     []notify.Sender
	deliveryLog storage.DeliveryLog
	cache       *cache.Cache
}

// New assembles the application from config. A missing Gemini key or webhook
// URL degrades to fallback briefings and stdout delivery rather than failing.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	universe, err := market.LoadUniverse(cfg.TickersConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticker universe: %w", err)
	}

	feeds, err := collector.LoadFeeds(cfg.FeedsConfigPath)
	if err != nil {
		logger.Warn("rss feeds config not loaded, rss provider disabled", "error", err)
		feeds = nil
	}

	budget := ratelimit.NewBudget(map[string]int{
		"gemini":  cfg.MaxGeminiRequests,
		"finnhub": cfg.MaxFinnhubRequests,
		"newsapi": cfg.MaxNewsAPIRequests,
	}, cfg.MaxTotalAPIRequests)

	a := &App{
		cfg:       cfg,
		budget:    budget,
		universe:  universe,
		quoter:    market.NewYahooClient(cfg.RequestTimeout),
		collector: collector.New(cfg, budget, universe, feeds),
		cache:     cache.New(),
	}

	if cfg.GeminiAPIKey != "" {
		client, err := analyst.NewClient(ctx, cfg.GeminiAPIKey, cfg.LanguageMode)
		if err != nil {
			return nil, fmt.Errorf("failed to init analyst: %w", err)
		}
		a.analyst = client
	} else {
		logger.Warn("no Gemini API key, briefings will use the fallback format")
	}

	if !cfg.HasWebhook() {
		logger.Warn("no webhook configured, briefings will print to stdout")
	}
	retryCfg := retry.Config{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}
	a.senders = []notify.Sender{
		notify.NewSlack(cfg.SlackWebhookURL, cfg.RequestTimeout, retryCfg),
		notify.NewFeishu(cfg.FeishuWebhookURL, cfg.RequestTimeout, retryCfg),
	}

	if cfg.DatabaseURL != "" {
		pg, err := storage.NewPostgresLog(cfg.DatabaseURL, cfg.DeliveryTTLHours)
		if err != nil {
			return nil, fmt.Errorf("failed to open delivery log database: %w", err)
		}
		a.deliveryLog = pg
	} else {
		fl := storage.NewFileLog(cfg.DeliveryLogPath, cfg.DeliveryTTLHours)
		if err := fl.Load(); err != nil {
			logger.Warn("delivery log load failed, starting empty", "error", err)
		}
		a.deliveryLog = fl
	}

	return a, nil
}

func (a *App) Close() {
	if a.analyst != nil {
		a.analyst.Close()
	}
	if err := a.deliveryLog.Close(); err != nil {
		logger.Warn("delivery log close failed", "error", err)
	}
}

// Run executes one full briefing cycle: collect, analyze duplicates, build
// the briefing, deliver it. Individual stage failures degrade where they can
// so a scheduled run still posts something useful.
func (a *App) Run(ctx context.Context) error {
	started := time.Now()
	defer func() {
		metrics.Global.RecordRunDuration(time.Since(started))
	}()

	now := time.Now().UTC()
	window, err := collector.NewWindow(now.Add(-a.cfg.NewsLookback), now)
	if err != nil {
		return fmt.Errorf("invalid collection window: %w", err)
	}

	lines := a.collector.Collect(ctx, window)
	records := dedup.ParseLines(lines)

	res, err := dedup.Analyze(records, a.cfg.Dedup())
	if err != nil {
		metrics.Global.SetError(err.Error())
		return fmt.Errorf("duplicate analysis failed: %w", err)
	}
	metrics.Global.RecordAnalysis(len(res.Records), res.PairsCompared, len(res.Hits), res.Truncated)

	logger.Info("duplicate analysis finished",
		"records", len(res.Records), "hits", len(res.Hits),
		"pairs", res.PairsCompared, "truncated", res.Truncated)
	a.publishReport(dedup.FormatReport(res, a.cfg.ReportExamples))

	kept := dedup.FilterDuplicates(res)
	feed := make([]string, 0, len(kept))
	for _, r := range kept {
		feed = append(feed, r.Raw)
	}

	snapshot, err := market.Snapshot(ctx, a.quoter, a.universe)
	if err != nil {
		logger.Warn("market snapshot failed, continuing without levels", "error", err)
		snapshot = "**Market Snapshot**\n(data unavailable)\n"
	}

	in := analyst.Input{
		Timestamp:   now,
		MarketData:  snapshot,
		NewsFeed:    feed,
		DedupDigest: dedupDigest(res),
	}
	briefing := a.buildBriefing(ctx, in)
	metrics.Global.IncrementBriefingsGenerated()
	a.cache.Set(cacheKeyBriefing, briefing, cacheTTL)

	if err := a.deliver(ctx, briefing); err != nil {
		metrics.Global.SetError(err.Error())
		return err
	}

	metrics.Global.SetLastRun()
	return nil
}

// publishReport logs the duplicate report and caches it for the HTTP
// surface.
func (a *App) publishReport(report string) {
	logger.Info("duplicate analysis report", "report", report)
	a.cache.Set(cacheKeyReport, report, cacheTTL)
}

// buildBriefing asks the analyst, downgrading to the fallback format when
// the model is unconfigured, over budget or failing.
func (a *App) buildBriefing(ctx context.Context, in analyst.Input) string {
	if a.analyst == nil {
		return analyst.Fallback(in, fallbackHeadlines)
	}
	if !a.budget.Allow("gemini") {
		logger.Warn("Gemini budget exhausted, using fallback briefing")
		return analyst.Fallback(in, fallbackHeadlines)
	}
	if err := a.budget.Use("gemini"); err != nil {
		logger.Warn("Gemini budget exhausted, using fallback briefing", "error", err)
		return analyst.Fallback(in, fallbackHeadlines)
	}
	briefing, err := a.analyst.Generate(ctx, in)
	if err != nil {
		logger.Error("briefing generation failed, using fallback", "error", err)
		metrics.Global.SetError(err.Error())
		return analyst.Fallback(in, fallbackHeadlines)
	}
	return briefing
}

// deliver posts the briefing to every channel, skipping content the delivery
// log has already seen within its TTL.
func (a *App) deliver(ctx context.Context, briefing string) error {
	hash := storage.BriefingHash(briefing)
	if a.deliveryLog.IsDelivered(hash) {
		logger.Info("briefing already delivered, skipping", "hash", hash)
		metrics.Global.IncrementDeliveriesSkipped()
		return nil
	}

	var firstErr error
	delivered := false
	for _, s := range a.senders {
		if err := s.Send(ctx, briefing); err != nil {
			logger.Error("briefing delivery failed", "channel", s.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		delivered = true
		if err := a.deliveryLog.MarkDelivered(hash, s.Name(), briefing); err != nil {
			logger.Warn("failed to record delivery", "channel", s.Name(), "error", err)
		}
	}

	if delivered {
		metrics.Global.IncrementBriefingsSent()
		return nil
	}
	return fmt.Errorf("briefing delivery failed on all channels: %w", firstErr)
}

// LatestBriefing returns the most recent briefing for the HTTP surface.
func (a *App) LatestBriefing() (string, bool) {
	v, ok := a.cache.Get(cacheKeyBriefing)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// LatestReport returns the most recent duplicate analysis report.
func (a *App) LatestReport() (string, bool) {
	v, ok := a.cache.Get(cacheKeyReport)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// BudgetStats exposes API budget usage for the monitoring endpoint.
func (a *App) BudgetStats() map[string]interface{} {
	return a.budget.GetStats()
}

// dedupDigest condenses the analysis result into a few lines of context for
// the analyst prompt.
func dedupDigest(res *dedup.Result) string {
	dups, similars := 0, 0
	for _, h := range res.Hits {
		if h.Kind == dedup.HitDuplicate {
			dups++
		} else {
			similars++
		}
	}
	if dups == 0 && similars == 0 {
		return ""
	}
	digest := fmt.Sprintf("%d near-duplicate and %d similar headline pairs were removed from the feed above; heavily syndicated stories are likely the day's dominant narratives.", dups, similars)
	if res.Truncated {
		digest += " The pair scan hit its comparison cap, so duplicate counts are a lower bound."
	}
	return digest
}
