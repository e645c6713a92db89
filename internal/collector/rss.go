package collector

import (
	"context"
	"fmt"
	"os"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/macrodesk/macrobrief/internal/logger"
)

// Feed is one RSS source from configs/feeds.yaml.
type Feed struct {
	Name    string `yaml:"name"`
	URL     string `yaml:"url"`
	Section string `yaml:"section"`
}

type feedsConfig struct {
	Feeds []Feed `yaml:"feeds"`
}

// LoadFeeds reads the RSS source list from a YAML file.
func LoadFeeds(path string) ([]Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feeds config: %w", err)
	}
	defer f.Close()

	var cfg feedsConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse feeds config: %w", err)
	}
	return cfg.Feeds, nil
}

// fetchRSS folds all configured feeds into the line format. A feed that
// fails to parse is logged and skipped.
func (c *Collector) fetchRSS(ctx context.Context, w Window, seen *seenSet) ([]string, error) {
	parser := gofeed.NewParser()
	parser.UserAgent = "Mozilla/5.0 (compatible; macrobrief/1.0)"

	var lines []string
	for _, feed := range c.feeds {
		parsed, err := parser.ParseURLWithContext(feed.URL, ctx)
		if err != nil {
			logger.Warn("rss feed parse failed", "feed", feed.Name, "error", err)
			continue
		}
		lines = append(lines, c.feedLines(parsed.Items, feed, w, seen)...)
	}
	return lines, nil
}

func (c *Collector) feedLines(items []*gofeed.Item, feed Feed, w Window, seen *seenSet) []string {
	var lines []string
	for _, item := range items {
		if item.PublishedParsed == nil {
			continue
		}
		if !w.Contains(item.PublishedParsed.UTC()) {
			continue
		}
		if !seen.Add(feed.Name, item.Title) {
			continue
		}
		lines = append(lines, FormatLine(feed.Name, feed.Section, item.Title, FlattenHTML(item.Description)))
	}
	return lines
}
