package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/newsletter-digest/app/database"
	"github.com/lysyi3m/newsletter-digest/app/feed"
	"github.com/lysyi3m/newsletter-digest/app/metrics"
)

const defaultFeedTimeout = 30 * time.Second

type CollectResult struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

type FeedStats struct {
	Total      int
	New        int
	Duplicates int
	Filtered   int
	Errors     int
	FetchError error
}

// Collector polls every enabled feed. Feeds are independent: a failing feed is
// logged and the rest are still processed. Runs are serialized.
type Collector struct {
	mu sync.Mutex

	feedRepo    database.FeedRepository
	pipeline    *Pipeline
	fetcher     *feed.Fetcher
	parser      *feed.Parser
	filterer    *feed.Filterer
	extractor   *feed.ContentExtractor
	configCache *feed.ConfigCache
}

func NewCollector(feedRepo database.FeedRepository, pipeline *Pipeline, fetcher *feed.Fetcher, parser *feed.Parser, filterer *feed.Filterer, extractor *feed.ContentExtractor, configCache *feed.ConfigCache) *Collector {
	return &Collector{
		feedRepo:    feedRepo,
		pipeline:    pipeline,
		fetcher:     fetcher,
		parser:      parser,
		filterer:    filterer,
		extractor:   extractor,
		configCache: configCache,
	}
}

// Run collects all enabled feeds and reports how many new newsletters were stored.
func (c *Collector) Run(ctx context.Context) (CollectResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	feeds, err := c.feedRepo.GetEnabledFeeds()
	if err != nil {
		return CollectResult{}, fmt.Errorf("failed to load feeds: %w", err)
	}

	result := CollectResult{Total: len(feeds)}

	for _, f := range feeds {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		stats := c.CollectFeed(ctx, f)
		result.Processed += stats.New
	}

	return result, nil
}

// CollectFeed fetches one feed and ingests its new items. last_fetched is
// updated after every successful fetch, even when nothing was new. A failed
// fetch leaves it untouched.
func (c *Collector) CollectFeed(ctx context.Context, f database.Feed) FeedStats {
	start := time.Now()
	config := c.configCache.GetConfig(f.ID)

	var stats FeedStats

	items, err := c.fetchItems(ctx, f, config)
	if err != nil {
		metrics.RecordFeedFetch("failed")
		slog.Error("Failed to fetch feed", "feed", f.ID, "url", f.URL, "error", err)
		stats.FetchError = err
		return stats
	}
	metrics.RecordFeedFetch("success")

	stats.Total = len(items)
	enrich := c.enricher(f, config)

	for _, item := range items {
		if item.IsFiltered {
			stats.Filtered++
			slog.Debug("Item filtered", "feed", f.ID, "title", item.Title, "reason", item.FilterReason)
			continue
		}

		res, err := c.pipeline.IngestFeedItem(ctx, f.Name, item, enrich)
		if err != nil {
			stats.Errors++
			slog.Error("Failed to ingest feed item", "feed", f.ID, "title", item.Title, "error", err)
			continue
		}

		if res.Duplicate {
			stats.Duplicates++
		} else {
			stats.New++
		}
	}

	if err := c.feedRepo.UpdateLastFetched(f.ID, time.Now().UTC()); err != nil {
		slog.Error("Failed to update last fetched time", "feed", f.ID, "error", err)
	}

	slog.Info("Feed collected",
		"feed", f.ID,
		"duration", time.Since(start),
		"total", stats.Total,
		"duplicates", stats.Duplicates,
		"filtered", stats.Filtered,
		"errors", stats.Errors,
		"new", stats.New)

	return stats
}

func (c *Collector) fetchItems(ctx context.Context, f database.Feed, config *feed.Config) ([]feed.Item, error) {
	data, err := c.fetcher.Fetch(ctx, f.URL, feedTimeout(config))
	if err != nil {
		return nil, err
	}

	items, err := c.parser.Run(data)
	if err != nil {
		return nil, err
	}

	if config != nil {
		items = c.filterer.Run(items, config.Filters)
	}

	return items, nil
}

// enricher replaces short item bodies with the extracted linked article for
// feeds that ask for it. Extraction failures keep the feed content.
func (c *Collector) enricher(f database.Feed, config *feed.Config) ItemEnricher {
	if !f.ExtractContent || c.extractor == nil {
		return nil
	}

	timeout := feedTimeout(config)

	return func(ctx context.Context, item *feed.Item) {
		if item.Link == "" || len(item.Content) >= feed.MinContentLength {
			return
		}

		data, err := c.fetcher.FetchHTML(ctx, item.Link, timeout)
		if err != nil {
			slog.Warn("Failed to fetch article", "feed", f.ID, "url", item.Link, "error", err)
			return
		}

		content, err := c.extractor.Run(data, item.Link)
		if err != nil {
			slog.Warn("Failed to extract article", "feed", f.ID, "url", item.Link, "error", err)
			return
		}

		item.Content = content
	}
}

func feedTimeout(config *feed.Config) time.Duration {
	if config == nil || config.Settings.Timeout <= 0 {
		return defaultFeedTimeout
	}
	return time.Duration(config.Settings.Timeout) * time.Second
}
