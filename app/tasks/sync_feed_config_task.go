package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/newsletter-digest/app/database"
	"github.com/lysyi3m/newsletter-digest/app/feed"
)

// SyncFeedConfigTask copies a feeds/<id>.yml definition into rss_feeds.
type SyncFeedConfigTask struct {
	Task
	FeedConfig *feed.Config
	feedRepo   database.FeedRepository
}

func NewSyncFeedConfigTask(feedConfig *feed.Config, feedRepo database.FeedRepository) *SyncFeedConfigTask {
	return &SyncFeedConfigTask{
		Task:       NewTask(TaskTypeSyncFeedConfig, feedConfig.ID),
		FeedConfig: feedConfig,
		feedRepo:   feedRepo,
	}
}

func (t *SyncFeedConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := t.feedRepo.UpsertFeed(database.Feed{
		ID:             t.FeedConfig.ID,
		URL:            t.FeedConfig.URL,
		Name:           t.FeedConfig.Name,
		Enabled:        t.FeedConfig.Settings.Enabled,
		ExtractContent: t.FeedConfig.Settings.ExtractContent,
	})
	if err != nil {
		return fmt.Errorf("failed to sync feed config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncFeedConfig",
		"feed", t.Target,
		"enabled", t.FeedConfig.Settings.Enabled,
		"duration", t.GetDuration())

	return nil
}
