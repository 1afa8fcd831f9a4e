package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type CollectFeedsTask struct {
	Task
	collector FeedCollector
}

func NewCollectFeedsTask(collector FeedCollector) *CollectFeedsTask {
	return &CollectFeedsTask{
		Task:      NewTask(TaskTypeCollectFeeds, ""),
		collector: collector,
	}
}

func (t *CollectFeedsTask) Execute(ctx context.Context) error {
	result, err := t.collector.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect feeds: %w", err)
	}

	slog.Info("Task completed",
		"type", "CollectFeeds",
		"duration", t.GetDuration(),
		"feeds", result.Total,
		"new", result.Processed)

	return nil
}
