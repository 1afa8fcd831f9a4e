package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Every provider may use its full timeout before the chain gives up.
const summarizeTimeout = 15 * time.Minute

type SummarizeTask struct {
	Task
	summarizer Summarizer
}

func NewSummarizeTask(newsletterID string, summarizer Summarizer) *SummarizeTask {
	task := NewTask(TaskTypeSummarize, newsletterID)
	task.Timeout = summarizeTimeout
	task.MaxRetries = 1

	return &SummarizeTask{
		Task:       task,
		summarizer: summarizer,
	}
}

func (t *SummarizeTask) Execute(ctx context.Context) error {
	result, err := t.summarizer.SummarizeByID(ctx, t.Target)
	if err != nil {
		return fmt.Errorf("failed to summarize newsletter: %w", err)
	}

	if result == nil {
		slog.Warn("Newsletter not found, skipping summary", "newsletter_id", t.Target)
		return nil
	}

	slog.Info("Task completed",
		"type", "Summarize",
		"newsletter_id", t.Target,
		"cached", result.Cached,
		"model", result.ModelUsed,
		"duration", t.GetDuration())

	return nil
}
