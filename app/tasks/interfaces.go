package tasks

import (
	"context"

	"github.com/lysyi3m/newsletter-digest/app/ingest"
	"github.com/lysyi3m/newsletter-digest/app/summary"
)

// TaskSchedulerInterface is what the HTTP layer and the ingest hook need from
// the scheduler.
type TaskSchedulerInterface interface {
	Start() error
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueSummarize(newsletterID string) error
}

type FeedCollector interface {
	Run(ctx context.Context) (ingest.CollectResult, error)
}

type Summarizer interface {
	SummarizeByID(ctx context.Context, newsletterID string) (*summary.NewsletterSummary, error)
}
