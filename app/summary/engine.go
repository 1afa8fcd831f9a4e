package summary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lysyi3m/newsletter-digest/app/database"
	"github.com/lysyi3m/newsletter-digest/app/metrics"
)

// generationTimeout bounds one shared generation, including every provider attempt.
const generationTimeout = 15 * time.Minute

// Engine returns the cached summary of a newsletter or generates, stores and
// announces a new one. At most one generation per newsletter runs at a time:
// in-process callers share a singleflight call, other processes are held off
// by the optional Locker, and the unique newsletter_id constraint settles any
// remaining race.
type Engine struct {
	newsletterRepo database.NewsletterRepository
	summaryRepo    database.SummaryRepository
	completer      Completer
	notifier       Notifier
	locker         Locker
	group          singleflight.Group
}

func NewEngine(newsletterRepo database.NewsletterRepository, summaryRepo database.SummaryRepository, completer Completer, notifier Notifier, locker Locker) *Engine {
	return &Engine{
		newsletterRepo: newsletterRepo,
		summaryRepo:    summaryRepo,
		completer:      completer,
		notifier:       notifier,
		locker:         locker,
	}
}

func (e *Engine) Summarize(ctx context.Context, n *database.Newsletter) (*NewsletterSummary, error) {
	cached, err := e.summaryRepo.GetSummary(n.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check summary cache: %w", err)
	}
	if cached != nil {
		metrics.RecordSummaryRequest("cache_hit")
		slog.Debug("Summary cache hit", "newsletter_id", n.ID, "subject", n.Subject)
		return newSummaryResult(n, cached, true), nil
	}

	// The flight outlives any single caller; each caller stops waiting on its own ctx.
	flight := e.group.DoChan(n.ID, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), generationTimeout)
		defer cancel()
		return e.generate(flightCtx, n)
	})

	var res singleflight.Result
	select {
	case res = <-flight:
	case <-ctx.Done():
		metrics.RecordSummaryRequest("failed")
		return nil, fmt.Errorf("failed to wait for summary: %w", ctx.Err())
	}
	if res.Err != nil {
		metrics.RecordSummaryRequest("failed")
		return nil, res.Err
	}

	result := *res.Val.(*NewsletterSummary)
	if res.Shared {
		result.KeyPoints = append([]string(nil), result.KeyPoints...)
		result.Topics = append([]string(nil), result.Topics...)
	}

	return &result, nil
}

// SummarizeByID loads the newsletter first. Unknown ids return (nil, nil).
func (e *Engine) SummarizeByID(ctx context.Context, newsletterID string) (*NewsletterSummary, error) {
	n, err := e.newsletterRepo.GetNewsletter(newsletterID)
	if err != nil {
		return nil, fmt.Errorf("failed to load newsletter: %w", err)
	}
	if n == nil {
		return nil, nil
	}

	return e.Summarize(ctx, n)
}

// Process summarizes the given newsletters one after another. Unknown ids are
// skipped and per-newsletter failures are collected instead of aborting.
func (e *Engine) Process(ctx context.Context, newsletterIDs []string) BatchResult {
	result := BatchResult{
		Summaries: []NewsletterSummary{},
		Failures:  []Failure{},
		Skipped:   []string{},
	}

	for _, id := range newsletterIDs {
		if ctx.Err() != nil {
			result.Failures = append(result.Failures, Failure{NewsletterID: id, Error: ctx.Err().Error()})
			continue
		}

		s, err := e.SummarizeByID(ctx, id)
		if err != nil {
			slog.Error("Failed to summarize newsletter", "newsletter_id", id, "error", err)
			result.Failures = append(result.Failures, Failure{NewsletterID: id, Error: err.Error()})
			continue
		}
		if s == nil {
			slog.Warn("Newsletter not found, skipping", "newsletter_id", id)
			result.Skipped = append(result.Skipped, id)
			continue
		}

		result.Summaries = append(result.Summaries, *s)
	}

	return result
}

func (e *Engine) generate(ctx context.Context, n *database.Newsletter) (*NewsletterSummary, error) {
	if e.locker != nil {
		unlock, err := e.locker.Lock(ctx, "summary:"+n.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire summary lock: %w", err)
		}
		defer unlock()
	}

	// A previous flight or another process may have finished in the meantime.
	cached, err := e.summaryRepo.GetSummary(n.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check summary cache: %w", err)
	}
	if cached != nil {
		metrics.RecordSummaryRequest("cache_hit")
		return newSummaryResult(n, cached, true), nil
	}

	start := time.Now()
	slog.Info("Generating summary", "newsletter_id", n.ID, "subject", n.Subject)

	var resp response
	model, err := e.completer.Complete(ctx, systemPrompt, buildPrompt(n), func(text string) error {
		decoded, err := decodeResponse(text)
		if err != nil {
			return err
		}
		resp = decoded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary: %w", err)
	}

	s := &database.Summary{
		ID:              "summary_" + n.ID,
		NewsletterID:    n.ID,
		SummaryText:     resp.Summary,
		KeyPoints:       resp.KeyPoints,
		Topics:          resp.Topics,
		Sentiment:       resp.Sentiment,
		ReadTimeMinutes: resp.ReadTime,
		ModelUsed:       model,
		CreatedAt:       time.Now().UTC(),
	}

	inserted, err := e.summaryRepo.InsertSummary(s)
	if err != nil {
		return nil, fmt.Errorf("failed to save summary: %w", err)
	}

	if !inserted {
		existing, err := e.summaryRepo.GetSummary(n.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read existing summary: %w", err)
		}
		if existing == nil {
			return nil, fmt.Errorf("summary for newsletter %s was neither inserted nor found", n.ID)
		}
		metrics.RecordSummaryRequest("cache_hit")
		slog.Info("Summary already stored by another worker", "newsletter_id", n.ID)
		return newSummaryResult(n, existing, true), nil
	}

	metrics.RecordSummaryRequest("generated")
	slog.Info("Summary generated",
		"newsletter_id", n.ID,
		"model", model,
		"duration", time.Since(start))

	result := newSummaryResult(n, s, false)
	e.notify(ctx, *result)

	return result, nil
}

func (e *Engine) notify(ctx context.Context, s NewsletterSummary) {
	if e.notifier == nil {
		return
	}

	if err := e.notifier.NotifySummary(ctx, s); err != nil {
		slog.Warn("Failed to send summary notification", "newsletter_id", s.ID, "error", err)
	}
}
