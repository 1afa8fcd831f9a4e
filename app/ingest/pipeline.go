package ingest

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/newsletter-digest/app/database"
	"github.com/lysyi3m/newsletter-digest/app/email"
	"github.com/lysyi3m/newsletter-digest/app/feed"
	"github.com/lysyi3m/newsletter-digest/app/metrics"
)

var ErrEmptyContent = errors.New("empty content")

// Result of offering one item to the pipeline. A duplicate carries the id of
// the record that already exists.
type Result struct {
	ID         string
	Duplicate  bool
	Newsletter *database.Newsletter
}

// Hook runs after a new newsletter is stored. It must not block.
type Hook func(newsletterID string)

// ItemEnricher may rewrite a feed item before it is stored. It only runs for
// items that are not duplicates.
type ItemEnricher func(ctx context.Context, item *feed.Item)

type Pipeline struct {
	normalizer     *email.Normalizer
	newsletterRepo database.NewsletterRepository
	hook           Hook
}

func NewPipeline(normalizer *email.Normalizer, newsletterRepo database.NewsletterRepository) *Pipeline {
	return &Pipeline{
		normalizer:     normalizer,
		newsletterRepo: newsletterRepo,
	}
}

func (p *Pipeline) OnIngested(hook Hook) {
	p.hook = hook
}

// Ingest normalizes pushed raw content and stores it unless an equal record
// exists. externalID, when given, takes precedence over the Message-ID found
// in the content.
func (p *Pipeline) Ingest(raw, externalID, source string) (*Result, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyContent
	}

	item := p.normalizer.Run(raw)
	externalID = cmp.Or(strings.TrimSpace(externalID), item.ExternalID)

	existing, err := p.newsletterRepo.FindDuplicate(externalID, item.ContentID)
	if err != nil {
		metrics.RecordIngested(source, "failed")
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if existing != nil {
		metrics.RecordIngested(source, "duplicate")
		slog.Info("Duplicate newsletter skipped", "source", source, "existing_id", *existing, "subject", item.Subject)
		return &Result{ID: *existing, Duplicate: true}, nil
	}

	n := &database.Newsletter{
		ContentID:    item.ContentID,
		ExternalID:   externalID,
		Subject:      item.Subject,
		SenderName:   item.SenderName,
		SenderEmail:  item.SenderEmail,
		ReceivedAt:   item.ReceivedAt,
		RawBody:      raw,
		ParsedBody:   item.ParsedBody,
		IsForwarded:  item.IsForwarded,
		IsNewsletter: item.IsNewsletter,
		Source:       source,
	}
	if item.OriginalSender != nil {
		n.OriginalSenderName = item.OriginalSender.Name
		n.OriginalSenderEmail = item.OriginalSender.Email
	}

	return p.store(n)
}

// IngestFeedItem stores an RSS item as an email-shaped newsletter sent by the feed.
func (p *Pipeline) IngestFeedItem(ctx context.Context, feedName string, item feed.Item, enrich ItemEnricher) (*Result, error) {
	existing, err := p.newsletterRepo.FindFeedItemDuplicate(item.GUID, item.Link)
	if err != nil {
		metrics.RecordIngested(database.SourceRSS, "failed")
		return nil, fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if existing != nil {
		metrics.RecordIngested(database.SourceRSS, "duplicate")
		return &Result{ID: *existing, Duplicate: true}, nil
	}

	if enrich != nil {
		enrich(ctx, &item)
	}

	raw := feed.ToEmail(feedName, item)

	n := &database.Newsletter{
		ContentID:    email.ContentID(raw),
		ExternalID:   item.GUID,
		Subject:      item.Title,
		SenderName:   feedName,
		SenderEmail:  feed.SenderEmail(feedName),
		ReceivedAt:   item.PublishedAt,
		RawBody:      raw,
		ParsedBody:   cmp.Or(item.Snippet, item.Content),
		IsNewsletter: true,
		Source:       database.SourceRSS,
	}

	return p.store(n)
}

func (p *Pipeline) store(n *database.Newsletter) (*Result, error) {
	id, err := p.newsletterRepo.InsertNewsletter(n)
	if err != nil {
		metrics.RecordIngested(n.Source, "failed")
		return nil, fmt.Errorf("failed to store newsletter: %w", err)
	}

	metrics.RecordIngested(n.Source, "new")
	slog.Info("Newsletter saved",
		"id", id,
		"source", n.Source,
		"subject", n.Subject,
		"sender", n.SenderEmail,
		"is_newsletter", n.IsNewsletter)

	if p.hook != nil {
		p.hook(id)
	}

	return &Result{ID: id, Newsletter: n}, nil
}
