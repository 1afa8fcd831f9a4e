package api

import (
	"context"

	"github.com/lysyi3m/newsletter-digest/app/database"
	"github.com/lysyi3m/newsletter-digest/app/digest"
	"github.com/lysyi3m/newsletter-digest/app/feed"
	"github.com/lysyi3m/newsletter-digest/app/ingest"
	"github.com/lysyi3m/newsletter-digest/app/summary"
	"github.com/lysyi3m/newsletter-digest/app/tasks"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Ingester interface {
	Ingest(raw, externalID, source string) (*ingest.Result, error)
}

type BatchSummarizer interface {
	Process(ctx context.Context, newsletterIDs []string) summary.BatchResult
}

type DigestSynthesizer interface {
	Synthesize(ctx context.Context, summaries []summary.NewsletterSummary) (*digest.Digest, error)
}

var (
	_ Ingester          = (*ingest.Pipeline)(nil)
	_ BatchSummarizer   = (*summary.Engine)(nil)
	_ DigestSynthesizer = (*digest.Synthesizer)(nil)
)

// Dependencies lists everything the HTTP layer talks to.
type Dependencies struct {
	DB             Pinger
	NewsletterRepo database.NewsletterRepository
	SummaryRepo    database.SummaryRepository
	DigestRepo     database.DigestRepository
	FeedRepo       database.FeedRepository
	Ingester       Ingester
	Collector      tasks.FeedCollector
	Summarizer     BatchSummarizer
	Synthesizer    DigestSynthesizer
	ConfigCache    *feed.ConfigCache
	Scheduler      tasks.TaskSchedulerInterface

	WebhookSecret      string
	SlackChannelID     string
	SlackSigningSecret string
}

type Handler struct {
	Dependencies
}

type newsletterSummaryResponse struct {
	ID              string   `json:"id"`
	SummaryText     string   `json:"summaryText"`
	KeyPoints       []string `json:"keyPoints"`
	Topics          []string `json:"topics"`
	Sentiment       string   `json:"sentiment"`
	ReadTimeMinutes int      `json:"readTimeMinutes"`
	ModelUsed       string   `json:"modelUsed"`
}

type newsletterResponse struct {
	ID           string                     `json:"id"`
	ExternalID   string                     `json:"externalId"`
	Subject      string                     `json:"subject"`
	SenderName   string                     `json:"senderName"`
	SenderEmail  string                     `json:"senderEmail"`
	ReceivedAt   string                     `json:"receivedAt"`
	IsNewsletter bool                       `json:"isNewsletter"`
	IsForwarded  bool                       `json:"isForwarded"`
	Source       string                     `json:"source"`
	CreatedAt    string                     `json:"createdAt"`
	Summary      *newsletterSummaryResponse `json:"summary"`
}

type feedResponse struct {
	ID             string  `json:"id"`
	URL            string  `json:"url"`
	Name           string  `json:"name"`
	LastFetched    *string `json:"lastFetched"`
	Enabled        bool    `json:"enabled"`
	ExtractContent bool    `json:"extractContent"`
	CreatedAt      string  `json:"createdAt"`
}

type summarizeRequest struct {
	NewsletterIDs []string `json:"newsletterIds"`
}
