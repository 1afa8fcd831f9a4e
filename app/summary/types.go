package summary

import (
	"context"
	"time"

	"github.com/lysyi3m/newsletter-digest/app/database"
)

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"

	DefaultSummaryText = "Unable to generate summary"
	DefaultReadTime    = 5
)

// NewsletterSummary is a stored summary joined with the newsletter it describes.
type NewsletterSummary struct {
	ID          string    `json:"id"`
	SummaryID   string    `json:"summaryId"`
	Subject     string    `json:"subject"`
	Sender      string    `json:"sender"`
	SenderEmail string    `json:"senderEmail"`
	ReceivedAt  time.Time `json:"receivedAt"`
	Summary     string    `json:"summary"`
	KeyPoints   []string  `json:"keyPoints"`
	Topics      []string  `json:"topics"`
	Sentiment   string    `json:"sentiment"`
	ReadTime    int       `json:"readTime"`
	ModelUsed   string    `json:"modelUsed"`
	Cached      bool      `json:"cached"`
}

type Failure struct {
	NewsletterID string `json:"newsletterId"`
	Error        string `json:"error"`
}

type BatchResult struct {
	Summaries []NewsletterSummary `json:"summaries"`
	Failures  []Failure           `json:"failures"`
	Skipped   []string            `json:"skipped"`
}

// Completer runs a prompt through the provider fallback chain and reports the
// model that produced the accepted answer.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, decode func(text string) error) (string, error)
}

type Notifier interface {
	NotifySummary(ctx context.Context, s NewsletterSummary) error
}

// Locker serializes generation for one newsletter across processes.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func newSummaryResult(n *database.Newsletter, s *database.Summary, cached bool) *NewsletterSummary {
	return &NewsletterSummary{
		ID:          n.ID,
		SummaryID:   s.ID,
		Subject:     n.Subject,
		Sender:      n.SenderName,
		SenderEmail: n.SenderEmail,
		ReceivedAt:  n.ReceivedAt,
		Summary:     s.SummaryText,
		KeyPoints:   nonNil(s.KeyPoints),
		Topics:      nonNil(s.Topics),
		Sentiment:   s.Sentiment,
		ReadTime:    s.ReadTimeMinutes,
		ModelUsed:   s.ModelUsed,
		Cached:      cached,
	}
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
