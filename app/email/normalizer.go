package email

import (
	"log/slog"
	"time"
)

const (
	UnparsedSubject    = "Email (unparsed)"
	UnknownSenderName  = "Unknown"
	UnknownSenderEmail = "unknown@example.com"
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Run always yields an item: MIME first, then the forwarded plain-text
// layout, then a degraded placeholder that keeps the raw body.
func (n *Normalizer) Run(raw string) *Item {
	item, err := ParseMIME(raw)
	if err != nil {
		slog.Debug("Failed to parse as MIME, trying forwarded format", "error", err)

		item = ParseForwarded(raw)
		if item == nil {
			slog.Debug("Forwarded format not recognized, storing degraded item", "content_id", ContentID(raw))
			item = Fallback(raw)
		}
	}

	item.IsNewsletter = IsNewsletter(item.Subject, item.ParsedBody, item.SenderEmail)

	return item
}

// Fallback builds the placeholder stored when nothing could be parsed.
func Fallback(raw string) *Item {
	return &Item{
		ContentID:   ContentID(raw),
		Subject:     UnparsedSubject,
		SenderName:  UnknownSenderName,
		SenderEmail: UnknownSenderEmail,
		ReceivedAt:  time.Now().UTC(),
		RawBody:     raw,
		ParsedBody:  raw,
	}
}
