package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lysyi3m/newsletter-digest/app/ai"
	"github.com/lysyi3m/newsletter-digest/app/database"
	"github.com/lysyi3m/newsletter-digest/app/summary"
)

const systemPrompt = "You are an expert at synthesizing information from multiple sources and identifying patterns. Always respond with valid JSON."

type Digest struct {
	ID               string           `json:"id,omitempty"`
	DateRange        string           `json:"dateRange"`
	GeneratedAt      time.Time        `json:"generatedAt"`
	TotalNewsletters int              `json:"totalNewsletters"`
	Themes           []database.Theme `json:"themes"`
	Highlights       []string         `json:"highlights"`
	ActionItems      []string         `json:"actionItems"`
}

func FromRecord(d *database.Digest) *Digest {
	return &Digest{
		ID:               d.ID,
		DateRange:        d.DateRange,
		GeneratedAt:      d.CreatedAt,
		TotalNewsletters: d.TotalNewsletters,
		Themes:           nonNilThemes(d.Themes),
		Highlights:       nonNil(d.Highlights),
		ActionItems:      nonNil(d.ActionItems),
	}
}

type Synthesizer struct {
	completer  summary.Completer
	digestRepo database.DigestRepository
	now        func() time.Time
}

func NewSynthesizer(completer summary.Completer, digestRepo database.DigestRepository) *Synthesizer {
	return &Synthesizer{
		completer:  completer,
		digestRepo: digestRepo,
		now:        time.Now,
	}
}

// Synthesize combines summaries into one digest through a single AI call and
// stores it. An empty input returns an empty digest without calling a provider
// or writing anything.
func (s *Synthesizer) Synthesize(ctx context.Context, summaries []summary.NewsletterSummary) (*Digest, error) {
	d := &Digest{
		GeneratedAt: s.now().UTC(),
		Themes:      []database.Theme{},
		Highlights:  []string{},
		ActionItems: []string{},
	}

	if len(summaries) == 0 {
		return d, nil
	}

	var resp digestResponse
	model, err := s.completer.Complete(ctx, systemPrompt, buildPrompt(summaries), func(text string) error {
		decoded, err := decodeResponse(text)
		if err != nil {
			return err
		}
		resp = decoded
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate digest: %w", err)
	}

	d.DateRange = DateRange(summaries)
	d.TotalNewsletters = len(summaries)
	d.Themes = resp.Themes
	d.Highlights = resp.Highlights
	d.ActionItems = resp.ActionItems

	record := &database.Digest{
		DateRange:        d.DateRange,
		Themes:           d.Themes,
		Highlights:       d.Highlights,
		ActionItems:      d.ActionItems,
		TotalNewsletters: d.TotalNewsletters,
		CreatedAt:        d.GeneratedAt,
	}
	if err := s.digestRepo.InsertDigest(record); err != nil {
		return nil, fmt.Errorf("failed to save digest: %w", err)
	}
	d.ID = record.ID

	slog.Info("Digest generated",
		"digest_id", d.ID,
		"model", model,
		"newsletters", d.TotalNewsletters,
		"themes", len(d.Themes))

	return d, nil
}

// DateRange labels a digest with the first and last received dates, e.g.
// 2024-02-19_to_2024-02-26.
func DateRange(summaries []summary.NewsletterSummary) string {
	if len(summaries) == 0 {
		return ""
	}

	earliest, latest := summaries[0].ReceivedAt, summaries[0].ReceivedAt
	for _, s := range summaries[1:] {
		if s.ReceivedAt.Before(earliest) {
			earliest = s.ReceivedAt
		}
		if s.ReceivedAt.After(latest) {
			latest = s.ReceivedAt
		}
	}

	return earliest.UTC().Format(time.DateOnly) + "_to_" + latest.UTC().Format(time.DateOnly)
}

func buildPrompt(summaries []summary.NewsletterSummary) string {
	entries := make([]string, 0, len(summaries))
	for _, s := range summaries {
		entries = append(entries, fmt.Sprintf("Newsletter: %s\nFrom: %s\nSummary: %s\nKey Points: %s\nTopics: %s",
			s.Subject, s.Sender, s.Summary, strings.Join(s.KeyPoints, "; "), strings.Join(s.Topics, ", ")))
	}

	return fmt.Sprintf(`Analyze these newsletter summaries and create a combined digest that identifies themes across all newsletters.

%s

Respond in JSON format with the following structure:
{
  "themes": [
    {
      "theme": "Theme name",
      "description": "Description of how this theme appears across newsletters",
      "relatedNewsletters": ["Newsletter subject 1", "Newsletter subject 2"]
    }
  ],
  "highlights": ["Most important highlight 1", "Most important highlight 2", "Most important highlight 3"],
  "actionItems": ["Action item or recommendation 1", "Action item or recommendation 2"]
}

Identify 2-4 major themes that appear across multiple newsletters. Extract the top 3-5 most important highlights and any actionable recommendations.`,
		strings.Join(entries, "\n\n---\n\n"))
}

type digestResponse struct {
	Themes      []database.Theme
	Highlights  []string
	ActionItems []string
}

// decodeResponse requires a JSON object; each field that is missing or has
// the wrong shape becomes an empty list.
func decodeResponse(text string) (digestResponse, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(ai.StripCodeFence(text)), &fields); err != nil {
		return digestResponse{}, fmt.Errorf("failed to decode digest JSON: %w", err)
	}
	if fields == nil {
		return digestResponse{}, fmt.Errorf("digest JSON is not an object")
	}

	return digestResponse{
		Themes:      themes(fields["themes"]),
		Highlights:  summary.StringList(fields["highlights"]),
		ActionItems: summary.StringList(fields["actionItems"]),
	}, nil
}

func themes(raw json.RawMessage) []database.Theme {
	result := []database.Theme{}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return result
	}

	for _, rawEntry := range entries {
		var entry map[string]json.RawMessage
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			continue
		}

		name := stringField(entry["theme"])
		if name == "" {
			continue
		}

		result = append(result, database.Theme{
			Theme:              name,
			Description:        stringField(entry["description"]),
			RelatedNewsletters: summary.StringList(entry["relatedNewsletters"]),
		})
	}

	return result
}

func stringField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func nonNilThemes(list []database.Theme) []database.Theme {
	if list == nil {
		return []database.Theme{}
	}
	for i := range list {
		list[i].RelatedNewsletters = nonNil(list[i].RelatedNewsletters)
	}
	return list
}
