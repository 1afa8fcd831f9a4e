package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/lysyi3m/newsletter-digest/app/database"
	"github.com/lysyi3m/newsletter-digest/app/email"
	"github.com/lysyi3m/newsletter-digest/app/feed"
)

const mimeMessage = "From: Morning Brew <crew@morningbrew.com>\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Weekly Digest #42\r\n" +
	"Date: Mon, 03 Jul 2023 10:00:00 +0000\r\n" +
	"Message-ID: <abc123@morningbrew.com>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Hello readers, here is this week's newsletter. Unsubscribe at any time.\r\n"

func TestPipelineIngestStoresNewsletter(t *testing.T) {
	repo := &mockNewsletterRepo{}
	pipeline := NewPipeline(email.NewNormalizer(), repo)

	var hooked []string
	pipeline.OnIngested(func(id string) { hooked = append(hooked, id) })

	res, err := pipeline.Ingest(mimeMessage, "", database.SourceEmail)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if res.Duplicate {
		t.Error("Expected new newsletter, got duplicate")
	}
	if res.ID != "n1" {
		t.Errorf("Expected id 'n1', got '%s'", res.ID)
	}

	n := res.Newsletter
	if n.Subject != "Weekly Digest #42" {
		t.Errorf("Expected subject 'Weekly Digest #42', got '%s'", n.Subject)
	}
	if n.SenderEmail != "crew@morningbrew.com" {
		t.Errorf("Expected sender 'crew@morningbrew.com', got '%s'", n.SenderEmail)
	}
	if n.ExternalID != "abc123@morningbrew.com" {
		t.Errorf("Expected Message-ID as external id, got '%s'", n.ExternalID)
	}
	if n.RawBody != mimeMessage {
		t.Error("Expected raw body to be kept verbatim")
	}
	if n.Source != database.SourceEmail {
		t.Errorf("Expected source 'email', got '%s'", n.Source)
	}
	if n.ContentID != email.ContentID(mimeMessage) {
		t.Errorf("Expected content id of raw body, got '%s'", n.ContentID)
	}

	if len(hooked) != 1 || hooked[0] != "n1" {
		t.Errorf("Expected hook to run once with 'n1', got: %v", hooked)
	}
}

func TestPipelineIngestExplicitExternalIDWins(t *testing.T) {
	repo := &mockNewsletterRepo{}
	pipeline := NewPipeline(email.NewNormalizer(), repo)

	res, err := pipeline.Ingest(mimeMessage, "slack_1700000000.000100", database.SourceSlack)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if res.Newsletter.ExternalID != "slack_1700000000.000100" {
		t.Errorf("Expected explicit external id, got '%s'", res.Newsletter.ExternalID)
	}
}

func TestPipelineIngestDuplicate(t *testing.T) {
	repo := &mockNewsletterRepo{}
	pipeline := NewPipeline(email.NewNormalizer(), repo)

	hookCalls := 0
	pipeline.OnIngested(func(string) { hookCalls++ })

	first, err := pipeline.Ingest(mimeMessage, "", database.SourceEmail)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	second, err := pipeline.Ingest(mimeMessage, "", database.SourceEmail)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !second.Duplicate {
		t.Error("Expected second ingest to be a duplicate")
	}
	if second.ID != first.ID {
		t.Errorf("Expected existing id '%s', got '%s'", first.ID, second.ID)
	}
	if len(repo.newsletters) != 1 {
		t.Errorf("Expected 1 stored newsletter, got %d", len(repo.newsletters))
	}
	if hookCalls != 1 {
		t.Errorf("Expected hook to run once, got %d", hookCalls)
	}
}

func openTestRepo(t *testing.T) *database.NewsletterRepo {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return database.NewNewsletterRepository(db)
}

func TestPipelineIngestSameContentWithNewExternalID(t *testing.T) {
	slackText := "From: Jane Doe <jane@example.com>\nSubject: Weekly Roundup\n\nThis week in tech."

	tests := []struct {
		name        string
		raw         string
		externalIDs []string
		source      string
	}{
		{"raw post then json id", mimeMessage, []string{"", "json-id-1"}, database.SourceEmail},
		{"slack forwarded twice", slackText, []string{"slack_1.0", "slack_2.0"}, database.SourceSlack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := openTestRepo(t)
			pipeline := NewPipeline(email.NewNormalizer(), repo)

			first, err := pipeline.Ingest(tt.raw, tt.externalIDs[0], tt.source)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			second, err := pipeline.Ingest(tt.raw, tt.externalIDs[1], tt.source)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}

			if !second.Duplicate {
				t.Error("Expected identical content to be a duplicate")
			}
			if second.ID != first.ID {
				t.Errorf("Expected existing id '%s', got '%s'", first.ID, second.ID)
			}

			count, err := repo.GetNewsletterCount()
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if count != 1 {
				t.Errorf("Expected 1 stored newsletter, got %d", count)
			}
		})
	}
}

func TestPipelineIngestUnparseableContent(t *testing.T) {
	repo := &mockNewsletterRepo{}
	pipeline := NewPipeline(email.NewNormalizer(), repo)

	raw := "just some words with no headers at all"
	res, err := pipeline.Ingest(raw, "", database.SourceEmail)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if res.Newsletter.Subject != email.UnparsedSubject {
		t.Errorf("Expected fallback subject, got '%s'", res.Newsletter.Subject)
	}
	if res.Newsletter.ParsedBody != raw {
		t.Errorf("Expected raw text as parsed body, got '%s'", res.Newsletter.ParsedBody)
	}

	again, err := pipeline.Ingest(raw, "", database.SourceEmail)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !again.Duplicate {
		t.Error("Expected identical unparseable content to be a duplicate")
	}
}

func TestPipelineIngestEmptyContent(t *testing.T) {
	pipeline := NewPipeline(email.NewNormalizer(), &mockNewsletterRepo{})

	_, err := pipeline.Ingest("  \n ", "", database.SourceEmail)
	if !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Expected ErrEmptyContent, got: %v", err)
	}
}

func TestPipelineIngestStoreError(t *testing.T) {
	repo := &mockNewsletterRepo{insertErr: errors.New("disk full")}
	pipeline := NewPipeline(email.NewNormalizer(), repo)

	hookCalls := 0
	pipeline.OnIngested(func(string) { hookCalls++ })

	if _, err := pipeline.Ingest(mimeMessage, "", database.SourceEmail); err == nil {
		t.Error("Expected error when insert fails")
	}
	if hookCalls != 0 {
		t.Errorf("Expected hook not to run, got %d calls", hookCalls)
	}
}

func TestPipelineIngestFeedItem(t *testing.T) {
	repo := &mockNewsletterRepo{}
	pipeline := NewPipeline(email.NewNormalizer(), repo)

	item := feed.Item{
		GUID:        "https://blog.example.com/p/1",
		Title:       "Scaling Postgres",
		Link:        "https://blog.example.com/p/1",
		PublishedAt: time.Date(2024, 2, 20, 8, 0, 0, 0, time.UTC),
		Content:     "<p>Full article</p>",
		Snippet:     "Full article",
	}

	enriched := false
	enrich := func(ctx context.Context, item *feed.Item) {
		enriched = true
		item.Content = "<p>Extracted article</p>"
	}

	res, err := pipeline.IngestFeedItem(context.Background(), "Example Blog", item, enrich)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	n := res.Newsletter
	if !enriched {
		t.Error("Expected enricher to run for new item")
	}
	if n.ExternalID != item.GUID {
		t.Errorf("Expected guid as external id, got '%s'", n.ExternalID)
	}
	if n.SenderName != "Example Blog" || n.SenderEmail != "example.blog@rss.feed" {
		t.Errorf("Expected feed sender, got '%s' <%s>", n.SenderName, n.SenderEmail)
	}
	if !n.ReceivedAt.Equal(item.PublishedAt) {
		t.Errorf("Expected received at %v, got %v", item.PublishedAt, n.ReceivedAt)
	}
	if n.ParsedBody != "Full article" {
		t.Errorf("Expected snippet as parsed body, got '%s'", n.ParsedBody)
	}
	if !n.IsNewsletter || n.Source != database.SourceRSS {
		t.Errorf("Expected rss newsletter, got is_newsletter=%v source=%s", n.IsNewsletter, n.Source)
	}

	enriched = false
	again, err := pipeline.IngestFeedItem(context.Background(), "Example Blog", item, enrich)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !again.Duplicate {
		t.Error("Expected second feed item ingest to be a duplicate")
	}
	if enriched {
		t.Error("Expected enricher not to run for duplicates")
	}
}
