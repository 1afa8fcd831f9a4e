package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lysyi3m/newsletter-digest/app/database"
	"github.com/lysyi3m/newsletter-digest/app/digest"
	"github.com/lysyi3m/newsletter-digest/app/ingest"
	"github.com/lysyi3m/newsletter-digest/app/summary"
	"github.com/lysyi3m/newsletter-digest/app/tasks"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.err
}

type mockNewsletterRepo struct {
	newsletters []database.Newsletter
	err         error
}

func (m *mockNewsletterRepo) GetNewsletter(id string) (*database.Newsletter, error) {
	for i := range m.newsletters {
		if m.newsletters[i].ID == id {
			return &m.newsletters[i], nil
		}
	}
	return nil, m.err
}

func (m *mockNewsletterRepo) GetNewsletters(limit, offset int) ([]database.Newsletter, error) {
	if m.err != nil {
		return nil, m.err
	}
	if offset >= len(m.newsletters) {
		return []database.Newsletter{}, nil
	}
	end := min(offset+limit, len(m.newsletters))
	return m.newsletters[offset:end], nil
}

func (m *mockNewsletterRepo) GetNewsletterCount() (int, error) {
	return len(m.newsletters), m.err
}

func (m *mockNewsletterRepo) InsertNewsletter(n *database.Newsletter) (string, error) {
	return "", errors.New("not implemented")
}

func (m *mockNewsletterRepo) FindDuplicate(externalID, contentID string) (*string, error) {
	return nil, nil
}

func (m *mockNewsletterRepo) FindFeedItemDuplicate(guid, link string) (*string, error) {
	return nil, nil
}

type mockSummaryRepo struct {
	summaries map[string]*database.Summary
}

func (m *mockSummaryRepo) GetSummary(newsletterID string) (*database.Summary, error) {
	return m.summaries[newsletterID], nil
}

func (m *mockSummaryRepo) GetSummaries(ids []string) (map[string]*database.Summary, error) {
	result := make(map[string]*database.Summary)
	for _, id := range ids {
		if s, ok := m.summaries[id]; ok {
			result[id] = s
		}
	}
	return result, nil
}

func (m *mockSummaryRepo) InsertSummary(s *database.Summary) (bool, error) {
	return false, errors.New("not implemented")
}

type mockDigestRepo struct {
	latest *database.Digest
}

func (m *mockDigestRepo) GetLatestDigest() (*database.Digest, error) {
	return m.latest, nil
}

func (m *mockDigestRepo) InsertDigest(d *database.Digest) error {
	return errors.New("not implemented")
}

type mockFeedRepo struct {
	feeds []database.Feed
}

func (m *mockFeedRepo) GetFeed(id string) (*database.Feed, error) { return nil, nil }
func (m *mockFeedRepo) GetFeeds() ([]database.Feed, error)        { return m.feeds, nil }
func (m *mockFeedRepo) GetEnabledFeeds() ([]database.Feed, error) {
	return m.feeds, nil
}
func (m *mockFeedRepo) UpsertFeed(f database.Feed) error          { return nil }
func (m *mockFeedRepo) UpdateLastFetched(string, time.Time) error { return nil }

type ingestCall struct {
	raw        string
	externalID string
	source     string
}

type mockIngester struct {
	mu     sync.Mutex
	calls  []ingestCall
	result *ingest.Result
	err    error
}

func (m *mockIngester) Ingest(raw, externalID, source string) (*ingest.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, ingestCall{raw: raw, externalID: externalID, source: source})
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &ingest.Result{
		ID: "n1",
		Newsletter: &database.Newsletter{
			ID:           "n1",
			Subject:      "Weekly Digest #42",
			SenderName:   "Morning Brew",
			IsNewsletter: true,
			ReceivedAt:   time.Date(2024, 2, 20, 8, 0, 0, 0, time.UTC),
		},
	}, nil
}

type mockCollector struct {
	result ingest.CollectResult
	err    error
}

func (m *mockCollector) Run(ctx context.Context) (ingest.CollectResult, error) {
	return m.result, m.err
}

type mockSummarizer struct {
	result summary.BatchResult
	ids    []string
}

func (m *mockSummarizer) Process(ctx context.Context, ids []string) summary.BatchResult {
	m.ids = ids
	return m.result
}

type mockSynthesizer struct {
	err   error
	input []summary.NewsletterSummary
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, summaries []summary.NewsletterSummary) (*digest.Digest, error) {
	m.input = summaries
	if m.err != nil {
		return nil, m.err
	}
	return &digest.Digest{
		DateRange:        "2024-02-19_to_2024-02-20",
		TotalNewsletters: len(summaries),
		Themes:           []database.Theme{},
		Highlights:       []string{"Postgres scales"},
		ActionItems:      []string{},
	}, nil
}

type mockScheduler struct {
	tasks []tasks.TaskInterface
	err   error
}

func (m *mockScheduler) Start() error { return nil }
func (m *mockScheduler) Stop()        {}

func (m *mockScheduler) EnqueueTask(task tasks.TaskInterface) error {
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, task)
	return nil
}

func (m *mockScheduler) EnqueueSummarize(id string) error {
	return m.err
}
