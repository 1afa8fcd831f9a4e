package summary

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lysyi3m/newsletter-digest/app/database"
)

type mockNewsletterRepo struct {
	newsletters map[string]*database.Newsletter
}

func newMockNewsletterRepo(newsletters ...*database.Newsletter) *mockNewsletterRepo {
	repo := &mockNewsletterRepo{newsletters: map[string]*database.Newsletter{}}
	for _, n := range newsletters {
		repo.newsletters[n.ID] = n
	}
	return repo
}

func (m *mockNewsletterRepo) GetNewsletter(id string) (*database.Newsletter, error) {
	return m.newsletters[id], nil
}

func (m *mockNewsletterRepo) GetNewsletters(limit, offset int) ([]database.Newsletter, error) {
	return nil, nil
}

func (m *mockNewsletterRepo) GetNewsletterCount() (int, error) {
	return len(m.newsletters), nil
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
	mu        sync.Mutex
	summaries map[string]*database.Summary
	inserts   int
	insertErr error
	// hide makes the next GetSummary calls miss, simulating a writer that
	// lands between the cache checks and the insert.
	hide int
}

func newMockSummaryRepo() *mockSummaryRepo {
	return &mockSummaryRepo{summaries: map[string]*database.Summary{}}
}

func (m *mockSummaryRepo) GetSummary(newsletterID string) (*database.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hide > 0 {
		m.hide--
		return nil, nil
	}
	return m.summaries[newsletterID], nil
}

func (m *mockSummaryRepo) GetSummaries(newsletterIDs []string) (map[string]*database.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := map[string]*database.Summary{}
	for _, id := range newsletterIDs {
		if s, ok := m.summaries[id]; ok {
			result[id] = s
		}
	}
	return result, nil
}

func (m *mockSummaryRepo) InsertSummary(s *database.Summary) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertErr != nil {
		return false, m.insertErr
	}
	if _, exists := m.summaries[s.NewsletterID]; exists {
		return false, nil
	}
	m.inserts++
	stored := *s
	m.summaries[s.NewsletterID] = &stored
	return true, nil
}

func (m *mockSummaryRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.summaries)
}

type mockProvider struct {
	name     string
	response string
	err      error
	delay    time.Duration
	calls    atomic.Int32
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.response, m.err
}

type mockNotifier struct {
	mu        sync.Mutex
	summaries []NewsletterSummary
	err       error
}

func (m *mockNotifier) NotifySummary(ctx context.Context, s NewsletterSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, s)
	return m.err
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.summaries)
}

type promptRecorder struct {
	response string
	user     string
}

func (p *promptRecorder) Complete(ctx context.Context, systemPrompt, userPrompt string, decode func(string) error) (string, error) {
	p.user = userPrompt
	return "recorder", decode(p.response)
}
