package ingest

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lysyi3m/newsletter-digest/app/database"
)

type mockNewsletterRepo struct {
	mu          sync.Mutex
	newsletters []database.Newsletter
	insertErr   error
}

func (m *mockNewsletterRepo) GetNewsletter(id string) (*database.Newsletter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.newsletters {
		if m.newsletters[i].ID == id {
			n := m.newsletters[i]
			return &n, nil
		}
	}
	return nil, nil
}

func (m *mockNewsletterRepo) GetNewsletters(limit, offset int) ([]database.Newsletter, error) {
	return nil, errors.New("not implemented")
}

func (m *mockNewsletterRepo) GetNewsletterCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.newsletters), nil
}

func (m *mockNewsletterRepo) InsertNewsletter(n *database.Newsletter) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return "", m.insertErr
	}
	n.ID = fmt.Sprintf("n%d", len(m.newsletters)+1)
	m.newsletters = append(m.newsletters, *n)
	return n.ID, nil
}

func (m *mockNewsletterRepo) FindDuplicate(externalID, contentID string) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.newsletters {
		if (externalID != "" && n.ExternalID == externalID) || n.ContentID == contentID {
			return &n.ID, nil
		}
	}
	return nil, nil
}

func (m *mockNewsletterRepo) FindFeedItemDuplicate(guid, link string) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.newsletters {
		if (guid != "" && n.ExternalID == guid) || (link != "" && strings.Contains(n.ParsedBody, link)) {
			return &n.ID, nil
		}
	}
	return nil, nil
}

type mockFeedRepo struct {
	mu          sync.Mutex
	feeds       []database.Feed
	feedsErr    error
	lastFetched map[string]time.Time
}

func (m *mockFeedRepo) GetFeed(id string) (*database.Feed, error) {
	for i := range m.feeds {
		if m.feeds[i].ID == id {
			f := m.feeds[i]
			return &f, nil
		}
	}
	return nil, nil
}

func (m *mockFeedRepo) GetFeeds() ([]database.Feed, error) {
	return m.feeds, m.feedsErr
}

func (m *mockFeedRepo) GetEnabledFeeds() ([]database.Feed, error) {
	if m.feedsErr != nil {
		return nil, m.feedsErr
	}
	var enabled []database.Feed
	for _, f := range m.feeds {
		if f.Enabled {
			enabled = append(enabled, f)
		}
	}
	return enabled, nil
}

func (m *mockFeedRepo) UpsertFeed(feed database.Feed) error {
	return errors.New("not implemented")
}

func (m *mockFeedRepo) UpdateLastFetched(id string, fetchedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastFetched == nil {
		m.lastFetched = make(map[string]time.Time)
	}
	m.lastFetched[id] = fetchedAt
	return nil
}
