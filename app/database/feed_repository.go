package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var _ FeedRepository = (*FeedRepo)(nil)

const feedColumns = `id, url, name, last_fetched, enabled, extract_content, created_at`

// FeedRepo handles database operations for RSS feed sources
type FeedRepo struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepo {
	return &FeedRepo{db: db}
}

// UpsertFeed inserts a feed or refreshes name and flags of an existing one,
// matched by id or url. last_fetched is left untouched.
func (r *FeedRepo) UpsertFeed(feed Feed) error {
	_, err := r.db.Exec(`
		INSERT INTO rss_feeds (id, url, name, enabled, extract_content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			name = excluded.name,
			enabled = excluded.enabled,
			extract_content = excluded.extract_content
		ON CONFLICT(url) DO UPDATE SET
			name = excluded.name,
			enabled = excluded.enabled,
			extract_content = excluded.extract_content
	`, feed.ID, feed.URL, feed.Name, feed.Enabled, feed.ExtractContent, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert feed: %w", err)
	}

	return nil
}

func (r *FeedRepo) GetFeed(id string) (*Feed, error) {
	row := r.db.QueryRow(`SELECT `+feedColumns+` FROM rss_feeds WHERE id = ?`, id)

	feed, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return feed, nil
}

func (r *FeedRepo) GetFeeds() ([]Feed, error) {
	return r.queryFeeds(`SELECT ` + feedColumns + ` FROM rss_feeds ORDER BY name`)
}

func (r *FeedRepo) GetEnabledFeeds() ([]Feed, error) {
	return r.queryFeeds(`SELECT ` + feedColumns + ` FROM rss_feeds WHERE enabled = 1 ORDER BY name`)
}

func (r *FeedRepo) UpdateLastFetched(id string, fetchedAt time.Time) error {
	_, err := r.db.Exec(`UPDATE rss_feeds SET last_fetched = ? WHERE id = ?`, fetchedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update last fetched: %w", err)
	}
	return nil
}

func (r *FeedRepo) queryFeeds(query string) ([]Feed, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get feeds: %w", err)
	}
	defer rows.Close()

	feeds := []Feed{}
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func scanFeed(row rowScanner) (*Feed, error) {
	var feed Feed
	var lastFetched sql.NullTime

	err := row.Scan(&feed.ID, &feed.URL, &feed.Name, &lastFetched, &feed.Enabled, &feed.ExtractContent, &feed.CreatedAt)
	if err != nil {
		return nil, err
	}

	if lastFetched.Valid {
		t := lastFetched.Time
		feed.LastFetched = &t
	}

	return &feed, nil
}
