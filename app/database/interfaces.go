package database

import (
	"time"
)

type NewsletterRepository interface {
	GetNewsletter(id string) (*Newsletter, error)
	GetNewsletters(limit, offset int) ([]Newsletter, error)
	GetNewsletterCount() (int, error)

	InsertNewsletter(newsletter *Newsletter) (string, error)

	FindDuplicate(externalID, contentID string) (*string, error)
	FindFeedItemDuplicate(guid, link string) (*string, error)
}

type SummaryRepository interface {
	GetSummary(newsletterID string) (*Summary, error)
	GetSummaries(newsletterIDs []string) (map[string]*Summary, error)

	// InsertSummary reports false when a summary for the newsletter already exists.
	InsertSummary(summary *Summary) (bool, error)
}

type DigestRepository interface {
	GetLatestDigest() (*Digest, error)
	InsertDigest(digest *Digest) error
}

type FeedRepository interface {
	GetFeed(id string) (*Feed, error)
	GetFeeds() ([]Feed, error)
	GetEnabledFeeds() ([]Feed, error)

	UpsertFeed(feed Feed) error
	UpdateLastFetched(id string, fetchedAt time.Time) error
}
