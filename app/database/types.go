package database

import (
	"time"
)

const (
	SourceEmail = "email"
	SourceSlack = "slack"
	SourceRSS   = "rss"
)

type Newsletter struct {
	ID                  string // Database UUID
	ContentID           string // Fingerprint of the raw body
	ExternalID          string // Message-ID, RSS guid/link or slack_<ts>
	Subject             string
	SenderName          string
	SenderEmail         string
	ReceivedAt          time.Time
	RawBody             string
	ParsedBody          string
	IsForwarded         bool
	OriginalSenderName  string
	OriginalSenderEmail string
	IsNewsletter        bool
	Source              string
	CreatedAt           time.Time
}

type Summary struct {
	ID              string // summary_<newsletter id>
	NewsletterID    string
	SummaryText     string
	KeyPoints       StringList
	Topics          StringList
	Sentiment       string // positive, neutral, negative
	ReadTimeMinutes int
	ModelUsed       string
	CreatedAt       time.Time
}

type Digest struct {
	ID               string
	DateRange        string // e.g. 2024-02-19_to_2024-02-26
	Themes           ThemeList
	Highlights       StringList
	ActionItems      StringList
	TotalNewsletters int
	CreatedAt        time.Time
}

type Feed struct {
	ID             string
	URL            string
	Name           string
	LastFetched    *time.Time
	Enabled        bool
	ExtractContent bool
	CreatedAt      time.Time
}
