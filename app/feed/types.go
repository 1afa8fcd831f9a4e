package feed

import (
	"time"
)

// Feed processing types

type Item struct {
	GUID        string // Falls back to Link when the feed has no guid
	Title       string
	Link        string
	PublishedAt time.Time
	Content     string // Richest body: content:encoded / atom content, else description
	Snippet     string // Plain-text preview
	Creator     string
	Authors     []string // Multiple authors in format "email (name)" or "name"
	Categories  []string

	IsFiltered   bool
	FilterReason string
}

// Configuration types

type Config struct {
	ID       string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Name     string         `yaml:"name"` // Display name used as the synthesized sender
	Settings ConfigSettings `yaml:"settings"`
	Filters  []ConfigFilter `yaml:"filters"`
}

type ConfigSettings struct {
	Enabled        bool `yaml:"enabled"`
	Timeout        int  `yaml:"timeout"`         // seconds
	ExtractContent bool `yaml:"extract_content"` // fetch linked articles for short items
}

type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}
