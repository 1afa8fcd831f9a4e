package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/go-shiori/go-readability"
)

// MinContentLength is the item body length below which a feed with
// extract_content enabled fetches the linked article.
const MinContentLength = 500

type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

// Run extracts the main article HTML. pageURL resolves relative links and may be empty.
func (e *ContentExtractor) Run(data []byte, pageURL string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	var base *url.URL
	if pageURL != "" {
		parsed, err := url.Parse(pageURL)
		if err == nil {
			base = parsed
		}
	}

	article, err := readability.FromReader(bytes.NewReader(data), base)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Content == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"title", article.Title,
		"url", pageURL,
		"content_length", len(article.Content))

	return article.Content, nil
}
