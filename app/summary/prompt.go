package summary

import (
	"fmt"
	"log/slog"
	"regexp"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/lysyi3m/newsletter-digest/app/database"
)

const (
	maxRawBodyChars = 8000

	systemPrompt = "You are an expert at analyzing newsletters and extracting key insights. Always respond with valid JSON."
)

var htmlTag = regexp.MustCompile(`(?i)<(p|div|br|a|table|span|h[1-6]|ul|ol|li|img|html|body)[\s>/]`)

func buildPrompt(n *database.Newsletter) string {
	return fmt.Sprintf(`Analyze this newsletter and provide a structured summary.

Newsletter Subject: %s
From: %s <%s>

Content:
%s

Respond in JSON format with the following structure:
{
  "summary": "A concise 2-3 sentence summary of the newsletter's main content",
  "keyPoints": ["Key point 1", "Key point 2", "Key point 3", "Key point 4", "Key point 5"],
  "topics": ["topic1", "topic2", "topic3"],
  "sentiment": "positive" | "neutral" | "negative",
  "readTimeMinutes": estimated_reading_time_as_number
}

Focus on extracting actionable insights and the most important information. Keep key points concise but informative.`,
		n.Subject, n.SenderName, n.SenderEmail, promptBody(n))
}

// promptBody prefers the parsed body and otherwise takes a bounded prefix of
// the raw body. HTML is handed to the model as markdown.
func promptBody(n *database.Newsletter) string {
	body := n.ParsedBody
	if body == "" {
		body = prefix(n.RawBody, maxRawBodyChars)
	}

	if !htmlTag.MatchString(body) {
		return body
	}

	markdown, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		slog.Debug("Failed to convert body to markdown, using raw body", "newsletter_id", n.ID, "error", err)
		return body
	}

	return markdown
}

func prefix(s string, maxChars int) string {
	count := 0
	for i := range s {
		if count == maxChars {
			return s[:i]
		}
		count++
	}
	return s
}
