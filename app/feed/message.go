package feed

import (
	"cmp"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

const senderDomain = "rss.feed"

var whitespaceRun = regexp.MustCompile(`\s+`)

// SenderEmail derives the pseudo address an RSS feed "sends" from.
func SenderEmail(feedName string) string {
	local := whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(feedName)), ".")
	return local + "@" + senderDomain
}

// Body returns the richest content available for the item.
func (i Item) Body() string {
	return cmp.Or(i.Content, i.Snippet)
}

// ToEmail renders an item as email-shaped text. The result is used as the raw
// body of the stored newsletter and as input to its content identity.
func ToEmail(feedName string, item Item) string {
	sender := SenderEmail(feedName)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\n", feedName, sender)
	fmt.Fprintf(&b, "Subject: %s\n", item.Title)
	fmt.Fprintf(&b, "Date: %s\n", item.PublishedAt.UTC().Format(http.TimeFormat))
	b.WriteString("Content-Type: text/html; charset=utf-8\n\n")
	b.WriteString(item.Body())
	b.WriteString("\n\n---\nThis is an automated RSS-to-email conversion.\n")
	fmt.Fprintf(&b, "Original source: %s\n", item.Link)
	fmt.Fprintf(&b, "Unsubscribe: %s\n", sender)

	return b.String()
}
