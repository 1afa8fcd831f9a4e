package email

import (
	netmail "net/mail"
	"regexp"
	"strings"
	"time"
)

const forwardedHeaderScanLines = 20

var (
	bracketSubjectLine = regexp.MustCompile(`\[(.*?)\].*?<(.*?)>`)
	subjectAddressLine = regexp.MustCompile(`(.*?)<(.*?)>`)
)

var forwardedDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"Mon, Jan 2, 2006 at 3:04 PM",
	"Mon, Jan 2, 2006 at 3:04 PM",
	"January 2, 2006 at 3:04:05 PM MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseForwarded reads a pasted or chat-forwarded message that has header-like
// lines but no MIME structure. Returns nil when neither a subject nor a sender
// address can be found.
func ParseForwarded(text string) *Item {
	lines := strings.Split(text, "\n")

	var subject, senderName, senderEmail string
	receivedAt := time.Now().UTC()

	for i := 0; i < len(lines) && i < forwardedHeaderScanLines; i++ {
		line := strings.TrimSpace(lines[i])

		switch {
		case strings.HasPrefix(line, "Subject:"):
			subject = strings.TrimSpace(strings.TrimPrefix(line, "Subject:"))
		case strings.HasPrefix(line, "From:"):
			from := strings.TrimSpace(strings.TrimPrefix(line, "From:"))
			if m := nameAngleAddress.FindStringSubmatch(from); m != nil {
				senderName = strings.TrimSpace(m[1])
				senderEmail = strings.TrimSpace(m[2])
			} else {
				senderEmail = from
				senderName = NameFromEmail(senderEmail)
			}
		case strings.HasPrefix(line, "Date:"):
			if date, ok := parseLooseDate(strings.TrimSpace(strings.TrimPrefix(line, "Date:"))); ok {
				receivedAt = date
			}
		}
	}

	// Slack-forwarded emails often put everything on the first line:
	// "[Subject] Sender <email>" or "Subject text <email>".
	if subject == "" || senderEmail == "" {
		firstLine := strings.TrimSpace(lines[0])

		if m := bracketSubjectLine.FindStringSubmatch(firstLine); m != nil {
			subject = strings.TrimSpace(m[1])
			senderEmail = strings.TrimSpace(m[2])
			senderName = NameFromEmail(senderEmail)
		} else if m := subjectAddressLine.FindStringSubmatch(firstLine); m != nil {
			subject = strings.TrimSpace(m[1])
			senderEmail = strings.TrimSpace(m[2])
			senderName = NameFromEmail(senderEmail)
		}
	}

	if subject == "" && senderEmail == "" {
		return nil
	}

	item := &Item{
		ContentID:   ContentID(text),
		Subject:     subject,
		SenderName:  senderName,
		SenderEmail: senderEmail,
		ReceivedAt:  receivedAt,
		RawBody:     text,
		ParsedBody:  text,
		IsForwarded: true,
	}
	if senderName != "" {
		item.OriginalSender = &Sender{Name: senderName, Email: senderEmail}
	}

	return item
}

func parseLooseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	if t, err := netmail.ParseDate(s); err == nil {
		return t.UTC(), true
	}

	for _, layout := range forwardedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}
