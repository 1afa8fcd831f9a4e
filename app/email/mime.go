package email

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
)

var forwardMarkers = []string{
	"forwarded message",
	"---------- forwarded",
	"begin forwarded message",
	"forwarded this email",
}

var forwardSubjectMarkers = []string{"fwd:", "fw:", "forwarded"}

var (
	fromNameAndAddress = regexp.MustCompile(`(?i)From:\s*([^<]+?)\s*<([^>]+)>`)
	fromAddressOnly    = regexp.MustCompile(`(?i)From:\s*([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
	fromEscapedHTML    = regexp.MustCompile(`(?i)From:</?\w+>\s*([^&<]+?)\s*&lt;([^&>]+)&gt;`)

	nameAngleAddress = regexp.MustCompile(`(.*?)<(.*?)>`)
)

// ParseMIME parses a full RFC 5322 message. It fails with ErrUnparsableContent
// when the header block is malformed or nothing usable could be recovered.
func ParseMIME(raw string) (*Item, error) {
	mr, err := mail.CreateReader(strings.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("%w: %w", ErrUnparsableContent, err)
	}
	defer mr.Close()

	item := &Item{
		ContentID:  ContentID(raw),
		RawBody:    raw,
		ReceivedAt: time.Now().UTC(),
	}

	if subject, err := mr.Header.Subject(); err == nil {
		item.Subject = strings.TrimSpace(subject)
	}

	item.SenderName, item.SenderEmail = parseFromHeader(mr.Header)

	if date, err := mr.Header.Date(); err == nil && !date.IsZero() {
		item.ReceivedAt = date.UTC()
	}

	if messageID, err := mr.Header.MessageID(); err == nil {
		item.ExternalID = messageID
	}

	text, htmlBody := readBodies(mr)

	switch {
	case strings.TrimSpace(text) != "":
		item.ParsedBody = text
	case htmlBody != "":
		item.ParsedBody = HTMLToText(htmlBody)
	}

	if item.Subject == "" && item.SenderEmail == "" && strings.TrimSpace(item.ParsedBody) == "" {
		return nil, fmt.Errorf("%w: no subject, sender or body found", ErrUnparsableContent)
	}

	item.IsForwarded = isForwarded(item.Subject, text, htmlBody)
	if item.IsForwarded {
		item.OriginalSender = extractOriginalSender(text + "\n" + htmlBody)
	}

	return item, nil
}

func parseFromHeader(h mail.Header) (string, string) {
	addresses, err := h.AddressList("From")
	if err == nil && len(addresses) > 0 {
		name := strings.TrimSpace(addresses[0].Name)
		if name == "" {
			name = NameFromEmail(addresses[0].Address)
		}
		return name, addresses[0].Address
	}

	raw := strings.TrimSpace(h.Get("From"))
	if raw == "" {
		return "", ""
	}
	if m := nameAngleAddress.FindStringSubmatch(raw); m != nil {
		return strings.Trim(strings.TrimSpace(m[1]), `"`), strings.TrimSpace(m[2])
	}
	return NameFromEmail(raw), raw
}

// readBodies returns the first inline text/plain and text/html parts.
// Parts with no Content-Type are treated as text/plain.
func readBodies(mr *mail.Reader) (string, string) {
	var text, htmlBody string

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Debug("Stopped reading MIME parts", "error", err)
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := header.ContentType()
		contentType = strings.ToLower(contentType)
		if contentType != "" && contentType != "text/plain" && contentType != "text/html" {
			continue
		}

		data, err := io.ReadAll(part.Body)
		if err != nil {
			slog.Debug("Failed to read MIME part", "content_type", contentType, "error", err)
			continue
		}

		if contentType == "text/html" {
			if htmlBody == "" {
				htmlBody = string(data)
			}
		} else if text == "" {
			text = string(data)
		}
	}

	return text, htmlBody
}

func isForwarded(subject, text, htmlBody string) bool {
	subject = strings.ToLower(subject)
	for _, marker := range forwardSubjectMarkers {
		if strings.Contains(subject, marker) {
			return true
		}
	}

	text = strings.ToLower(text)
	htmlBody = strings.ToLower(htmlBody)
	for _, marker := range forwardMarkers {
		if strings.Contains(text, marker) || strings.Contains(htmlBody, marker) {
			return true
		}
	}

	return false
}

// extractOriginalSender finds the sender of the embedded forwarded message.
// Patterns are tried in order and the first match wins.
func extractOriginalSender(body string) *Sender {
	if m := fromNameAndAddress.FindStringSubmatch(body); m != nil {
		return &Sender{Name: strings.TrimSpace(m[1]), Email: strings.TrimSpace(m[2])}
	}

	if m := fromAddressOnly.FindStringSubmatch(body); m != nil {
		address := strings.TrimSpace(m[1])
		return &Sender{Name: NameFromEmail(address), Email: address}
	}

	if m := fromEscapedHTML.FindStringSubmatch(body); m != nil {
		return &Sender{Name: strings.TrimSpace(m[1]), Email: strings.TrimSpace(m[2])}
	}

	return nil
}
