package email

import (
	"errors"
	"time"
)

var ErrUnparsableContent = errors.New("unparsable content")

type Sender struct {
	Name  string
	Email string
}

// Item is the canonical form of any inbound newsletter, whatever the source.
type Item struct {
	ContentID      string
	ExternalID     string
	Subject        string
	SenderName     string
	SenderEmail    string
	ReceivedAt     time.Time
	RawBody        string
	ParsedBody     string
	IsForwarded    bool
	OriginalSender *Sender
	IsNewsletter   bool
}
