package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/lysyi3m/newsletter-digest/app/summary"
)

const (
	slackAPIURL = "https://slack.com/api"

	// Slack rejects header blocks longer than this.
	maxHeaderLength = 150
)

var sentimentEmoji = map[string]string{
	summary.SentimentPositive: "✅",
	summary.SentimentNeutral:  "➖",
	summary.SentimentNegative: "⚠️",
}

type SlackNotifier struct {
	token   string
	channel string
	baseURL string
	client  *http.Client
}

func NewSlackNotifier(token, channel string, client *http.Client) *SlackNotifier {
	return &SlackNotifier{
		token:   token,
		channel: channel,
		baseURL: slackAPIURL,
		client:  client,
	}
}

type Message struct {
	Channel string  `json:"channel"`
	Text    string  `json:"text"`
	Blocks  []Block `json:"blocks,omitempty"`
}

type Block struct {
	Type     string  `json:"type"`
	Text     *Text   `json:"text,omitempty"`
	Fields   []*Text `json:"fields,omitempty"`
	Elements []*Text `json:"elements,omitempty"`
}

type Text struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func mrkdwn(text string) *Text {
	return &Text{Type: "mrkdwn", Text: text}
}

func (n *SlackNotifier) NotifySummary(ctx context.Context, s summary.NewsletterSummary) error {
	return n.post(ctx, FormatSummary(s))
}

// FormatSummary renders a summary as a Slack block message with a plain-text
// fallback.
func FormatSummary(s summary.NewsletterSummary) Message {
	emoji, ok := sentimentEmoji[s.Sentiment]
	if !ok {
		emoji = sentimentEmoji[summary.SentimentNeutral]
	}

	keyPoints := make([]string, len(s.KeyPoints))
	for i, point := range s.KeyPoints {
		keyPoints[i] = fmt.Sprintf("%d. %s", i+1, point)
	}

	return Message{
		Text: fmt.Sprintf("📬 *%s*\nFrom: %s\n\n%s", s.Subject, s.Sender, s.Summary),
		Blocks: []Block{
			{Type: "header", Text: &Text{Type: "plain_text", Text: truncateRunes("📬 "+s.Subject, maxHeaderLength)}},
			{Type: "section", Fields: []*Text{
				mrkdwn("*From:*\n" + s.Sender),
				mrkdwn(fmt.Sprintf("*Sentiment:*\n%s %s", emoji, s.Sentiment)),
				mrkdwn(fmt.Sprintf("*Read time:*\n%d min", s.ReadTime)),
				mrkdwn("*Topics:*\n" + strings.Join(s.Topics, ", ")),
			}},
			{Type: "section", Text: mrkdwn("*Summary:*\n" + s.Summary)},
			{Type: "section", Text: mrkdwn("*Key Points:*\n" + strings.Join(keyPoints, "\n"))},
			{Type: "context", Elements: []*Text{mrkdwn("ID: " + s.ID)}},
		},
	}
}

func (n *SlackNotifier) post(ctx context.Context, msg Message) error {
	msg.Channel = n.channel

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API error: %d %s", resp.StatusCode, resp.Status)
	}

	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse slack response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("slack API error: %s", result.Error)
	}

	return nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
