package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/newsletter-digest/app/database"
)

const slackReplayWindow = 300

type slackPayload struct {
	Type      string     `json:"type"`
	Challenge string     `json:"challenge"`
	Event     slackEvent `json:"event"`
}

type slackEvent struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
	Channel string `json:"channel"`
	BotID   string `json:"bot_id"`
	Text    string `json:"text"`
	TS      string `json:"ts"`
}

func (h *Handler) GetSlackEventsInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Slack events endpoint",
		"status":  "running",
		"usage":   "Configure in Slack API Event Subscriptions",
	})
}

func (h *Handler) PostSlackEvents(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxEmailSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if !verifySlackSignature(h.SlackSigningSecret, c.Request.Header, body, time.Now()) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	switch payload.Type {
	case "url_verification":
		c.JSON(http.StatusOK, gin.H{"challenge": payload.Challenge})
		return
	case "event_callback":
		h.handleSlackMessage(payload.Event)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleSlackMessage ingests email integration messages posted to the
// configured channel. Failures are logged, Slack always gets an ok.
func (h *Handler) handleSlackMessage(event slackEvent) {
	if event.Type != "message" || event.Channel == "" || event.Channel != h.SlackChannelID {
		return
	}

	// Our own summary posts.
	if strings.Contains(event.BotID, "newsletter") {
		return
	}

	if !isEmailIntegrationMessage(event) || event.Text == "" {
		return
	}

	slog.Info("Processing email message from Slack", "ts", event.TS)

	result, err := h.Ingester.Ingest(event.Text, "slack_"+event.TS, database.SourceSlack)
	if err != nil {
		slog.Error("Error processing email from Slack", "ts", event.TS, "error", err)
		return
	}

	slog.Info("Newsletter saved from Slack", "id", result.ID, "duplicate", result.Duplicate)
}

func isEmailIntegrationMessage(event slackEvent) bool {
	fromEmail := event.Subtype == "file_share" ||
		event.Subtype == "bot_message" ||
		strings.Contains(event.BotID, "email")

	hasEmailIndicators := strings.Contains(event.Text, "From:") &&
		(strings.Contains(event.Text, "Subject:") || strings.Contains(event.Text, "To:"))

	return fromEmail || hasEmailIndicators
}

// verifySlackSignature checks the v0 request signature. Without a signing
// secret every request is accepted.
func verifySlackSignature(secret string, header http.Header, body []byte, now time.Time) bool {
	if secret == "" {
		return true
	}

	timestamp := header.Get("X-Slack-Request-Timestamp")
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		slog.Warn("Slack request timestamp missing or invalid")
		return false
	}
	if math.Abs(float64(now.Unix()-ts)) > slackReplayWindow {
		slog.Warn("Slack request timestamp too old", "timestamp", ts)
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(header.Get("X-Slack-Signature")))
}
