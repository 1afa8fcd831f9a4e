package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/newsletter-digest/app/database"
	"github.com/lysyi3m/newsletter-digest/app/ingest"
)

const maxEmailSize = 25 << 20

var (
	emailJSONFields      = []string{"email", "raw", "text", "content"}
	externalIDJSONFields = []string{"id", "messageId", "externalId"}
	emailFormFields      = []string{"email", "content", "file"}
)

type badRequestError struct {
	message string
}

func (e *badRequestError) Error() string {
	return e.message
}

func (h *Handler) GetEmailWebhookInfo(c *gin.Context) {
	authentication := "None"
	if h.WebhookSecret != "" {
		authentication = "Bearer token required"
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Email webhook endpoint is running",
		"usage":          "POST raw email content to this endpoint",
		"formats":        []string{"raw MIME", "JSON with email field", "multipart/form-data"},
		"authentication": authentication,
	})
}

func (h *Handler) PostEmailWebhook(c *gin.Context) {
	if h.WebhookSecret != "" {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if !secureEqual(token, h.WebhookSecret) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxEmailSize)

	raw, externalID, err := readEmailPayload(c)
	if err != nil {
		var badRequest *badRequestError
		if errors.As(err, &badRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": badRequest.message})
			return
		}
		slog.Error("Failed to read webhook payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	result, err := h.Ingester.Ingest(raw, externalID, database.SourceEmail)
	if err != nil {
		slog.Error("Error in webhook endpoint", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to process email",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"id":         result.ID,
		"duplicate":  result.Duplicate,
		"newsletter": h.newsletterInfo(result),
	})
}

// newsletterInfo describes the stored record. For duplicates it is loaded
// back from the database.
func (h *Handler) newsletterInfo(result *ingest.Result) gin.H {
	n := result.Newsletter
	if n == nil {
		existing, err := h.NewsletterRepo.GetNewsletter(result.ID)
		if err != nil || existing == nil {
			return nil
		}
		n = existing
	}

	return gin.H{
		"subject":      n.Subject,
		"sender":       n.SenderName,
		"isNewsletter": n.IsNewsletter,
		"receivedAt":   n.ReceivedAt.UTC().Format(time.RFC3339),
	}
}

// readEmailPayload accepts JSON, multipart form data or the raw message as the body.
func readEmailPayload(c *gin.Context) (string, string, error) {
	contentType := c.GetHeader("Content-Type")

	switch {
	case strings.Contains(contentType, "application/json"):
		var body map[string]any
		if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil {
			return "", "", &badRequestError{message: "Invalid JSON payload"}
		}

		raw := firstString(body, emailJSONFields)
		if raw == "" {
			return "", "", &badRequestError{message: "Missing email content in JSON payload"}
		}
		return raw, firstString(body, externalIDJSONFields), nil

	case strings.Contains(contentType, "multipart/form-data"):
		for _, field := range emailFormFields {
			if value := c.PostForm(field); value != "" {
				return value, "", nil
			}
		}

		if header, err := c.FormFile("file"); err == nil {
			file, err := header.Open()
			if err != nil {
				return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
			}
			defer file.Close()

			data, err := io.ReadAll(file)
			if err != nil {
				return "", "", fmt.Errorf("failed to read uploaded file: %w", err)
			}
			if strings.TrimSpace(string(data)) != "" {
				return string(data), "", nil
			}
		}

		return "", "", &badRequestError{message: "No email content found in form data"}

	default:
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return "", "", fmt.Errorf("failed to read request body: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", "", &badRequestError{message: "Empty request body"}
		}
		return string(data), "", nil
	}
}

func firstString(body map[string]any, keys []string) string {
	for _, key := range keys {
		switch v := body[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
