package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/newsletter-digest/app/database"
	"github.com/lysyi3m/newsletter-digest/app/digest"
	"github.com/lysyi3m/newsletter-digest/app/tasks"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

func NewHandler(deps Dependencies) *Handler {
	return &Handler{Dependencies: deps}
}

func (h *Handler) GetHealth(c *gin.Context) {
	timestamp := time.Now().UTC().Format(time.RFC3339)

	if err := h.DB.PingContext(c.Request.Context()); err != nil {
		slog.Error("Health check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": timestamp,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": timestamp,
	})
}

func (h *Handler) APICollectFeeds(c *gin.Context) {
	result, err := h.Collector.Run(c.Request.Context())
	if err != nil {
		slog.Error("Error in RSS collection", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to collect RSS feeds",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Processed %d new newsletter items from %d feeds", result.Processed, result.Total),
		"result":  result,
	})
}

func (h *Handler) APIListFeeds(c *gin.Context) {
	feeds, err := h.FeedRepo.GetFeeds()
	if err != nil {
		slog.Error("Database error", "operation", "get_feeds", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error", "message": err.Error()})
		return
	}

	count, err := h.NewsletterRepo.GetNewsletterCount()
	if err != nil {
		slog.Error("Database error", "operation", "count_newsletters", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error", "message": err.Error()})
		return
	}

	response := make([]feedResponse, 0, len(feeds))
	for _, f := range feeds {
		item := feedResponse{
			ID:             f.ID,
			URL:            f.URL,
			Name:           f.Name,
			Enabled:        f.Enabled,
			ExtractContent: f.ExtractContent,
			CreatedAt:      f.CreatedAt.Format(time.RFC3339),
		}
		if f.LastFetched != nil {
			lastFetched := f.LastFetched.Format(time.RFC3339)
			item.LastFetched = &lastFetched
		}
		response = append(response, item)
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds":           response,
		"newsletterCount": count,
		"configurations":  h.ConfigCache.GetConfigCount(),
	})
}

// APIReloadFeed re-reads feeds/<id>.yml and queues a sync of the feed row.
func (h *Handler) APIReloadFeed(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed id parameter"})
		return
	}

	feedConfig, err := h.ConfigCache.LoadConfig(id)
	if err != nil {
		slog.Error("Error reloading configuration", "feed", id, "error", err)
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	syncFeedTask := tasks.NewSyncFeedConfigTask(feedConfig, h.FeedRepo)
	if err := h.Scheduler.EnqueueTask(syncFeedTask); err != nil {
		slog.Error("Error enqueueing sync task", "feed", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded and sync task enqueued",
		"feed": gin.H{
			"id":      feedConfig.ID,
			"name":    feedConfig.Name,
			"url":     feedConfig.URL,
			"enabled": feedConfig.Settings.Enabled,
		},
		"task": gin.H{
			"id":   syncFeedTask.ID,
			"type": syncFeedTask.Type,
		},
	})
}

func (h *Handler) APIListNewsletters(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultPageLimit)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}
	limit = min(limit, maxPageLimit)

	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset"})
		return
	}

	newsletters, err := h.NewsletterRepo.GetNewsletters(limit, offset)
	if err != nil {
		slog.Error("Database error", "operation", "get_newsletters", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch newsletters"})
		return
	}

	var summaries map[string]*database.Summary
	if c.Query("summaries") == "true" && len(newsletters) > 0 {
		ids := make([]string, len(newsletters))
		for i, n := range newsletters {
			ids[i] = n.ID
		}

		summaries, err = h.SummaryRepo.GetSummaries(ids)
		if err != nil {
			slog.Error("Database error", "operation", "get_summaries", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch newsletters"})
			return
		}
	}

	response := make([]newsletterResponse, 0, len(newsletters))
	for _, n := range newsletters {
		item := newsletterResponse{
			ID:           n.ID,
			ExternalID:   n.ExternalID,
			Subject:      n.Subject,
			SenderName:   n.SenderName,
			SenderEmail:  n.SenderEmail,
			ReceivedAt:   n.ReceivedAt.Format(time.RFC3339),
			IsNewsletter: n.IsNewsletter,
			IsForwarded:  n.IsForwarded,
			Source:       n.Source,
			CreatedAt:    n.CreatedAt.Format(time.RFC3339),
		}
		if s := summaries[n.ID]; s != nil {
			item.Summary = &newsletterSummaryResponse{
				ID:              s.ID,
				SummaryText:     s.SummaryText,
				KeyPoints:       nonNil(s.KeyPoints),
				Topics:          nonNil(s.Topics),
				Sentiment:       s.Sentiment,
				ReadTimeMinutes: s.ReadTimeMinutes,
				ModelUsed:       s.ModelUsed,
			}
		}
		response = append(response, item)
	}

	c.JSON(http.StatusOK, gin.H{
		"newsletters": response,
		"total":       len(response),
		"limit":       limit,
		"offset":      offset,
	})
}

// APISummarizeNewsletters summarizes the requested newsletters in order and
// synthesizes a digest from the ones that succeeded.
func (h *Handler) APISummarizeNewsletters(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.NewsletterIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid newsletterIds array"})
		return
	}

	ctx := c.Request.Context()
	result := h.Summarizer.Process(ctx, req.NewsletterIDs)

	response := gin.H{
		"message":   "Summarization completed",
		"summaries": result.Summaries,
		"failures":  result.Failures,
		"skipped":   result.Skipped,
		"digest":    nil,
	}

	d, err := h.Synthesizer.Synthesize(ctx, result.Summaries)
	if err != nil {
		slog.Error("Failed to synthesize digest", "summaries", len(result.Summaries), "error", err)
		response["digestError"] = err.Error()
	} else {
		response["digest"] = d
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIGetLatestDigest(c *gin.Context) {
	d, err := h.DigestRepo.GetLatestDigest()
	if err != nil {
		slog.Error("Database error", "operation", "get_latest_digest", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if d == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No digest found"})
		return
	}

	c.JSON(http.StatusOK, digest.FromRecord(d))
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	value := c.Query(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
