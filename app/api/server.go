package api

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lysyi3m/newsletter-digest/app/cfg"
	"github.com/lysyi3m/newsletter-digest/app/metrics"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/metrics"},
	}))

	r.Use(gin.Recovery())
	r.Use(metricsMiddleware())

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/webhook/email", handler.GetEmailWebhookInfo)
	r.POST("/webhook/email", handler.PostEmailWebhook)

	r.GET("/slack/events", handler.GetSlackEventsInfo)
	r.POST("/slack/events", handler.PostSlackEvents)

	if apiAccessKey != "" {
		api := r.Group("/api")
		api.Use(authMiddleware(apiAccessKey))
		{
			api.POST("/rss/collect", handler.APICollectFeeds)
			api.GET("/rss/feeds", handler.APIListFeeds)
			api.POST("/rss/feeds/:id/reload", handler.APIReloadFeed)
			api.GET("/newsletters", handler.APIListNewsletters)
			api.POST("/newsletters/summarize", handler.APISummarizeNewsletters)
			api.GET("/digests/latest", handler.APIGetLatestDigest)
		}
		slog.Info("API endpoints enabled with authentication")
	} else {
		slog.Info("API endpoints disabled (API_ACCESS_KEY not set)")
	}

	r.GET("/", func(c *gin.Context) {
		endpoints := map[string]string{
			"health":  "/health",
			"metrics": "/metrics",
			"webhook": "/webhook/email (POST)",
			"slack":   "/slack/events (POST)",
		}

		if apiAccessKey != "" {
			endpoints["collect"] = "/api/rss/collect (POST, requires X-API-Key header)"
			endpoints["feeds"] = "/api/rss/feeds (requires X-API-Key header)"
			endpoints["newsletters"] = "/api/newsletters (requires X-API-Key header)"
			endpoints["summarize"] = "/api/newsletters/summarize (POST, requires X-API-Key header)"
			endpoints["digest"] = "/api/digests/latest (requires X-API-Key header)"
		}

		c.JSON(200, gin.H{
			"service":     "Newsletter Digest",
			"version":     cfg.GetVersion(),
			"description": "Newsletter ingestion, AI summaries and digests",
			"endpoints":   endpoints,
			"api_status": map[string]any{
				"enabled":       apiAccessKey != "",
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware accepts the key in X-API-Key or as a bearer token.
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			providedKey = bearerToken(c.GetHeader("Authorization"))
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if !secureEqual(providedKey, apiAccessKey) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func bearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
