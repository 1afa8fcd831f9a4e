package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/lysyi3m/newsletter-digest/app/ai"
	"github.com/lysyi3m/newsletter-digest/app/api"
	"github.com/lysyi3m/newsletter-digest/app/cfg"
	"github.com/lysyi3m/newsletter-digest/app/database"
	"github.com/lysyi3m/newsletter-digest/app/digest"
	"github.com/lysyi3m/newsletter-digest/app/email"
	"github.com/lysyi3m/newsletter-digest/app/feed"
	"github.com/lysyi3m/newsletter-digest/app/ingest"
	"github.com/lysyi3m/newsletter-digest/app/notify"
	"github.com/lysyi3m/newsletter-digest/app/summary"
	"github.com/lysyi3m/newsletter-digest/app/tasks"
)

func main() {
	config, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if config == nil {
		// --help was shown
		return
	}

	setupLogging(config.Debug)

	if err := run(config); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
}

func run(config *cfg.Cfg) error {
	slog.Info("Starting Newsletter Digest", "version", config.Version)

	db, err := database.Open(config.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return err
	}
	slog.Info("Database ready", "path", config.DBPath, "schema_version", version, "dirty", dirty)

	newsletterRepo := database.NewNewsletterRepository(db)
	summaryRepo := database.NewSummaryRepository(db)
	digestRepo := database.NewDigestRepository(db)
	feedRepo := database.NewFeedRepository(db)

	configCache := feed.NewConfigCache(config.FeedsDir)
	if err := configCache.Run(); err != nil {
		return fmt.Errorf("failed to load feed configurations: %w", err)
	}
	slog.Info("Feed configurations loaded", "dir", config.FeedsDir, "count", configCache.GetConfigCount())

	httpClient := &http.Client{}

	chain := ai.NewChain(config.ProviderTimeout, buildProviders(config, httpClient)...)

	var notifier summary.Notifier
	if config.SlackEnabled() {
		notifier = notify.NewSlackNotifier(config.SlackBotToken, config.SlackChannelID, httpClient)
		slog.Info("Slack notifications enabled", "channel", config.SlackChannelID)
	}

	var locker summary.Locker
	if config.RedisURL != "" {
		opts, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		// Longer than a full pass over the provider chain.
		lockTTL := config.ProviderTimeout*time.Duration(len(chain.Providers())) + time.Minute
		locker = summary.NewRedisLocker(rdb, lockTTL)
		slog.Info("Distributed summarize lock enabled", "ttl", lockTTL)
	}

	engine := summary.NewEngine(newsletterRepo, summaryRepo, chain, notifier, locker)
	synthesizer := digest.NewSynthesizer(chain, digestRepo)

	pipeline := ingest.NewPipeline(email.NewNormalizer(), newsletterRepo)
	collector := ingest.NewCollector(
		feedRepo,
		pipeline,
		feed.NewFetcher(httpClient, config.UserAgent),
		feed.NewParser(),
		feed.NewFilterer(),
		feed.NewContentExtractor(),
		configCache,
	)

	scheduler := tasks.NewScheduler(tasks.Options{
		WorkerCount:     config.WorkerCount,
		CollectSchedule: config.CollectSchedule,
		CollectOnStart:  config.CollectOnStart,
	}, configCache, feedRepo, collector, engine)

	if config.SummarizeOnIngest {
		pipeline.OnIngested(func(newsletterID string) {
			if err := scheduler.EnqueueSummarize(newsletterID); err != nil {
				slog.Warn("Failed to enqueue SummarizeTask", "newsletter_id", newsletterID, "error", err)
			}
		})
	}

	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	handler := api.NewHandler(api.Dependencies{
		DB:                 db,
		NewsletterRepo:     newsletterRepo,
		SummaryRepo:        summaryRepo,
		DigestRepo:         digestRepo,
		FeedRepo:           feedRepo,
		Ingester:           pipeline,
		Collector:          collector,
		Summarizer:         engine,
		Synthesizer:        synthesizer,
		ConfigCache:        configCache,
		Scheduler:          scheduler,
		WebhookSecret:      config.WebhookSecret,
		SlackChannelID:     config.SlackChannelID,
		SlackSigningSecret: config.SlackSigningSecret,
	})

	// Summarize and collect requests run synchronously, so no write timeout.
	httpServer := &http.Server{
		Addr:        ":" + config.Port,
		Handler:     api.NewServer(handler, config.APIAccessKey),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", config.Port, "api_enabled", config.APIAccessKey != "")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return nil
}

// buildProviders returns the fallback order: OpenAI, Gemini, then the local Ollama.
func buildProviders(config *cfg.Cfg, httpClient *http.Client) []ai.Provider {
	var providers []ai.Provider

	if config.OpenAIAPIKey != "" {
		providers = append(providers, ai.NewOpenAIProvider(config.OpenAIAPIKey, config.OpenAIModel, config.OpenAIBaseURL, httpClient))
	}
	if config.GeminiAPIKey != "" {
		providers = append(providers, ai.NewGeminiProvider(config.GeminiAPIKey, config.GeminiModel, httpClient))
	}
	providers = append(providers, ai.NewOllamaProvider(config.OllamaURL, config.OllamaModel, httpClient))

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	slog.Info("AI providers configured", "providers", names, "timeout", config.ProviderTimeout)

	return providers
}
