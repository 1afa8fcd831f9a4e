package cfg

import (
	"cmp"
	"fmt"
	"strconv"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath   string `long:"db-path" env:"DB_PATH" default:"./newsletters.db" description:"SQLite database file"`
	RedisURL string `long:"redis-url" env:"REDIS_URL" description:"Redis URL for the cross-process summarize lock (optional)"`

	// Application configuration
	FeedsDir        string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed configuration files"`
	Port            string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount     int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers"`
	CollectSchedule string `long:"collect-schedule" env:"COLLECT_SCHEDULE" default:"@every 30m" description:"Cron spec for RSS collection (empty disables)"`
	CollectOnStart  bool   `long:"collect-on-start" env:"COLLECT_ON_START" description:"Collect RSS feeds once at startup"`
	APIAccessKey    string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	WebhookSecret   string `long:"webhook-secret" env:"WEBHOOK_SECRET" description:"Bearer token required by the email webhook (optional)"`

	// AI providers
	OpenAIAPIKey      string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI API key (enables the OpenAI provider)"`
	OpenAIModel       string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-4o-mini" description:"OpenAI model"`
	OpenAIBaseURL     string `long:"openai-base-url" env:"OPENAI_BASE_URL" default:"https://api.openai.com/v1" description:"OpenAI compatible API base URL"`
	GeminiAPIKey      string `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"Gemini API key (enables the Gemini provider)"`
	GeminiModel       string `long:"gemini-model" env:"GEMINI_MODEL" default:"gemini-2.0-flash" description:"Gemini model"`
	OllamaURL         string `long:"ollama-url" env:"OLLAMA_URL" default:"http://localhost:11434" description:"Ollama server URL"`
	OllamaModel       string `long:"ollama-model" env:"OLLAMA_MODEL" default:"llama3.2" description:"Ollama model"`
	ProviderTimeout   int    `long:"provider-timeout" env:"PROVIDER_TIMEOUT" default:"180" description:"Timeout in seconds for a single AI provider call"`
	SummarizeOnIngest string `long:"summarize-on-ingest" env:"SUMMARIZE_ON_INGEST" default:"true" description:"Summarize newsletters right after ingestion (true/false)"`

	// Slack
	SlackBotToken      string `long:"slack-bot-token" env:"SLACK_BOT_TOKEN" description:"Slack bot token for summary notifications"`
	SlackChannelID     string `long:"slack-channel-id" env:"SLACK_CHANNEL_ID" description:"Slack channel for notifications and email integration messages"`
	SlackSigningSecret string `long:"slack-signing-secret" env:"SLACK_SIGNING_SECRET" description:"Slack signing secret for event verification (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Newsletter Digest/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return load(nil)
}

func load(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		RedisURL:           raw.RedisURL,
		FeedsDir:           raw.FeedsDir,
		Port:               raw.Port,
		WorkerCount:        raw.WorkerCount,
		CollectSchedule:    raw.CollectSchedule,
		CollectOnStart:     raw.CollectOnStart,
		APIAccessKey:       raw.APIAccessKey,
		WebhookSecret:      raw.WebhookSecret,
		OpenAIAPIKey:       raw.OpenAIAPIKey,
		OpenAIModel:        raw.OpenAIModel,
		OpenAIBaseURL:      raw.OpenAIBaseURL,
		GeminiAPIKey:       raw.GeminiAPIKey,
		GeminiModel:        raw.GeminiModel,
		OllamaURL:          raw.OllamaURL,
		OllamaModel:        raw.OllamaModel,
		ProviderTimeout:    time.Duration(raw.ProviderTimeout) * time.Second,
		SlackBotToken:      raw.SlackBotToken,
		SlackChannelID:     raw.SlackChannelID,
		SlackSigningSecret: raw.SlackSigningSecret,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	summarizeOnIngest, err := strconv.ParseBool(raw.SummarizeOnIngest)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SUMMARIZE_ON_INGEST: %w", err)
	}
	cfg.SummarizeOnIngest = summarizeOnIngest

	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
