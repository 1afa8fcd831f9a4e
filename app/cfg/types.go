package cfg

import "time"

type Cfg struct {
	// Storage configuration
	DBPath   string
	RedisURL string

	// Application configuration
	FeedsDir        string
	Port            string
	WorkerCount     int
	CollectSchedule string
	CollectOnStart  bool
	APIAccessKey    string
	WebhookSecret   string

	// AI providers
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	GeminiAPIKey      string
	GeminiModel       string
	OllamaURL         string
	OllamaModel       string
	ProviderTimeout   time.Duration
	SummarizeOnIngest bool

	// Slack
	SlackBotToken      string
	SlackChannelID     string
	SlackSigningSecret string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// SlackEnabled reports whether summary notifications can be posted.
func (c *Cfg) SlackEnabled() bool {
	return c.SlackBotToken != "" && c.SlackChannelID != ""
}
