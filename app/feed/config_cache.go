package feed

import (
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const defaultTimeout = 30

var validFilterFields = map[string]bool{
	"title":      true,
	"content":    true,
	"snippet":    true,
	"authors":    true,
	"link":       true,
	"categories": true,
}

// ConfigCache holds per-feed overrides read from <feedsDir>/<id>.yml.
type ConfigCache struct {
	feedsDir string
	cache    map[string]*Config
	mu       sync.RWMutex
}

func NewConfigCache(feedsDir string) *ConfigCache {
	return &ConfigCache{
		feedsDir: feedsDir,
		cache:    make(map[string]*Config),
	}
}

// Run (re)loads every config file. A missing directory is not an error.
func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.feedsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.feedsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		feedID := strings.TrimSuffix(filepath.Base(file), ".yml")

		config, err := cc.LoadConfig(feedID)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "feed", feedID, "enabled", config.Settings.Enabled, "filters", len(config.Filters))
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(feedID string) (*Config, error) {
	configFile := filepath.Join(cc.feedsDir, feedID+".yml")

	feedConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	feedConfig.ID = feedID
	feedConfig.Name = cmp.Or(strings.TrimSpace(feedConfig.Name), feedID)

	if err := validateConfig(feedConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[feedConfig.ID] = feedConfig

	return feedConfig, nil
}

// GetConfig returns nil when the feed has no config file.
func (cc *ConfigCache) GetConfig(feedID string) *Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	return cc.cache[feedID]
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var feedConfig Config
	if err := yaml.Unmarshal(data, &feedConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if feedConfig.Settings.Timeout == 0 {
		feedConfig.Settings.Timeout = defaultTimeout
	}

	return &feedConfig, nil
}

func validateConfig(feedConfig *Config) error {
	if feedConfig == nil {
		return fmt.Errorf("feedConfig is nil")
	}

	if feedConfig.URL == "" {
		return fmt.Errorf("feed URL is required")
	}

	if feedConfig.Settings.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}

	for i, filter := range feedConfig.Filters {
		if !validFilterFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}
