package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, id, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, id+".yml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func TestConfigCacheLoadValidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "bytebytego", `
url: "https://blog.bytebytego.com/feed"
name: "ByteByteGo"
settings:
  enabled: true
  timeout: 10
  extract_content: true
filters:
  - field: "title"
    excludes: ["Sponsored"]
`)

	cache := NewConfigCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	config := cache.GetConfig("bytebytego")
	if config == nil {
		t.Fatal("Expected config to be cached")
	}
	if config.ID != "bytebytego" {
		t.Errorf("Expected ID 'bytebytego', got: %s", config.ID)
	}
	if config.Name != "ByteByteGo" {
		t.Errorf("Expected name 'ByteByteGo', got: %s", config.Name)
	}
	if !config.Settings.Enabled || !config.Settings.ExtractContent {
		t.Errorf("Expected enabled feed with extraction, got: %+v", config.Settings)
	}
	if config.Settings.Timeout != 10 {
		t.Errorf("Expected timeout 10, got: %d", config.Settings.Timeout)
	}
	if len(config.Filters) != 1 || config.Filters[0].Excludes[0] != "Sponsored" {
		t.Errorf("Expected one title filter, got: %+v", config.Filters)
	}
}

func TestConfigCacheLoadConfigWithDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "minimal", `url: "https://example.com/feed"`)

	cache := NewConfigCache(dir)
	config, err := cache.LoadConfig("minimal")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if config.Name != "minimal" {
		t.Errorf("Expected name to default to id, got: %s", config.Name)
	}
	if config.Settings.Timeout != 30 {
		t.Errorf("Expected default timeout 30, got: %d", config.Settings.Timeout)
	}
	if config.Settings.Enabled {
		t.Error("Expected feed to be disabled unless enabled explicitly")
	}
}

func TestConfigCacheInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"missing url", `name: "x"`, "feed URL is required"},
		{"negative timeout", "url: \"https://x\"\nsettings:\n  timeout: -1", "timeout must be non-negative"},
		{"unknown filter field", "url: \"https://x\"\nfilters:\n  - field: \"body\"\n    includes: [\"a\"]", "invalid filter field"},
		{"empty filter", "url: \"https://x\"\nfilters:\n  - field: \"title\"", "at least one include or exclude"},
		{"bad yaml", "url: [", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "feed", tt.content)

			err := NewConfigCache(dir).Run()
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Expected error containing %q, got: %v", tt.errText, err)
			}
		})
	}
}

func TestConfigCacheMissingDirectory(t *testing.T) {
	cache := NewConfigCache(filepath.Join(t.TempDir(), "missing"))

	if err := cache.Run(); err != nil {
		t.Errorf("Expected no error for missing directory, got: %v", err)
	}
	if cache.GetConfigCount() != 0 {
		t.Errorf("Expected empty cache, got %d configs", cache.GetConfigCount())
	}
	if cache.GetConfig("anything") != nil {
		t.Error("Expected nil config for unknown feed")
	}
}

func TestConfigCacheGetConfigsReturnsCopy(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a", `url: "https://a.example.com/feed"`)
	writeConfig(t, dir, "b", `url: "https://b.example.com/feed"`)

	cache := NewConfigCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	configs := cache.GetConfigs()
	if len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d", len(configs))
	}

	delete(configs, "a")
	if cache.GetConfigCount() != 2 {
		t.Errorf("Expected cache to be unaffected by map mutation, got %d", cache.GetConfigCount())
	}
}
