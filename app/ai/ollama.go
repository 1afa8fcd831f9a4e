package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const DefaultOllamaURL = "http://localhost:11434"

// OllamaProvider talks to a local Ollama server. It is the last resort in the
// chain and is always configured.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaProvider(baseURL, model string, client *http.Client) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	return &OllamaProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  client,
	}
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format"`
	Options map[string]any `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (p *OllamaProvider) Name() string {
	return p.model
}

func (p *OllamaProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := ollamaRequest{
		Model:   p.model,
		Prompt:  systemPrompt + "\n\n" + userPrompt,
		Stream:  false,
		Format:  "json",
		Options: map[string]any{"temperature": 0.3},
	}

	var resp ollamaResponse
	if err := postJSON(ctx, p.client, p.baseURL+"/api/generate", nil, req, &resp); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}

	if strings.TrimSpace(resp.Response) == "" {
		return "", fmt.Errorf("ollama: empty response")
	}

	return resp.Response, nil
}
