package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

type GeminiProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewGeminiProvider(apiKey, model string, client *http.Client) *GeminiProvider {
	return newGeminiProviderWithURL(apiKey, model, client, geminiBaseURL)
}

func newGeminiProviderWithURL(apiKey, model string, client *http.Client, baseURL string) *GeminiProvider {
	return &GeminiProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  client,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction geminiContent   `json:"systemInstruction"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature      float64 `json:"temperature"`
		ResponseMimeType string  `json:"responseMimeType"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (p *GeminiProvider) Name() string {
	return p.model
}

func (p *GeminiProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := geminiRequest{
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: systemPrompt}}},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: userPrompt}}},
		},
	}
	req.GenerationConfig.Temperature = 0.3
	req.GenerationConfig.ResponseMimeType = "application/json"

	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", p.baseURL, p.model, url.QueryEscape(p.apiKey))

	var resp geminiResponse
	if err := postJSON(ctx, p.client, endpoint, nil, req, &resp); err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: no candidates in response")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}

	text := StripCodeFence(b.String())
	if text == "" {
		return "", fmt.Errorf("gemini: empty response")
	}

	return text, nil
}
