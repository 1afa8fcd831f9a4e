package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAIProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Expected bearer token, got %q", auth)
		}

		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}
		if req.Model != "gpt-4o-mini" || req.ResponseFormat.Type != "json_object" {
			t.Errorf("Unexpected request: %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "user prompt" {
			t.Errorf("Unexpected messages: %+v", req.Messages)
		}

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"summary\":\"hi\"}"}}]}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("sk-test", "gpt-4o-mini", server.URL+"/", server.Client())

	text, err := provider.Complete(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != `{"summary":"hi"}` {
		t.Errorf("Expected content, got %q", text)
	}
	if provider.Name() != "gpt-4o-mini" {
		t.Errorf("Expected name 'gpt-4o-mini', got %q", provider.Name())
	}
}

func TestOpenAIProvider_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewOpenAIProvider("k", "m", server.URL, server.Client()).Complete(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("Expected 429 error, got %v", err)
	}
}

func TestGeminiProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gemini-2.0-flash:generateContent" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if key := r.URL.Query().Get("key"); key != "g-key" {
			t.Errorf("Expected api key in query, got %q", key)
		}

		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}
		if req.SystemInstruction.Parts[0].Text != "system prompt" {
			t.Errorf("Expected system instruction, got %+v", req.SystemInstruction)
		}
		if req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Errorf("Expected JSON mime type, got %q", req.GenerationConfig.ResponseMimeType)
		}

		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"` + "```json\\n{\\\"summary\\\":\\\"hi\\\"}\\n```" + `"}]}}]}`))
	}))
	defer server.Close()

	provider := newGeminiProviderWithURL("g-key", "gemini-2.0-flash", server.Client(), server.URL)

	text, err := provider.Complete(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != `{"summary":"hi"}` {
		t.Errorf("Expected fence-stripped JSON, got %q", text)
	}
}

func TestGeminiProvider_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := newGeminiProviderWithURL("k", "m", server.Client(), server.URL).Complete(context.Background(), "s", "u")
	if err == nil {
		t.Error("Expected error for empty candidates")
	}
}

func TestOllamaProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}

		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}
		if req.Stream || req.Format != "json" {
			t.Errorf("Expected non-streaming JSON request, got %+v", req)
		}
		if req.Prompt != "system prompt\n\nuser prompt" {
			t.Errorf("Expected combined prompt, got %q", req.Prompt)
		}

		w.Write([]byte(`{"response":"{\"summary\":\"local\"}","done":true}`))
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "llama3.2", server.Client())

	text, err := provider.Complete(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if text != `{"summary":"local"}` {
		t.Errorf("Expected response text, got %q", text)
	}
}
