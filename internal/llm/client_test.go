package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"deskpilot/internal/config"
)

func TestGeminiCompleteWithSystem(t *testing.T) {
	var gotBody geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": "Hello "}, {"text": "there"}}}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewGeminiClient(Config{APIKey: "k", BaseURL: server.URL, Timeout: 5 * time.Second})
	got, err := c.CompleteWithSystem(context.Background(), "be brief", "hi")
	if err != nil {
		t.Fatalf("CompleteWithSystem failed: %v", err)
	}
	if got != "Hello there" {
		t.Errorf("completion = %q, want %q", got, "Hello there")
	}
	if gotBody.SystemInstruction == nil || gotBody.SystemInstruction.Parts[0].Text != "be brief" {
		t.Error("system instruction not forwarded")
	}
}

func TestGeminiAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": 429, "message": "rate limited"}})
	}))
	defer server.Close()

	c := NewGeminiClient(Config{APIKey: "k", BaseURL: server.URL, Timeout: 5 * time.Second})
	_, err := c.Complete(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("error = %v, want API error with message", err)
	}
}

func TestGeminiMissingAPIKey(t *testing.T) {
	c := NewGeminiClient(Config{})
	if _, err := c.Complete(context.Background(), "hi"); err == nil {
		t.Error("expected error without API key")
	}
}

func TestOpenAICompleteWithSystem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer k" {
			t.Errorf("authorization header = %q", got)
		}
		var req openAIRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v, want system+user", req.Messages)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "ok"}}},
		})
	}))
	defer server.Close()

	c := NewOpenAIClient(Config{APIKey: "k", BaseURL: server.URL, Timeout: 5 * time.Second})
	got, err := c.CompleteWithSystem(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("CompleteWithSystem failed: %v", err)
	}
	if got != "ok" {
		t.Errorf("completion = %q, want ok", got)
	}
}

func TestNewClientProviders(t *testing.T) {
	if _, err := NewClient(Config{Provider: "gemini"}); err != nil {
		t.Errorf("gemini provider failed: %v", err)
	}
	if _, err := NewClient(Config{Provider: "openai"}); err != nil {
		t.Errorf("openai provider failed: %v", err)
	}
	if _, err := NewClient(Config{Provider: "mystery"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFromAppConfigTimeout(t *testing.T) {
	cfg, err := FromAppConfig(appLLMConfig("30s"))
	if err != nil {
		t.Fatalf("FromAppConfig failed: %v", err)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", cfg.Timeout)
	}

	if _, err := FromAppConfig(appLLMConfig("soon")); err == nil {
		t.Error("expected error for invalid timeout")
	}
}

func appLLMConfig(timeout string) config.LLMConfig {
	return config.LLMConfig{Provider: "gemini", Timeout: timeout}
}
