package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain"
)

func TestCompleter_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			MaxTokens int `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "chat-model" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != domain.RoleSystem {
			t.Errorf("messages = %+v", req.Messages)
		}
		if req.MaxTokens != 256 {
			t.Errorf("max_tokens = %d", req.MaxTokens)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  "chat-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": `Colour: "Blue"`},
			}},
			"usage": map[string]any{"prompt_tokens": 30, "completion_tokens": 5, "total_tokens": 35},
		})
	}))
	defer server.Close()

	c := NewCompleter(&Config{APIKey: "k", BaseURL: server.URL, Model: "chat-model", Logger: zap.NewNop()}, 256)
	got, err := c.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "extract"},
		{Role: domain.RoleUser, Content: "blue kurti"},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got.Content != `Colour: "Blue"` {
		t.Errorf("Content = %q", got.Content)
	}
	if got.PromptTokens != 30 || got.CompletionTokens != 5 {
		t.Errorf("usage = %d/%d", got.PromptTokens, got.CompletionTokens)
	}
}

func TestCompleter_ServerError(t *testing.T) {
	server := errorServer(t, http.StatusBadGateway, map[string]any{
		"error": map[string]any{"message": "upstream down"},
	})

	c := NewCompleter(&Config{APIKey: "k", BaseURL: server.URL, Model: "chat-model"}, 0)
	_, err := c.Complete(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "hi"}})
	if !errors.Is(err, domain.ErrCompletionProviderError) {
		t.Fatalf("expected ErrCompletionProviderError, got %v", err)
	}
	if errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Error("completion failure must not match the embedding kind")
	}
	if c := Classify(err); !c.Retryable {
		t.Errorf("502 must be retryable, got %+v", c)
	}
}

func TestCompleter_NoChoices(t *testing.T) {
	server := errorServer(t, http.StatusOK, map[string]any{"id": "x", "choices": []any{}})

	c := NewCompleter(&Config{APIKey: "k", BaseURL: server.URL, Model: "chat-model"}, 0)
	if _, err := c.Complete(context.Background(), nil); !errors.Is(err, domain.ErrCompletionProviderError) {
		t.Fatalf("expected ErrCompletionProviderError, got %v", err)
	}
}
