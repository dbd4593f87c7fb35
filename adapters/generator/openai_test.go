package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPrompt(t *testing.T) {
	p := Prompt("coffee shop")
	if !strings.Contains(p, "'coffee shop'") {
		t.Errorf("prompt does not mention the topic: %q", p)
	}
	if !strings.Contains(p, "5 ideas") {
		t.Errorf("prompt does not ask for 5 ideas: %q", p)
	}
}

func TestOpenAIGenerate(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  1. Idea one\n"}},
			},
		})
	}))
	defer srv.Close()

	g := NewOpenAI(OpenAIConfig{BaseURL: srv.URL, APIKey: "sk-test", Model: "gpt-4"})
	got, err := g.Generate(context.Background(), "coffee")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got != "1. Idea one" {
		t.Errorf("result = %q, want trimmed completion", got)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
	if gotReq.Messages[1].Content != Prompt("coffee") {
		t.Errorf("user message = %q", gotReq.Messages[1].Content)
	}
}

func TestOpenAIGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	g := NewOpenAI(OpenAIConfig{BaseURL: srv.URL})
	_, err := g.Generate(context.Background(), "coffee")

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want *UpstreamError", err)
	}
	if upstream.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", upstream.StatusCode)
	}
}

func TestOpenAIGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	g := NewOpenAI(OpenAIConfig{BaseURL: srv.URL})
	if _, err := g.Generate(context.Background(), "coffee"); err == nil {
		t.Fatal("Generate accepted an empty choices list")
	}
}

func TestStaticGenerator(t *testing.T) {
	g := NewStatic()

	got, err := g.Generate(context.Background(), "bakery")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if !strings.Contains(got, "bakery") {
		t.Errorf("result = %q, want topic mentioned", got)
	}

	g.Err = errors.New("boom")
	if _, err := g.Generate(context.Background(), "cafe"); err == nil {
		t.Fatal("Generate ignored configured error")
	}

	topics := g.Topics()
	if len(topics) != 2 || topics[0] != "bakery" || topics[1] != "cafe" {
		t.Errorf("Topics = %v", topics)
	}
}
