package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGeminiGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-1.5-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		var req gmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "organize these" {
			t.Errorf("unexpected request %+v", req)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"A\":"},{"text":"[]}"}]}}]}`))
	}))
	defer srv.Close()

	g, err := NewGemini(Options{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := g.Generate(context.Background(), "organize these")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != `{"A":[]}` {
		t.Errorf("out = %q", out)
	}
}

func TestGeminiErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"status", http.StatusTooManyRequests, `quota`, "status 429"},
		{"blocked", http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, "blocked"},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, "empty response"},
		{"bad json", http.StatusOK, `nope`, "unmarshal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g, _ := NewGemini(Options{APIKey: "k", BaseURL: srv.URL})
			_, err := g.Generate(context.Background(), "x")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestAnthropicGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Error("missing anthropic-version header")
		}
		var req apiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req.MaxTokens != 8192 || req.Messages[0].Content != "organize these" {
			t.Errorf("unexpected request %+v", req)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"{\"A\":[\"Q\"]}"}]}`))
	}))
	defer srv.Close()

	a, err := NewAnthropic(Options{APIKey: "test-key", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := a.Generate(context.Background(), "organize these")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != `{"A":["Q"]}` {
		t.Errorf("out = %q", out)
	}
}

func TestAnthropicAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	}))
	defer srv.Close()

	a, _ := NewAnthropic(Options{APIKey: "k", BaseURL: srv.URL})
	if _, err := a.Generate(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "overloaded") {
		t.Errorf("expected overloaded error, got %v", err)
	}
}
