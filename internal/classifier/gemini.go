package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// ProviderGemini selects the Google Generative Language API
const ProviderGemini = "gemini"

const geminiAPI = "https://generativelanguage.googleapis.com"

// Gemini generates text via the generateContent endpoint
type Gemini struct {
	apiKey string
	url    string
	hc     *http.Client
}

// NewGemini creates a Gemini backend. The key falls back to the
// GEMINI_API_KEY environment variable.
func NewGemini(opts Options) (*Gemini, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	model := opts.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = geminiAPI
	}

	return &Gemini{
		apiKey: apiKey,
		url:    base + "/v1beta/models/" + url.PathEscape(model) + ":generateContent",
		hc:     &http.Client{},
	}, nil
}

type gmPart struct {
	Text string `json:"text"`
}

type gmContent struct {
	Role  string   `json:"role,omitempty"`
	Parts []gmPart `json:"parts"`
}

type gmRequest struct {
	Contents []gmContent `json:"contents"`
}

type gmResponse struct {
	Candidates []struct {
		Content struct {
			Parts []gmPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends instruction as a single user turn
func (g *Gemini) Generate(ctx context.Context, instruction string) (string, error) {
	jsonBody, err := json.Marshal(gmRequest{
		Contents: []gmContent{{Role: "user", Parts: []gmPart{{Text: instruction}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var gr gmResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if gr.Error != nil {
		return "", fmt.Errorf("api error: %s", gr.Error.Message)
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", gr.PromptFeedback.BlockReason)
	}
	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("empty response")
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response (finish reason %s)", gr.Candidates[0].FinishReason)
	}
	return sb.String(), nil
}
