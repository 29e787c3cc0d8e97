package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// ProviderAnthropic selects the Anthropic messages API
const ProviderAnthropic = "anthropic"

const anthropicAPI = "https://api.anthropic.com/v1/messages"

// Anthropic generates text via the Anthropic messages API
type Anthropic struct {
	apiKey    string
	model     string
	url       string
	maxTokens int
	hc        *http.Client
}

// NewAnthropic creates an Anthropic backend. The key falls back to the
// ANTHROPIC_API_KEY environment variable.
func NewAnthropic(opts Options) (*Anthropic, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	a := &Anthropic{
		apiKey:    apiKey,
		model:     opts.Model,
		url:       opts.BaseURL,
		maxTokens: opts.MaxTokens,
		hc:        &http.Client{},
	}
	if a.model == "" {
		a.model = "claude-sonnet-4-20250514"
	}
	if a.url == "" {
		a.url = anthropicAPI
	}
	if a.maxTokens <= 0 {
		a.maxTokens = 8192
	}
	return a, nil
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends instruction as a single user message
func (a *Anthropic) Generate(ctx context.Context, instruction string) (string, error) {
	reqBody := apiRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages: []apiMessage{
			{Role: "user", Content: instruction},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.hc.Do(req)
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

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("api error: %s", apiResp.Error.Message)
	}

	var sb strings.Builder
	for _, c := range apiResp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response")
	}

	return sb.String(), nil
}
