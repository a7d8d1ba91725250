// Package summarize obtains short natural-language summaries from an
// OpenAI-compatible chat-completions endpoint (OpenRouter by default).
//
// The provider is treated as an unreliable remote call: one attempt,
// bounded timeout, no backoff. Callers degrade failures to explanatory
// text rather than retrying.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Defaults for the OpenRouter client.
const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "deepseek/deepseek-chat-v3-0324:free"
	DefaultTimeout = 60 * time.Second

	systemPrompt = "You are an AI assistant that summarizes content concisely."
)

// maxContentLength bounds the content sent to the provider; longer
// extractions are truncated rather than rejected.
const maxContentLength = 48 * 1024

// Client is a chat-completions summarization client.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// Config configures the summarization client.
type Config struct {
	BaseURL string        // DefaultBaseURL when empty
	APIKey  string        // supplied via configuration, never hard-coded
	Model   string        // DefaultModel when empty
	Timeout time.Duration // DefaultTimeout when zero
}

// New creates a summarization client. A missing API key is not a
// construction error: Summarize reports it per call so summaries can
// degrade instead of blocking startup.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Summarize asks the provider for a concise summary of content. The
// returned text may be lightly formatted markdown.
func (c *Client) Summarize(ctx context.Context, content string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("summarization API key is not configured")
	}
	if len(content) > maxContentLength {
		content = content[:maxContentLength]
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Summarize this content: " + content},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encoding summarize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building summarize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling summarization provider: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading summarize response: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decoding summarize response (%s): %w", resp.Status, err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("summarization provider: %s (%s)", out.Error.Message, resp.Status)
		}
		return "", fmt.Errorf("summarization provider: %s", resp.Status)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", errors.New("summarization provider returned no content")
	}

	return out.Choices[0].Message.Content, nil
}
