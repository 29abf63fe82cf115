// Package perplexity is a minimal client for the Perplexity chat
// completions API, used to research and write articles.
package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultBaseURL = "https://api.perplexity.ai"
	defaultModel   = "sonar"
	defaultRetries = 3
)

// Config configures a Client. Only APIKey is required.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxRetries int
	HTTPClient *http.Client

	// RetryBase overrides the backoff base, for tests.
	RetryBase time.Duration
}

// Client calls the chat completions endpoint.
type Client struct {
	cfg   Config
	httpc *http.Client
}

// Response is the distilled result of a completion call.
type Response struct {
	Content   string
	Citations []string
	Usage     UsageInfo
}

// UsageInfo reports token consumption for a single call.
type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("perplexity: status %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed on a retry.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// New builds a Client, applying defaults.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("perplexity: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultRetries
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = time.Second
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 120 * time.Second}
	}
	return &Client{cfg: cfg, httpc: httpc}, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Citations []string  `json:"citations"`
	Usage     UsageInfo `json:"usage"`
}

// Search runs a single completion with the given prompt, retrying
// rate limits and server errors with exponential backoff.
func (c *Client) Search(ctx context.Context, prompt string) (Response, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		resp, err := c.complete(ctx, prompt)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		apiErr, ok := err.(*APIError)
		if !ok || !apiErr.Retryable() {
			return Response{}, err
		}
		if attempt == c.cfg.MaxRetries {
			break
		}

		delay := c.cfg.RetryBase << (attempt - 1)
		log.Warn().
			Int("attempt", attempt).
			Int("status", apiErr.StatusCode).
			Dur("delay", delay).
			Msg("perplexity request failed, retrying")

		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(delay):
		}
	}
	return Response{}, lastErr
}

func (c *Client) complete(ctx context.Context, prompt string) (Response, error) {
	payload, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("perplexity: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Response{}, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Response{}, fmt.Errorf("perplexity: decode response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return Response{}, fmt.Errorf("perplexity: empty response")
	}
	return Response{
		Content:   cr.Choices[0].Message.Content,
		Citations: cr.Citations,
		Usage:     cr.Usage,
	}, nil
}
