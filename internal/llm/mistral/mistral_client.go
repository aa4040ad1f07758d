// Package mistral implements the chat-completions port against the Mistral
// API. The wire format is the OpenAI chat-completions shape.
package mistral

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"notascan/internal/config"
	"notascan/internal/llm"
	"notascan/internal/port"
)

const defaultAPIURL = "https://api.mistral.ai/v1/chat/completions"

// Client proxies chat-completion requests to the Mistral API. It implements
// port.ChatCompleter.
type Client struct {
	apiKey       string
	defaultModel string
	endpoint     string
	client       *http.Client
}

// NewClient creates a Mistral client from config.
func NewClient(cfg *config.MistralConfig) *Client {
	endpoint := cfg.APIURL
	if endpoint == "" {
		endpoint = defaultAPIURL
	}
	model := cfg.DefaultModel
	if model == "" {
		model = "mistral-medium"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:       cfg.APIKey,
		defaultModel: model,
		endpoint:     endpoint,
		client:       &http.Client{Timeout: timeout},
	}
}

// Complete forwards the chat request and returns the provider's JSON
// response body verbatim. The model defaults from config when unset.
func (c *Client) Complete(ctx context.Context, chatReq port.ChatRequest) (json.RawMessage, error) {
	if chatReq.Model == "" {
		chatReq.Model = c.defaultModel
	}

	bodyBytes, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling mistral API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("mistral API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := llm.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, llm.NewRateLimitError("mistral", baseErr, retryAfter)
		}
		return nil, baseErr
	}

	return json.RawMessage(respBody), nil
}
