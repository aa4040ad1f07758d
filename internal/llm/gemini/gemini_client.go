// Package gemini implements the vision extraction and text generation ports
// over Google's Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"notascan/internal/config"
	"notascan/internal/llm"
	"notascan/internal/port"
)

const apiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Client calls the Gemini API for both vision extraction and plain text
// generation. It implements port.VisionExtractor and port.TextGenerator.
type Client struct {
	apiKey         string
	chatModel      string
	visionModel    string
	chatEndpoint   string
	visionEndpoint string
	client         *http.Client
}

// NewClient creates a Gemini client from config.
func NewClient(cfg *config.GeminiConfig) *Client {
	return newClient(cfg, "", "")
}

// NewClientWithEndpoints creates a client pointing at custom API endpoints (for testing).
func NewClientWithEndpoints(cfg *config.GeminiConfig, chatEndpoint, visionEndpoint string) *Client {
	return newClient(cfg, chatEndpoint, visionEndpoint)
}

func newClient(cfg *config.GeminiConfig, chatEndpoint, visionEndpoint string) *Client {
	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = "gemini-2.0-flash"
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = "gemini-1.5-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if chatEndpoint == "" {
		chatEndpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, chatModel)
	}
	if visionEndpoint == "" {
		visionEndpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, visionModel)
	}
	return &Client{
		apiKey:         cfg.APIKey,
		chatModel:      chatModel,
		visionModel:    visionModel,
		chatEndpoint:   chatEndpoint,
		visionEndpoint: visionEndpoint,
		client:         &http.Client{Timeout: timeout},
	}
}

// ExtractText sends the image with the extraction prompt to the vision model
// and returns the concatenated candidate text untouched. Parsing the text is
// the caller's concern.
func (c *Client) ExtractText(ctx context.Context, input port.VisionInput) (string, error) {
	mimeType, err := toGeminiMimeType(input.ContentType)
	if err != nil {
		return "", err
	}

	encoded := base64.StdEncoding.EncodeToString(input.ImageBytes)

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{
						"inline_data": map[string]interface{}{
							"mime_type": mimeType,
							"data":      encoded,
						},
					},
					{
						"text": input.Prompt,
					},
				},
			},
		},
	}

	return c.generate(ctx, c.visionEndpoint, reqBody)
}

// Generate sends a plain text prompt to the chat model and returns its text reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
	}

	return c.generate(ctx, c.chatEndpoint, reqBody)
}

func (c *Client) generate(ctx context.Context, endpoint string, reqBody map[string]interface{}) (string, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(respBody))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := llm.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", llm.NewRateLimitError("gemini", baseErr, retryAfter)
		}
		return "", baseErr
	}

	return collectText(respBody)
}

func toGeminiMimeType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg":
		return "image/jpeg", nil
	case "image/png":
		return "image/png", nil
	default:
		return "", fmt.Errorf("unsupported content type for extraction: %s", contentType)
	}
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// collectText joins the text of every part of the first candidate. The model
// may split a reply across parts.
func collectText(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from API: no candidates")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from API: no parts")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String(), nil
}
