package port

import (
	"context"
	"encoding/json"
)

// VisionInput carries the data for a vision extraction call. The prompt is
// supplied explicitly by the caller; the client never reads configuration
// state of its own.
type VisionInput struct {
	ImageBytes  []byte
	ContentType string
	Prompt      string
}

// VisionExtractor abstracts a vision-capable LLM. It returns the model's raw
// text output; turning that into structured fields is the extractor's job.
type VisionExtractor interface {
	ExtractText(ctx context.Context, input VisionInput) (string, error)
}

// TextGenerator abstracts a plain text-in/text-out LLM call.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChatMessage is a single chat-completion message.
type ChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest is a chat-completion request forwarded to an external
// provider. Unset optional fields are omitted from the outbound payload.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages" binding:"required,min=1"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

// ChatCompleter abstracts a chat-completions provider. The provider's JSON
// response is passed through untouched.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (json.RawMessage, error)
}
