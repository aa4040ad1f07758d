package service

import (
	"context"
	"encoding/json"

	"notascan/internal/port"
)

// ChatService proxies free-text prompts to the external chat providers.
type ChatService interface {
	AskGemini(ctx context.Context, prompt string) (string, error)
	AskMistral(ctx context.Context, req port.ChatRequest) (json.RawMessage, error)
}

type chatService struct {
	generator port.TextGenerator
	completer port.ChatCompleter
}

// NewChatService creates a new ChatService implementation.
func NewChatService(generator port.TextGenerator, completer port.ChatCompleter) ChatService {
	return &chatService{generator: generator, completer: completer}
}

func (s *chatService) AskGemini(ctx context.Context, prompt string) (string, error) {
	return s.generator.Generate(ctx, prompt)
}

func (s *chatService) AskMistral(ctx context.Context, req port.ChatRequest) (json.RawMessage, error) {
	return s.completer.Complete(ctx, req)
}
