package service

import (
	"context"
	"errors"
	"log"

	"notascan/internal/domain"
	"notascan/internal/llm"
	"notascan/internal/port"
)

// ConfigService manages the extraction prompt configuration record.
type ConfigService interface {
	// GetPrompt returns the stored prompt config. When none exists it
	// returns a transient record carrying the built-in default prompt.
	GetPrompt(ctx context.Context) (*domain.PromptConfig, error)
	UpdatePrompt(ctx context.Context, prompt string) (*domain.PromptConfig, error)
}

type configService struct {
	promptRepo port.PromptConfigRepository
}

// NewConfigService creates a new ConfigService implementation.
func NewConfigService(promptRepo port.PromptConfigRepository) ConfigService {
	return &configService{promptRepo: promptRepo}
}

func (s *configService) GetPrompt(ctx context.Context) (*domain.PromptConfig, error) {
	cfg, err := s.promptRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.PromptConfig{Prompt: llm.DefaultExtractionPrompt}, nil
		}
		return nil, err
	}
	return cfg, nil
}

func (s *configService) UpdatePrompt(ctx context.Context, prompt string) (*domain.PromptConfig, error) {
	if prompt == "" {
		return nil, domain.ErrInvalidInput
	}
	cfg, err := s.promptRepo.Upsert(ctx, prompt)
	if err != nil {
		return nil, err
	}
	log.Printf("configService.UpdatePrompt: extraction prompt updated (%d chars)", len(prompt))
	return cfg, nil
}
