package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"notascan/internal/domain"
)

// MockPromptConfigRepo is a mock implementation of port.PromptConfigRepository.
type MockPromptConfigRepo struct {
	mock.Mock
}

func (m *MockPromptConfigRepo) Get(ctx context.Context) (*domain.PromptConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PromptConfig), args.Error(1)
}

func (m *MockPromptConfigRepo) Upsert(ctx context.Context, prompt string) (*domain.PromptConfig, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PromptConfig), args.Error(1)
}
