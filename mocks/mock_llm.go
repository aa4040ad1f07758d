package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"notascan/internal/port"
)

// MockVisionExtractor is a mock implementation of port.VisionExtractor.
type MockVisionExtractor struct {
	mock.Mock
}

func (m *MockVisionExtractor) ExtractText(ctx context.Context, input port.VisionInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

// MockTextGenerator is a mock implementation of port.TextGenerator.
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockChatCompleter is a mock implementation of port.ChatCompleter.
type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) Complete(ctx context.Context, req port.ChatRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}
