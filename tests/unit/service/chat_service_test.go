package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"notascan/internal/port"
	"notascan/internal/service"
	"notascan/mocks"
)

func TestChatService_AskGemini_Success(t *testing.T) {
	generator := new(mocks.MockTextGenerator)
	completer := new(mocks.MockChatCompleter)
	svc := service.NewChatService(generator, completer)

	generator.On("Generate", mock.Anything, "what is a CNPJ?").
		Return("A CNPJ is the Brazilian company tax identifier.", nil)

	reply, err := svc.AskGemini(context.Background(), "what is a CNPJ?")

	require.NoError(t, err)
	assert.Equal(t, "A CNPJ is the Brazilian company tax identifier.", reply)
	generator.AssertExpectations(t)
}

func TestChatService_AskGemini_ProviderError(t *testing.T) {
	generator := new(mocks.MockTextGenerator)
	completer := new(mocks.MockChatCompleter)
	svc := service.NewChatService(generator, completer)

	generator.On("Generate", mock.Anything, "hello").
		Return("", errors.New("provider unavailable"))

	reply, err := svc.AskGemini(context.Background(), "hello")

	assert.Empty(t, reply)
	assert.Error(t, err)
}

func TestChatService_AskMistral_Success(t *testing.T) {
	generator := new(mocks.MockTextGenerator)
	completer := new(mocks.MockChatCompleter)
	svc := service.NewChatService(generator, completer)

	req := port.ChatRequest{
		Messages: []port.ChatMessage{{Role: "user", Content: "hello"}},
	}
	raw := json.RawMessage(`{"choices":[{"message":{"role":"assistant","content":"hi"}}]}`)

	completer.On("Complete", mock.Anything, req).Return(raw, nil)

	resp, err := svc.AskMistral(context.Background(), req)

	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(resp))
	completer.AssertExpectations(t)
}

func TestChatService_AskMistral_ProviderError(t *testing.T) {
	generator := new(mocks.MockTextGenerator)
	completer := new(mocks.MockChatCompleter)
	svc := service.NewChatService(generator, completer)

	req := port.ChatRequest{
		Messages: []port.ChatMessage{{Role: "user", Content: "hello"}},
	}

	completer.On("Complete", mock.Anything, req).Return(nil, errors.New("timeout"))

	resp, err := svc.AskMistral(context.Background(), req)

	assert.Nil(t, resp)
	assert.Error(t, err)
}
