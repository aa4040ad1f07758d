package llm_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notascan/internal/config"
	"notascan/internal/llm"
	"notascan/internal/llm/gemini"
	"notascan/internal/port"
)

func newGeminiTestClient(chatURL, visionURL string) *gemini.Client {
	cfg := &config.GeminiConfig{
		APIKey:      "test-gemini-key",
		ChatModel:   "gemini-2.0-flash",
		VisionModel: "gemini-1.5-flash",
		TimeoutSecs: 30,
	}
	return gemini.NewClientWithEndpoints(cfg, chatURL, visionURL)
}

func geminiSuccessResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role": "model",
					"parts": []map[string]interface{}{
						{"text": text},
					},
				},
				"finishReason": "STOP",
			},
		},
	}
}

func TestGeminiClient_ExtractText_Success(t *testing.T) {
	modelText := "```json\n{\"cnpj\": \"12345678000199\", \"data\": \"01/01/2024\", \"valor\": \"99.90\"}\n```"
	responseBody := geminiSuccessResponse(modelText)
	imageBytes := []byte{0x89, 0x50, 0x4E, 0x47}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-gemini-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&reqBody)
		assert.NoError(t, err)

		contents := reqBody["contents"].([]interface{})
		assert.Len(t, contents, 1)
		msg := contents[0].(map[string]interface{})
		assert.Equal(t, "user", msg["role"])

		parts := msg["parts"].([]interface{})
		assert.Len(t, parts, 2)

		dataPart := parts[0].(map[string]interface{})
		inlineData := dataPart["inline_data"].(map[string]interface{})
		assert.Equal(t, "image/png", inlineData["mime_type"])
		assert.Equal(t, base64.StdEncoding.EncodeToString(imageBytes), inlineData["data"])

		textPart := parts[1].(map[string]interface{})
		assert.Equal(t, "read this invoice", textPart["text"])

		w.WriteHeader(http.StatusOK)
		err = json.NewEncoder(w).Encode(responseBody)
		if err != nil {
			return
		}
	}))
	defer server.Close()

	c := newGeminiTestClient("", server.URL)

	text, err := c.ExtractText(context.Background(), port.VisionInput{
		ImageBytes:  imageBytes,
		ContentType: "image/png",
		Prompt:      "read this invoice",
	})

	require.NoError(t, err)
	assert.Equal(t, modelText, text)
}

func TestGeminiClient_ExtractText_JPEG(t *testing.T) {
	responseBody := geminiSuccessResponse(`{"cnpj": null, "data": null, "valor": null}`)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&reqBody)
		if err != nil {
			return
		}

		contents := reqBody["contents"].([]interface{})
		msg := contents[0].(map[string]interface{})
		parts := msg["parts"].([]interface{})

		dataPart := parts[0].(map[string]interface{})
		inlineData := dataPart["inline_data"].(map[string]interface{})
		assert.Equal(t, "image/jpeg", inlineData["mime_type"])

		w.WriteHeader(http.StatusOK)
		err = json.NewEncoder(w).Encode(responseBody)
		if err != nil {
			return
		}
	}))
	defer server.Close()

	c := newGeminiTestClient("", server.URL)

	text, err := c.ExtractText(context.Background(), port.VisionInput{
		ImageBytes:  []byte{0xFF, 0xD8, 0xFF, 0xE0},
		ContentType: "image/jpeg",
		Prompt:      "read this invoice",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, text)
}

func TestGeminiClient_ExtractText_UnsupportedContentType(t *testing.T) {
	c := newGeminiTestClient("", "http://unused")

	text, err := c.ExtractText(context.Background(), port.VisionInput{
		ImageBytes:  []byte("plain text"),
		ContentType: "text/plain",
		Prompt:      "read this",
	})

	assert.Empty(t, text)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")
}

func TestGeminiClient_ExtractText_MultiplePartsJoined(t *testing.T) {
	responseBody := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role": "model",
					"parts": []map[string]interface{}{
						{"text": "```json\n{\"cnpj\": "},
						{"text": "\"12345678000199\"}\n```"},
					},
				},
				"finishReason": "STOP",
			},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		err := json.NewEncoder(w).Encode(responseBody)
		if err != nil {
			return
		}
	}))
	defer server.Close()

	c := newGeminiTestClient("", server.URL)

	text, err := c.ExtractText(context.Background(), port.VisionInput{
		ImageBytes:  []byte{0x89, 0x50, 0x4E, 0x47},
		ContentType: "image/png",
		Prompt:      "read this",
	})

	require.NoError(t, err)
	assert.Equal(t, "```json\n{\"cnpj\": \"12345678000199\"}\n```", text)
}

func TestGeminiClient_Generate_Success(t *testing.T) {
	responseBody := geminiSuccessResponse("A CNPJ identifies a Brazilian company.")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		err := json.NewDecoder(r.Body).Decode(&reqBody)
		assert.NoError(t, err)

		contents := reqBody["contents"].([]interface{})
		msg := contents[0].(map[string]interface{})
		parts := msg["parts"].([]interface{})
		assert.Len(t, parts, 1)
		textPart := parts[0].(map[string]interface{})
		assert.Equal(t, "what is a CNPJ?", textPart["text"])

		w.WriteHeader(http.StatusOK)
		err = json.NewEncoder(w).Encode(responseBody)
		if err != nil {
			return
		}
	}))
	defer server.Close()

	c := newGeminiTestClient(server.URL, "")

	reply, err := c.Generate(context.Background(), "what is a CNPJ?")

	require.NoError(t, err)
	assert.Equal(t, "A CNPJ identifies a Brazilian company.", reply)
}

func TestGeminiClient_Generate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, err := w.Write([]byte(`{"error":{"code":429,"status":"RESOURCE_EXHAUSTED"}}`))
		if err != nil {
			return
		}
	}))
	defer server.Close()

	c := newGeminiTestClient(server.URL, "")

	reply, err := c.Generate(context.Background(), "hello")

	assert.Empty(t, reply)
	require.Error(t, err)

	var rateErr *llm.RateLimitError
	require.True(t, errors.As(err, &rateErr))
	assert.Equal(t, "gemini", rateErr.Provider)
	assert.Equal(t, float64(30), rateErr.RetryAfter.Seconds())
}

func TestGeminiClient_Generate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, err := w.Write([]byte(`{"error":{"code":500,"status":"INTERNAL"}}`))
		if err != nil {
			return
		}
	}))
	defer server.Close()

	c := newGeminiTestClient(server.URL, "")

	reply, err := c.Generate(context.Background(), "hello")

	assert.Empty(t, reply)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "gemini API error (status 500)")
}

func TestGeminiClient_Generate_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		err := json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{},
		})
		if err != nil {
			return
		}
	}))
	defer server.Close()

	c := newGeminiTestClient(server.URL, "")

	reply, err := c.Generate(context.Background(), "hello")

	assert.Empty(t, reply)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestGeminiClient_Generate_NoParts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		err := json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"role":  "model",
						"parts": []map[string]interface{}{},
					},
				},
			},
		})
		if err != nil {
			return
		}
	}))
	defer server.Close()

	c := newGeminiTestClient(server.URL, "")

	reply, err := c.Generate(context.Background(), "hello")

	assert.Empty(t, reply)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no parts")
}

func TestGeminiClient_Generate_ConnectionRefused(t *testing.T) {
	c := newGeminiTestClient("http://localhost:1", "")

	reply, err := c.Generate(context.Background(), "hello")

	assert.Empty(t, reply)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "calling gemini API")
}
