package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"notascan/internal/port"
	"notascan/internal/service"
)

// ChatHandler proxies free-text prompts to the external chat providers.
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// promptRequest is the body for the Gemini prompt endpoint.
type promptRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// AskGemini handles POST /api/v1/chat/gemini
// @Summary Chat with Gemini
// @Description Send a text prompt to the Gemini model and return its reply
// @Tags chat
// @Accept json
// @Produce json
// @Param request body promptRequest true "Prompt"
// @Success 200 {object} APIResponse "Model reply"
// @Failure 400 {object} APIResponse "Missing prompt"
// @Failure 429 {object} APIResponse "Provider rate limited"
// @Router /chat/gemini [post]
func (h *ChatHandler) AskGemini(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "prompt field is required")
		return
	}

	reply, err := h.chatService.AskGemini(c.Request.Context(), req.Prompt)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"response": reply})
}

// AskMistral handles POST /api/v1/chat/mistral
// @Summary Chat with Mistral
// @Description Forward a chat-completions request to the Mistral API and return the provider response
// @Tags chat
// @Accept json
// @Produce json
// @Param request body port.ChatRequest true "Chat-completions request"
// @Success 200 {object} APIResponse "Provider response"
// @Failure 400 {object} APIResponse "Invalid request body"
// @Failure 429 {object} APIResponse "Provider rate limited"
// @Router /chat/mistral [post]
func (h *ChatHandler) AskMistral(c *gin.Context) {
	var req port.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}

	resp, err := h.chatService.AskMistral(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, resp)
}
