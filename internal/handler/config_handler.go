package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"notascan/internal/service"
)

// ConfigHandler handles the extraction prompt configuration endpoints.
type ConfigHandler struct {
	configService service.ConfigService
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(configService service.ConfigService) *ConfigHandler {
	return &ConfigHandler{configService: configService}
}

// configRequest is the body for updating the extraction prompt.
type configRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// Get handles GET /api/v1/configuration
// @Summary Get extraction prompt
// @Description Return the configured extraction prompt, or the built-in default when none is stored
// @Tags configuration
// @Produce json
// @Success 200 {object} APIResponse "Prompt configuration"
// @Router /configuration [get]
func (h *ConfigHandler) Get(c *gin.Context) {
	cfg, err := h.configService.GetPrompt(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, cfg)
}

// Update handles PUT /api/v1/configuration
// @Summary Update extraction prompt
// @Description Replace the extraction prompt used for invoice field extraction
// @Tags configuration
// @Accept json
// @Produce json
// @Param request body configRequest true "Prompt"
// @Success 200 {object} APIResponse "Updated configuration"
// @Failure 400 {object} APIResponse "Missing prompt"
// @Router /configuration [put]
func (h *ConfigHandler) Update(c *gin.Context) {
	var req configRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "prompt field is required")
		return
	}

	cfg, err := h.configService.UpdatePrompt(c.Request.Context(), req.Prompt)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, cfg)
}
