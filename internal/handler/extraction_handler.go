package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"notascan/internal/service"
)

// ExtractionHandler handles invoice image extraction endpoints.
type ExtractionHandler struct {
	extractionService service.ExtractionService
}

// NewExtractionHandler creates a new ExtractionHandler.
func NewExtractionHandler(extractionService service.ExtractionService) *ExtractionHandler {
	return &ExtractionHandler{extractionService: extractionService}
}

// ExtractAndSave handles POST /api/v1/invoices/extract/save
// @Summary Extract invoice data and save
// @Description Upload an invoice image (JPG or PNG), extract CNPJ, issue date and total amount, and persist the record. Duplicate images are rejected.
// @Tags extraction
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Invoice image (JPG or PNG)"
// @Success 201 {object} APIResponse "Invoice created"
// @Failure 400 {object} APIResponse "Missing file or unsupported type"
// @Failure 409 {object} APIResponse "Image already registered"
// @Failure 413 {object} APIResponse "File too large"
// @Failure 500 {object} APIResponse "Extraction or persistence failed"
// @Router /invoices/extract/save [post]
func (h *ExtractionHandler) ExtractAndSave(c *gin.Context) {
	h.extract(c, true)
}

// ExtractForChecking handles POST /api/v1/invoices/extract/check
// @Summary Extract invoice data for review
// @Description Upload an invoice image and extract its fields without persisting anything. If the image is already registered, the stored record's status is echoed back.
// @Tags extraction
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Invoice image (JPG or PNG)"
// @Success 200 {object} APIResponse "Extraction result"
// @Failure 400 {object} APIResponse "Missing file or unsupported type"
// @Failure 413 {object} APIResponse "File too large"
// @Failure 500 {object} APIResponse "Extraction failed"
// @Router /invoices/extract/check [post]
func (h *ExtractionHandler) ExtractForChecking(c *gin.Context) {
	h.extract(c, false)
}

func (h *ExtractionHandler) extract(c *gin.Context, save bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.extractionService.ExtractFromImage(c.Request.Context(), service.ExtractionInput{
		File:   file,
		Header: header,
		Save:   save,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	if result.Persisted {
		RespondCreated(c, result.Invoice)
		return
	}
	RespondOK(c, result.Invoice)
}
