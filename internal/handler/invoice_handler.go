package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"notascan/internal/domain"
	"notascan/internal/service"
	"notascan/internal/xlsxexport"
)

// InvoiceHandler handles invoice CRUD and export endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// invoiceRequest is the request body for creating or updating an invoice.
type invoiceRequest struct {
	CNPJ        *string  `json:"cnpj"`
	IssueDate   *string  `json:"issue_date"`
	TotalAmount *float64 `json:"total_amount"`
	ImageHash   string   `json:"image_hash"`
	Status      string   `json:"status"`
}

// List handles GET /api/v1/invoices
// @Summary List invoices
// @Description List extracted invoice records with pagination
// @Tags invoices
// @Produce json
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} APIResponse "List of invoices"
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, invoices, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/invoices/:id
// @Summary Get invoice by ID
// @Tags invoices
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} APIResponse "Invoice record"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	inv, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// Create handles POST /api/v1/invoices
// @Summary Add an invoice manually
// @Description Create an invoice record directly, bypassing extraction. Status defaults to PROCESSED.
// @Tags invoices
// @Accept json
// @Produce json
// @Param invoice body invoiceRequest true "Invoice fields"
// @Success 201 {object} APIResponse "Invoice created"
// @Failure 400 {object} APIResponse "Invalid request body or status"
// @Failure 409 {object} APIResponse "Image hash already registered"
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}

	inv, err := h.invoiceService.Create(c.Request.Context(), service.CreateInvoiceInput{
		CNPJ:        req.CNPJ,
		IssueDate:   req.IssueDate,
		TotalAmount: req.TotalAmount,
		ImageHash:   req.ImageHash,
		Status:      domain.InvoiceStatus(req.Status),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, inv)
}

// Update handles PUT /api/v1/invoices/:id
// @Summary Update an invoice
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path int true "Invoice ID"
// @Param invoice body invoiceRequest true "Invoice fields"
// @Success 200 {object} APIResponse "Updated invoice"
// @Failure 400 {object} APIResponse "Invalid request"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Router /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body: "+err.Error())
		return
	}

	inv, err := h.invoiceService.Update(c.Request.Context(), service.UpdateInvoiceInput{
		ID:          id,
		CNPJ:        req.CNPJ,
		IssueDate:   req.IssueDate,
		TotalAmount: req.TotalAmount,
		Status:      domain.InvoiceStatus(req.Status),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, inv)
}

// Delete handles DELETE /api/v1/invoices/:id
// @Summary Delete an invoice
// @Tags invoices
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} APIResponse "Invoice deleted"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "invoice deleted"})
}

// ArchiveURL handles GET /api/v1/invoices/:id/archive
// @Summary Get a download link for the archived invoice image
// @Description Returns a time-limited presigned URL for the original uploaded image
// @Tags invoices
// @Produce json
// @Param id path int true "Invoice ID"
// @Success 200 {object} APIResponse "Presigned URL"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 404 {object} APIResponse "Invoice not found or image not archived"
// @Router /invoices/{id}/archive [get]
func (h *InvoiceHandler) ArchiveURL(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	url, err := h.invoiceService.ArchiveURL(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

// Export handles GET /api/v1/invoices/export
// @Summary Export invoices as XLSX
// @Description Download all invoice records as an Excel workbook
// @Tags invoices
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary "XLSX workbook"
// @Router /invoices/export [get]
func (h *InvoiceHandler) Export(c *gin.Context) {
	invoices, err := h.invoiceService.ListForExport(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("invoices-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := xlsxexport.Write(c.Writer, invoices); err != nil {
		HandleError(c, err)
		return
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid invoice ID")
		return 0, false
	}
	return id, true
}
