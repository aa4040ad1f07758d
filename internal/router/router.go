package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"notascan/internal/config"
	"notascan/internal/handler"
	"notascan/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	extractionH *handler.ExtractionHandler,
	invoiceH *handler.InvoiceHandler,
	chatH *handler.ChatHandler,
	configH *handler.ConfigHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(&cfg.CORS))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	// API docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	// Extraction routes
	invoices := v1.Group("/invoices")
	invoices.POST("/extract/save", extractionH.ExtractAndSave)
	invoices.POST("/extract/check", extractionH.ExtractForChecking)

	// Invoice CRUD + export
	invoices.GET("", invoiceH.List)
	invoices.GET("/export", invoiceH.Export)
	invoices.GET("/:id", invoiceH.GetByID)
	invoices.GET("/:id/archive", invoiceH.ArchiveURL)
	invoices.POST("", invoiceH.Create)
	invoices.PUT("/:id", invoiceH.Update)
	invoices.DELETE("/:id", invoiceH.Delete)

	// Chat proxies
	chat := v1.Group("/chat")
	chat.POST("/gemini", chatH.AskGemini)
	chat.POST("/mistral", chatH.AskMistral)

	// Extraction prompt configuration
	v1.GET("/configuration", configH.Get)
	v1.PUT("/configuration", configH.Update)

	return r
}
