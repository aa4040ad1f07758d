package main

import (
	"fmt"
	"log"

	"notascan/internal/config"
	"notascan/internal/handler"
	"notascan/internal/llm/gemini"
	"notascan/internal/llm/mistral"
	"notascan/internal/port"
	"notascan/internal/repository/postgres"
	"notascan/internal/router"
	"notascan/internal/service"
	s3storage "notascan/internal/storage/s3"
)

// @title notascan API
// @version 1.0
// @description Invoice image extraction service: uploads an invoice image, extracts CNPJ, issue date and total amount through a vision LLM, and deduplicates by image content hash.
// @BasePath /api/v1
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	invoiceRepo := postgres.NewInvoiceRepo(db)
	promptRepo := postgres.NewPromptConfigRepo(db)

	// Initialize image archive storage (optional)
	var storage port.ObjectStorage
	if cfg.S3.Bucket != "" {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	} else {
		log.Printf("no S3 bucket configured, image archiving disabled")
	}

	// Initialize LLM clients
	geminiClient := gemini.NewClient(&cfg.Gemini)
	mistralClient := mistral.NewClient(&cfg.Mistral)

	// Initialize services
	extractionSvc := service.NewExtractionService(invoiceRepo, promptRepo, geminiClient, storage, &cfg.S3)
	invoiceSvc := service.NewInvoiceService(invoiceRepo, storage, &cfg.S3)
	chatSvc := service.NewChatService(geminiClient, mistralClient)
	configSvc := service.NewConfigService(promptRepo)

	// Initialize handlers
	extractionH := handler.NewExtractionHandler(extractionSvc)
	invoiceH := handler.NewInvoiceHandler(invoiceSvc)
	chatH := handler.NewChatHandler(chatSvc)
	configH := handler.NewConfigHandler(configSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, extractionH, invoiceH, chatH, configH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
