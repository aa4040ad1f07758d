package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"notascan/internal/config"
	"notascan/internal/dedup"
	"notascan/internal/domain"
	"notascan/internal/extract"
	"notascan/internal/llm"
	"notascan/internal/port"
)

// ExtractionInput is the DTO for an image extraction request.
type ExtractionInput struct {
	File   multipart.File
	Header *multipart.FileHeader
	Save   bool
}

// ExtractionResult carries the outcome of an extraction: the invoice (stored
// or transient) and whether a new record was actually written.
type ExtractionResult struct {
	Invoice   *domain.Invoice
	Persisted bool
}

// ExtractionService runs the full extraction pipeline: fingerprint, vision
// call, response parsing, dedup decision, optional persistence and archive.
type ExtractionService interface {
	ExtractFromImage(ctx context.Context, input ExtractionInput) (*ExtractionResult, error)
}

type extractionService struct {
	invoiceRepo port.InvoiceRepository
	promptRepo  port.PromptConfigRepository
	vision      port.VisionExtractor
	storage     port.ObjectStorage // nil disables image archiving
	s3cfg       *config.S3Config
}

// NewExtractionService creates a new ExtractionService implementation.
// storage may be nil, in which case uploaded images are not archived.
func NewExtractionService(
	invoiceRepo port.InvoiceRepository,
	promptRepo port.PromptConfigRepository,
	vision port.VisionExtractor,
	storage port.ObjectStorage,
	s3cfg *config.S3Config,
) ExtractionService {
	return &extractionService{
		invoiceRepo: invoiceRepo,
		promptRepo:  promptRepo,
		vision:      vision,
		storage:     storage,
		s3cfg:       s3cfg,
	}
}

func (s *extractionService) ExtractFromImage(ctx context.Context, input ExtractionInput) (*ExtractionResult, error) {
	fileType, err := s.validateUpload(input)
	if err != nil {
		return nil, err
	}

	// Fingerprint straight off the stream; it rewinds to the start itself.
	hash, err := dedup.Fingerprint(input.File)
	if err != nil {
		return nil, err
	}

	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking file: %w", err)
	}
	imageBytes, err := io.ReadAll(input.File)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	contentType := domain.AllowedFileTypes[fileType]

	raw, err := s.vision.ExtractText(ctx, port.VisionInput{
		ImageBytes:  imageBytes,
		ContentType: contentType,
		Prompt:      s.extractionPrompt(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("vision extraction: %w", err)
	}

	fields, err := extract.Parse(raw)
	if err != nil {
		return nil, err
	}

	existing, err := s.invoiceRepo.FindByFingerprint(ctx, hash)
	if err != nil {
		return nil, err
	}

	decision, err := dedup.Decide(input.Save, existing)
	if err != nil {
		return nil, err
	}

	inv := &domain.Invoice{
		CNPJ:        fields.TaxID,
		IssueDate:   fields.IssueDate,
		TotalAmount: fields.TotalAmount,
		ImageHash:   hash,
		Status:      decision.Status,
	}

	if decision.Action != dedup.ActionCreate {
		return &ExtractionResult{Invoice: inv, Persisted: false}, nil
	}

	if key := s.archiveImage(ctx, hash, fileType, imageBytes); key != "" {
		inv.StorageKey = &key
	}

	// The unique index on image_hash backs this up: a concurrent save for
	// the same image that slipped past FindByFingerprint fails here as
	// ErrDuplicateImage.
	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	log.Printf("extractionService.ExtractFromImage: created invoice %d (hash %s)", inv.ID, hash)
	return &ExtractionResult{Invoice: inv, Persisted: true}, nil
}

// validateUpload checks extension and size, sniffs the content type from the
// first 512 bytes, then rewinds the stream. The sniffed type is what counts;
// the extension check just fails obvious mismatches before reading anything.
func (s *extractionService) validateUpload(input ExtractionInput) (domain.FileType, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Header.Filename), "."))
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		return "", domain.ErrUnsupportedFileType
	}

	maxBytes := s.s3cfg.MaxFileSizeMB * 1024 * 1024
	if input.Header.Size > maxBytes {
		return "", domain.ErrFileTooLarge
	}

	buf := make([]byte, 512)
	n, err := input.File.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading file header: %w", err)
	}
	detectedType := http.DetectContentType(buf[:n])

	fileType, ok := domain.AllowedContentTypes[detectedType]
	if !ok {
		return "", domain.ErrUnsupportedFileType
	}

	if _, err := input.File.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("seeking file: %w", err)
	}
	return fileType, nil
}

// extractionPrompt returns the configured prompt, or the built-in default
// when none has been stored. The prompt is resolved here and passed down
// explicitly; the vision client holds no configuration state.
func (s *extractionService) extractionPrompt(ctx context.Context) string {
	cfg, err := s.promptRepo.Get(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Printf("extractionService.extractionPrompt: config lookup failed, using default: %v", err)
		}
		return llm.DefaultExtractionPrompt
	}
	return cfg.Prompt
}

// archiveImage uploads the original image bytes keyed by fingerprint and
// returns the object key. Archiving is best effort: a storage failure must
// not lose an extraction result, so it logs and returns "".
func (s *extractionService) archiveImage(ctx context.Context, hash string, fileType domain.FileType, imageBytes []byte) string {
	if s.storage == nil || s.s3cfg.Bucket == "" {
		return ""
	}

	key := fmt.Sprintf("invoices/%s.%s", hash, fileType)
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(imageBytes),
		ContentType: domain.AllowedFileTypes[fileType],
		Size:        int64(len(imageBytes)),
	})
	if err != nil {
		log.Printf("extractionService.archiveImage: archive failed for hash %s: %v", hash, err)
		return ""
	}
	return key
}
