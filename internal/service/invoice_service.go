package service

import (
	"context"
	"fmt"
	"log"

	"notascan/internal/config"
	"notascan/internal/domain"
	"notascan/internal/port"
)

// exportLimit caps how many records an XLSX export pulls in one query.
const exportLimit = 10000

// CreateInvoiceInput is the DTO for manually adding an invoice record.
type CreateInvoiceInput struct {
	CNPJ        *string
	IssueDate   *string
	TotalAmount *float64
	ImageHash   string
	Status      domain.InvoiceStatus
}

// UpdateInvoiceInput is the DTO for updating an invoice record.
type UpdateInvoiceInput struct {
	ID          int64
	CNPJ        *string
	IssueDate   *string
	TotalAmount *float64
	Status      domain.InvoiceStatus
}

// InvoiceService defines the invoice CRUD contract.
type InvoiceService interface {
	Create(ctx context.Context, input CreateInvoiceInput) (*domain.Invoice, error)
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	List(ctx context.Context, offset, limit int) ([]domain.Invoice, int, error)
	ListForExport(ctx context.Context) ([]domain.Invoice, error)
	Update(ctx context.Context, input UpdateInvoiceInput) (*domain.Invoice, error)
	Delete(ctx context.Context, id int64) error
	ArchiveURL(ctx context.Context, id int64) (string, error)
}

type invoiceService struct {
	invoiceRepo port.InvoiceRepository
	storage     port.ObjectStorage // nil disables archive lookups and cleanup
	s3cfg       *config.S3Config
}

// NewInvoiceService creates a new InvoiceService implementation. storage may
// be nil, in which case archived images are neither served nor cleaned up.
func NewInvoiceService(invoiceRepo port.InvoiceRepository, storage port.ObjectStorage, s3cfg *config.S3Config) InvoiceService {
	return &invoiceService{invoiceRepo: invoiceRepo, storage: storage, s3cfg: s3cfg}
}

func (s *invoiceService) Create(ctx context.Context, input CreateInvoiceInput) (*domain.Invoice, error) {
	status := input.Status
	if status == "" {
		// Manual entry bypasses extraction review.
		status = domain.StatusProcessed
	}
	if !domain.ValidStatuses[status] {
		return nil, domain.ErrInvalidStatus
	}

	inv := &domain.Invoice{
		CNPJ:        input.CNPJ,
		IssueDate:   input.IssueDate,
		TotalAmount: input.TotalAmount,
		ImageHash:   input.ImageHash,
		Status:      status,
	}
	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	log.Printf("invoiceService.Create: added invoice %d", inv.ID)
	return inv, nil
}

func (s *invoiceService) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, id)
}

func (s *invoiceService) List(ctx context.Context, offset, limit int) ([]domain.Invoice, int, error) {
	return s.invoiceRepo.List(ctx, offset, limit)
}

func (s *invoiceService) ListForExport(ctx context.Context) ([]domain.Invoice, error) {
	invoices, _, err := s.invoiceRepo.List(ctx, 0, exportLimit)
	return invoices, err
}

func (s *invoiceService) Update(ctx context.Context, input UpdateInvoiceInput) (*domain.Invoice, error) {
	if input.Status != "" && !domain.ValidStatuses[input.Status] {
		return nil, domain.ErrInvalidStatus
	}

	inv, err := s.invoiceRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	inv.CNPJ = input.CNPJ
	inv.IssueDate = input.IssueDate
	inv.TotalAmount = input.TotalAmount
	if input.Status != "" {
		inv.Status = input.Status
	}

	if err := s.invoiceRepo.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invoiceService) Delete(ctx context.Context, id int64) error {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.invoiceRepo.Delete(ctx, id); err != nil {
		return err
	}

	// Cleanup is best effort: the record is already gone and an orphaned
	// object in the archive is harmless.
	if inv.StorageKey != nil && s.storage != nil {
		if err := s.storage.Delete(ctx, s.s3cfg.Bucket, *inv.StorageKey); err != nil {
			log.Printf("invoiceService.Delete: archive cleanup failed for key %s: %v", *inv.StorageKey, err)
		}
	}

	log.Printf("invoiceService.Delete: deleted invoice %d", id)
	return nil
}

// ArchiveURL returns a time-limited presigned download link for the archived
// image of an invoice. Records saved while archiving was disabled carry no
// storage key and report not found.
func (s *invoiceService) ArchiveURL(ctx context.Context, id int64) (string, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if inv.StorageKey == nil || s.storage == nil {
		return "", domain.ErrNotFound
	}

	url, err := s.storage.GetPresignedURL(ctx, s.s3cfg.Bucket, *inv.StorageKey, s.s3cfg.PresignExpiry)
	if err != nil {
		return "", fmt.Errorf("presigning archive URL: %w", err)
	}
	return url, nil
}
