package port

import (
	"context"

	"notascan/internal/dedup"
	"notascan/internal/domain"
)

// InvoiceRepository defines the contract for invoice persistence.
//
// Create must convert a unique violation on image_hash into
// domain.ErrDuplicateImage: the database constraint is what makes the
// check-then-insert sequence safe under concurrent save requests for the
// same image.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	List(ctx context.Context, offset, limit int) ([]domain.Invoice, int, error)
	Update(ctx context.Context, inv *domain.Invoice) error
	Delete(ctx context.Context, id int64) error
	// FindByFingerprint returns the records sharing an image hash, ordered
	// by ascending id (earliest inserted first).
	FindByFingerprint(ctx context.Context, hash string) ([]dedup.Record, error)
}

// PromptConfigRepository defines the contract for the single extraction
// prompt configuration record.
type PromptConfigRepository interface {
	// Get returns the stored prompt config, or domain.ErrNotFound when no
	// prompt has been configured yet.
	Get(ctx context.Context) (*domain.PromptConfig, error)
	// Upsert stores the prompt, creating the record on first write.
	Upsert(ctx context.Context, prompt string) (*domain.PromptConfig, error)
}
