package domain

import "time"

// Invoice represents an extracted invoice record. The pointer fields mirror
// the extraction contract: a field the model could not produce stays nil and
// is stored as NULL, never as a zero placeholder.
type Invoice struct {
	ID          int64         `db:"id" json:"id"`
	CNPJ        *string       `db:"cnpj" json:"cnpj"`
	IssueDate   *string       `db:"issue_date" json:"issue_date"`
	TotalAmount *float64      `db:"total_amount" json:"total_amount"`
	ImageHash   string        `db:"image_hash" json:"image_hash"`
	StorageKey  *string       `db:"storage_key" json:"storage_key,omitempty"`
	Status      InvoiceStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// PromptConfig is the single mutable extraction-prompt configuration record.
type PromptConfig struct {
	ID        int64     `db:"id" json:"id"`
	Prompt    string    `db:"prompt" json:"prompt"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
