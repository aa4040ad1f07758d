package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"notascan/internal/domain"
	"notascan/internal/port"
)

type promptConfigRepo struct {
	db *sqlx.DB
}

// NewPromptConfigRepo creates a new PostgreSQL-backed PromptConfigRepository.
func NewPromptConfigRepo(db *sqlx.DB) port.PromptConfigRepository {
	return &promptConfigRepo{db: db}
}

func (r *promptConfigRepo) Get(ctx context.Context) (*domain.PromptConfig, error) {
	var cfg domain.PromptConfig
	err := r.db.GetContext(ctx, &cfg,
		"SELECT * FROM prompt_config ORDER BY id ASC LIMIT 1")
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("promptConfigRepo.Get: %w", err)
	}
	return &cfg, nil
}

func (r *promptConfigRepo) Upsert(ctx context.Context, prompt string) (*domain.PromptConfig, error) {
	var cfg domain.PromptConfig
	// Single-row table: id is fixed at 1 and conflicting writes overwrite.
	err := r.db.GetContext(ctx, &cfg, `
		INSERT INTO prompt_config (id, prompt, updated_at)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET prompt = EXCLUDED.prompt, updated_at = EXCLUDED.updated_at
		RETURNING *`,
		prompt, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("promptConfigRepo.Upsert: %w", err)
	}
	return &cfg, nil
}
