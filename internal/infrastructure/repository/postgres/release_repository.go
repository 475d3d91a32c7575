package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

type ReleaseRequestRepository struct {
	db *sql.DB
}

func NewReleaseRequestRepository(db *sql.DB) *ReleaseRequestRepository {
	return &ReleaseRequestRepository{db: db}
}

func (r *ReleaseRequestRepository) Create(ctx context.Context, req *domain.PaymentReleaseRequest) error {
	analysis, err := json.Marshal(req.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO payment_release_requests (id, payment_id, ai_analysis, created_at)
VALUES ($1,$2,$3,$4)
`, req.ID, req.PaymentID, analysis, req.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment release request: %w", err)
	}
	return nil
}
