package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

type VerificationRepository struct {
	db *sql.DB
}

func NewVerificationRepository(db *sql.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

const verificationColumns = `id, user_id, document_id, document_type, document_url, verification_status, verification_data, confidence, rejection_reason, verified_by, verified_at`

func (r *VerificationRepository) Create(ctx context.Context, v *domain.DocumentVerification) error {
	data, err := json.Marshal(v.Fields)
	if err != nil {
		return fmt.Errorf("marshal verification data: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO document_verifications (`+verificationColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		v.ID, v.OwnerID, v.DocumentID, string(v.DocumentType), v.DocumentURL, string(v.Status),
		data, v.Confidence, v.RejectionReason, v.VerifiedBy, v.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document verification: %w", err)
	}
	return nil
}

func (r *VerificationRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.DocumentVerification, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+verificationColumns+`
FROM document_verifications
WHERE user_id = $1
ORDER BY verified_at DESC
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	return collectVerifications(rows)
}

// ListByTypeExcludingOwner returns the records of other owners for the given
// document types, the population searched for duplicates.
func (r *VerificationRepository) ListByTypeExcludingOwner(ctx context.Context, docTypes []domain.DocumentType, ownerID string) ([]domain.DocumentVerification, error) {
	if len(docTypes) == 0 {
		return []domain.DocumentVerification{}, nil
	}
	args := make([]any, 0, len(docTypes)+1)
	args = append(args, ownerID)
	for _, t := range docTypes {
		args = append(args, string(t))
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+verificationColumns+`
FROM document_verifications
WHERE user_id <> $1 AND document_type IN (`+placeholders(2, len(docTypes))+`)
ORDER BY verified_at DESC
`, args...)
	if err != nil {
		return nil, fmt.Errorf("list verifications by type: %w", err)
	}
	return collectVerifications(rows)
}

func collectVerifications(rows *sql.Rows) ([]domain.DocumentVerification, error) {
	defer rows.Close()

	out := make([]domain.DocumentVerification, 0)
	for rows.Next() {
		var (
			v       domain.DocumentVerification
			docType string
			status  string
			data    []byte
		)
		if err := rows.Scan(
			&v.ID, &v.OwnerID, &v.DocumentID, &docType, &v.DocumentURL, &status,
			&data, &v.Confidence, &v.RejectionReason, &v.VerifiedBy, &v.VerifiedAt,
		); err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &v.Fields); err != nil {
				return nil, fmt.Errorf("unmarshal verification data: %w", err)
			}
		}
		v.DocumentType = domain.DocumentType(docType)
		v.Status = domain.VerificationOutcome(status)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verifications: %w", err)
	}
	return out, nil
}
