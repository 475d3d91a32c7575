package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

// DocumentRepository reads both document tables as one normalized set.
type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const unionDocuments = `
SELECT id, mover_id, document_type, document_name, '' AS storage_path, document_url,
	verification_status, expiration_date, created_at, 'mover_documents' AS source
FROM mover_documents
WHERE %[1]s
UNION ALL
SELECT id, mover_id, document_type, '' AS document_name, storage_path, '' AS document_url,
	status, expiration_date, created_at, 'verification_documents' AS source
FROM verification_documents
WHERE %[1]s
`

func (r *DocumentRepository) ListByMover(ctx context.Context, moverID string) ([]domain.Document, error) {
	query := fmt.Sprintf(unionDocuments, "mover_id = $1") + "ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, query, moverID)
	if err != nil {
		return nil, fmt.Errorf("list mover documents: %w", err)
	}
	return collectDocuments(rows)
}

// ListExpiring returns documents whose expiration date falls in [from, until].
func (r *DocumentRepository) ListExpiring(ctx context.Context, from, until time.Time) ([]domain.Document, error) {
	query := fmt.Sprintf(unionDocuments, "expiration_date >= $1 AND expiration_date <= $2") + "ORDER BY expiration_date, mover_id"
	rows, err := r.db.QueryContext(ctx, query, dateOnly(from), dateOnly(until))
	if err != nil {
		return nil, fmt.Errorf("list expiring documents: %w", err)
	}
	return collectDocuments(rows)
}

// UpdateStatus sets the review status on whichever table holds the document.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error {
	statements := []string{
		`UPDATE mover_documents SET verification_status = $2 WHERE id = $1`,
		`UPDATE verification_documents SET status = $2 WHERE id = $1`,
	}
	for _, stmt := range statements {
		res, err := r.db.ExecContext(ctx, stmt, id, string(status))
		if err != nil {
			return fmt.Errorf("update document status: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("document status rows affected: %w", err)
		}
		if affected > 0 {
			return nil
		}
	}
	return domain.WrapError(domain.ErrDocumentNotFound, "update document status", fmt.Errorf("id=%s", id))
}

func collectDocuments(rows *sql.Rows) ([]domain.Document, error) {
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		var (
			doc      domain.Document
			rawType  string
			status   string
			source   string
			expireAt sql.NullTime
		)
		if err := rows.Scan(
			&doc.ID, &doc.OwnerID, &rawType, &doc.Name, &doc.StoragePath, &doc.URL,
			&status, &expireAt, &doc.CreatedAt, &source,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}

		docType, side, ok := domain.NormalizeDocumentType(rawType, doc.Location())
		if !ok {
			continue
		}
		doc.Type = docType
		doc.Side = side
		doc.VerificationStatus = domain.DocumentStatus(status)
		doc.Source = domain.DocumentSource(source)
		if expireAt.Valid {
			d := dateOnly(expireAt.Time)
			doc.ExpirationDate = &d
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
