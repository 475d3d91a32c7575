package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, mover_id, overall_status, score, checks, alerts, expiration_warnings, created_at`

func (r *ReportRepository) Create(ctx context.Context, report *domain.VerificationReport) error {
	checks, err := json.Marshal(report.Checks)
	if err != nil {
		return fmt.Errorf("marshal checks: %w", err)
	}
	alerts, err := json.Marshal(report.Alerts)
	if err != nil {
		return fmt.Errorf("marshal alerts: %w", err)
	}
	warnings, err := json.Marshal(report.ExpirationWarnings)
	if err != nil {
		return fmt.Errorf("marshal expiration warnings: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO verification_reports (`+reportColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, report.ID, report.SubjectID, string(report.OverallStatus), report.Score, checks, alerts, warnings, report.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert verification report: %w", err)
	}
	return nil
}

func (r *ReportRepository) Latest(ctx context.Context, subjectID string) (*domain.VerificationReport, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+reportColumns+`
FROM verification_reports
WHERE mover_id = $1
ORDER BY created_at DESC
LIMIT 1
`, subjectID)

	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrReportNotFound, "latest report", fmt.Errorf("mover_id=%s", subjectID))
		}
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepository) List(ctx context.Context, subjectID string, limit int) ([]domain.VerificationReport, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+reportColumns+`
FROM verification_reports
WHERE mover_id = $1
ORDER BY created_at DESC
LIMIT $2
`, subjectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	out := make([]domain.VerificationReport, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

func scanReport(row rowScanner) (domain.VerificationReport, error) {
	var (
		report                   domain.VerificationReport
		status                   string
		checks, alerts, warnings []byte
	)
	if err := row.Scan(&report.ID, &report.SubjectID, &status, &report.Score, &checks, &alerts, &warnings, &report.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return report, err
		}
		return report, fmt.Errorf("scan report: %w", err)
	}
	report.OverallStatus = domain.VerificationStatus(status)
	if err := json.Unmarshal(checks, &report.Checks); err != nil {
		return report, fmt.Errorf("unmarshal checks: %w", err)
	}
	if err := json.Unmarshal(alerts, &report.Alerts); err != nil {
		return report, fmt.Errorf("unmarshal alerts: %w", err)
	}
	if err := json.Unmarshal(warnings, &report.ExpirationWarnings); err != nil {
		return report, fmt.Errorf("unmarshal expiration warnings: %w", err)
	}
	return report, nil
}
