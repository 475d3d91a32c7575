package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

type FraudAlertRepository struct {
	db *sql.DB
}

func NewFraudAlertRepository(db *sql.DB) *FraudAlertRepository {
	return &FraudAlertRepository{db: db}
}

// CreateMany inserts all alerts in one transaction.
func (r *FraudAlertRepository) CreateMany(ctx context.Context, alerts []domain.FraudAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin fraud alert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, alert := range alerts {
		details, err := json.Marshal(alert.Details)
		if err != nil {
			return fmt.Errorf("marshal alert details: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO fraud_alerts (id, user_id, alert_type, severity, details, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, alert.ID, alert.OwnerID, string(alert.AlertType), string(alert.Severity), details, alert.CreatedAt); err != nil {
			return fmt.Errorf("insert fraud alert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit fraud alerts: %w", err)
	}
	return nil
}
