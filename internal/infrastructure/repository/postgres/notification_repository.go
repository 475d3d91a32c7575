package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO notifications (id, user_id, notification_type, title, message, severity, related_entity_type, related_entity_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, n.ID, n.RecipientID, string(n.Type), n.Title, n.Message, string(n.Severity), n.RelatedEntityType, n.RelatedEntityID, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) HasRecent(ctx context.Context, recipientID string, kind domain.NotificationType, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (
	SELECT 1 FROM notifications
	WHERE user_id = $1 AND notification_type = $2 AND created_at >= $3
)
`, recipientID, string(kind), since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check recent notifications: %w", err)
	}
	return exists, nil
}
