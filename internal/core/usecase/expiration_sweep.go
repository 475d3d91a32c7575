package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/mover-verification/internal/core/domain"
	"github.com/kirillkom/mover-verification/internal/core/ports"
)

const (
	sweepWindowDays     = 30
	sweepCriticalDays   = 7
	sweepSummaryMinimum = 5
	renewalCooldown     = 7 * 24 * time.Hour
)

type ExpirationSweepSettings struct {
	WindowDays int
	Logger     *slog.Logger
	Now        func() time.Time
}

type ExpirationSweepUseCase struct {
	movers        ports.MoverRepository
	documents     ports.DocumentRepository
	notifications ports.NotificationStore

	window int
	logger *slog.Logger
	now    func() time.Time
}

func NewExpirationSweepUseCase(
	movers ports.MoverRepository,
	documents ports.DocumentRepository,
	notifications ports.NotificationStore,
	settings ExpirationSweepSettings,
) *ExpirationSweepUseCase {
	if settings.WindowDays <= 0 {
		settings.WindowDays = sweepWindowDays
	}
	return &ExpirationSweepUseCase{
		movers:        movers,
		documents:     documents,
		notifications: notifications,
		window:        settings.WindowDays,
		logger:        loggerOrDefault(settings.Logger),
		now:           clockOrDefault(settings.Now),
	}
}

// Run notifies every mover with documents expiring inside the window, at most
// once a week, and sends administrators a summary when many documents expire.
func (uc *ExpirationSweepUseCase) Run(ctx context.Context) (domain.SweepSummary, error) {
	now := uc.now().UTC()
	today := domain.CivilDate(now)

	docs, err := uc.documents.ListExpiring(ctx, today, today.AddDate(0, 0, uc.window))
	if err != nil {
		return domain.SweepSummary{}, fmt.Errorf("list expiring documents: %w", err)
	}

	var summary domain.SweepSummary
	order, byMover := groupExpiring(docs, today)
	for _, moverID := range order {
		expiring := byMover[moverID]
		summary.ExpiringDocuments += len(expiring)
		for _, d := range expiring {
			if d.DaysRemaining <= sweepCriticalDays {
				summary.CriticalDocuments++
			}
		}

		sent, err := uc.notifyMover(ctx, moverID, expiring, now)
		if err != nil {
			return summary, err
		}
		if sent {
			summary.MoversNotified++
		} else {
			summary.MoversSkipped++
		}
	}

	if summary.ExpiringDocuments >= sweepSummaryMinimum {
		n := domain.ExpirationSummaryNotification(summary.ExpiringDocuments, summary.CriticalDocuments, uc.window, now)
		n.ID = uuid.NewString()
		if err := uc.notifications.Create(ctx, &n); err != nil {
			uc.logger.Error("notification_failed", "notification_type", n.Type, "error", err)
		} else {
			summary.AdminSummarySent = true
		}
	}
	return summary, nil
}

func groupExpiring(docs []domain.Document, today time.Time) ([]string, map[string][]domain.ExpiringDocument) {
	var order []string
	byMover := map[string][]domain.ExpiringDocument{}
	for _, doc := range docs {
		if doc.ExpirationDate == nil || doc.OwnerID == "" {
			continue
		}
		if _, seen := byMover[doc.OwnerID]; !seen {
			order = append(order, doc.OwnerID)
		}
		byMover[doc.OwnerID] = append(byMover[doc.OwnerID], domain.ExpiringDocument{
			DocumentID:     doc.ID,
			MoverID:        doc.OwnerID,
			DocumentType:   doc.Type,
			ExpirationDate: domain.CivilDate(*doc.ExpirationDate),
			DaysRemaining:  domain.DaysUntil(*doc.ExpirationDate, today),
		})
	}
	return order, byMover
}

// notifyMover reports false when the mover is unknown or was already
// notified during the cooldown.
func (uc *ExpirationSweepUseCase) notifyMover(ctx context.Context, moverID string, docs []domain.ExpiringDocument, now time.Time) (bool, error) {
	mover, err := uc.movers.GetByID(ctx, moverID)
	if err != nil {
		if domain.IsKind(err, domain.ErrMoverNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("fetch mover: %w", err)
	}

	recent, err := uc.notifications.HasRecent(ctx, mover.UserID, domain.NotificationDocumentExpiring, now.Add(-renewalCooldown))
	if err != nil {
		return false, fmt.Errorf("check recent notifications: %w", err)
	}
	if recent {
		return false, nil
	}

	n := domain.RenewalNotification(*mover, docs, now)
	n.ID = uuid.NewString()
	if err := uc.notifications.Create(ctx, &n); err != nil {
		uc.logger.Error("notification_failed",
			"mover_id", mover.ID,
			"notification_type", n.Type,
			"error", err,
		)
		return false, nil
	}
	return true, nil
}
