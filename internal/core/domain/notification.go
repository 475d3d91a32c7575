package domain

import (
	"fmt"
	"strings"
	"time"
)

type NotificationType string

const (
	NotificationMoverReady        NotificationType = "mover_ready_for_approval"
	NotificationMoverNeedsReview  NotificationType = "mover_needs_manual_review"
	NotificationDocumentExpiring  NotificationType = "document_expiring"
	NotificationExpirationSummary NotificationType = "admin_document_expiration_summary"
)

// Notification is a row for the notification sink. A nil RecipientID
// addresses administrators.
type Notification struct {
	ID                string           `json:"id,omitempty"`
	RecipientID       *string          `json:"user_id"`
	Type              NotificationType `json:"notification_type"`
	Title             string           `json:"title"`
	Message           string           `json:"message"`
	Severity          Severity         `json:"severity"`
	RelatedEntityType string           `json:"related_entity_type,omitempty"`
	RelatedEntityID   string           `json:"related_entity_id,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}

// VerificationNotification builds the administrator notification for a
// finished report. Rejected reports produce none.
func VerificationNotification(mover Mover, report *VerificationReport) (Notification, bool) {
	n := Notification{
		RelatedEntityType: "mover",
		RelatedEntityID:   mover.ID,
		CreatedAt:         report.CreatedAt,
	}
	switch report.OverallStatus {
	case StatusVerified:
		n.Type = NotificationMoverReady
		n.Title = "✅ Déménageur prêt à approuver"
		n.Message = fmt.Sprintf("%s a passé toutes les vérifications IA (Score: %d/100)", mover.CompanyName, report.Score)
		n.Severity = SeverityInfo
	case StatusNeedsReview:
		n.Type = NotificationMoverNeedsReview
		n.Title = "⚠️ Révision manuelle nécessaire"
		n.Message = fmt.Sprintf("%s nécessite une vérification manuelle (Score: %d/100, %d alerte(s))", mover.CompanyName, report.Score, len(report.Alerts))
		n.Severity = SeverityWarning
	default:
		return Notification{}, false
	}
	return n, true
}

func ExpirationWarningNotification(mover Mover, w ExpirationWarning, now time.Time) Notification {
	recipient := mover.UserID
	return Notification{
		RecipientID:       &recipient,
		Type:              NotificationDocumentExpiring,
		Title:             "📅 Document proche de l'expiration",
		Message:           w.Message,
		Severity:          SeverityWarning,
		RelatedEntityType: "mover",
		RelatedEntityID:   mover.ID,
		CreatedAt:         now.UTC(),
	}
}

type ExpiringDocument struct {
	DocumentID     string       `json:"document_id"`
	MoverID        string       `json:"mover_id"`
	DocumentType   DocumentType `json:"document_type"`
	ExpirationDate time.Time    `json:"expiration_date"`
	DaysRemaining  int          `json:"days_remaining"`
}

// RenewalNotification asks a mover to renew the listed documents.
func RenewalNotification(mover Mover, docs []ExpiringDocument, now time.Time) Notification {
	var message string
	if len(docs) == 1 {
		message = fmt.Sprintf("Votre %s expire dans %d jours. Merci de le renouveler au plus vite.", docs[0].DocumentType.Label(), docs[0].DaysRemaining)
	} else {
		lines := make([]string, 0, len(docs))
		for _, d := range docs {
			lines = append(lines, fmt.Sprintf("- %s: expire le %s (%d jours restants)", d.DocumentType.Label(), d.ExpirationDate.Format("02/01/2006"), d.DaysRemaining))
		}
		message = fmt.Sprintf("%d de vos documents expirent bientôt:\n%s\n\nMerci de les renouveler au plus vite.", len(docs), strings.Join(lines, "\n"))
	}
	recipient := mover.UserID
	return Notification{
		RecipientID:       &recipient,
		Type:              NotificationDocumentExpiring,
		Title:             "📅 Documents à renouveler",
		Message:           message,
		Severity:          SeverityWarning,
		RelatedEntityType: "mover",
		RelatedEntityID:   mover.ID,
		CreatedAt:         now.UTC(),
	}
}

// ExpirationSummaryNotification summarizes a sweep for administrators.
func ExpirationSummaryNotification(total, critical, window int, now time.Time) Notification {
	message := fmt.Sprintf("%d documents de déménageurs expirent dans les %d prochains jours.", total, window)
	severity := SeverityInfo
	if critical > 0 {
		message = fmt.Sprintf("Attention: %d document(s) expirent dans moins de 7 jours !\n\nTotal de documents expirant dans %d jours: %d", critical, window, total)
		severity = SeverityCritical
	}
	return Notification{
		Type:              NotificationExpirationSummary,
		Title:             "⚠️ Alertes expiration documents",
		Message:           message,
		Severity:          severity,
		RelatedEntityType: "system",
		CreatedAt:         now.UTC(),
	}
}

// SweepSummary reports what one expiration sweep did.
type SweepSummary struct {
	ExpiringDocuments int  `json:"expiring_documents"`
	CriticalDocuments int  `json:"critical_documents"`
	MoversNotified    int  `json:"movers_notified"`
	MoversSkipped     int  `json:"movers_skipped"`
	AdminSummarySent  bool `json:"admin_summary_sent"`
}
