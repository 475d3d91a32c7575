package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

// MoverRepository reads mover profiles with their trucks.
type MoverRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Mover, error)
	FindByField(ctx context.Context, field domain.MoverField, value, excludeID string) ([]domain.Mover, error)
}

// DocumentRepository reads uploaded documents from both document tables.
type DocumentRepository interface {
	ListByMover(ctx context.Context, moverID string) ([]domain.Document, error)
	ListExpiring(ctx context.Context, from, until time.Time) ([]domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus) error
}

// VerificationStore persists document verification outcomes.
type VerificationStore interface {
	Create(ctx context.Context, v *domain.DocumentVerification) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.DocumentVerification, error)
	ListByTypeExcludingOwner(ctx context.Context, docTypes []domain.DocumentType, ownerID string) ([]domain.DocumentVerification, error)
}

// ReportRepository persists verification reports. Reports are never updated.
type ReportRepository interface {
	Create(ctx context.Context, report *domain.VerificationReport) error
	Latest(ctx context.Context, subjectID string) (*domain.VerificationReport, error)
	List(ctx context.Context, subjectID string, limit int) ([]domain.VerificationReport, error)
}

// NotificationStore is the notification sink.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
	HasRecent(ctx context.Context, recipientID string, kind domain.NotificationType, since time.Time) (bool, error)
}

// FraudAlertStore persists fraud alerts.
type FraudAlertStore interface {
	CreateMany(ctx context.Context, alerts []domain.FraudAlert) error
}

// ReleaseRequestStore records payment release requests.
type ReleaseRequestStore interface {
	Create(ctx context.Context, req *domain.PaymentReleaseRequest) error
}

// DocumentExtractor reads structured fields from a document image.
type DocumentExtractor interface {
	Extract(ctx context.Context, req domain.ExtractionRequest) (domain.ExtractionResult, error)
}

// SentimentClassifier classifies client comments.
type SentimentClassifier interface {
	Classify(ctx context.Context, comments string) (domain.SentimentVerdict, error)
}

// ObjectStorage stores uploaded documents by key.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes mover verification requests.
type MessageQueue interface {
	PublishVerificationRequested(ctx context.Context, moverID string) error
	SubscribeVerificationRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from an uploaded letter.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, body io.Reader) (string, error)
}

// ReportExporter renders report history as a spreadsheet.
type ReportExporter interface {
	WriteReports(w io.Writer, mover domain.Mover, reports []domain.VerificationReport) error
}

// VerificationMetrics records business outcomes.
type VerificationMetrics interface {
	ObserveReport(status domain.VerificationStatus, score int)
	ObserveCardValidation(allowed bool)
	ObserveOCRFallback(docType domain.DocumentType)
	ObserveMissionLetter(approved bool)
}
