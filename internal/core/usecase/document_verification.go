package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/mover-verification/internal/core/domain"
	"github.com/kirillkom/mover-verification/internal/core/ports"
)

type DocumentVerificationSettings struct {
	MatchMode     domain.MatchMode
	LowConfidence float64
	Logger        *slog.Logger
	Metrics       ports.VerificationMetrics
	Now           func() time.Time
}

type DocumentVerificationUseCase struct {
	extractor     ports.DocumentExtractor
	storage       ports.ObjectStorage
	verifications ports.VerificationStore
	alerts        ports.FraudAlertStore
	documents     ports.DocumentRepository

	matchMode     domain.MatchMode
	lowConfidence float64
	logger        *slog.Logger
	metrics       ports.VerificationMetrics
	now           func() time.Time
}

func NewDocumentVerificationUseCase(
	extractor ports.DocumentExtractor,
	storage ports.ObjectStorage,
	verifications ports.VerificationStore,
	alerts ports.FraudAlertStore,
	documents ports.DocumentRepository,
	settings DocumentVerificationSettings,
) *DocumentVerificationUseCase {
	if settings.MatchMode == "" {
		settings.MatchMode = domain.MatchExact
	}
	if settings.LowConfidence <= 0 {
		settings.LowConfidence = domain.DefaultPolicy().LowConfidence
	}
	return &DocumentVerificationUseCase{
		extractor:     extractor,
		storage:       storage,
		verifications: verifications,
		alerts:        alerts,
		documents:     documents,
		matchMode:     settings.MatchMode,
		lowConfidence: settings.LowConfidence,
		logger:        loggerOrDefault(settings.Logger),
		metrics:       metricsOrNoop(settings.Metrics),
		now:           clockOrDefault(settings.Now),
	}
}

func (uc *DocumentVerificationUseCase) Verify(ctx context.Context, input domain.DocumentVerificationInput) (*domain.DocumentVerificationResult, error) {
	docType, location, err := validateVerificationInput(input)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()

	extraction := extractLocation(ctx, uc.extractor, uc.storage, docType, location, domain.ReferenceValues{}, now)
	if extraction.Degraded {
		uc.metrics.ObserveOCRFallback(docType)
		uc.logger.Warn("ocr_fallback",
			"owner_id", input.OwnerID,
			"document_type", docType,
			"warnings", extraction.Warnings,
		)
	}

	verification := buildVerification(input, docType, location, extraction, now)

	alerts, err := uc.detectFraud(ctx, verification, extraction, now)
	if err != nil {
		return nil, err
	}

	if err := uc.verifications.Create(ctx, &verification); err != nil {
		return nil, fmt.Errorf("create document verification: %w", err)
	}
	if len(alerts) > 0 {
		if err := uc.alerts.CreateMany(ctx, alerts); err != nil {
			return nil, fmt.Errorf("create fraud alerts: %w", err)
		}
	}
	if input.DocumentID != "" {
		if err := uc.markDocument(ctx, input.DocumentID, verification.Status); err != nil {
			return nil, err
		}
	}

	if alerts == nil {
		alerts = []domain.FraudAlert{}
	}
	return &domain.DocumentVerificationResult{
		Verification: verification,
		FraudAlerts:  alerts,
		Extraction:   extraction,
	}, nil
}

func validateVerificationInput(input domain.DocumentVerificationInput) (domain.DocumentType, string, error) {
	location := strings.TrimSpace(input.DocumentURL)
	if location == "" {
		location = strings.TrimSpace(input.StoragePath)
	}
	if strings.TrimSpace(input.OwnerID) == "" || strings.TrimSpace(input.DocumentType) == "" || location == "" {
		return "", "", domain.WrapError(
			domain.ErrInvalidInput,
			"verify document",
			errors.New("missing required fields: documentUrl, documentType, userId"),
		)
	}
	docType, _, ok := domain.NormalizeDocumentType(input.DocumentType, location)
	if !ok {
		return "", "", domain.WrapError(
			domain.ErrInvalidInput,
			"verify document",
			fmt.Errorf("unsupported document type %q", input.DocumentType),
		)
	}
	return docType, location, nil
}

func buildVerification(
	input domain.DocumentVerificationInput,
	docType domain.DocumentType,
	location string,
	extraction domain.ExtractionResult,
	now time.Time,
) domain.DocumentVerification {
	v := domain.DocumentVerification{
		ID:           uuid.NewString(),
		OwnerID:      input.OwnerID,
		DocumentID:   input.DocumentID,
		DocumentType: docType,
		DocumentURL:  location,
		Status:       domain.OutcomeVerified,
		Fields:       extraction.Fields,
		Confidence:   extraction.Confidence,
		VerifiedBy:   "auto",
		VerifiedAt:   now,
	}
	if !extraction.Verified {
		v.Status = domain.OutcomeRejected
		v.RejectionReason = strings.Join(extraction.Warnings, ", ")
	}
	return v
}

func (uc *DocumentVerificationUseCase) detectFraud(
	ctx context.Context,
	candidate domain.DocumentVerification,
	extraction domain.ExtractionResult,
	now time.Time,
) ([]domain.FraudAlert, error) {
	var alerts []domain.FraudAlert
	if candidate.Fields.DiscriminatingValue(candidate.DocumentType) != "" {
		existing, err := uc.verifications.ListByTypeExcludingOwner(ctx, candidate.DocumentType.DuplicateClass(), candidate.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("list verifications of other owners: %w", err)
		}
		alerts = append(alerts, domain.FindDuplicates(candidate, existing, uc.matchMode, now)...)
	}
	alerts = append(alerts, domain.AssessExtraction(candidate.OwnerID, extraction, uc.lowConfidence, now)...)
	for i := range alerts {
		alerts[i].ID = uuid.NewString()
	}
	return alerts, nil
}

func (uc *DocumentVerificationUseCase) markDocument(ctx context.Context, documentID string, outcome domain.VerificationOutcome) error {
	if uc.documents == nil {
		return nil
	}
	status := domain.DocumentApproved
	if outcome == domain.OutcomeRejected {
		status = domain.DocumentRejected
	}
	if err := uc.documents.UpdateStatus(ctx, documentID, status); err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return nil
}
