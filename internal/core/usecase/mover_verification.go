package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/mover-verification/internal/core/domain"
	"github.com/kirillkom/mover-verification/internal/core/ports"
)

const (
	defaultReportLimit = 20
	maxReportLimit     = 200
)

// MoverVerificationDeps groups the collaborators of a mover verification run.
type MoverVerificationDeps struct {
	Movers        ports.MoverRepository
	Documents     ports.DocumentRepository
	Verifications ports.VerificationStore
	Reports       ports.ReportRepository
	Notifications ports.NotificationStore
	Extractor     ports.DocumentExtractor
	Storage       ports.ObjectStorage
	Queue         ports.MessageQueue
	Exporter      ports.ReportExporter
}

type MoverVerificationSettings struct {
	Policy    domain.Policy
	MatchMode domain.MatchMode
	Logger    *slog.Logger
	Metrics   ports.VerificationMetrics
	Now       func() time.Time
}

type MoverVerificationUseCase struct {
	deps MoverVerificationDeps

	policy    domain.Policy
	matchMode domain.MatchMode
	logger    *slog.Logger
	metrics   ports.VerificationMetrics
	now       func() time.Time
}

func NewMoverVerificationUseCase(deps MoverVerificationDeps, settings MoverVerificationSettings) *MoverVerificationUseCase {
	if settings.MatchMode == "" {
		settings.MatchMode = domain.MatchExact
	}
	return &MoverVerificationUseCase{
		deps:      deps,
		policy:    settings.Policy.Normalize(),
		matchMode: settings.MatchMode,
		logger:    loggerOrDefault(settings.Logger),
		metrics:   metricsOrNoop(settings.Metrics),
		now:       clockOrDefault(settings.Now),
	}
}

// Verify runs the full checklist for a mover, persists the report and
// notifies administrators and the mover.
func (uc *MoverVerificationUseCase) Verify(ctx context.Context, moverID string) (*domain.VerificationReport, error) {
	mover, err := uc.loadMover(ctx, moverID)
	if err != nil {
		return nil, err
	}
	docs, err := uc.deps.Documents.ListByMover(ctx, mover.ID)
	if err != nil {
		return nil, fmt.Errorf("list mover documents: %w", err)
	}

	now := uc.now().UTC()
	report := domain.NewVerificationReport(mover.ID, now)
	report.ID = uuid.NewString()
	set := latestDocuments(docs)
	ref := mover.Reference()
	p := uc.policy

	if doc, ok := set[domain.DocumentKBIS]; ok {
		ex := uc.extract(ctx, mover, doc.Type, doc.Location(), ref, now)
		apply(report, domain.EvaluateKBIS(*mover, ex, now, p))
	} else {
		apply(report, domain.MissingDocumentCheck(domain.CheckKBIS, "KBIS manquant", p.KBISMissing))
	}

	if doc, ok := set[domain.DocumentInsurance]; ok {
		ex := uc.extract(ctx, mover, doc.Type, doc.Location(), ref, now)
		apply(report, domain.EvaluateInsurance(*mover, ex, now, p))
	} else {
		apply(report, domain.MissingDocumentCheck(domain.CheckInsurance, "Assurance RC PRO manquante", p.InsuranceMissing))
	}

	if doc, ok := identityDocument(set); ok {
		ex := uc.extract(ctx, mover, doc.Type, doc.Location(), ref, now)
		apply(report, domain.EvaluateIdentity(*mover, doc.Type, ex, now, p))
	} else {
		apply(report, domain.MissingDocumentCheck(domain.CheckIdentity, "Pièce d'identité manquante", p.IdentityMissing))
	}

	if len(mover.Trucks) == 0 {
		apply(report, domain.MissingTrucksCheck(p.TrucksMissing))
	}
	for _, truck := range mover.Trucks {
		var ex *domain.ExtractionResult
		if truck.RegistrationDocumentPath != "" {
			res := uc.extract(ctx, mover, domain.DocumentTruckRegistration, truck.RegistrationDocumentPath, ref, now)
			ex = &res
		}
		apply(report, domain.EvaluateTruck(*mover, truck, ex, p))
	}

	if doc, ok := set[domain.DocumentTransportLicense]; ok {
		ex := uc.extract(ctx, mover, doc.Type, doc.Location(), ref, now)
		apply(report, domain.EvaluateTransportLicense(ex, now, p))
	}

	evidence, err := uc.fraudEvidence(ctx, mover, now)
	if err != nil {
		return nil, err
	}
	if out, ok := domain.EvaluateFraud(*mover, evidence, p); ok {
		apply(report, out)
	}

	report.Finalize(p)

	if err := uc.deps.Reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("create verification report: %w", err)
	}
	uc.metrics.ObserveReport(report.OverallStatus, report.Score)
	uc.notify(ctx, mover, report, now)

	return report, nil
}

// RequestAsync queues a verification run for the worker.
func (uc *MoverVerificationUseCase) RequestAsync(ctx context.Context, moverID string) error {
	if _, err := uc.loadMover(ctx, moverID); err != nil {
		return err
	}
	if uc.deps.Queue == nil {
		return domain.WrapError(domain.ErrTemporary, "request verification", errors.New("message queue not configured"))
	}
	if err := uc.deps.Queue.PublishVerificationRequested(ctx, moverID); err != nil {
		return fmt.Errorf("publish verification request: %w", err)
	}
	return nil
}

func (uc *MoverVerificationUseCase) GetLatest(ctx context.Context, moverID string) (*domain.VerificationReport, error) {
	if strings.TrimSpace(moverID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get latest report", errors.New("mover id is required"))
	}
	report, err := uc.deps.Reports.Latest(ctx, moverID)
	if err != nil {
		return nil, fmt.Errorf("fetch latest report: %w", err)
	}
	return report, nil
}

// ListReports returns the report history, newest first.
func (uc *MoverVerificationUseCase) ListReports(ctx context.Context, moverID string, limit int) ([]domain.VerificationReport, error) {
	if strings.TrimSpace(moverID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list reports", errors.New("mover id is required"))
	}
	switch {
	case limit <= 0:
		limit = defaultReportLimit
	case limit > maxReportLimit:
		limit = maxReportLimit
	}
	reports, err := uc.deps.Reports.List(ctx, moverID, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// ExportReports writes the report history of a mover as a spreadsheet.
func (uc *MoverVerificationUseCase) ExportReports(ctx context.Context, moverID string, w io.Writer) error {
	mover, err := uc.loadMover(ctx, moverID)
	if err != nil {
		return err
	}
	reports, err := uc.ListReports(ctx, moverID, maxReportLimit)
	if err != nil {
		return err
	}
	if uc.deps.Exporter == nil {
		return errors.New("report exporter not configured")
	}
	if err := uc.deps.Exporter.WriteReports(w, *mover, reports); err != nil {
		return fmt.Errorf("export reports: %w", err)
	}
	return nil
}

func (uc *MoverVerificationUseCase) loadMover(ctx context.Context, moverID string) (*domain.Mover, error) {
	if strings.TrimSpace(moverID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "load mover", errors.New("mover id is required"))
	}
	mover, err := uc.deps.Movers.GetByID(ctx, moverID)
	if err != nil {
		return nil, fmt.Errorf("fetch mover: %w", err)
	}
	return mover, nil
}

func (uc *MoverVerificationUseCase) extract(
	ctx context.Context,
	mover *domain.Mover,
	docType domain.DocumentType,
	location string,
	ref domain.ReferenceValues,
	now time.Time,
) domain.ExtractionResult {
	ex := extractLocation(ctx, uc.deps.Extractor, uc.deps.Storage, docType, location, ref, now)
	if ex.Degraded {
		uc.metrics.ObserveOCRFallback(docType)
		uc.logger.Warn("ocr_fallback",
			"mover_id", mover.ID,
			"document_type", docType,
			"warnings", ex.Warnings,
		)
	}
	return ex
}

func apply(report *domain.VerificationReport, out domain.CheckOutcome) {
	report.AddCheck(out.Check)
	report.AddAlerts(out.Alerts...)
	if out.Warning != nil {
		report.AddExpirationWarning(*out.Warning)
	}
	if !out.Check.Passed {
		report.Downgrade(domain.StatusNeedsReview)
	}
	report.Deduct(out.Deduction)
}

// latestDocuments keeps the newest document per type. For identity documents
// the recto side wins over the verso.
func latestDocuments(docs []domain.Document) map[domain.DocumentType]domain.Document {
	sorted := append([]domain.Document(nil), docs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	set := make(map[domain.DocumentType]domain.Document, len(sorted))
	for _, doc := range sorted {
		if strings.TrimSpace(doc.Location()) == "" {
			continue
		}
		current, seen := set[doc.Type]
		if !seen || (current.Side == domain.SideVerso && doc.Side != domain.SideVerso) {
			set[doc.Type] = doc
		}
	}
	return set
}

func identityDocument(set map[domain.DocumentType]domain.Document) (domain.Document, bool) {
	for _, t := range []domain.DocumentType{domain.DocumentIdentity, domain.DocumentPassport, domain.DocumentDriverLicense} {
		if doc, ok := set[t]; ok {
			return doc, true
		}
	}
	return domain.Document{}, false
}

func (uc *MoverVerificationUseCase) fraudEvidence(ctx context.Context, mover *domain.Mover, now time.Time) (domain.FraudEvidence, error) {
	ev := domain.FraudEvidence{DuplicateMovers: map[domain.MoverField][]domain.Mover{}}

	fields := []struct {
		field domain.MoverField
		value string
	}{
		{domain.MoverFieldSIRET, domain.CleanSIRET(mover.SIRET)},
		{domain.MoverFieldEmail, strings.TrimSpace(mover.Email)},
		{domain.MoverFieldPhone, strings.TrimSpace(mover.Phone)},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		others, err := uc.deps.Movers.FindByField(ctx, f.field, f.value, mover.ID)
		if err != nil {
			return domain.FraudEvidence{}, fmt.Errorf("find movers by %s: %w", f.field, err)
		}
		if len(others) > 0 {
			ev.DuplicateMovers[f.field] = others
		}
	}

	if mover.Email != "" {
		ev.InvalidEmail = domain.ValidateEmail(mover.Email)
	}
	if mover.Phone != "" {
		ev.InvalidPhone = domain.ValidatePhone(mover.Phone)
	}

	alerts, err := uc.documentDuplicates(ctx, mover.UserID, now)
	if err != nil {
		return domain.FraudEvidence{}, err
	}
	ev.DocumentAlerts = alerts
	return ev, nil
}

// documentDuplicates rescans the owner's stored document verifications
// against other owners.
func (uc *MoverVerificationUseCase) documentDuplicates(ctx context.Context, ownerID string, now time.Time) ([]domain.FraudAlert, error) {
	if uc.deps.Verifications == nil || ownerID == "" {
		return nil, nil
	}
	own, err := uc.deps.Verifications.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owner verifications: %w", err)
	}

	cache := map[domain.DocumentType][]domain.DocumentVerification{}
	var alerts []domain.FraudAlert
	for _, v := range own {
		if v.Fields.DiscriminatingValue(v.DocumentType) == "" {
			continue
		}
		class := v.DocumentType.DuplicateClass()
		existing, ok := cache[class[0]]
		if !ok {
			existing, err = uc.deps.Verifications.ListByTypeExcludingOwner(ctx, class, ownerID)
			if err != nil {
				return nil, fmt.Errorf("list verifications of other owners: %w", err)
			}
			cache[class[0]] = existing
		}
		alerts = append(alerts, domain.FindDuplicates(v, existing, uc.matchMode, now)...)
	}
	return alerts, nil
}

// notify sends the administrator notification and one expiration notice per
// warning. Failures are logged and never fail the run.
func (uc *MoverVerificationUseCase) notify(ctx context.Context, mover *domain.Mover, report *domain.VerificationReport, now time.Time) {
	if uc.deps.Notifications == nil {
		return
	}
	var batch []domain.Notification
	if n, ok := domain.VerificationNotification(*mover, report); ok {
		batch = append(batch, n)
	}
	for _, w := range report.ExpirationWarnings {
		batch = append(batch, domain.ExpirationWarningNotification(*mover, w, now))
	}
	for i := range batch {
		batch[i].ID = uuid.NewString()
		if err := uc.deps.Notifications.Create(ctx, &batch[i]); err != nil {
			uc.logger.Error("notification_failed",
				"mover_id", mover.ID,
				"notification_type", batch[i].Type,
				"error", err,
			)
		}
	}
}
