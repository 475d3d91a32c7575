package usecase

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

var fixedNow = time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func datePtr(t time.Time) *time.Time { return &t }

type moverRepoFake struct {
	movers   map[string]domain.Mover
	getErr   error
	byField  map[domain.MoverField][]domain.Mover
	findErr  error
	findArgs []string
}

func (f *moverRepoFake) GetByID(_ context.Context, id string) (*domain.Mover, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	m, ok := f.movers[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrMoverNotFound, "get mover", io.EOF)
	}
	return &m, nil
}

func (f *moverRepoFake) FindByField(_ context.Context, field domain.MoverField, value, excludeID string) ([]domain.Mover, error) {
	f.findArgs = append(f.findArgs, string(field)+"="+value+"!"+excludeID)
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.byField[field], nil
}

type documentRepoFake struct {
	docs        []domain.Document
	listErr     error
	expiring    []domain.Document
	expFrom     time.Time
	expUntil    time.Time
	statusCalls map[string]domain.DocumentStatus
	statusErr   error
}

func (f *documentRepoFake) ListByMover(context.Context, string) ([]domain.Document, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.docs, nil
}

func (f *documentRepoFake) ListExpiring(_ context.Context, from, until time.Time) ([]domain.Document, error) {
	f.expFrom, f.expUntil = from, until
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.expiring, nil
}

func (f *documentRepoFake) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	if f.statusCalls == nil {
		f.statusCalls = map[string]domain.DocumentStatus{}
	}
	f.statusCalls[id] = status
	return nil
}

type verificationStoreFake struct {
	created   []domain.DocumentVerification
	createErr error
	own       []domain.DocumentVerification
	others    []domain.DocumentVerification
	listCalls int
}

func (f *verificationStoreFake) Create(_ context.Context, v *domain.DocumentVerification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *v)
	return nil
}

func (f *verificationStoreFake) ListByOwner(context.Context, string) ([]domain.DocumentVerification, error) {
	return f.own, nil
}

func (f *verificationStoreFake) ListByTypeExcludingOwner(_ context.Context, types []domain.DocumentType, _ string) ([]domain.DocumentVerification, error) {
	f.listCalls++
	var out []domain.DocumentVerification
	for _, v := range f.others {
		for _, t := range types {
			if v.DocumentType == t {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

type reportRepoFake struct {
	created   []domain.VerificationReport
	createErr error
	latest    *domain.VerificationReport
	list      []domain.VerificationReport
	listLimit int
}

func (f *reportRepoFake) Create(_ context.Context, r *domain.VerificationReport) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *r)
	return nil
}

func (f *reportRepoFake) Latest(context.Context, string) (*domain.VerificationReport, error) {
	if f.latest == nil {
		return nil, domain.WrapError(domain.ErrReportNotFound, "latest report", io.EOF)
	}
	return f.latest, nil
}

func (f *reportRepoFake) List(_ context.Context, _ string, limit int) ([]domain.VerificationReport, error) {
	f.listLimit = limit
	return f.list, nil
}

type notificationStoreFake struct {
	created   []domain.Notification
	createErr error
	recent    map[string]bool
}

func (f *notificationStoreFake) Create(_ context.Context, n *domain.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *n)
	return nil
}

func (f *notificationStoreFake) HasRecent(_ context.Context, recipientID string, _ domain.NotificationType, _ time.Time) (bool, error) {
	return f.recent[recipientID], nil
}

type fraudAlertStoreFake struct {
	created []domain.FraudAlert
	err     error
}

func (f *fraudAlertStoreFake) CreateMany(_ context.Context, alerts []domain.FraudAlert) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, alerts...)
	return nil
}

type releaseStoreFake struct {
	created []domain.PaymentReleaseRequest
	err     error
}

func (f *releaseStoreFake) Create(_ context.Context, req *domain.PaymentReleaseRequest) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, *req)
	return nil
}

// documentExtractorFake answers per document type.
type documentExtractorFake struct {
	results  map[domain.DocumentType]domain.ExtractionResult
	err      error
	requests []domain.ExtractionRequest
}

func (f *documentExtractorFake) Extract(_ context.Context, req domain.ExtractionRequest) (domain.ExtractionResult, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return domain.ExtractionResult{}, f.err
	}
	return f.results[req.DocumentType], nil
}

type sentimentFake struct {
	verdict domain.SentimentVerdict
	err     error
	calls   int
}

func (f *sentimentFake) Classify(context.Context, string) (domain.SentimentVerdict, error) {
	f.calls++
	if f.err != nil {
		return domain.SentimentVerdict{}, f.err
	}
	return f.verdict, nil
}

type storageFake struct {
	objects map[string][]byte
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = b
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b, ok := f.objects[key]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "open object", io.EOF)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishVerificationRequested(_ context.Context, moverID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, moverID)
	return nil
}

func (f *queueFake) SubscribeVerificationRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

type textExtractorFake struct {
	text string
	err  error
}

func (f *textExtractorFake) Extract(_ context.Context, _ string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.text != "" {
		return f.text, nil
	}
	b, err := io.ReadAll(body)
	return strings.TrimSpace(string(b)), err
}

type exporterFake struct {
	reports []domain.VerificationReport
}

func (f *exporterFake) WriteReports(w io.Writer, _ domain.Mover, reports []domain.VerificationReport) error {
	f.reports = reports
	_, err := io.WriteString(w, "xlsx")
	return err
}

type metricsFake struct {
	reports      []domain.VerificationStatus
	cards        []bool
	ocrFallbacks []domain.DocumentType
	letters      []bool
}

func (f *metricsFake) ObserveReport(status domain.VerificationStatus, _ int) {
	f.reports = append(f.reports, status)
}
func (f *metricsFake) ObserveCardValidation(allowed bool) { f.cards = append(f.cards, allowed) }
func (f *metricsFake) ObserveOCRFallback(t domain.DocumentType) {
	f.ocrFallbacks = append(f.ocrFallbacks, t)
}
func (f *metricsFake) ObserveMissionLetter(approved bool) { f.letters = append(f.letters, approved) }
