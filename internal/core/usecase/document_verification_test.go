package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

func newDocumentVerificationFixture(extractor *documentExtractorFake) (*DocumentVerificationUseCase, *verificationStoreFake, *fraudAlertStoreFake, *documentRepoFake) {
	store := &verificationStoreFake{}
	alerts := &fraudAlertStoreFake{}
	docs := &documentRepoFake{}
	uc := NewDocumentVerificationUseCase(extractor, &storageFake{}, store, alerts, docs, DocumentVerificationSettings{Now: clock})
	return uc, store, alerts, docs
}

func TestDocumentVerificationValidatesInput(t *testing.T) {
	uc, _, _, _ := newDocumentVerificationFixture(&documentExtractorFake{})

	cases := []domain.DocumentVerificationInput{
		{DocumentType: "id_card", DocumentURL: "https://x/doc.jpg"},
		{OwnerID: "user-1", DocumentURL: "https://x/doc.jpg"},
		{OwnerID: "user-1", DocumentType: "id_card"},
		{OwnerID: "user-1", DocumentType: "selfie", DocumentURL: "https://x/doc.jpg"},
	}
	for _, in := range cases {
		if _, err := uc.Verify(context.Background(), in); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("Verify(%+v) expected invalid input, got %v", in, err)
		}
	}
}

func TestDocumentVerificationFlagsDuplicateIdentity(t *testing.T) {
	extractor := &documentExtractorFake{results: map[domain.DocumentType]domain.ExtractionResult{
		domain.DocumentIdentity: {
			Confidence: 0.95,
			IsValid:    true,
			Fields: domain.ExtractedFields{
				DocumentNumber: "X4RTBPFW4",
				ExpiryDate:     datePtr(fixedNow.AddDate(3, 0, 0)),
			},
		},
	}}
	uc, store, alerts, docs := newDocumentVerificationFixture(extractor)
	store.others = []domain.DocumentVerification{
		{OwnerID: "user-2", DocumentType: domain.DocumentPassport, Fields: domain.ExtractedFields{DocumentNumber: "X4RTBPFW4"}},
	}

	res, err := uc.Verify(context.Background(), domain.DocumentVerificationInput{
		OwnerID:      "user-1",
		DocumentType: "id_card",
		DocumentURL:  "https://storage.example.org/cni.jpg",
		DocumentID:   "doc-1",
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Verification.Status != domain.OutcomeVerified || res.Verification.DocumentType != domain.DocumentIdentity {
		t.Fatalf("unexpected verification %+v", res.Verification)
	}
	if len(res.FraudAlerts) != 1 || res.FraudAlerts[0].Severity != domain.FraudCritical {
		t.Fatalf("expected one critical duplicate alert, got %+v", res.FraudAlerts)
	}
	if res.FraudAlerts[0].ID == "" {
		t.Fatalf("alerts must carry an id")
	}
	if len(store.created) != 1 || len(alerts.created) != 1 {
		t.Fatalf("expected persisted verification and alert, got %d/%d", len(store.created), len(alerts.created))
	}
	if docs.statusCalls["doc-1"] != domain.DocumentApproved {
		t.Fatalf("expected document approved, got %v", docs.statusCalls)
	}
	if extractor.requests[0].Image.URL != "https://storage.example.org/cni.jpg" {
		t.Fatalf("remote url must be passed to the provider, got %+v", extractor.requests[0].Image)
	}
}

func TestDocumentVerificationRejectsOnOCRFailure(t *testing.T) {
	metrics := &metricsFake{}
	extractor := &documentExtractorFake{err: errors.New("circuit breaker is open")}
	store := &verificationStoreFake{}
	alerts := &fraudAlertStoreFake{}
	docs := &documentRepoFake{}
	uc := NewDocumentVerificationUseCase(extractor, &storageFake{}, store, alerts, docs, DocumentVerificationSettings{Now: clock, Metrics: metrics})

	res, err := uc.Verify(context.Background(), domain.DocumentVerificationInput{
		OwnerID:      "user-1",
		DocumentType: "business_license",
		DocumentURL:  "https://storage.example.org/kbis.pdf",
		DocumentID:   "doc-9",
	})
	if err != nil {
		t.Fatalf("ocr failure must not fail the run: %v", err)
	}
	if res.Verification.Status != domain.OutcomeRejected {
		t.Fatalf("expected rejected verification, got %s", res.Verification.Status)
	}
	if res.Verification.RejectionReason != "OCR failed: circuit breaker is open" {
		t.Fatalf("unexpected rejection reason %q", res.Verification.RejectionReason)
	}

	types := map[domain.FraudAlertType]domain.FraudSeverity{}
	for _, a := range res.FraudAlerts {
		types[a.AlertType] = a.Severity
	}
	if types[domain.AlertSuspiciousActivity] != domain.FraudMedium || types[domain.AlertFakeID] != domain.FraudHigh {
		t.Fatalf("expected low confidence and fake id alerts, got %+v", res.FraudAlerts)
	}
	if store.listCalls != 0 {
		t.Fatalf("duplicate scan must be skipped without an identifier")
	}
	if docs.statusCalls["doc-9"] != domain.DocumentRejected {
		t.Fatalf("expected document rejected, got %v", docs.statusCalls)
	}
	if len(metrics.ocrFallbacks) != 1 || metrics.ocrFallbacks[0] != domain.DocumentKBIS {
		t.Fatalf("expected ocr fallback observation, got %v", metrics.ocrFallbacks)
	}
}

func TestDocumentVerificationPropagatesInsertFailure(t *testing.T) {
	extractor := &documentExtractorFake{results: map[domain.DocumentType]domain.ExtractionResult{
		domain.DocumentInsurance: {Confidence: 0.9},
	}}
	uc, store, alerts, _ := newDocumentVerificationFixture(extractor)
	store.createErr = errors.New("db down")

	_, err := uc.Verify(context.Background(), domain.DocumentVerificationInput{
		OwnerID:      "user-1",
		DocumentType: "insurance",
		DocumentURL:  "https://storage.example.org/rc.pdf",
	})
	if err == nil {
		t.Fatalf("expected insert error")
	}
	if len(alerts.created) != 0 {
		t.Fatalf("alerts must not be written after a failed insert")
	}
}
