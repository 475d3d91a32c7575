package domain

import (
	"errors"
	"testing"
	"time"
)

func testMover() Mover {
	return Mover{
		ID:               "mover-1",
		UserID:           "user-1",
		CompanyName:      "Déménagements Martin",
		SIRET:            "73282932000074",
		Email:            "contact@demenagements-martin.fr",
		Phone:            "06 12 34 56 78",
		ManagerFirstName: "Jean",
		ManagerLastName:  "Martin",
	}
}

func datePtr(t time.Time) *time.Time { return &t }

func okExtraction(fields ExtractedFields) ExtractionResult {
	return ExtractionResult{Fields: fields, Verified: true, IsValid: true, Confidence: 0.95}
}

func TestEvaluateKBISPasses(t *testing.T) {
	ex := okExtraction(ExtractedFields{
		SIRET:        "732 829 320 00074",
		BusinessName: "DEMENAGEMENTS MARTIN SARL",
		ManagerName:  "Jean Martin",
		IssueDate:    datePtr(today.AddDate(0, 0, -20)),
	})

	out := EvaluateKBIS(testMover(), ex, today, DefaultPolicy())
	if !out.Check.Passed || out.Deduction != 0 || len(out.Alerts) != 0 {
		t.Fatalf("expected clean pass, got %+v", out)
	}
	if out.Warning != nil {
		t.Fatalf("20-day old KBIS must not warn")
	}
}

func TestEvaluateKBISExpiredAndSIRETMismatchIsCritical(t *testing.T) {
	ex := okExtraction(ExtractedFields{
		SIRET:        "44306184100047",
		BusinessName: "Déménagements Martin",
		IssueDate:    datePtr(today.AddDate(0, 0, -120)),
	})

	out := EvaluateKBIS(testMover(), ex, today, DefaultPolicy())
	if out.Check.Passed || out.Check.Severity != SeverityCritical {
		t.Fatalf("expected critical failure, got %+v", out.Check)
	}
	if out.Deduction != 30 {
		t.Fatalf("expected 30 point deduction, got %d", out.Deduction)
	}
	types := map[string]bool{}
	for _, a := range out.Alerts {
		types[a.Type] = true
	}
	if !types["expired_kbis"] || !types["siret_mismatch"] {
		t.Fatalf("expected expired_kbis and siret_mismatch alerts, got %+v", out.Alerts)
	}
}

func TestEvaluateKBISNameMismatchIsWarning(t *testing.T) {
	ex := okExtraction(ExtractedFields{
		SIRET:        "73282932000074",
		BusinessName: "Transports Durand",
		IssueDate:    datePtr(today.AddDate(0, 0, -70)),
	})

	out := EvaluateKBIS(testMover(), ex, today, DefaultPolicy())
	if out.Check.Passed || out.Check.Severity != SeverityWarning || out.Deduction != 10 {
		t.Fatalf("expected warning failure with 10 points, got %+v", out)
	}
	if out.Warning == nil || out.Warning.DaysUntilExpiration != 20 {
		t.Fatalf("expected expiration warning with 20 days left, got %+v", out.Warning)
	}
}

func TestEvaluateInsuranceExpiringSoon(t *testing.T) {
	ex := okExtraction(ExtractedFields{InsuredName: "Déménagements Martin", ExpiryDate: datePtr(today.AddDate(0, 0, 10))})

	out := EvaluateInsurance(testMover(), ex, today, DefaultPolicy())
	if !out.Check.Passed || out.Warning == nil {
		t.Fatalf("expected pass with warning, got %+v", out)
	}
	if out.Check.Message != "Assurance valide mais expire bientôt" {
		t.Fatalf("unexpected message %q", out.Check.Message)
	}
}

func TestEvaluateIdentityNameMismatchRecordsAlert(t *testing.T) {
	ex := okExtraction(ExtractedFields{FirstName: "Paul", LastName: "Durand", ExpiryDate: datePtr(today.AddDate(2, 0, 0))})

	out := EvaluateIdentity(testMover(), DocumentIdentity, ex, today, DefaultPolicy())
	if out.Check.Passed || out.Deduction != 10 {
		t.Fatalf("expected warning failure, got %+v", out)
	}
	if len(out.Alerts) != 1 || out.Alerts[0].Type != "identity_failed" {
		t.Fatalf("failed check must carry an alert, got %+v", out.Alerts)
	}
}

func TestEvaluateDegradedExtractionFailsWithWarning(t *testing.T) {
	ex := ExtractionResult{Degraded: true, Warnings: []string{"OCR failed: timeout"}}

	out := EvaluateInsurance(testMover(), ex, today, DefaultPolicy())
	if out.Check.Passed || out.Check.Severity != SeverityWarning || out.Deduction != 10 {
		t.Fatalf("expected warning failure, got %+v", out)
	}
	if len(out.Alerts) != 1 || out.Alerts[0].Type != "ai_unavailable" {
		t.Fatalf("expected ai_unavailable alert, got %+v", out.Alerts)
	}
}

func TestEvaluateTruck(t *testing.T) {
	mover := testMover()
	truck := Truck{ID: "truck-1", LicensePlate: "AB-123-CD"}

	if out := EvaluateTruck(mover, truck, nil, DefaultPolicy()); !out.Check.Passed {
		t.Fatalf("valid plate without card must pass, got %+v", out.Check)
	}

	ex := okExtraction(ExtractedFields{LicensePlate: "XY-987-ZZ", OwnerName: "Déménagements Martin"})
	out := EvaluateTruck(mover, truck, &ex, DefaultPolicy())
	if out.Check.Passed || out.Deduction != 10 {
		t.Fatalf("plate mismatch must fail with 10 points, got %+v", out)
	}
}

func TestEvaluateTransportLicenseExpired(t *testing.T) {
	ex := okExtraction(ExtractedFields{ExpiryDate: datePtr(today.AddDate(0, 0, -1))})
	out := EvaluateTransportLicense(ex, today, DefaultPolicy())
	if out.Check.Passed || out.Deduction != 15 || out.Check.Severity != SeverityCritical {
		t.Fatalf("expected critical failure with 15 points, got %+v", out)
	}
}

func TestMissingDocumentCheck(t *testing.T) {
	out := MissingDocumentCheck(CheckKBIS, "KBIS manquant", 30)
	if out.Check.Passed || out.Deduction != 30 || len(out.Alerts) != 1 || out.Alerts[0].Severity != SeverityCritical {
		t.Fatalf("unexpected missing check %+v", out)
	}
	trucks := MissingTrucksCheck(5)
	if trucks.Check.Severity != SeverityWarning || trucks.Deduction != 5 {
		t.Fatalf("unexpected trucks check %+v", trucks)
	}
}

func TestEvaluateFraud(t *testing.T) {
	mover := testMover()

	if _, ok := EvaluateFraud(mover, FraudEvidence{}, DefaultPolicy()); ok {
		t.Fatalf("no evidence must produce no check")
	}

	out, ok := EvaluateFraud(mover, FraudEvidence{
		DuplicateMovers: map[MoverField][]Mover{
			MoverFieldSIRET: {{ID: "mover-2", CompanyName: "Clone SARL"}},
		},
	}, DefaultPolicy())
	if !ok || out.Check.Passed || out.Deduction != 25 {
		t.Fatalf("expected suspicious check with 25 points, got %+v", out)
	}
	if out.Alerts[0].Message != "SIRET déjà utilisé par: Clone SARL" || out.Alerts[0].Severity != SeverityCritical {
		t.Fatalf("unexpected alert %+v", out.Alerts[0])
	}
	ids, _ := out.Check.Details["duplicate_siret"].([]string)
	if len(ids) != 1 || ids[0] != "mover-2" {
		t.Fatalf("expected duplicate mover ids in details, got %+v", out.Check.Details)
	}

	out, ok = EvaluateFraud(mover, FraudEvidence{InvalidPhone: errors.New("bad phone")}, DefaultPolicy())
	if !ok || !out.Check.Passed || out.Deduction != 0 || len(out.Alerts) != 1 {
		t.Fatalf("contact warnings must not deduct, got %+v", out)
	}
}
