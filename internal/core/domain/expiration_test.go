package domain

import (
	"testing"
	"time"
)

var today = time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC)

func TestClassifyExpirationBoundaries(t *testing.T) {
	tests := []struct {
		days int
		want ExpirationState
	}{
		{-1, ExpirationExpired},
		{0, ExpirationExpiringSoon},
		{29, ExpirationExpiringSoon},
		{30, ExpirationValid},
		{365, ExpirationValid},
	}
	for _, tt := range tests {
		if got := ClassifyExpiration(tt.days, 30); got != tt.want {
			t.Fatalf("ClassifyExpiration(%d) = %s, want %s", tt.days, got, tt.want)
		}
	}
}

func TestDaysUntilIgnoresClock(t *testing.T) {
	expiry := time.Date(2026, time.October, 15, 0, 1, 0, 0, time.UTC)
	if got := DaysUntil(expiry, today); got != 1 {
		t.Fatalf("expected 1 day, got %d", got)
	}
	if got := DaysUntil(today.AddDate(0, 0, -3), today); got != -3 {
		t.Fatalf("expected -3 days, got %d", got)
	}
}

func TestEvaluateExpirationWarnsOnlyWhenExpiringSoon(t *testing.T) {
	soon := EvaluateExpiration(DocumentInsurance, today.AddDate(0, 0, 29), today, 30)
	if soon.Warning == nil || soon.Warning.DaysUntilExpiration != 29 {
		t.Fatalf("expected warning at 29 days, got %+v", soon)
	}
	if soon.Warning.Message != "Votre assurance RC PRO expire dans 29 jours. Merci de la renouveler." {
		t.Fatalf("unexpected message %q", soon.Warning.Message)
	}

	valid := EvaluateExpiration(DocumentInsurance, today.AddDate(0, 0, 30), today, 30)
	if valid.Warning != nil || valid.State != ExpirationValid {
		t.Fatalf("expected no warning at 30 days, got %+v", valid)
	}

	expired := EvaluateExpiration(DocumentIdentity, today.AddDate(0, 0, -1), today, 30)
	if expired.Warning != nil || expired.State != ExpirationExpired {
		t.Fatalf("expected expired without warning, got %+v", expired)
	}
}

func TestKBISExpiryAddsValidityDays(t *testing.T) {
	issued := time.Date(2026, time.July, 1, 9, 0, 0, 0, time.UTC)
	want := time.Date(2026, time.September, 29, 0, 0, 0, 0, time.UTC)
	if got := KBISExpiry(issued, 90); !got.Equal(want) {
		t.Fatalf("KBISExpiry() = %s, want %s", got, want)
	}
}
