package usecase

import (
	"context"
	"testing"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

func expiringDoc(id, moverID string, docType domain.DocumentType, days int) domain.Document {
	exp := fixedNow.AddDate(0, 0, days)
	return domain.Document{ID: id, OwnerID: moverID, Type: docType, ExpirationDate: &exp}
}

func TestExpirationSweepNotifiesEachMoverOnce(t *testing.T) {
	movers := &moverRepoFake{movers: map[string]domain.Mover{
		"m1": {ID: "m1", UserID: "u1", CompanyName: "Alpha"},
		"m2": {ID: "m2", UserID: "u2", CompanyName: "Beta"},
		"m3": {ID: "m3", UserID: "u3", CompanyName: "Gamma"},
	}}
	docs := &documentRepoFake{expiring: []domain.Document{
		expiringDoc("d1", "m1", domain.DocumentInsurance, 5),
		expiringDoc("d2", "m1", domain.DocumentKBIS, 20),
		expiringDoc("d3", "m2", domain.DocumentIdentity, 12),
		expiringDoc("d4", "m3", domain.DocumentTransportLicense, 25),
		expiringDoc("d5", "ghost", domain.DocumentInsurance, 2),
	}}
	notifications := &notificationStoreFake{recent: map[string]bool{"u3": true}}

	uc := NewExpirationSweepUseCase(movers, docs, notifications, ExpirationSweepSettings{Now: clock})
	summary, err := uc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := domain.SweepSummary{
		ExpiringDocuments: 5,
		CriticalDocuments: 2,
		MoversNotified:    2,
		MoversSkipped:     2,
		AdminSummarySent:  true,
	}
	if summary != want {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}
	if !docs.expFrom.Equal(domain.CivilDate(fixedNow)) || !docs.expUntil.Equal(domain.CivilDate(fixedNow).AddDate(0, 0, 30)) {
		t.Fatalf("unexpected window %s..%s", docs.expFrom, docs.expUntil)
	}

	if len(notifications.created) != 3 {
		t.Fatalf("expected two renewals and one summary, got %d", len(notifications.created))
	}
	first := notifications.created[0]
	if first.RecipientID == nil || *first.RecipientID != "u1" || first.Type != domain.NotificationDocumentExpiring {
		t.Fatalf("unexpected first notification %+v", first)
	}
	summaryNote := notifications.created[2]
	if summaryNote.RecipientID != nil || summaryNote.Severity != domain.SeverityCritical {
		t.Fatalf("unexpected admin summary %+v", summaryNote)
	}
}

func TestExpirationSweepWithoutDocuments(t *testing.T) {
	notifications := &notificationStoreFake{}
	uc := NewExpirationSweepUseCase(&moverRepoFake{}, &documentRepoFake{}, notifications, ExpirationSweepSettings{Now: clock})

	summary, err := uc.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary != (domain.SweepSummary{}) || len(notifications.created) != 0 {
		t.Fatalf("expected empty sweep, got %+v", summary)
	}
}
