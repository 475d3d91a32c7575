package domain

import (
	"fmt"
	"time"
)

type ExpirationState string

const (
	ExpirationValid        ExpirationState = "valid"
	ExpirationExpiringSoon ExpirationState = "expiring_soon"
	ExpirationExpired      ExpirationState = "expired"
)

const day = 24 * time.Hour

// CivilDate drops the clock part of t, keeping its calendar day.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysUntil counts whole calendar days from today to expiry. Negative when
// expiry is in the past.
func DaysUntil(expiry, today time.Time) int {
	return int(CivilDate(expiry).Sub(CivilDate(today)) / day)
}

// ClassifyExpiration maps a day count onto a state. Documents expiring today
// are expiring soon, not expired.
func ClassifyExpiration(days, soonWindow int) ExpirationState {
	switch {
	case days < 0:
		return ExpirationExpired
	case days < soonWindow:
		return ExpirationExpiringSoon
	default:
		return ExpirationValid
	}
}

// KBISExpiry derives the validity end of an extract from its issue date.
func KBISExpiry(issued time.Time, validityDays int) time.Time {
	return CivilDate(issued).AddDate(0, 0, validityDays)
}

type ExpirationOutcome struct {
	State   ExpirationState
	Days    int
	Warning *ExpirationWarning
}

// EvaluateExpiration classifies a document expiry and builds the owner-facing
// warning for documents about to expire.
func EvaluateExpiration(docType DocumentType, expiry, today time.Time, soonWindow int) ExpirationOutcome {
	days := DaysUntil(expiry, today)
	out := ExpirationOutcome{State: ClassifyExpiration(days, soonWindow), Days: days}
	if out.State == ExpirationExpiringSoon {
		out.Warning = &ExpirationWarning{
			DocumentType:        docType,
			ExpirationDate:      CivilDate(expiry),
			DaysUntilExpiration: days,
			Message:             expiringMessage(docType, days),
		}
	}
	return out
}

func expiringMessage(docType DocumentType, days int) string {
	switch docType {
	case DocumentKBIS:
		return fmt.Sprintf("Le KBIS expire bientôt (%d jours restants). Merci de le mettre à jour.", days)
	case DocumentInsurance:
		return fmt.Sprintf("Votre assurance RC PRO expire dans %d jours. Merci de la renouveler.", days)
	default:
		return fmt.Sprintf("Votre %s expire dans %d jours.", docType.Label(), days)
	}
}
