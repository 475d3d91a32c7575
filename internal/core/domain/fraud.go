package domain

import (
	"strings"
	"time"
	"unicode"
)

type VerificationOutcome string

const (
	OutcomeVerified VerificationOutcome = "verified"
	OutcomeRejected VerificationOutcome = "rejected"
)

// DocumentVerification is the persisted outcome of one automated document check.
type DocumentVerification struct {
	ID              string              `json:"id"`
	OwnerID         string              `json:"user_id"`
	DocumentID      string              `json:"document_id,omitempty"`
	DocumentType    DocumentType        `json:"document_type"`
	DocumentURL     string              `json:"document_url"`
	Status          VerificationOutcome `json:"verification_status"`
	Fields          ExtractedFields     `json:"verification_data"`
	Confidence      float64             `json:"confidence"`
	RejectionReason string              `json:"rejection_reason,omitempty"`
	VerifiedBy      string              `json:"verified_by"`
	VerifiedAt      time.Time           `json:"verified_at"`
}

// DocumentVerificationInput names the document to verify. DocumentType accepts
// the raw vocabularies of both document tables.
type DocumentVerificationInput struct {
	OwnerID      string `json:"userId"`
	DocumentType string `json:"documentType"`
	DocumentURL  string `json:"documentUrl,omitempty"`
	StoragePath  string `json:"storagePath,omitempty"`
	DocumentID   string `json:"documentId,omitempty"`
}

type DocumentVerificationResult struct {
	Verification DocumentVerification `json:"verification"`
	FraudAlerts  []FraudAlert         `json:"fraudAlerts"`
	Extraction   ExtractionResult     `json:"extraction"`
}

type FraudAlertType string

const (
	AlertDuplicateDocument  FraudAlertType = "duplicate_document"
	AlertSuspiciousActivity FraudAlertType = "suspicious_activity"
	AlertFakeID             FraudAlertType = "fake_id"
)

type FraudSeverity string

const (
	FraudMedium   FraudSeverity = "medium"
	FraudHigh     FraudSeverity = "high"
	FraudCritical FraudSeverity = "critical"
)

type FraudAlert struct {
	ID        string         `json:"id,omitempty"`
	OwnerID   string         `json:"user_id"`
	AlertType FraudAlertType `json:"alert_type"`
	Severity  FraudSeverity  `json:"severity"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}

type MatchMode string

const (
	MatchExact      MatchMode = "exact"
	MatchNormalized MatchMode = "normalized"
)

func ParseMatchMode(raw string) MatchMode {
	if MatchMode(strings.ToLower(strings.TrimSpace(raw))) == MatchNormalized {
		return MatchNormalized
	}
	return MatchExact
}

// SameIdentifier compares two discriminating values. Empty values never match.
func SameIdentifier(a, b string, mode MatchMode) bool {
	if mode == MatchNormalized {
		a, b = foldIdentifier(a), foldIdentifier(b)
	}
	if a == "" || b == "" {
		return false
	}
	return a == b
}

func foldIdentifier(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return -1
	}, s)
}

// FindDuplicates compares the candidate's discriminating value with records
// belonging to other owners. At most one alert is produced per candidate.
func FindDuplicates(candidate DocumentVerification, existing []DocumentVerification, mode MatchMode, now time.Time) []FraudAlert {
	value := candidate.Fields.DiscriminatingValue(candidate.DocumentType)
	if value == "" {
		return nil
	}

	var owners []string
	for _, other := range existing {
		if other.OwnerID == candidate.OwnerID {
			continue
		}
		if !sameDuplicateClass(candidate.DocumentType, other.DocumentType) {
			continue
		}
		if SameIdentifier(value, other.Fields.DiscriminatingValue(other.DocumentType), mode) {
			owners = append(owners, other.OwnerID)
		}
	}
	if len(owners) == 0 {
		return nil
	}

	alert := FraudAlert{
		OwnerID:   candidate.OwnerID,
		AlertType: AlertDuplicateDocument,
		CreatedAt: now.UTC(),
		Details: map[string]any{
			"document_type":   string(candidate.DocumentType),
			"matching_owners": owners,
		},
	}
	if candidate.DocumentType == DocumentKBIS {
		alert.Severity = FraudHigh
		alert.Details["siret"] = value
		alert.Details["message"] = "SIRET déjà enregistré"
	} else {
		alert.Severity = FraudCritical
		alert.Details["document_number"] = value
		alert.Details["message"] = "Numéro de document déjà utilisé par un autre utilisateur"
	}
	return []FraudAlert{alert}
}

func sameDuplicateClass(a, b DocumentType) bool {
	if a.IsIdentityClass() {
		return b.IsIdentityClass()
	}
	return a == b
}

// DuplicateClass lists the document types compared with t for duplicates.
func (t DocumentType) DuplicateClass() []DocumentType {
	if t.IsIdentityClass() {
		return []DocumentType{DocumentIdentity, DocumentPassport, DocumentDriverLicense}
	}
	return []DocumentType{t}
}

// AssessExtraction raises the alerts that follow from the extraction outcome
// itself: low confidence and automatic rejection.
func AssessExtraction(ownerID string, result ExtractionResult, lowConfidence float64, now time.Time) []FraudAlert {
	var alerts []FraudAlert
	if result.Confidence < lowConfidence {
		alerts = append(alerts, FraudAlert{
			OwnerID:   ownerID,
			AlertType: AlertSuspiciousActivity,
			Severity:  FraudMedium,
			CreatedAt: now.UTC(),
			Details: map[string]any{
				"confidence": result.Confidence,
				"message":    "Confiance OCR faible - vérification manuelle recommandée",
			},
		})
	}
	if !result.Verified {
		alerts = append(alerts, FraudAlert{
			OwnerID:   ownerID,
			AlertType: AlertFakeID,
			Severity:  FraudHigh,
			CreatedAt: now.UTC(),
			Details: map[string]any{
				"warnings": result.Warnings,
				"message":  "Document rejeté par la vérification automatique",
			},
		})
	}
	return alerts
}
