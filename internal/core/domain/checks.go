package domain

import (
	"fmt"
	"strings"
	"time"
)

// CheckOutcome is one evaluated checklist item with its consequences.
type CheckOutcome struct {
	Check     CheckResult
	Alerts    []Alert
	Warning   *ExpirationWarning
	Deduction int
}

const aiUnavailableMessage = "IA non disponible - vérification manuelle requise"

// checkBuilder accumulates failures; the most severe one wins.
type checkBuilder struct {
	outcome CheckOutcome
	reasons []string
}

func newCheck(kind CheckType) *checkBuilder {
	return &checkBuilder{outcome: CheckOutcome{Check: CheckResult{
		Type:    kind,
		Passed:  true,
		Details: map[string]any{},
	}}}
}

func (b *checkBuilder) fail(severity Severity, reason string) {
	b.outcome.Check.Passed = false
	if severityRank(severity) > severityRank(b.outcome.Check.Severity) {
		b.outcome.Check.Severity = severity
	}
	b.reasons = append(b.reasons, reason)
}

func (b *checkBuilder) alert(kind string, severity Severity, message string) {
	b.outcome.Alerts = append(b.outcome.Alerts, Alert{Type: kind, Severity: severity, Message: message})
}

// done fills the message and the deduction. A failed check without an
// explicit alert gets one so that the report never hides a failure.
func (b *checkBuilder) done(okMessage string, criticalDeduction, warningDeduction int) CheckOutcome {
	out := b.outcome
	if out.Check.Passed {
		if out.Check.Message == "" {
			out.Check.Message = okMessage
		}
		if out.Check.Severity == "" {
			out.Check.Severity = SeverityInfo
		}
		return out
	}
	if out.Check.Message == "" {
		out.Check.Message = strings.Join(b.reasons, "; ")
	}
	if len(out.Alerts) == 0 {
		severity := out.Check.Severity
		if severity == SeverityInfo || severity == "" {
			severity = SeverityWarning
		}
		out.Alerts = []Alert{{Type: string(out.Check.Type) + "_failed", Severity: severity, Message: out.Check.Message}}
	}
	if out.Check.Severity == SeverityCritical {
		out.Deduction = criticalDeduction
	} else {
		out.Deduction = warningDeduction
	}
	return out
}

func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// MissingDocumentCheck is recorded when a required document was never
// uploaded.
func MissingDocumentCheck(kind CheckType, message string, deduction int) CheckOutcome {
	return CheckOutcome{
		Check: CheckResult{
			Type:     kind,
			Passed:   false,
			Message:  message,
			Severity: SeverityCritical,
		},
		Alerts:    []Alert{{Type: "missing_" + string(kind), Severity: SeverityCritical, Message: message}},
		Deduction: deduction,
	}
}

// MissingTrucksCheck is recorded when a mover has no registered vehicle.
func MissingTrucksCheck(deduction int) CheckOutcome {
	const message = "Aucun véhicule enregistré"
	return CheckOutcome{
		Check: CheckResult{
			Type:     CheckTrucks,
			Passed:   false,
			Message:  message,
			Severity: SeverityWarning,
		},
		Alerts:    []Alert{{Type: "missing_trucks", Severity: SeverityWarning, Message: message}},
		Deduction: deduction,
	}
}

// applyExtraction handles degradation and provider anomalies shared by every
// document check. It returns false when no field can be trusted.
func (b *checkBuilder) applyExtraction(ex ExtractionResult) bool {
	b.outcome.Check.Details["confidence"] = ex.Confidence
	if ex.Degraded {
		b.fail(SeverityWarning, "Analyse automatique indisponible")
		b.alert("ai_unavailable", SeverityWarning, aiUnavailableMessage)
		return false
	}
	for _, anomaly := range ex.Anomalies {
		b.alert("document_anomaly", SeverityWarning, anomaly)
	}
	if !ex.IsValid && len(ex.Anomalies) > 0 {
		b.fail(SeverityWarning, "Anomalies détectées par l'analyse automatique")
	}
	return true
}

func (b *checkBuilder) applyExpiry(docType DocumentType, expiry *time.Time, today time.Time, policy Policy, expiredMessage string) {
	if expiry == nil {
		b.fail(SeverityWarning, "Date d'expiration non détectée")
		return
	}
	b.outcome.Check.Details["expiration_date"] = CivilDate(*expiry).Format("2006-01-02")
	outcome := EvaluateExpiration(docType, *expiry, today, policy.ExpiringSoonDays)
	b.outcome.Check.Details["days_until_expiration"] = outcome.Days
	switch outcome.State {
	case ExpirationExpired:
		b.fail(SeverityCritical, expiredMessage)
		b.alert("expired_"+string(docType), SeverityCritical, fmt.Sprintf("Document expiré depuis le %s", CivilDate(*expiry).Format("02/01/2006")))
	case ExpirationExpiringSoon:
		b.outcome.Warning = outcome.Warning
	}
}

func EvaluateKBIS(mover Mover, ex ExtractionResult, today time.Time, policy Policy) CheckOutcome {
	b := newCheck(CheckKBIS)
	if b.applyExtraction(ex) {
		f := ex.Fields
		b.outcome.Check.Details["siret"] = f.SIRET
		b.outcome.Check.Details["business_name"] = f.BusinessName

		switch {
		case f.IssueDate != nil:
			issued := CivilDate(*f.IssueDate)
			age := DaysUntil(today, issued)
			b.outcome.Check.Details["kbis_age_days"] = age
			expiry := KBISExpiry(issued, policy.KBISValidityDays)
			outcome := EvaluateExpiration(DocumentKBIS, expiry, today, policy.ExpiringSoonDays)
			switch outcome.State {
			case ExpirationExpired:
				b.fail(SeverityCritical, fmt.Sprintf("KBIS expiré (%d jours)", age))
				b.alert("expired_kbis", SeverityCritical, fmt.Sprintf("Le KBIS a plus de 3 mois (%d jours)", age))
			case ExpirationExpiringSoon:
				b.outcome.Warning = outcome.Warning
			}
		case f.ExpiryDate != nil:
			b.applyExpiry(DocumentKBIS, f.ExpiryDate, today, policy, "KBIS expiré")
		default:
			b.fail(SeverityWarning, "Date d'émission du KBIS non détectée")
		}

		if mover.SIRET != "" && f.SIRET != "" && CleanSIRET(mover.SIRET) != CleanSIRET(f.SIRET) {
			b.fail(SeverityCritical, "SIRET ne correspond pas")
			b.alert("siret_mismatch", SeverityCritical, fmt.Sprintf("SIRET ne correspond pas: saisi \"%s\", KBIS \"%s\"", mover.SIRET, f.SIRET))
		}
		if mover.SIRET != "" {
			if err := ValidateSIRET(mover.SIRET); err != nil {
				b.fail(SeverityWarning, "SIRET invalide")
				b.alert("invalid_siret", SeverityWarning, err.Error())
			}
		}
		if !NamesMatch(mover.CompanyName, f.BusinessName) {
			b.fail(SeverityWarning, "Nom d'entreprise différent")
			b.alert("company_name_mismatch", SeverityWarning, fmt.Sprintf("Nom d'entreprise différent: saisi \"%s\", KBIS \"%s\"", mover.CompanyName, f.BusinessName))
		}
		if manager := mover.ManagerName(); manager != "" && !NamesMatch(manager, f.ManagerName) {
			b.fail(SeverityWarning, "Nom du gérant différent")
			b.alert("manager_name_mismatch", SeverityWarning, fmt.Sprintf("Nom du gérant différent: saisi \"%s\", KBIS \"%s\"", manager, f.ManagerName))
		}
	}
	return b.done("KBIS vérifié avec succès", policy.KBISFailedCritical, policy.FailedWarning)
}

func EvaluateInsurance(mover Mover, ex ExtractionResult, today time.Time, policy Policy) CheckOutcome {
	b := newCheck(CheckInsurance)
	if b.applyExtraction(ex) {
		f := ex.Fields
		b.outcome.Check.Details["policy_number"] = f.PolicyNumber
		b.outcome.Check.Details["insurance_company"] = f.InsuranceCompany
		b.applyExpiry(DocumentInsurance, f.ExpiryDate, today, policy, "Assurance RC PRO expirée")
		if !NamesMatch(mover.CompanyName, f.InsuredName) {
			b.fail(SeverityWarning, "L'assuré ne correspond pas à l'entreprise")
			b.alert("insured_name_mismatch", SeverityWarning, fmt.Sprintf("Assuré différent: saisi \"%s\", attestation \"%s\"", mover.CompanyName, f.InsuredName))
		}
		if b.outcome.Check.Passed && b.outcome.Warning != nil {
			b.outcome.Check.Message = "Assurance valide mais expire bientôt"
		}
	}
	return b.done("Assurance RC PRO valide", policy.InsuranceFailedCritical, policy.FailedWarning)
}

func EvaluateIdentity(mover Mover, docType DocumentType, ex ExtractionResult, today time.Time, policy Policy) CheckOutcome {
	b := newCheck(CheckIdentity)
	if b.applyExtraction(ex) {
		f := ex.Fields
		name := f.FullName()
		b.outcome.Check.Details["holder_name"] = name
		b.applyExpiry(docType, f.ExpiryDate, today, policy, "Pièce d'identité expirée")
		if manager := mover.ManagerName(); manager != "" && !NamesMatch(name, manager) {
			b.fail(SeverityWarning, fmt.Sprintf("Nom sur la pièce d'identité (\"%s\") ne correspond pas au gérant saisi (\"%s\")", name, manager))
		}
		if b.outcome.Check.Passed && b.outcome.Warning != nil {
			b.outcome.Check.Message = "Pièce d'identité valide mais expire bientôt"
		}
	}
	return b.done("Pièce d'identité valide", policy.IdentityFailedCritical, policy.FailedWarning)
}

// EvaluateTruck checks a vehicle. ex is nil when no registration card was
// uploaded, in which case only the declared plate format is verified.
func EvaluateTruck(mover Mover, truck Truck, ex *ExtractionResult, policy Policy) CheckOutcome {
	b := newCheck(CheckTruck)
	b.outcome.Check.Details["truck_id"] = truck.ID
	b.outcome.Check.Details["license_plate"] = truck.LicensePlate

	if err := ValidateLicensePlate(truck.LicensePlate); err != nil {
		b.fail(SeverityWarning, fmt.Sprintf("Immatriculation invalide pour le camion \"%s\"", truck.LicensePlate))
	}
	if ex != nil && b.applyExtraction(*ex) {
		f := ex.Fields
		b.outcome.Check.Details["extracted_plate"] = f.LicensePlate
		b.outcome.Check.Details["owner"] = f.OwnerName
		if f.LicensePlate != "" && NormalizePlate(f.LicensePlate) != NormalizePlate(truck.LicensePlate) {
			b.fail(SeverityWarning, fmt.Sprintf("Immatriculation ne correspond pas pour le camion: saisi \"%s\", carte grise \"%s\"", truck.LicensePlate, f.LicensePlate))
		}
		if !NamesMatch(f.OwnerName, mover.CompanyName) {
			b.fail(SeverityWarning, "Le titulaire de la carte grise ne correspond pas à l'entreprise")
		}
	}
	return b.done(fmt.Sprintf("Camion %s vérifié", truck.LicensePlate), policy.TruckFailed, policy.TruckFailed)
}

func EvaluateTransportLicense(ex ExtractionResult, today time.Time, policy Policy) CheckOutcome {
	b := newCheck(CheckTransportLicense)
	if b.applyExtraction(ex) {
		b.outcome.Check.Details["license_number"] = ex.Fields.DocumentNumber
		b.applyExpiry(DocumentTransportLicense, ex.Fields.ExpiryDate, today, policy, "Licence de transport expirée")
		if b.outcome.Check.Passed && b.outcome.Warning != nil {
			b.outcome.Check.Message = "Licence de transport valide mais expire bientôt"
		}
	}
	return b.done("Licence de transport valide", policy.LicenseFailed, policy.LicenseFailed)
}

// FraudEvidence gathers what the fraud pass found about a mover.
type FraudEvidence struct {
	DuplicateMovers map[MoverField][]Mover
	DocumentAlerts  []FraudAlert
	InvalidEmail    error
	InvalidPhone    error
}

// EvaluateFraud turns the evidence into a check. Duplicates make the mover
// suspicious; malformed contact details only raise warnings. ok is false when
// there is nothing to report.
func EvaluateFraud(mover Mover, ev FraudEvidence, policy Policy) (CheckOutcome, bool) {
	out := CheckOutcome{Check: CheckResult{
		Type:     CheckFraudDetection,
		Passed:   true,
		Severity: SeverityInfo,
		Message:  "Aucune activité suspecte détectée",
		Details:  map[string]any{},
	}}
	suspicious := false

	dupe := func(field MoverField, kind, label string, severity Severity) {
		others := ev.DuplicateMovers[field]
		if len(others) == 0 {
			return
		}
		names := make([]string, 0, len(others))
		ids := make([]string, 0, len(others))
		for _, o := range others {
			names = append(names, o.CompanyName)
			ids = append(ids, o.ID)
		}
		out.Check.Details[kind] = ids
		out.Alerts = append(out.Alerts, Alert{Type: kind, Severity: severity, Message: fmt.Sprintf("%s déjà utilisé par: %s", label, strings.Join(names, ", "))})
		suspicious = true
	}
	dupe(MoverFieldSIRET, "duplicate_siret", "SIRET", SeverityCritical)
	dupe(MoverFieldEmail, "duplicate_email", "Email", SeverityWarning)
	dupe(MoverFieldPhone, "duplicate_phone", "Téléphone", SeverityWarning)

	for _, fa := range ev.DocumentAlerts {
		severity := SeverityWarning
		if fa.Severity == FraudCritical || fa.Severity == FraudHigh {
			severity = SeverityCritical
		}
		message, _ := fa.Details["message"].(string)
		out.Alerts = append(out.Alerts, Alert{Type: string(fa.AlertType), Severity: severity, Message: message})
		suspicious = true
	}

	if ev.InvalidEmail != nil && mover.Email != "" {
		out.Alerts = append(out.Alerts, Alert{Type: "invalid_email", Severity: SeverityWarning, Message: ev.InvalidEmail.Error()})
	}
	if ev.InvalidPhone != nil && mover.Phone != "" {
		out.Alerts = append(out.Alerts, Alert{Type: "invalid_phone", Severity: SeverityWarning, Message: ev.InvalidPhone.Error()})
	}

	if suspicious {
		out.Check.Passed = false
		out.Check.Severity = SeverityCritical
		out.Check.Message = "Activité suspecte détectée"
		out.Deduction = policy.FraudDetected
	} else if len(out.Alerts) > 0 {
		out.Check.Message = "Coordonnées de contact à vérifier"
		out.Check.Severity = SeverityWarning
	}
	return out, suspicious || len(out.Alerts) > 0
}
