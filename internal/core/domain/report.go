package domain

import "time"

type VerificationStatus string

const (
	StatusVerified    VerificationStatus = "verified"
	StatusNeedsReview VerificationStatus = "needs_review"
	StatusRejected    VerificationStatus = "rejected"
)

func (s VerificationStatus) rank() int {
	switch s {
	case StatusVerified:
		return 0
	case StatusNeedsReview:
		return 1
	default:
		return 2
	}
}

// Worse returns the more severe of two statuses.
func Worse(a, b VerificationStatus) VerificationStatus {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type CheckType string

const (
	CheckKBIS             CheckType = "kbis"
	CheckInsurance        CheckType = "insurance"
	CheckIdentity         CheckType = "identity"
	CheckTrucks           CheckType = "trucks"
	CheckTruck            CheckType = "truck"
	CheckTransportLicense CheckType = "transport_license"
	CheckFraudDetection   CheckType = "fraud_detection"
)

type CheckResult struct {
	Type     CheckType      `json:"type"`
	Passed   bool           `json:"passed"`
	Message  string         `json:"message"`
	Severity Severity       `json:"severity,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

type Alert struct {
	Type     string   `json:"type"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

type ExpirationWarning struct {
	DocumentType        DocumentType `json:"type"`
	ExpirationDate      time.Time    `json:"expiration_date"`
	DaysUntilExpiration int          `json:"days_remaining"`
	Message             string       `json:"message"`
}

const (
	MaxScore = 100
	MinScore = 0
)

type VerificationReport struct {
	ID                 string              `json:"id,omitempty"`
	SubjectID          string              `json:"mover_id"`
	OverallStatus      VerificationStatus  `json:"overall_status"`
	Score              int                 `json:"score"`
	Checks             []CheckResult       `json:"checks"`
	Alerts             []Alert             `json:"alerts"`
	ExpirationWarnings []ExpirationWarning `json:"expiration_warnings"`
	CreatedAt          time.Time           `json:"created_at"`
}

func NewVerificationReport(subjectID string, now time.Time) *VerificationReport {
	return &VerificationReport{
		SubjectID:          subjectID,
		OverallStatus:      StatusVerified,
		Score:              MaxScore,
		Checks:             []CheckResult{},
		Alerts:             []Alert{},
		ExpirationWarnings: []ExpirationWarning{},
		CreatedAt:          now.UTC(),
	}
}

// Deduct lowers the score by points. Negative values are ignored so the
// score never rises during a run.
func (r *VerificationReport) Deduct(points int) {
	if points <= 0 {
		return
	}
	r.Score = ClampScore(r.Score - points)
}

// Downgrade moves the running status toward rejected, never back.
func (r *VerificationReport) Downgrade(status VerificationStatus) {
	r.OverallStatus = Worse(r.OverallStatus, status)
}

func (r *VerificationReport) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
}

func (r *VerificationReport) AddAlerts(alerts ...Alert) {
	r.Alerts = append(r.Alerts, alerts...)
}

func (r *VerificationReport) AddExpirationWarning(w ExpirationWarning) {
	r.ExpirationWarnings = append(r.ExpirationWarnings, w)
}

// Finalize clamps the score and applies the threshold status on top of the
// running one.
func (r *VerificationReport) Finalize(policy Policy) {
	r.Score = ClampScore(r.Score)
	r.Downgrade(DeriveStatus(r.Score, len(r.Alerts), policy))
}

// DeriveStatus maps a final score and alert count to a status.
func DeriveStatus(score, alertCount int, policy Policy) VerificationStatus {
	switch {
	case score < policy.RejectBelow:
		return StatusRejected
	case score < policy.VerifiedAtOrAbove || alertCount > 0:
		return StatusNeedsReview
	default:
		return StatusVerified
	}
}

func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
