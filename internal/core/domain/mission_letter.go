package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type SentimentSource string

const (
	SentimentNone     SentimentSource = "none"
	SentimentAI       SentimentSource = "ai"
	SentimentKeywords SentimentSource = "keywords"
)

type MissionLetterInput struct {
	PaymentID       string `json:"paymentId"`
	Content         string `json:"missionLetterContent"`
	ClientComments  string `json:"clientComments,omitempty"`
	ClientSignature bool   `json:"clientSignature"`
}

// SentimentVerdict is the classification of free-text client comments.
type SentimentVerdict struct {
	HasNegativeComments bool     `json:"hasNegativeComments"`
	Sentiment           string   `json:"sentiment"`
	Issues              []string `json:"issues"`
	Summary             string   `json:"summary"`
}

// Negative treats a negative sentiment label as negative even when the flag
// was not set by the provider.
func (v SentimentVerdict) Negative() bool {
	return v.HasNegativeComments || strings.EqualFold(v.Sentiment, "negative")
}

type MissionLetterAnalysis struct {
	IsApproved          bool            `json:"isApproved"`
	HasNegativeComments bool            `json:"hasNegativeComments"`
	HasClientSignature  bool            `json:"hasClientSignature"`
	RiskLevel           RiskLevel       `json:"riskLevel"`
	Summary             string          `json:"summary"`
	Recommendations     []string        `json:"recommendations"`
	DetectedIssues      []string        `json:"detectedIssues"`
	SentimentSource     SentimentSource `json:"sentimentSource"`
}

type PaymentReleaseRequest struct {
	ID        string                `json:"id"`
	PaymentID string                `json:"payment_id"`
	Analysis  MissionLetterAnalysis `json:"ai_analysis"`
	CreatedAt time.Time             `json:"created_at"`
}

var (
	negativeKeywords = []string{
		"insatisfait", "problème", "dégât", "casse", "retard", "mauvais",
		"incomplet", "manquant", "abîmé", "endommagé", "plainte", "réclamation",
		"litige", "désaccord", "mécontent",
	}

	letterDatePattern = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
)

// KeywordSentiment scans comments for the first negative keyword.
func KeywordSentiment(comments string) SentimentVerdict {
	lower := strings.ToLower(comments)
	for _, kw := range negativeKeywords {
		if strings.Contains(lower, kw) {
			return SentimentVerdict{
				HasNegativeComments: true,
				Sentiment:           "negative",
				Issues:              []string{fmt.Sprintf("Commentaire négatif détecté: \"%s\"", kw)},
			}
		}
	}
	return SentimentVerdict{Sentiment: "neutral"}
}

// AnalyzeMissionLetter combines the signature, the comment verdict and the
// letter structure into a release decision. verdict is nil when the client
// left no comments.
func AnalyzeMissionLetter(input MissionLetterInput, verdict *SentimentVerdict, source SentimentSource) MissionLetterAnalysis {
	var (
		issues          []string
		recommendations []string
		risk            = RiskLow
		negative        bool
	)

	if !input.ClientSignature {
		issues = append(issues, "La lettre de mission n'est pas signée par le client")
		risk = RiskHigh
		recommendations = append(recommendations, "Obtenir la signature du client avant de débloquer le paiement")
	}

	if verdict != nil && verdict.Negative() {
		negative = true
		if source == SentimentAI {
			issues = append(issues, fmt.Sprintf("Commentaires négatifs détectés: %s", verdict.Summary))
		}
		issues = append(issues, verdict.Issues...)
		risk = RiskHigh
		recommendations = append(recommendations,
			"Examiner les commentaires du client avant d'approuver le déblocage",
			"Contacter le client pour résoudre les problèmes mentionnés",
		)
	}

	lower := strings.ToLower(input.Content)
	escalate := func(issue string) {
		issues = append(issues, issue)
		if risk == RiskLow {
			risk = RiskMedium
		}
	}
	if !letterDatePattern.MatchString(input.Content) {
		escalate("Date manquante dans la lettre de mission")
	}
	if !strings.Contains(lower, "adresse") && !strings.Contains(lower, "rue") {
		escalate("Adresse manquante dans la lettre de mission")
	}
	if !strings.Contains(lower, "service") && !strings.Contains(lower, "prestation") {
		escalate("Services non spécifiés dans la lettre de mission")
	}

	approved := !negative && input.ClientSignature && len(issues) == 0

	var summary string
	switch {
	case approved:
		summary = "Mission terminée avec succès. Tous les critères sont remplis pour le déblocage du paiement."
	case negative:
		summary = "Mission terminée mais des commentaires négatifs du client nécessitent une vérification manuelle."
	case !input.ClientSignature:
		summary = "Mission terminée mais la signature du client est manquante. Déblocage non recommandé."
	default:
		summary = fmt.Sprintf("Mission terminée avec %d problème(s) mineur(s). Vérification recommandée.", len(issues))
	}

	if approved {
		recommendations = append(recommendations, "Le déblocage du paiement peut être effectué automatiquement")
	} else {
		recommendations = append(recommendations, "Une vérification manuelle par un administrateur est recommandée")
	}

	if issues == nil {
		issues = []string{}
	}
	return MissionLetterAnalysis{
		IsApproved:          approved,
		HasNegativeComments: negative,
		HasClientSignature:  input.ClientSignature,
		RiskLevel:           risk,
		Summary:             summary,
		Recommendations:     recommendations,
		DetectedIssues:      issues,
		SentimentSource:     source,
	}
}

// ReleaseEligible reports whether the analysis allows an automatic payment
// release request.
func (a MissionLetterAnalysis) ReleaseEligible() bool {
	return a.IsApproved && a.RiskLevel == RiskLow
}
