package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

type IndicatorSeverity string

const (
	IndicatorLow    IndicatorSeverity = "low"
	IndicatorMedium IndicatorSeverity = "medium"
	IndicatorHigh   IndicatorSeverity = "high"
)

type FraudIndicator struct {
	Type        string            `json:"type"`
	Severity    IndicatorSeverity `json:"severity"`
	Description string            `json:"description"`
}

type CardInput struct {
	CardNumber     string           `json:"cardNumber"`
	CardholderName string           `json:"cardholderName"`
	ExpiryDate     string           `json:"expiryDate"`
	CVV            string           `json:"cvv,omitempty"`
	CustomerID     string           `json:"customerId,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
}

type CardValidationResult struct {
	Valid           bool             `json:"valid"`
	FraudScore      int              `json:"fraudScore"`
	FraudIndicators []FraudIndicator `json:"fraudIndicators"`
	Recommendations []string         `json:"recommendations"`
	AllowPayment    bool             `json:"allowPayment"`
	Reason          string           `json:"reason,omitempty"`
}

// IncompleteCardResult is returned alongside an input error when a required
// card field is missing.
func IncompleteCardResult() CardValidationResult {
	return CardValidationResult{
		Valid:           false,
		FraudScore:      0,
		FraudIndicators: []FraudIndicator{},
		Recommendations: []string{"Informations de carte incomplètes"},
		AllowPayment:    false,
		Reason:          "Informations de carte manquantes",
	}
}

var (
	cardNumberPattern = regexp.MustCompile(`^\d{13,19}$`)
	cardholderPattern = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	cardExpiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2}|\d{4})$`)
	cvvPattern        = regexp.MustCompile(`^\d{3,4}$`)

	testCardPrefixes     = []string{"4111", "5555", "3782", "6011", "3056"}
	suspiciousCardholder = []string{"test", "fake", "fraud", "invalid", "dummy"}
)

// MissingCardFields lists the required fields absent from input.
func MissingCardFields(input CardInput) []string {
	var missing []string
	if strings.TrimSpace(input.CardNumber) == "" {
		missing = append(missing, "cardNumber")
	}
	if strings.TrimSpace(input.CardholderName) == "" {
		missing = append(missing, "cardholderName")
	}
	if strings.TrimSpace(input.ExpiryDate) == "" {
		missing = append(missing, "expiryDate")
	}
	return missing
}

// ValidateCard scores a card against the fraud heuristics. Required fields
// are expected to be present; see MissingCardFields.
func ValidateCard(input CardInput, now time.Time, policy CardPolicy) CardValidationResult {
	policy = policy.normalize()
	number := stripWhitespace(input.CardNumber)

	var (
		indicators []FraudIndicator
		score      int
	)
	flag := func(kind string, severity IndicatorSeverity, description string, weight int) {
		indicators = append(indicators, FraudIndicator{Type: kind, Severity: severity, Description: description})
		score += weight
	}

	if !cardNumberPattern.MatchString(number) {
		flag("invalid_format", IndicatorHigh, "Format de numéro de carte invalide", policy.InvalidFormat)
	}
	if !LuhnValid(number) {
		flag("invalid_luhn", IndicatorHigh, "Numéro de carte invalide (échec du test de Luhn)", policy.InvalidLuhn)
	}
	if hasAnyPrefix(number, testCardPrefixes) {
		flag("test_card", IndicatorHigh, "Numéro de carte de test détecté", policy.TestCard)
	}
	if hasSequentialRun(number, policy.SequentialRun) {
		flag("sequential_numbers", IndicatorHigh, "Séquence de numéros suspecte détectée", policy.Sequential)
	}
	if hasDominantDigit(number, policy.RepeatedPercent) {
		flag("repeated_numbers", IndicatorMedium, "Numéros répétés suspects détectés", policy.Repeated)
	}

	name := input.CardholderName
	if len(name) < policy.MinCardholderLen || !cardholderPattern.MatchString(name) {
		flag("invalid_cardholder", IndicatorMedium, "Nom du titulaire suspect ou invalide", policy.InvalidName)
	}
	lowerName := strings.ToLower(name)
	for _, s := range suspiciousCardholder {
		if strings.Contains(lowerName, s) {
			flag("suspicious_name", IndicatorHigh, "Nom du titulaire suspect", policy.SuspiciousName)
			break
		}
	}

	if expiresAt, ok := parseCardExpiry(input.ExpiryDate); !ok {
		flag("invalid_expiry", IndicatorMedium, "Format de date d'expiration invalide", policy.InvalidExpiry)
	} else if !now.Before(expiresAt) {
		flag("expired_card", IndicatorHigh, "Carte expirée", policy.ExpiredCard)
	}

	if input.CVV != "" && !cvvPattern.MatchString(input.CVV) {
		flag("invalid_cvv", IndicatorMedium, "CVV invalide", policy.InvalidCVV)
	}
	if input.Amount != nil && input.Amount.GreaterThan(decimal.NewFromInt(int64(policy.HighAmountAbove))) {
		flag("high_amount", IndicatorMedium, "Montant élevé nécessitant une vérification supplémentaire", policy.HighAmount)
	}

	score = ClampScore(score)
	if indicators == nil {
		indicators = []FraudIndicator{}
	}

	result := CardValidationResult{
		Valid:           score < policy.ValidBelow,
		FraudScore:      score,
		FraudIndicators: indicators,
		Recommendations: cardRecommendations(score),
		AllowPayment:    score < policy.AllowBelow,
	}
	if !result.AllowPayment {
		result.Reason = fmt.Sprintf("Score de fraude trop élevé (%d/100)", score)
	}
	return result
}

func cardRecommendations(score int) []string {
	switch {
	case score >= 70:
		return []string{"Bloquer la transaction immédiatement", "Signaler l'utilisateur pour fraude potentielle"}
	case score >= 40:
		return []string{"Demander une vérification supplémentaire (3D Secure)", "Limiter le montant de la transaction"}
	case score >= 20:
		return []string{"Surveiller l'activité du compte"}
	default:
		return []string{"Transaction à faible risque - autoriser"}
	}
}

// LuhnValid runs the mod-10 checksum. Empty or non-digit input is invalid.
func LuhnValid(number string) bool {
	if number == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

// parseCardExpiry returns the first instant after the card stops being
// valid: the start of the month following the printed expiry month.
func parseCardExpiry(raw string) (time.Time, bool) {
	m := cardExpiryPattern.FindStringSubmatch(raw)
	if m == nil {
		return time.Time{}, false
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	if len(m[2]) == 2 {
		year += 2000
	}
	return time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC), true
}

func hasSequentialRun(number string, run int) bool {
	count := 0
	for i := 1; i < len(number); i++ {
		prev, cur := int(number[i-1])-'0', int(number[i])-'0'
		if cur == prev+1 || cur == prev-1 {
			count++
			if count >= run {
				return true
			}
			continue
		}
		count = 0
	}
	return false
}

func hasDominantDigit(number string, percent int) bool {
	if number == "" {
		return false
	}
	counts := make(map[rune]int)
	for _, r := range number {
		counts[r]++
	}
	for _, c := range counts {
		if c*100 > len(number)*percent {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
