package domain

// Policy holds the deduction weights and thresholds of the mover checklist.
type Policy struct {
	KBISMissing      int `yaml:"kbis_missing" json:"kbis_missing"`
	InsuranceMissing int `yaml:"insurance_missing" json:"insurance_missing"`
	IdentityMissing  int `yaml:"identity_missing" json:"identity_missing"`
	TrucksMissing    int `yaml:"trucks_missing" json:"trucks_missing"`

	KBISFailedCritical      int `yaml:"kbis_failed_critical" json:"kbis_failed_critical"`
	InsuranceFailedCritical int `yaml:"insurance_failed_critical" json:"insurance_failed_critical"`
	IdentityFailedCritical  int `yaml:"identity_failed_critical" json:"identity_failed_critical"`
	FailedWarning           int `yaml:"failed_warning" json:"failed_warning"`
	TruckFailed             int `yaml:"truck_failed" json:"truck_failed"`
	LicenseFailed           int `yaml:"license_failed" json:"license_failed"`
	FraudDetected           int `yaml:"fraud_detected" json:"fraud_detected"`

	RejectBelow       int `yaml:"reject_below" json:"reject_below"`
	VerifiedAtOrAbove int `yaml:"verified_at_or_above" json:"verified_at_or_above"`

	ExpiringSoonDays int `yaml:"expiring_soon_days" json:"expiring_soon_days"`
	KBISValidityDays int `yaml:"kbis_validity_days" json:"kbis_validity_days"`

	LowConfidence float64 `yaml:"low_confidence" json:"low_confidence"`

	Card CardPolicy `yaml:"card" json:"card"`
}

func DefaultPolicy() Policy {
	return Policy{
		KBISMissing:      30,
		InsuranceMissing: 30,
		IdentityMissing:  20,
		TrucksMissing:    5,

		KBISFailedCritical:      30,
		InsuranceFailedCritical: 30,
		IdentityFailedCritical:  20,
		FailedWarning:           10,
		TruckFailed:             10,
		LicenseFailed:           15,
		FraudDetected:           25,

		RejectBelow:       50,
		VerifiedAtOrAbove: 85,

		ExpiringSoonDays: 30,
		KBISValidityDays: 90,

		LowConfidence: 0.7,

		Card: DefaultCardPolicy(),
	}
}

// Normalize repairs a policy before use. A zero Policy becomes the
// defaults. Otherwise a weight of 0 disables its deduction and only negative
// weights fall back to the default; the verified threshold and the KBIS
// validity must stay positive.
func (p Policy) Normalize() Policy {
	def := DefaultPolicy()
	if p == (Policy{}) {
		return def
	}
	out := p
	for _, w := range []intDefault{
		{&out.KBISMissing, def.KBISMissing},
		{&out.InsuranceMissing, def.InsuranceMissing},
		{&out.IdentityMissing, def.IdentityMissing},
		{&out.TrucksMissing, def.TrucksMissing},
		{&out.KBISFailedCritical, def.KBISFailedCritical},
		{&out.InsuranceFailedCritical, def.InsuranceFailedCritical},
		{&out.IdentityFailedCritical, def.IdentityFailedCritical},
		{&out.FailedWarning, def.FailedWarning},
		{&out.TruckFailed, def.TruckFailed},
		{&out.LicenseFailed, def.LicenseFailed},
		{&out.FraudDetected, def.FraudDetected},
		{&out.RejectBelow, def.RejectBelow},
		{&out.ExpiringSoonDays, def.ExpiringSoonDays},
	} {
		fillNegative(w.value, w.fallback)
	}
	fillNonPositive(&out.VerifiedAtOrAbove, def.VerifiedAtOrAbove)
	fillNonPositive(&out.KBISValidityDays, def.KBISValidityDays)
	if out.LowConfidence <= 0 || out.LowConfidence > 1 {
		out.LowConfidence = def.LowConfidence
	}
	out.Card = out.Card.normalize()
	return out
}

type intDefault struct {
	value    *int
	fallback int
}

func fillNegative(v *int, d int) {
	if *v < 0 {
		*v = d
	}
}

func fillNonPositive(v *int, d int) {
	if *v <= 0 {
		*v = d
	}
}

// CardPolicy holds the card-fraud indicator weights and decision thresholds.
type CardPolicy struct {
	InvalidFormat    int `yaml:"invalid_format" json:"invalid_format"`
	InvalidLuhn      int `yaml:"invalid_luhn" json:"invalid_luhn"`
	TestCard         int `yaml:"test_card" json:"test_card"`
	Sequential       int `yaml:"sequential_numbers" json:"sequential_numbers"`
	Repeated         int `yaml:"repeated_numbers" json:"repeated_numbers"`
	InvalidName      int `yaml:"invalid_cardholder" json:"invalid_cardholder"`
	SuspiciousName   int `yaml:"suspicious_name" json:"suspicious_name"`
	InvalidExpiry    int `yaml:"invalid_expiry" json:"invalid_expiry"`
	ExpiredCard      int `yaml:"expired_card" json:"expired_card"`
	InvalidCVV       int `yaml:"invalid_cvv" json:"invalid_cvv"`
	HighAmount       int `yaml:"high_amount" json:"high_amount"`
	HighAmountAbove  int `yaml:"high_amount_above" json:"high_amount_above"`
	ValidBelow       int `yaml:"valid_below" json:"valid_below"`
	AllowBelow       int `yaml:"allow_below" json:"allow_below"`
	SequentialRun    int `yaml:"sequential_run" json:"sequential_run"`
	RepeatedPercent  int `yaml:"repeated_percent" json:"repeated_percent"`
	MinCardholderLen int `yaml:"min_cardholder_length" json:"min_cardholder_length"`
}

func DefaultCardPolicy() CardPolicy {
	return CardPolicy{
		InvalidFormat:    50,
		InvalidLuhn:      50,
		TestCard:         80,
		Sequential:       70,
		Repeated:         40,
		InvalidName:      30,
		SuspiciousName:   60,
		InvalidExpiry:    30,
		ExpiredCard:      100,
		InvalidCVV:       30,
		HighAmount:       20,
		HighAmountAbove:  10000,
		ValidBelow:       30,
		AllowBelow:       50,
		SequentialRun:    4,
		RepeatedPercent:  40,
		MinCardholderLen: 3,
	}
}

// normalize follows the same rules as Policy.Normalize: indicator weights
// may be 0, while thresholds and detector parameters must stay positive.
func (c CardPolicy) normalize() CardPolicy {
	def := DefaultCardPolicy()
	if c == (CardPolicy{}) {
		return def
	}
	out := c
	for _, w := range []intDefault{
		{&out.InvalidFormat, def.InvalidFormat},
		{&out.InvalidLuhn, def.InvalidLuhn},
		{&out.TestCard, def.TestCard},
		{&out.Sequential, def.Sequential},
		{&out.Repeated, def.Repeated},
		{&out.InvalidName, def.InvalidName},
		{&out.SuspiciousName, def.SuspiciousName},
		{&out.InvalidExpiry, def.InvalidExpiry},
		{&out.ExpiredCard, def.ExpiredCard},
		{&out.InvalidCVV, def.InvalidCVV},
		{&out.HighAmount, def.HighAmount},
	} {
		fillNegative(w.value, w.fallback)
	}
	fillNonPositive(&out.HighAmountAbove, def.HighAmountAbove)
	fillNonPositive(&out.ValidBelow, def.ValidBelow)
	fillNonPositive(&out.AllowBelow, def.AllowBelow)
	fillNonPositive(&out.SequentialRun, def.SequentialRun)
	fillNonPositive(&out.RepeatedPercent, def.RepeatedPercent)
	fillNonPositive(&out.MinCardholderLen, def.MinCardholderLen)
	return out
}
