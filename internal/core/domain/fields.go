package domain

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/ttacon/libphonenumber"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrInvalidEmail        = errors.New("veuillez entrer une adresse email valide. Exemple: nom@exemple.fr")
	ErrInvalidPhone        = errors.New("veuillez entrer un numéro de téléphone valide (français ou européen)")
	ErrSIRETLength         = errors.New("le numéro SIRET doit contenir exactement 14 chiffres")
	ErrSIRETRepeated       = errors.New("le numéro SIRET saisi est invalide (chiffres identiques)")
	ErrSIRETChecksum       = errors.New("le numéro SIRET saisi est invalide (vérification Luhn échouée)")
	ErrSIRENChecksum       = errors.New("le numéro SIREN (9 premiers chiffres) est invalide")
	ErrInvalidPostalCode   = errors.New("le code postal saisi est invalide")
	ErrInvalidLicensePlate = errors.New("format d'immatriculation invalide. Exemples: AB-123-CD ou 123 ABC 75")
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	blockedEmailDomains = map[string]struct{}{
		"example.com": {},
		"test.com":    {},
		"fake.com":    {},
	}

	// Regions accepted for contact phone numbers.
	europeanPhoneRegions = map[string]struct{}{
		"FR": {}, "BE": {}, "CH": {}, "DE": {}, "ES": {}, "IT": {}, "PT": {}, "LU": {}, "IE": {},
		"GB": {}, "NL": {}, "AT": {}, "DK": {}, "SE": {}, "NO": {}, "FI": {}, "CZ": {}, "SK": {}, "PL": {},
	}

	digitsOnly      = regexp.MustCompile(`^\d+$`)
	plateNewFormat  = regexp.MustCompile(`^[A-HJ-NP-TV-Z]{2}\d{3}[A-HJ-NP-TV-Z]{2}$`)
	plateOldFormat  = regexp.MustCompile(`^\d{1,4}[A-Z]{1,3}\d{2,3}$`)
	siretSeparators = strings.NewReplacer(" ", "", "-", "", "\t", "")
)

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	domain := strings.ToLower(email[strings.LastIndex(email, "@")+1:])
	if _, blocked := blockedEmailDomains[domain]; blocked {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePhone accepts French numbers in national or international format and
// international numbers of nearby European countries.
func ValidatePhone(phone string) error {
	if strings.TrimSpace(phone) == "" {
		return ErrInvalidPhone
	}
	parsed, err := libphonenumber.Parse(phone, "FR")
	if err != nil {
		return ErrInvalidPhone
	}
	if !libphonenumber.IsValidNumber(parsed) {
		return ErrInvalidPhone
	}
	if _, ok := europeanPhoneRegions[libphonenumber.GetRegionCodeForNumber(parsed)]; !ok {
		return ErrInvalidPhone
	}
	return nil
}

// CleanSIRET strips spaces and dashes.
func CleanSIRET(siret string) string {
	return siretSeparators.Replace(strings.TrimSpace(siret))
}

func ValidateSIRET(siret string) error {
	clean := CleanSIRET(siret)
	if len(clean) != 14 || !digitsOnly.MatchString(clean) {
		return ErrSIRETLength
	}
	if strings.Count(clean, clean[:1]) == len(clean) {
		return ErrSIRETRepeated
	}
	if !LuhnValid(clean) {
		return ErrSIRETChecksum
	}
	if !LuhnValid(clean[:9]) {
		return ErrSIRENChecksum
	}
	return nil
}

func ValidatePostalCode(code string) error {
	clean := strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	if len(clean) != 5 || !digitsOnly.MatchString(clean) {
		return ErrInvalidPostalCode
	}
	if strings.Count(clean, clean[:1]) == len(clean) {
		return ErrInvalidPostalCode
	}
	dept := int(clean[0]-'0')*10 + int(clean[1]-'0')
	if dept == 0 || dept == 96 || dept > 98 {
		return ErrInvalidPostalCode
	}
	return nil
}

// NormalizePlate upper-cases a registration plate and drops separators.
func NormalizePlate(plate string) string {
	return strings.ToUpper(siretSeparators.Replace(strings.TrimSpace(plate)))
}

func ValidateLicensePlate(plate string) error {
	clean := NormalizePlate(plate)
	if plateNewFormat.MatchString(clean) || plateOldFormat.MatchString(clean) {
		return nil
	}
	return ErrInvalidLicensePlate
}

// NormalizeName lower-cases, strips diacritics and keeps only ASCII letters,
// digits and whitespace.
func NormalizeName(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, strings.ToLower(text))
	if err != nil {
		folded = strings.ToLower(text)
	}
	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// NamesMatch reports whether either normalized name contains the other. An
// unknown value on either side is not evidence of a mismatch.
func NamesMatch(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" {
		return true
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
