package domain

import (
	"errors"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		ok    bool
	}{
		{"contact@demenagements-martin.fr", true},
		{"jean.dupont@gmail.com", true},
		{"no-at-sign.fr", false},
		{"someone@example.com", false},
		{"someone@TEST.com", false},
		{"a@b.c", false},
	}
	for _, tt := range tests {
		err := ValidateEmail(tt.email)
		if (err == nil) != tt.ok {
			t.Fatalf("ValidateEmail(%q) error = %v, want ok=%v", tt.email, err, tt.ok)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		phone string
		ok    bool
	}{
		{"06 12 34 56 78", true},
		{"+33 6 12 34 56 78", true},
		{"01 42 68 53 00", true},
		{"0000", false},
		{"", false},
		{"+1 202 555 0123", false},
	}
	for _, tt := range tests {
		err := ValidatePhone(tt.phone)
		if (err == nil) != tt.ok {
			t.Fatalf("ValidatePhone(%q) error = %v, want ok=%v", tt.phone, err, tt.ok)
		}
	}
}

func TestValidateSIRET(t *testing.T) {
	tests := []struct {
		siret string
		want  error
	}{
		{"732 829 320 00074", nil},
		{"44306184100047", nil},
		{"1234567890123", ErrSIRETLength},
		{"11111111111111", ErrSIRETRepeated},
		{"12345678901234", ErrSIRETChecksum},
	}
	for _, tt := range tests {
		err := ValidateSIRET(tt.siret)
		if !errors.Is(err, tt.want) {
			t.Fatalf("ValidateSIRET(%q) = %v, want %v", tt.siret, err, tt.want)
		}
	}
}

func TestValidatePostalCodeAndPlate(t *testing.T) {
	if err := ValidatePostalCode("75001"); err != nil {
		t.Fatalf("expected 75001 valid, got %v", err)
	}
	for _, code := range []string{"00100", "96000", "99000", "7500", "11111"} {
		if ValidatePostalCode(code) == nil {
			t.Fatalf("expected %s invalid", code)
		}
	}
	for _, plate := range []string{"AB-123-CD", "ab 123 cd", "123 ABC 75"} {
		if err := ValidateLicensePlate(plate); err != nil {
			t.Fatalf("expected %s valid, got %v", plate, err)
		}
	}
	if ValidateLicensePlate("OI-123-UU") == nil {
		t.Fatalf("letters I, O and U are not allowed in new plates")
	}
}

func TestNormalizeNameStripsAccentsAndPunctuation(t *testing.T) {
	got := NormalizeName("  Déménagements Léon & Fils!  ")
	if got != "demenagements leon  fils" {
		t.Fatalf("unexpected normalized name %q", got)
	}
}

func TestNamesMatchIsMutualContainment(t *testing.T) {
	if !NamesMatch("Déménagements Martin", "DEMENAGEMENTS MARTIN SARL") {
		t.Fatalf("expected containment match")
	}
	if !NamesMatch("JEAN DUPONT", "Jean Dupont") {
		t.Fatalf("expected case-insensitive match")
	}
	if NamesMatch("Transports Durand", "Déménagements Martin") {
		t.Fatalf("expected mismatch")
	}
	if !NamesMatch("Transports Durand", "") {
		t.Fatalf("an unknown extracted value is not a mismatch")
	}
}
