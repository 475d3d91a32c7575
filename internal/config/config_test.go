package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_RETRY_MAX_ATTEMPTS", "")
	t.Setenv("VERIFICATION_TIMEOUT", "")
	t.Setenv("DUPLICATE_MATCH_MODE", "")
	t.Setenv("EXPIRATION_SWEEP_SCHEDULE", "")
	t.Setenv("MOVER_VERIFICATION_SUBJECT", "")

	cfg := Load()
	if cfg.LLMRetryMaxAttempts != 1 {
		t.Fatalf("expected single attempt by default, got %d", cfg.LLMRetryMaxAttempts)
	}
	if cfg.VerificationTimeout != 3*time.Minute {
		t.Fatalf("expected default verification timeout 3m, got %s", cfg.VerificationTimeout)
	}
	if cfg.DuplicateMatchMode != "exact" {
		t.Fatalf("expected exact match mode, got %q", cfg.DuplicateMatchMode)
	}
	if cfg.ExpirationSweepSchedule != "0 7 * * *" {
		t.Fatalf("unexpected schedule %q", cfg.ExpirationSweepSchedule)
	}
	if cfg.NATSSubject != "movers.verification.requested" {
		t.Fatalf("unexpected subject %q", cfg.NATSSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("LLM_TIMEOUT", "10s")
	t.Setenv("LLM_RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("LLM_BREAKER_ENABLED", "false")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("DUPLICATE_MATCH_MODE", "normalized")

	cfg := Load()
	if cfg.LLMTimeout != 10*time.Second {
		t.Fatalf("expected llm timeout 10s, got %s", cfg.LLMTimeout)
	}
	if cfg.LLMRetryMaxAttempts != 3 || cfg.LLMBreakerEnabled {
		t.Fatalf("unexpected retry settings: %+v", cfg)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.DuplicateMatchMode != "normalized" {
		t.Fatalf("expected normalized, got %q", cfg.DuplicateMatchMode)
	}
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("LLM_TIMEOUT", "soon")
	t.Setenv("API_MAX_IN_FLIGHT", "many")

	cfg := Load()
	if cfg.LLMTimeout != 45*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.LLMTimeout)
	}
	if cfg.APIMaxInFlight != 64 {
		t.Fatalf("expected fallback in-flight limit, got %d", cfg.APIMaxInFlight)
	}
}

func TestLoadPolicyDefaultsWithoutFile(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		policy, err := LoadPolicy(path)
		if err != nil {
			t.Fatalf("LoadPolicy(%q) error = %v", path, err)
		}
		if policy != domain.DefaultPolicy() {
			t.Fatalf("expected defaults, got %+v", policy)
		}
	}
}

func TestLoadPolicyOverridesSelectedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	body := "reject_below: 40\nverified_at_or_above: 90\ncard:\n  high_amount_above: 5000\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	policy, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	if policy.RejectBelow != 40 || policy.VerifiedAtOrAbove != 90 {
		t.Fatalf("unexpected thresholds: %+v", policy)
	}
	if policy.Card.HighAmountAbove != 5000 || policy.Card.ExpiredCard != 100 {
		t.Fatalf("unexpected card policy: %+v", policy.Card)
	}
	if policy.KBISMissing != 30 {
		t.Fatalf("expected untouched default, got %d", policy.KBISMissing)
	}
}

func TestLoadPolicyRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("reject_below: [oops"), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}
	if _, err := LoadPolicy(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadPolicyAcceptsZeroWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	body := "trucks_missing: 0\nfraud_detected: 0\ncard:\n  high_amount: 0\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	policy, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	if policy.TrucksMissing != 0 || policy.FraudDetected != 0 || policy.Card.HighAmount != 0 {
		t.Fatalf("zero weights must disable their checks: %+v", policy)
	}
	if policy.KBISMissing != 30 || policy.Card.InvalidCVV != 30 {
		t.Fatalf("expected untouched defaults: %+v", policy)
	}
}
