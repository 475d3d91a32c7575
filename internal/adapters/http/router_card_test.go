package httpadapter

import (
	"net/http"
	"testing"

	"github.com/kirillkom/mover-verification/internal/config"
	"github.com/kirillkom/mover-verification/internal/core/domain"
	"github.com/kirillkom/mover-verification/internal/core/usecase"
)

func cardHandler() http.Handler {
	return NewRouter(config.Config{}, Services{
		Cards: usecase.NewCardValidationUseCase(domain.DefaultCardPolicy(), nil),
	}, nil).Handler()
}

func TestValidateCardScoresMalformedCVV(t *testing.T) {
	res := doJSON(t, cardHandler(), http.MethodPost, "/v1/cards/validate", map[string]any{
		"cardNumber":     "4532015112830366",
		"cardholderName": "Jean Dupont",
		"expiryDate":     "12/30",
		"cvv":            "12345",
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var out domain.CardValidationResult
	decodeBody(t, res, &out)
	if out.FraudScore != 30 {
		t.Fatalf("expected fraud score 30, got %d (%+v)", out.FraudScore, out.FraudIndicators)
	}
	if len(out.FraudIndicators) != 1 || out.FraudIndicators[0].Type != "invalid_cvv" {
		t.Fatalf("expected a single invalid_cvv indicator, got %+v", out.FraudIndicators)
	}
	if !out.AllowPayment {
		t.Fatalf("score 30 must still allow the payment")
	}
}

func TestValidateCardScoresOverlongFields(t *testing.T) {
	res := doJSON(t, cardHandler(), http.MethodPost, "/v1/cards/validate", map[string]any{
		"cardNumber":     "4532015112830366453201511283036645320151128303664",
		"cardholderName": "Jean Dupont",
		"expiryDate":     "12/2030 at midnight",
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var out domain.CardValidationResult
	decodeBody(t, res, &out)
	types := map[string]bool{}
	for _, ind := range out.FraudIndicators {
		types[ind.Type] = true
	}
	if !types["invalid_format"] || !types["invalid_expiry"] {
		t.Fatalf("expected invalid_format and invalid_expiry, got %+v", out.FraudIndicators)
	}
}

func TestValidateCardMissingNumberReturnsIncompleteResult(t *testing.T) {
	res := doJSON(t, cardHandler(), http.MethodPost, "/v1/cards/validate", map[string]any{
		"cardholderName": "Jean Dupont",
		"expiryDate":     "12/30",
	})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}

	var out domain.CardValidationResult
	decodeBody(t, res, &out)
	want := domain.IncompleteCardResult()
	if out.Valid || out.AllowPayment || out.Reason != want.Reason {
		t.Fatalf("expected incomplete card result, got %+v", out)
	}
	if len(out.Recommendations) != 1 || out.Recommendations[0] != want.Recommendations[0] {
		t.Fatalf("unexpected recommendations %+v", out.Recommendations)
	}
}
