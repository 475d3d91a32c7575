package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/mover-verification/internal/core/domain"
	"github.com/kirillkom/mover-verification/internal/core/ports"
)

type CardValidationUseCase struct {
	policy  domain.CardPolicy
	metrics ports.VerificationMetrics
	now     func() time.Time
}

func NewCardValidationUseCase(policy domain.CardPolicy, metrics ports.VerificationMetrics) *CardValidationUseCase {
	return &CardValidationUseCase{
		policy:  policy,
		metrics: metricsOrNoop(metrics),
		now:     time.Now,
	}
}

// Validate screens a card before payment. Incomplete input returns the
// refusal result together with an invalid input error.
func (uc *CardValidationUseCase) Validate(_ context.Context, input domain.CardInput) (domain.CardValidationResult, error) {
	if missing := domain.MissingCardFields(input); len(missing) > 0 {
		return domain.IncompleteCardResult(), domain.WrapError(
			domain.ErrInvalidInput,
			"validate card",
			fmt.Errorf("missing fields: %s", strings.Join(missing, ", ")),
		)
	}

	result := domain.ValidateCard(input, uc.now(), uc.policy)
	uc.metrics.ObserveCardValidation(result.AllowPayment)
	return result, nil
}
