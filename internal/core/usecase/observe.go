package usecase

import (
	"log/slog"
	"time"

	"github.com/kirillkom/mover-verification/internal/core/domain"
	"github.com/kirillkom/mover-verification/internal/core/ports"
)

type noopMetrics struct{}

func (noopMetrics) ObserveReport(domain.VerificationStatus, int) {}
func (noopMetrics) ObserveCardValidation(bool)                   {}
func (noopMetrics) ObserveOCRFallback(domain.DocumentType)       {}
func (noopMetrics) ObserveMissionLetter(bool)                    {}

func metricsOrNoop(m ports.VerificationMetrics) ports.VerificationMetrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

func clockOrDefault(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}
