package ports

import (
	"context"
	"io"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

// CardValidator is the inbound contract for payment card screening.
type CardValidator interface {
	Validate(ctx context.Context, input domain.CardInput) (domain.CardValidationResult, error)
}

// DocumentVerifier is the inbound contract for single document verification.
type DocumentVerifier interface {
	Verify(ctx context.Context, input domain.DocumentVerificationInput) (*domain.DocumentVerificationResult, error)
}

// MoverVerifier runs and reads mover verification reports.
type MoverVerifier interface {
	Verify(ctx context.Context, moverID string) (*domain.VerificationReport, error)
	RequestAsync(ctx context.Context, moverID string) error
	GetLatest(ctx context.Context, moverID string) (*domain.VerificationReport, error)
	ListReports(ctx context.Context, moverID string, limit int) ([]domain.VerificationReport, error)
	ExportReports(ctx context.Context, moverID string, w io.Writer) error
}

// MissionLetterAnalyzer is the inbound contract for payment release screening.
type MissionLetterAnalyzer interface {
	Analyze(ctx context.Context, input domain.MissionLetterInput) (*domain.MissionLetterAnalysis, error)
	AnalyzeFile(ctx context.Context, input domain.MissionLetterInput, filename string, body io.Reader) (*domain.MissionLetterAnalysis, error)
}

// ExpirationSweeper notifies owners of documents about to expire.
type ExpirationSweeper interface {
	Run(ctx context.Context) (domain.SweepSummary, error)
}
