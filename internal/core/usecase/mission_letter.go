package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/mover-verification/internal/core/domain"
	"github.com/kirillkom/mover-verification/internal/core/ports"
)

type MissionLetterSettings struct {
	Logger  *slog.Logger
	Metrics ports.VerificationMetrics
	Now     func() time.Time
}

type MissionLetterUseCase struct {
	classifier ports.SentimentClassifier
	releases   ports.ReleaseRequestStore
	text       ports.TextExtractor

	logger  *slog.Logger
	metrics ports.VerificationMetrics
	now     func() time.Time
}

// NewMissionLetterUseCase builds the analyzer. classifier may be nil, in
// which case comments are screened with the keyword list only.
func NewMissionLetterUseCase(
	classifier ports.SentimentClassifier,
	releases ports.ReleaseRequestStore,
	text ports.TextExtractor,
	settings MissionLetterSettings,
) *MissionLetterUseCase {
	return &MissionLetterUseCase{
		classifier: classifier,
		releases:   releases,
		text:       text,
		logger:     loggerOrDefault(settings.Logger),
		metrics:    metricsOrNoop(settings.Metrics),
		now:        clockOrDefault(settings.Now),
	}
}

func (uc *MissionLetterUseCase) Analyze(ctx context.Context, input domain.MissionLetterInput) (*domain.MissionLetterAnalysis, error) {
	if strings.TrimSpace(input.PaymentID) == "" || strings.TrimSpace(input.Content) == "" {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"analyze mission letter",
			errors.New("missing required fields: paymentId, missionLetterContent"),
		)
	}

	verdict, source := uc.sentiment(ctx, input)
	analysis := domain.AnalyzeMissionLetter(input, verdict, source)
	uc.metrics.ObserveMissionLetter(analysis.IsApproved)

	if analysis.ReleaseEligible() {
		uc.requestRelease(ctx, input.PaymentID, analysis)
	}
	return &analysis, nil
}

// AnalyzeFile extracts the letter text from an uploaded file and analyzes it.
func (uc *MissionLetterUseCase) AnalyzeFile(ctx context.Context, input domain.MissionLetterInput, filename string, body io.Reader) (*domain.MissionLetterAnalysis, error) {
	if uc.text == nil {
		return nil, errors.New("letter text extractor not configured")
	}
	content, err := uc.text.Extract(ctx, filename, body)
	if err != nil {
		return nil, fmt.Errorf("extract letter text: %w", err)
	}
	input.Content = content
	return uc.Analyze(ctx, input)
}

func (uc *MissionLetterUseCase) sentiment(ctx context.Context, input domain.MissionLetterInput) (*domain.SentimentVerdict, domain.SentimentSource) {
	comments := strings.TrimSpace(input.ClientComments)
	if comments == "" {
		return nil, domain.SentimentNone
	}
	if uc.classifier != nil {
		verdict, err := uc.classifier.Classify(ctx, comments)
		if err == nil {
			return &verdict, domain.SentimentAI
		}
		uc.logger.Warn("sentiment_fallback", "payment_id", input.PaymentID, "error", err)
	}
	verdict := domain.KeywordSentiment(comments)
	return &verdict, domain.SentimentKeywords
}

func (uc *MissionLetterUseCase) requestRelease(ctx context.Context, paymentID string, analysis domain.MissionLetterAnalysis) {
	if uc.releases == nil {
		return
	}
	req := &domain.PaymentReleaseRequest{
		ID:        uuid.NewString(),
		PaymentID: paymentID,
		Analysis:  analysis,
		CreatedAt: uc.now().UTC(),
	}
	if err := uc.releases.Create(ctx, req); err != nil {
		uc.logger.Error("release_request_failed", "payment_id", paymentID, "error", err)
	}
}
