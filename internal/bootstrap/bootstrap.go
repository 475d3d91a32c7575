package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/mover-verification/internal/config"
	"github.com/kirillkom/mover-verification/internal/core/domain"
	"github.com/kirillkom/mover-verification/internal/core/ports"
	"github.com/kirillkom/mover-verification/internal/core/usecase"
	"github.com/kirillkom/mover-verification/internal/infrastructure/export/xlsx"
	"github.com/kirillkom/mover-verification/internal/infrastructure/extractor/lettertext"
	"github.com/kirillkom/mover-verification/internal/infrastructure/llm/openai"
	"github.com/kirillkom/mover-verification/internal/infrastructure/queue/nats"
	"github.com/kirillkom/mover-verification/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/mover-verification/internal/infrastructure/resilience"
	"github.com/kirillkom/mover-verification/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/mover-verification/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Policy domain.Policy

	Queue ports.MessageQueue

	CardsUC     ports.CardValidator
	DocumentsUC ports.DocumentVerifier
	MoversUC    ports.MoverVerifier
	LettersUC   ports.MissionLetterAnalyzer
	SweepUC     ports.ExpirationSweeper

	closeFn func()
}

// New wires the adapters and use cases shared by both binaries. vm may be
// nil, in which case business metrics are not recorded.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, vm *metrics.VerificationMetrics) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	matchMode := domain.ParseMatchMode(cfg.DuplicateMatchMode)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	movers := postgres.NewMoverRepository(db)
	documents := postgres.NewDocumentRepository(db)
	verifications := postgres.NewVerificationRepository(db)
	reports := postgres.NewReportRepository(db)
	notifications := postgres.NewNotificationRepository(db)
	alerts := postgres.NewFraudAlertRepository(db)
	releases := postgres.NewReleaseRequestRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queueResilience := resilience.DefaultConfig()
	queueResilience.Logger = logger
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(queueResilience),
		Logger:             logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	var businessMetrics ports.VerificationMetrics
	if vm != nil {
		businessMetrics = vm
	}

	llmResilience := resilience.DefaultConfig()
	llmResilience.RetryMaxAttempts = cfg.LLMRetryMaxAttempts
	llmResilience.BreakerEnabled = cfg.LLMBreakerEnabled
	llmResilience.AttemptTimeout = cfg.LLMTimeout
	llmResilience.Logger = logger
	if vm != nil {
		llmResilience.OnStateChange = vm.ObserveBreakerState
	}
	llmClient := openai.New(openai.Options{
		BaseURL:     cfg.OpenAIBaseURL,
		APIKey:      cfg.OpenAIAPIKey,
		VisionModel: cfg.OpenAIVisionModel,
		TextModel:   cfg.OpenAITextModel,
		Timeout:     cfg.LLMTimeout,
		Executor:    resilience.NewExecutor(llmResilience),
	})
	extractor := openai.NewExtractor(llmClient)

	var classifier ports.SentimentClassifier
	if cfg.OpenAIAPIKey != "" {
		classifier = openai.NewSentimentClassifier(llmClient)
	} else {
		logger.Warn("sentiment_classifier_disabled", "reason", "OPENAI_API_KEY is empty")
	}

	cardsUC := usecase.NewCardValidationUseCase(policy.Card, businessMetrics)
	documentsUC := usecase.NewDocumentVerificationUseCase(extractor, storage, verifications, alerts, documents, usecase.DocumentVerificationSettings{
		MatchMode:     matchMode,
		LowConfidence: policy.LowConfidence,
		Logger:        logger,
		Metrics:       businessMetrics,
	})
	moversUC := usecase.NewMoverVerificationUseCase(usecase.MoverVerificationDeps{
		Movers:        movers,
		Documents:     documents,
		Verifications: verifications,
		Reports:       reports,
		Notifications: notifications,
		Extractor:     extractor,
		Storage:       storage,
		Queue:         queue,
		Exporter:      xlsx.NewExporter(),
	}, usecase.MoverVerificationSettings{
		Policy:    policy,
		MatchMode: matchMode,
		Logger:    logger,
		Metrics:   businessMetrics,
	})
	lettersUC := usecase.NewMissionLetterUseCase(classifier, releases, lettertext.NewExtractor(), usecase.MissionLetterSettings{
		Logger:  logger,
		Metrics: businessMetrics,
	})
	sweepUC := usecase.NewExpirationSweepUseCase(movers, documents, notifications, usecase.ExpirationSweepSettings{
		WindowDays: cfg.ExpirationWindowDays,
		Logger:     logger,
	})

	return &App{
		Config: cfg,
		Policy: policy,
		Queue:  queue,

		CardsUC:     cardsUC,
		DocumentsUC: documentsUC,
		MoversUC:    moversUC,
		LettersUC:   lettersUC,
		SweepUC:     sweepUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
