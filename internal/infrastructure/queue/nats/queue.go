package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/mover-verification/internal/core/ports"
	"github.com/kirillkom/mover-verification/internal/infrastructure/resilience"
)

const (
	DefaultSubject = "movers.verification.requested"
	queueGroup     = "verifiers"

	publishOperation = "nats.publish_verification"
)

var _ ports.MessageQueue = (*Queue)(nil)

type Queue struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
	now      func() time.Time
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(subject) == "" {
		subject = DefaultSubject
	}

	conn, err := nats.Connect(
		url,
		nats.Name("mover-verification"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// verificationRequest is the message body on the verification subject.
type verificationRequest struct {
	MoverID     string    `json:"mover_id"`
	RequestedAt time.Time `json:"requested_at"`
}

func encodeRequest(moverID string, at time.Time) ([]byte, error) {
	return json.Marshal(verificationRequest{MoverID: moverID, RequestedAt: at.UTC()})
}

// decodeRequest accepts the JSON envelope or a bare mover id.
func decodeRequest(data []byte) (string, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return "", errors.New("empty verification request")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}
	var req verificationRequest
	if err := json.Unmarshal([]byte(trimmed), &req); err != nil {
		return "", fmt.Errorf("decode verification request: %w", err)
	}
	if strings.TrimSpace(req.MoverID) == "" {
		return "", errors.New("verification request without mover_id")
	}
	return req.MoverID, nil
}

func (q *Queue) PublishVerificationRequested(ctx context.Context, moverID string) error {
	body, err := encodeRequest(moverID, q.now())
	if err != nil {
		return fmt.Errorf("encode verification request: %w", err)
	}
	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, body); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, publishOperation, call, classifyPublishError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return asDomainError(publishOperation, err)
	}
	return nil
}

// SubscribeVerificationRequested blocks until ctx is done, then drains the
// subscription so in-flight verifications finish. Handlers run on a context
// detached from ctx's cancellation; callers bound them with their own timeout.
func (q *Queue) SubscribeVerificationRequested(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		moverID, err := decodeRequest(msg.Data)
		if err != nil {
			q.logger.Warn("verification_request_dropped", "error", err)
			return
		}

		handlerCtx, cancel := jobContext(ctx)
		defer cancel()
		if err := handler(handlerCtx, moverID); err != nil {
			q.logger.Error("verification_handler_failed", "mover_id", moverID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

// jobContext keeps the subscription's values but not its cancellation, so a
// shutdown signal lets the drained message finish.
func jobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(context.WithoutCancel(ctx))
}
