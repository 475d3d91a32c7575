package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/mover-verification/internal/core/domain"
)

func TestVerificationRequestRoundTrip(t *testing.T) {
	body, err := encodeRequest("m-1", time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("encodeRequest() error = %v", err)
	}
	id, err := decodeRequest(body)
	if err != nil || id != "m-1" {
		t.Fatalf("decodeRequest() = %q, %v", id, err)
	}
}

func TestDecodeRequestAcceptsBareID(t *testing.T) {
	id, err := decodeRequest([]byte(" m-7 \n"))
	if err != nil || id != "m-7" {
		t.Fatalf("decodeRequest() = %q, %v", id, err)
	}
}

func TestDecodeRequestRejectsInvalidBodies(t *testing.T) {
	for _, body := range []string{"", "   ", `{"mover_id":""}`, `{"mover_id":`} {
		if _, err := decodeRequest([]byte(body)); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}

func TestPublishErrorsAreTemporaryWhenTransient(t *testing.T) {
	err := asDomainError(publishOperation, nats.ErrConnectionClosed)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if err := asDomainError(publishOperation, errors.New("unexpected")); domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("unexpected temporary error: %v", err)
	}
}

func TestClassifyPublishError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "canceled", err: context.Canceled},
		{name: "no servers", err: nats.ErrNoServers, retryable: true, record: true},
		{name: "max payload", err: nats.ErrMaxPayload},
		{name: "bad subject", err: nats.ErrBadSubject},
		{name: "unknown", err: errors.New("boom"), record: true},
	}
	for _, tc := range cases {
		class := classifyPublishError(tc.err)
		if class.Retryable != tc.retryable || class.RecordFailure != tc.record {
			t.Fatalf("%s: expected retryable=%v record=%v, got %+v", tc.name, tc.retryable, tc.record, class)
		}
	}
}

func TestJobContextOutlivesSubscriptionCancel(t *testing.T) {
	type key struct{}
	parent, stop := context.WithCancel(context.WithValue(context.Background(), key{}, "trace-1"))
	job, cancel := jobContext(parent)
	defer cancel()

	stop()
	if err := job.Err(); err != nil {
		t.Fatalf("job context cancelled with subscription: %v", err)
	}
	if job.Value(key{}) != "trace-1" {
		t.Fatalf("job context lost parent values")
	}
	cancel()
	if !errors.Is(job.Err(), context.Canceled) {
		t.Fatalf("job context not cancelled by its own cancel: %v", job.Err())
	}
}
