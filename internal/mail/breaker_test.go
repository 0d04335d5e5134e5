package mail

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-yamdb/internal/logging"
)

func TestBreaker_OpensAndRecovers(t *testing.T) {
	rec := &Recorder{Fail: errors.New("relay down")}
	b := NewBreaker(rec, 2, time.Minute, logging.Discard())
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }
	msg := Message{From: "a@x.com", To: []string{"b@x.com"}, Subject: "s", Body: "b"}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := b.Send(ctx, msg); err == nil {
			t.Fatalf("expected relay failure")
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open after threshold, got %s", b.State())
	}

	rec.Fail = nil
	if err := b.Send(ctx, msg); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected fast failure while open, got %v", err)
	}
	if len(rec.Sent()) != 0 {
		t.Fatalf("open breaker must not reach the relay")
	}

	clock = clock.Add(2 * time.Minute)
	if err := b.Send(ctx, msg); err != nil {
		t.Fatalf("probe after cooldown should pass: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %s", b.State())
	}
}

func TestBreaker_FailedProbeReopens(t *testing.T) {
	rec := &Recorder{Fail: errors.New("relay down")}
	b := NewBreaker(rec, 1, time.Minute, logging.Discard())
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }
	msg := Message{From: "a@x.com", To: []string{"b@x.com"}}
	ctx := context.Background()

	_ = b.Send(ctx, msg)
	clock = clock.Add(2 * time.Minute)
	if err := b.Send(ctx, msg); err == nil || errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected the probe to reach the relay and fail, got %v", err)
	}
	if b.State() != StateOpen {
		t.Errorf("expected reopened breaker, got %s", b.State())
	}
}

func TestBreaker_InvalidMessageDoesNotTrip(t *testing.T) {
	b := NewBreaker(&Recorder{}, 1, time.Minute, logging.Discard())
	if err := b.Send(context.Background(), Message{}); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected invalid message, got %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("validation errors must not open the breaker")
	}
}
