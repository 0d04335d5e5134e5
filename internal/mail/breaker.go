package mail

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-yamdb/internal/logging"
)

var ErrCircuitOpen = errors.New("mail relay circuit open")

type BreakerState string

const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half-open"
)

// Breaker stops calling a failing relay for a while so signup fails fast
// instead of waiting out the dial timeout on every request.
type Breaker struct {
	next Sender
	log  logging.Logger

	failureThreshold int
	cooldown         time.Duration
	now              func() time.Time

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
}

func NewBreaker(next Sender, failureThreshold int, cooldown time.Duration, log logging.Logger) *Breaker {
	if failureThreshold < 1 {
		failureThreshold = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		next:             next,
		log:              log,
		failureThreshold: failureThreshold,
		cooldown:         cooldown,
		now:              time.Now,
		state:            StateClosed,
	}
}

func (b *Breaker) Send(ctx context.Context, msg Message) error {
	if err := b.before(ctx); err != nil {
		return err
	}
	err := b.next.Send(ctx, msg)
	b.after(ctx, err)
	return err
}

// before admits the call. In half-open only one probe is let through.
func (b *Breaker) before(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return ErrCircuitOpen
		}
		b.setState(ctx, StateHalfOpen)
		b.probing = true
		return nil
	case StateHalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) after(ctx context.Context, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
	if err == nil {
		b.failures = 0
		if b.state != StateClosed {
			b.setState(ctx, StateClosed)
		}
		return
	}
	// Bad messages say nothing about the relay.
	if errors.Is(err, ErrInvalidMessage) {
		return
	}
	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.failureThreshold {
		b.openedAt = b.now()
		b.setState(ctx, StateOpen)
	}
}

func (b *Breaker) setState(ctx context.Context, s BreakerState) {
	if b.state == s {
		return
	}
	b.log.Warn(ctx, "mail breaker state change", "from", b.state, "to", s, "failures", b.failures)
	b.state = s
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
