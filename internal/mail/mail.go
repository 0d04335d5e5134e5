// Package mail delivers outbound email. Senders report delivery failure as an
// error; nothing here swallows it.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go-yamdb/internal/logging"
)

type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// ErrInvalidMessage wraps every validation failure of a Message.
var ErrInvalidMessage = errors.New("mail: invalid message")

func (m Message) validate() error {
	if m.From == "" {
		return fmt.Errorf("%w: empty sender", ErrInvalidMessage)
	}
	if len(m.To) == 0 {
		return fmt.Errorf("%w: no recipients", ErrInvalidMessage)
	}
	for _, addr := range append([]string{m.From}, m.To...) {
		if strings.ContainsAny(addr, "\r\n") {
			return fmt.Errorf("%w: bad address", ErrInvalidMessage)
		}
	}
	if strings.ContainsAny(m.Subject, "\r\n") {
		return fmt.Errorf("%w: bad subject", ErrInvalidMessage)
	}
	return nil
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the logger instead of delivering them.
// It is the development backend. The body, which may carry a confirmation
// code, is only logged at debug level.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.log.Info(ctx, "mail", "from", msg.From, "to", msg.To, "subject", msg.Subject)
	s.log.Debug(ctx, "mail body", "to", msg.To, "body", msg.Body)
	return nil
}

// Recorder keeps sent messages in memory. Setting Fail makes every Send fail.
type Recorder struct {
	mu   sync.Mutex
	sent []Message
	Fail error
}

func (r *Recorder) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail != nil {
		return r.Fail
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *Recorder) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.sent))
	copy(out, r.sent)
	return out
}

// Last returns the most recent message, if any.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Message{}, false
	}
	return r.sent[len(r.sent)-1], true
}
