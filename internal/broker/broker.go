// Package broker is an in-process request/reply bus. Each command kind is
// bound to exactly one handler; every command sent resolves with exactly one
// Result, whatever the handler does.
package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"notes-service/internal/command"
	"notes-service/internal/domain"
)

var (
	// ErrUnroutable is returned for a command kind with no bound handler.
	ErrUnroutable = errors.New("unroutable command")
	// ErrClosed is returned for commands sent after Shutdown.
	ErrClosed = errors.New("broker closed")
)

// Handler processes one command and answers it through msg.
type Handler func(ctx context.Context, msg *Message)

// Result is the single outcome delivered for a command.
type Result struct {
	Body any
	Err  error
}

// Sender is the part of the broker the gateway depends on.
type Sender interface {
	Send(ctx context.Context, kind command.Kind, payload any) (any, error)
}

type Config struct {
	Workers int
	Logger  *logrus.Logger
}

type Broker struct {
	cfg Config

	mu       sync.RWMutex
	handlers map[command.Kind]Handler
	closed   bool

	sem chan struct{}
	wg  sync.WaitGroup
}

func New(cfg Config) *Broker {
	if cfg.Workers <= 0 {
		cfg.Workers = 16
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Broker{
		cfg:      cfg,
		handlers: make(map[command.Kind]Handler),
		sem:      make(chan struct{}, cfg.Workers),
	}
}

// Register binds handler to kind, replacing any previous binding.
func (b *Broker) Register(kind command.Kind, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[kind]; exists {
		b.cfg.Logger.WithField("kind", kind).Warn("replacing command handler")
	}
	b.handlers[kind] = handler
}

// Require fails with ErrUnroutable if any of kinds has no handler.
func (b *Broker) Require(kinds ...command.Kind) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var missing []error
	for _, kind := range kinds {
		if _, ok := b.handlers[kind]; !ok {
			missing = append(missing, fmt.Errorf("%w: %s", ErrUnroutable, kind))
		}
	}
	return errors.Join(missing...)
}

// Dispatch hands payload to the handler bound to kind and returns the
// channel its result will be delivered on. The channel always receives
// exactly one Result. The handler keeps running if ctx is cancelled.
func (b *Broker) Dispatch(ctx context.Context, kind command.Kind, payload any) <-chan Result {
	out := make(chan Result, 1)

	b.mu.RLock()
	handler, ok := b.handlers[kind]
	closed := b.closed
	if ok && !closed {
		b.wg.Add(1)
	}
	b.mu.RUnlock()

	switch {
	case closed:
		out <- Result{Err: ErrClosed}
		return out
	case !ok:
		out <- Result{Err: fmt.Errorf("%w: %s", ErrUnroutable, kind)}
		return out
	}

	msg := &Message{
		Kind:   kind,
		Body:   payload,
		out:    out,
		logger: b.cfg.Logger.WithField("kind", kind),
	}
	go b.run(context.WithoutCancel(ctx), handler, msg)
	return out
}

// Send dispatches a command and waits for its result or for ctx to end.
func (b *Broker) Send(ctx context.Context, kind command.Kind, payload any) (any, error) {
	select {
	case res := <-b.Dispatch(ctx, kind, payload):
		return res.Body, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown rejects new commands and waits for in-flight handlers.
func (b *Broker) Shutdown() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
	b.cfg.Logger.Info("broker stopped")
}

func (b *Broker) run(ctx context.Context, handler Handler, msg *Message) {
	defer b.wg.Done()

	b.sem <- struct{}{}
	defer func() { <-b.sem }()

	defer func() {
		if p := recover(); p != nil {
			msg.logger.WithField("panic", p).Error("command handler panicked")
			msg.Fail(domain.Unknown("Unknown error occurred", fmt.Errorf("handler panic: %v", p)))
			return
		}
		if !msg.answered() {
			msg.logger.Error("command handler returned without replying")
			msg.Fail(domain.Unknown("Unknown error occurred", errors.New("no reply")))
		}
	}()

	handler(ctx, msg)
}

// Request sends a command and asserts the type of its reply body.
func Request[T any](ctx context.Context, s Sender, kind command.Kind, payload any) (T, error) {
	var zero T
	body, err := s.Send(ctx, kind, payload)
	if err != nil {
		return zero, err
	}
	v, ok := body.(T)
	if !ok {
		return zero, domain.Unknown("Unknown error occurred", fmt.Errorf("%s: unexpected reply %T", kind, body))
	}
	return v, nil
}
