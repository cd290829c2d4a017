// Package dispatch applies inbound gateway events to a cache and fans them out
// to registered handlers in registration order.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ex-revolt/internal/safe"
	"ex-revolt/pkg/revolt"
)

// Handler consumes one inbound event after it has been applied to the cache.
type Handler func(ctx context.Context, event revolt.InboundEvent) error

type config struct {
	logger        *slog.Logger
	strictOrphans bool
}

// Option mutates dispatcher configuration.
type Option func(*config)

// WithLogger injects the dispatcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithStrictOrphans makes Dispatch fail on updates for uncached entities
// instead of logging and continuing.
func WithStrictOrphans() Option {
	return func(cfg *config) {
		cfg.strictOrphans = true
	}
}

type registration struct {
	name    string
	handler Handler
}

// Dispatcher keeps a cache current and notifies handlers.
type Dispatcher struct {
	cache revolt.Cache
	cfg   config

	mu       sync.RWMutex
	handlers []registration
}

// New creates a dispatcher writing into cache. A nil cache disables caching.
func New(cache revolt.Cache, options ...Option) *Dispatcher {
	cfg := config{logger: slog.Default()}
	for _, option := range options {
		option(&cfg)
	}
	if cache == nil {
		cache = revolt.NoCache()
	}

	return &Dispatcher{cache: cache, cfg: cfg}
}

// Handle registers handler under name. Handlers run in registration order.
func (d *Dispatcher) Handle(name string, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("register handler %s: nil handler", name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("handler-%d", len(d.handlers)+1)
	}
	d.handlers = append(d.handlers, registration{name: name, handler: handler})

	return nil
}

// On registers a handler that only sees events of type T.
func On[T revolt.InboundEvent](d *Dispatcher, name string, handler func(context.Context, T) error) error {
	if handler == nil {
		return fmt.Errorf("register handler %s: nil handler", name)
	}

	return d.Handle(name, func(ctx context.Context, event revolt.InboundEvent) error {
		typed, ok := event.(T)
		if !ok {
			return nil
		}
		return handler(ctx, typed)
	})
}

// Dispatch applies event to the cache, then runs every handler.
//
// Cache failures other than orphan patches stop dispatch before any handler
// runs. Handler failures do not stop later handlers; they are joined into the
// returned error.
func (d *Dispatcher) Dispatch(ctx context.Context, event revolt.InboundEvent) error {
	if event == nil {
		return fmt.Errorf("dispatch: %w", revolt.ErrNilEvent)
	}

	if err := revolt.ApplyEvent(ctx, d.cache, event); err != nil {
		var orphan *revolt.OrphanPatchError
		if !errors.As(err, &orphan) || d.cfg.strictOrphans {
			return fmt.Errorf("dispatch %s: %w", event.Type(), err)
		}
		d.cfg.logger.Debug("dispatch ignored update for uncached entity",
			"event", event.Type(),
			"kind", orphan.Kind,
			"id", orphan.ID,
		)
	}
	if serverErr, ok := event.(revolt.ErrorEvent); ok {
		d.cfg.logger.Warn("dispatch received server error", "error", serverErr.Message)
	}

	var handlerErrs []error
	for _, registered := range d.snapshot() {
		if err := safe.Call(registered.name, func() error {
			return registered.handler(ctx, event)
		}); err != nil {
			d.cfg.logger.Error("dispatch handler failed",
				"handler", registered.name,
				"event", event.Type(),
				"error", err,
			)
			handlerErrs = append(handlerErrs, err)
		}
	}

	if len(handlerErrs) > 0 {
		return fmt.Errorf("dispatch %s: %w", event.Type(), errors.Join(handlerErrs...))
	}

	return nil
}

func (d *Dispatcher) snapshot() []registration {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]registration(nil), d.handlers...)
}
