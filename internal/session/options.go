package session

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Observer receives every session event with the snapshot it produced.
// It is called outside the controller lock.
type Observer func(event string, st State)

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHydrateTimeout bounds the startup profile fetch. Zero waits forever.
func WithHydrateTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.hydrateTimeout = d
	}
}

// WithSingleFlight rejects a login or register issued while another is
// still in flight with domain.ErrAuthInFlight.
func WithSingleFlight(enabled bool) Option {
	return func(c *Controller) {
		c.singleFlight = enabled
	}
}

// WithObserver sets a hook called after each session event
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observer = o
	}
}

// WithTracerProvider sets where session spans are recorded. The default is
// the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Controller) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}
