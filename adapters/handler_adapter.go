// File: adapters/handler_adapter.go
// Package adapters
//
// HandlerFunc glue and extensible middleware with chain-of-type tracing.
// Used to wrap per-connection event handling (e.g. the broadcaster
// delivering one message to one session) with cross-cutting concerns
// without touching the handler itself.

package adapters

import (
	"log/slog"

	"github.com/nullbridge/c2hat/api"
)

// HandlerFunc converts a function into an api.Handler.
type HandlerFunc func(data any) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(data any) error {
	return f(data)
}

// MiddlewareHandler wraps a base Handler and applies middleware in chain.
type MiddlewareHandler struct {
	handler    api.Handler
	middleware []func(api.Handler) api.Handler
}

// NewMiddlewareHandler creates a new MiddlewareHandler for the given base handler.
func NewMiddlewareHandler(handler api.Handler) *MiddlewareHandler {
	return &MiddlewareHandler{
		handler:    handler,
		middleware: make([]func(api.Handler) api.Handler, 0),
	}
}

// Use appends a middleware to the chain.
func (m *MiddlewareHandler) Use(mw func(api.Handler) api.Handler) *MiddlewareHandler {
	m.middleware = append(m.middleware, mw)
	return m
}

// Handle applies all middleware then calls the base handler.
func (m *MiddlewareHandler) Handle(data any) error {
	handler := m.handler
	for i := len(m.middleware) - 1; i >= 0; i-- {
		handler = m.middleware[i](handler)
	}
	return handler.Handle(data)
}

// LoggingMiddleware logs entry and errors of handler invocation at debug
// and error level respectively.
func LoggingMiddleware(logger *slog.Logger) func(api.Handler) api.Handler {
	return func(next api.Handler) api.Handler {
		return HandlerFunc(func(data any) error {
			logger.Debug("handling", "type", TypeName(data))
			err := next.Handle(data)
			if err != nil {
				logger.Error("handler failed", "type", TypeName(data), "error", err)
			}
			return err
		})
	}
}

// RecoveryMiddleware recovers from panics in handler.
func RecoveryMiddleware(logger *slog.Logger) func(api.Handler) api.Handler {
	return func(next api.Handler) api.Handler {
		return HandlerFunc(func(data any) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panic recovered", "panic", r)
					err = api.NewError(api.ErrCodeInternal, "handler panic")
				}
			}()
			return next.Handle(data)
		})
	}
}

// MetricsSink is the narrow surface MetricsMiddleware needs: a readable
// stats snapshot plus a way to record a single metric value. control.Registry
// satisfies this alongside the wider api.Control it also implements; the
// split keeps the counter write going to the metrics store rather than the
// config store the two interfaces would otherwise conflate.
type MetricsSink interface {
	Stats() map[string]any
	SetMetric(key string, value any)
}

// MetricsMiddleware increments the "handler.processed" counter on every
// invocation, successful or not, so a stuck peer's failures still show up
// in the broadcaster's fan-out stats.
func MetricsMiddleware(sink MetricsSink) func(api.Handler) api.Handler {
	return func(next api.Handler) api.Handler {
		return HandlerFunc(func(data any) error {
			stats := sink.Stats()
			count, _ := stats["handler.processed"].(int64)
			err := next.Handle(data)
			sink.SetMetric("handler.processed", count+1)
			return err
		})
	}
}

// TypeName returns a short type label for logging without reflecting on
// unexported fields.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "nil"
	default:
		return sprintfType(v)
	}
}

func sprintfType(v any) string {
	type stringer interface{ String() string }
	if s, ok := v.(stringer); ok {
		return s.String()
	}
	return "value"
}
