package tool

import (
	"context"
	"log/slog"
	"time"
)

// Middleware wraps a Tool with cross-cutting behavior. The wrapper keeps the inner
// tool's name, schema and Metadata.
type Middleware func(Tool) Tool

type executeFunc func(ctx context.Context, args []byte, yield func([]byte) error) error

// wrapped replaces Execute of an inner tool and delegates everything else.
type wrapped struct {
	inner   Tool
	execute executeFunc
	timeout time.Duration // overrides the inner timeout when > 0
}

func wrap(inner Tool, execute executeFunc) *wrapped {
	return &wrapped{inner: inner, execute: execute}
}

func (w *wrapped) Name() string               { return w.inner.Name() }
func (w *wrapped) Description() string        { return w.inner.Description() }
func (w *wrapped) Parameters() map[string]any { return w.inner.Parameters() }

func (w *wrapped) Execute(ctx context.Context, args []byte, yield func([]byte) error) error {
	return w.execute(ctx, args, yield)
}

func (w *wrapped) Timeout() time.Duration {
	if w.timeout > 0 {
		return w.timeout
	}
	if md, ok := w.inner.(Metadata); ok {
		return md.Timeout()
	}
	return 0
}

func (w *wrapped) Title() string {
	if md, ok := w.inner.(Metadata); ok {
		return md.Title()
	}
	return ""
}

func (w *wrapped) IsReadOnly() bool {
	if md, ok := w.inner.(Metadata); ok {
		return md.IsReadOnly()
	}
	return false
}

// WithLogging logs "tool start" with the raw arguments, then "tool end" with the
// duration and output size, or "tool error". Client errors log at warn level.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Tool) Tool {
		name := next.Name()
		return wrap(next, func(ctx context.Context, args []byte, yield func([]byte) error) error {
			logger.Info("tool start", slog.String("tool", name), slog.String("args", string(args)))
			start := time.Now()
			size := 0
			err := next.Execute(ctx, args, func(chunk []byte) error {
				size += len(chunk)
				return yield(chunk)
			})
			elapsed := time.Since(start)
			switch {
			case err == nil:
				logger.Info("tool end", slog.String("tool", name), slog.Duration("duration", elapsed), slog.Int("bytes", size))
			case IsClientError(err):
				logger.Warn("tool error", slog.String("tool", name), slog.Duration("duration", elapsed), slog.String("error", err.Error()))
			default:
				logger.Error("tool error", slog.String("tool", name), slog.Duration("duration", elapsed), slog.Any("error", err))
			}
			return err
		})
	}
}

// WithRecovery turns a panic inside the tool into a SystemError.
func WithRecovery() Middleware {
	return func(next Tool) Tool {
		return wrap(next, func(ctx context.Context, args []byte, yield func([]byte) error) (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = &SystemError{Err: &panicError{p: p}}
				}
			}()
			return next.Execute(ctx, args, yield)
		})
	}
}

// WithTimeoutMiddleware bounds every execution of the tool by d and reports d as the
// tool's Timeout. Combined with the registry deadline, the shorter one wins.
func WithTimeoutMiddleware(d time.Duration) Middleware {
	return func(next Tool) Tool {
		w := wrap(next, func(ctx context.Context, args []byte, yield func([]byte) error) error {
			if d <= 0 {
				return next.Execute(ctx, args, yield)
			}
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Execute(ctx, args, yield)
		})
		w.timeout = d
		return w
	}
}

// Use replaces the registry's middleware chain and rewraps every registered tool from
// its raw form. The first middleware is the outermost. Later registrations get the
// same chain.
func (r *Registry) Use(middlewares ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = middlewares
	for name, t := range r.raw {
		r.wrapped[name] = chain(t, middlewares)
	}
}

func chain(t Tool, middlewares []Middleware) Tool {
	for i := len(middlewares) - 1; i >= 0; i-- {
		t = middlewares[i](t)
	}
	return t
}

var (
	_ Tool     = (*wrapped)(nil)
	_ Metadata = (*wrapped)(nil)
)
