package tool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Registry owns the tool set of a server and runs calls against it with a per-call
// deadline, a bound on in-flight calls and panic recovery.
//
// Tools are listed in registration order, which is the order the agent sees them.
type Registry struct {
	mu          sync.Mutex
	order       []string
	raw         map[string]Tool // as registered
	wrapped     map[string]Tool // raw tool inside the middleware chain
	middlewares []Middleware
	closed      bool

	slots    *semaphore.Weighted // nil means unlimited
	inflight sync.WaitGroup
	opts     registryOptions
}

// NewRegistry creates a Registry. Defaults: 5s timeout, 10 concurrent calls, panic
// recovery on.
func NewRegistry(opts ...RegistryOption) *Registry {
	o := registryOptions{
		timeout:        5 * time.Second,
		maxConcurrency: 10,
		recoverPanics:  true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	r := &Registry{
		raw:     make(map[string]Tool),
		wrapped: make(map[string]Tool),
		opts:    o,
	}
	if o.maxConcurrency > 0 {
		r.slots = semaphore.NewWeighted(int64(o.maxConcurrency))
	}
	return r
}

// Register adds t under t.Name(), wrapped in the current middleware chain. A tool
// registered again under the same name replaces the old one but keeps its position.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, exists := r.raw[name]; !exists {
		r.order = append(r.order, name)
	}
	r.raw[name] = t
	r.wrapped[name] = chain(t, r.middlewares)
}

// GetAllTools returns the wrapped tools in registration order.
func (r *Registry) GetAllTools() []Tool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tool, len(r.order))
	for i, name := range r.order {
		out[i] = r.wrapped[name]
	}
	return out
}

// GetTool returns the wrapped tool registered under name.
func (r *Registry) GetTool(name string) (Tool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.wrapped[name]
	return t, ok
}

// Execute runs call and forwards the tool's output to yield.
//
// The call gets the tool's own timeout when it declares one (Metadata), the registry
// default otherwise. A non-client failure after the deadline is reported as ErrTimeout.
// The after-execution hook always runs, panics included.
func (r *Registry) Execute(ctx context.Context, call Call, yield func([]byte) error) error {
	t, err := r.admit(call.ToolName)
	if err != nil {
		return err
	}
	defer r.inflight.Done()

	if err := r.acquire(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return err
	}
	defer r.release()

	ctx, cancel := r.withDeadline(ctx, t)
	defer cancel()
	return r.run(ctx, t, call, yield)
}

// admit resolves the tool and counts the call as in flight unless the registry is closed.
func (r *Registry) admit(name string) (Tool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrShutdown
	}
	t, ok := r.wrapped[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	r.inflight.Add(1)
	return t, nil
}

func (r *Registry) acquire(ctx context.Context) error {
	// Acquire may succeed on a done context; a cancelled caller must not run the tool.
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.slots == nil {
		return nil
	}
	return r.slots.Acquire(ctx, 1)
}

func (r *Registry) release() {
	if r.slots != nil {
		r.slots.Release(1)
	}
}

func (r *Registry) withDeadline(ctx context.Context, t Tool) (context.Context, context.CancelFunc) {
	timeout := r.opts.timeout
	if md, ok := t.(Metadata); ok && md.Timeout() > 0 {
		timeout = md.Timeout()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *Registry) run(ctx context.Context, t Tool, call Call, yield func([]byte) error) (err error) {
	summary := ExecutionSummary{CallID: call.ID, ToolName: call.ToolName}
	start := time.Now()
	defer func() {
		if r.opts.recoverPanics {
			if p := recover(); p != nil {
				err = &SystemError{Err: &panicError{p: p}}
			}
		}
		summary.Error = err
		if r.opts.onAfter != nil {
			r.opts.onAfter(ctx, call, summary, time.Since(start))
		}
	}()

	if r.opts.onBefore != nil {
		r.opts.onBefore(ctx, call)
	}

	err = t.Execute(ctx, call.Args, func(chunk []byte) error {
		if yerr := yield(chunk); yerr != nil {
			return yerr
		}
		summary.ChunksDelivered++
		summary.TotalBytes += int64(len(chunk))
		return nil
	})
	if err != nil && !IsClientError(err) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

// Shutdown refuses new calls and waits for in-flight ones, or for ctx. Calling it
// again is a no-op.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// panicError carries a recovered panic value inside a SystemError.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.p)
}
