package tool

import (
	"context"
	"time"
)

type toolOptions struct {
	strict   bool
	timeout  time.Duration
	title    string
	readOnly bool
}

// Option tunes a tool built by New.
type Option func(*toolOptions)

func newToolOptions(opts []Option) toolOptions {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithStrict closes every object of the argument schema (additionalProperties: false)
// and marks all of its properties required.
func WithStrict() Option {
	return func(o *toolOptions) { o.strict = true }
}

// WithTimeout gives the tool its own deadline in place of the registry default.
func WithTimeout(d time.Duration) Option {
	return func(o *toolOptions) { o.timeout = d }
}

// WithTitle sets the display name advertised next to the tool name.
func WithTitle(title string) Option {
	return func(o *toolOptions) { o.title = title }
}

// WithReadOnly marks a tool that never writes to the report store.
func WithReadOnly() Option {
	return func(o *toolOptions) { o.readOnly = true }
}

type registryOptions struct {
	timeout        time.Duration
	maxConcurrency int
	recoverPanics  bool
	onBefore       func(context.Context, Call)
	onAfter        func(context.Context, Call, ExecutionSummary, time.Duration)
}

// RegistryOption tunes a Registry.
type RegistryOption func(*registryOptions)

// WithDefaultTimeout is the deadline of tools that declare none.
func WithDefaultTimeout(d time.Duration) RegistryOption {
	return func(o *registryOptions) { o.timeout = d }
}

// WithMaxConcurrency bounds the calls running at once. n <= 0 removes the bound.
func WithMaxConcurrency(n int) RegistryOption {
	return func(o *registryOptions) { o.maxConcurrency = n }
}

// WithRecoverPanics turns a panicking tool into a SystemError instead of a crash.
func WithRecoverPanics(enable bool) RegistryOption {
	return func(o *registryOptions) { o.recoverPanics = enable }
}

// WithOnBeforeExecute runs fn before each admitted call.
func WithOnBeforeExecute(fn func(context.Context, Call)) RegistryOption {
	return func(o *registryOptions) { o.onBefore = fn }
}

// WithOnAfterExecute runs fn once each admitted call finishes, with its summary and
// duration. Panics recovered by the registry are reported here too.
func WithOnAfterExecute(fn func(context.Context, Call, ExecutionSummary, time.Duration)) RegistryOption {
	return func(o *registryOptions) { o.onAfter = fn }
}
